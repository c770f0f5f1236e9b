//go:build linux && (amd64 || arm64)

package kernel

import (
	"math"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// PosixLimits are the creation-time limits of a POSIX queue. They are
// ignored by the kernel when the queue already exists.
type PosixLimits struct {
	MaxItems     int64
	MaxItemBytes int64
}

// mqAttr mirrors struct mq_attr.
type mqAttr struct {
	Flags   int
	Maxmsg  int
	Msgsize int
	Curmsgs int
	_       [4]int
}

// Posix is an open POSIX message queue descriptor.
type Posix struct {
	name string
	fd   atomic.Int64
}

// OpenPosix creates or opens the queue called name. The name must begin
// with a slash, as mq_overview(7) requires.
func OpenPosix(name string, limits PosixLimits, mode uint32) (*Posix, error) {
	path, err := posixPath(opMqOpen, name)
	if err != nil {
		return nil, err
	}
	if limits.MaxItems > math.MaxInt32 || limits.MaxItemBytes > math.MaxInt32 {
		return nil, syscallErr(opMqOpen, unix.EINVAL)
	}
	attr := mqAttr{Maxmsg: int(limits.MaxItems), Msgsize: int(limits.MaxItemBytes)}
	fd, _, errno := unix.Syscall6(
		unix.SYS_MQ_OPEN,
		uintptr(unsafe.Pointer(path)),
		uintptr(unix.O_RDWR|unix.O_CREAT|unix.O_CLOEXEC),
		uintptr(mode),
		uintptr(unsafe.Pointer(&attr)),
		0, 0,
	)
	if errno != 0 {
		return nil, syscallErr(opMqOpen, errno)
	}
	p := &Posix{name: name}
	p.fd.Store(int64(fd))
	return p, nil
}

// UnlinkPosix removes the queue called name from the system.
func UnlinkPosix(name string) error {
	path, err := posixPath(opMqUnlink, name)
	if err != nil {
		return err
	}
	_, _, errno := unix.Syscall(unix.SYS_MQ_UNLINK, uintptr(unsafe.Pointer(path)), 0, 0)
	if errno != 0 {
		if errno == unix.EPERM {
			errno = unix.EACCES
		}
		return syscallErr(opMqUnlink, errno)
	}
	return nil
}

// The raw syscalls take the name without its leading slash.
func posixPath(op, name string) (*byte, error) {
	if name == "" || name[0] != '/' {
		return nil, syscallErr(op, unix.EINVAL)
	}
	path, err := unix.BytePtrFromString(name[1:])
	if err != nil {
		return nil, syscallErr(op, unix.EINVAL)
	}
	return path, nil
}

// Name returns the queue name the descriptor was opened with.
func (p *Posix) Name() string { return p.name }

func (p *Posix) NativeDeadline() bool { return true }

func (p *Posix) Send(payload []byte, priority int64, a Attempt) error {
	fd := p.fd.Load()
	if fd < 0 {
		return syscallErr(opMqSend, unix.EBADF)
	}
	if priority < 0 || priority > math.MaxUint32 {
		return syscallErr(opMqSend, unix.EINVAL)
	}
	var errno unix.Errno
	if ts := deadlineSpec(a); ts != nil {
		_, _, errno = unix.Syscall6(unix.SYS_MQ_TIMEDSEND, uintptr(fd),
			uintptr(unsafe.Pointer(unsafe.SliceData(payload))), uintptr(len(payload)),
			uintptr(priority), uintptr(unsafe.Pointer(ts)), 0)
	} else {
		_, _, errno = unix.Syscall6(unix.SYS_MQ_TIMEDSEND, uintptr(fd),
			uintptr(unsafe.Pointer(unsafe.SliceData(payload))), uintptr(len(payload)),
			uintptr(priority), 0, 0)
	}
	if errno != 0 {
		return syscallErr(opMqSend, errno)
	}
	return nil
}

// Receive reads the oldest message of the highest priority. POSIX queues
// have no type selection, so selector is ignored. max must be at least the
// queue's message size or the kernel rejects the call with EMSGSIZE.
func (p *Posix) Receive(max int, _ int64, a Attempt) (Message, error) {
	fd := p.fd.Load()
	if fd < 0 {
		return Message{}, syscallErr(opMqReceive, unix.EBADF)
	}
	if max < 0 {
		return Message{}, syscallErr(opMqReceive, unix.EINVAL)
	}
	buf := make([]byte, max)
	var prio uint32
	var (
		n     uintptr
		errno unix.Errno
	)
	if ts := deadlineSpec(a); ts != nil {
		n, _, errno = unix.Syscall6(unix.SYS_MQ_TIMEDRECEIVE, uintptr(fd),
			uintptr(unsafe.Pointer(unsafe.SliceData(buf))), uintptr(len(buf)),
			uintptr(unsafe.Pointer(&prio)), uintptr(unsafe.Pointer(ts)), 0)
	} else {
		n, _, errno = unix.Syscall6(unix.SYS_MQ_TIMEDRECEIVE, uintptr(fd),
			uintptr(unsafe.Pointer(unsafe.SliceData(buf))), uintptr(len(buf)),
			uintptr(unsafe.Pointer(&prio)), 0, 0)
	}
	if errno != 0 {
		return Message{}, syscallErr(opMqReceive, errno)
	}
	return Message{Payload: buf[:n], Key: int64(prio)}, nil
}

func (p *Posix) Stat() (Attr, error) {
	fd := p.fd.Load()
	if fd < 0 {
		return Attr{}, syscallErr(opMqAttr, unix.EBADF)
	}
	var attr mqAttr
	_, _, errno := unix.Syscall(unix.SYS_MQ_GETSETATTR, uintptr(fd), 0, uintptr(unsafe.Pointer(&attr)))
	if errno != 0 {
		return Attr{}, syscallErr(opMqAttr, errno)
	}
	return Attr{
		Count:        int64(attr.Curmsgs),
		MaxItems:     int64(attr.Maxmsg),
		MaxItemBytes: int64(attr.Msgsize),
	}, nil
}

// Close releases the descriptor. The kernel queue itself persists until
// UnlinkPosix. A second Close fails with EBADF without touching whatever
// descriptor number the kernel may have reused.
func (p *Posix) Close() error {
	fd := p.fd.Swap(-1)
	if fd < 0 {
		return syscallErr(opMqClose, unix.EBADF)
	}
	if err := unix.Close(int(fd)); err != nil {
		if errno, ok := err.(unix.Errno); ok {
			return syscallErr(opMqClose, errno)
		}
		return err
	}
	return nil
}

func (p *Posix) Translate(err error) error {
	return TranslatePosix(err)
}

// deadlineSpec returns the absolute CLOCK_REALTIME timeout for a, or nil to
// block without limit. A non-blocking attempt gets a deadline that has
// already passed. Deadlines before the epoch, the zero time included, are
// clamped to it and so have expired as well.
func deadlineSpec(a Attempt) *unix.Timespec {
	if !a.Block {
		return &unix.Timespec{}
	}
	if a.Forever {
		return nil
	}
	ts := unix.Timespec{Sec: a.Deadline.Unix(), Nsec: int64(a.Deadline.Nanosecond())}
	if ts.Sec < 0 {
		ts = unix.Timespec{}
	}
	return &ts
}

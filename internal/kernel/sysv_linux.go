//go:build linux && (amd64 || arm64)

package kernel

import (
	"encoding/binary"
	"math"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// mtypeSize is sizeof(long), the header of struct msgbuf.
const mtypeSize = 8

// ipcPerm mirrors struct ipc64_perm.
type ipcPerm struct {
	Key  int32
	UID  uint32
	GID  uint32
	CUID uint32
	CGID uint32
	Mode uint32
	Seq  uint16
	_    uint16
	_    [2]uint64
}

// msqidDS mirrors struct msqid64_ds.
type msqidDS struct {
	Perm   ipcPerm
	Stime  int64
	Rtime  int64
	Ctime  int64
	Cbytes uint64
	Qnum   uint64
	Qbytes uint64
	Lspid  int32
	Lrpid  int32
	_      [2]uint64
}

// SysV is an open System V message queue identifier.
type SysV struct {
	key int64
	id  atomic.Int64
}

// OpenSysV creates or opens the queue for key. Key 0 always creates a new
// private queue whose identifier is assigned by the kernel.
func OpenSysV(key int64, mode uint32) (*SysV, error) {
	k, err := sysvKey(key)
	if err != nil {
		return nil, err
	}
	id, _, errno := unix.Syscall(unix.SYS_MSGGET, uintptr(k), uintptr(unix.IPC_CREAT|int(mode&0o777)), 0)
	if errno != 0 {
		return nil, syscallErr(opMsgGet, errno)
	}
	q := &SysV{key: key}
	q.id.Store(int64(id))
	return q, nil
}

// DestroySysV removes the queue registered under key.
func DestroySysV(key int64) error {
	k, err := sysvKey(key)
	if err != nil {
		return err
	}
	if k == unix.IPC_PRIVATE {
		return syscallErr(opMsgGet, unix.EINVAL)
	}
	id, _, errno := unix.Syscall(unix.SYS_MSGGET, uintptr(k), 0, 0)
	if errno != 0 {
		return syscallErr(opMsgGet, errno)
	}
	return removeQueue(int64(id))
}

func sysvKey(key int64) (int32, error) {
	if key < 0 || key > math.MaxUint32 {
		return 0, syscallErr(opMsgGet, unix.EINVAL)
	}
	return int32(uint32(key)), nil
}

// Key returns the key the queue was opened with; zero for private queues.
func (q *SysV) Key() int64 { return q.key }

// Private reports whether the queue was created with IPC_PRIVATE.
func (q *SysV) Private() bool { return q.key == 0 }

// ID returns the kernel identifier, or -1 once closed.
func (q *SysV) ID() int64 { return q.id.Load() }

func (q *SysV) NativeDeadline() bool { return false }

// Send ignores a.Deadline and a.Forever: System V queues can only block or not.
func (q *SysV) Send(payload []byte, mtype int64, a Attempt) error {
	id := q.id.Load()
	if id < 0 {
		return syscallErr(opMsgSend, unix.EBADF)
	}
	buf := make([]byte, mtypeSize+len(payload))
	binary.NativeEndian.PutUint64(buf, uint64(mtype))
	copy(buf[mtypeSize:], payload)
	_, _, errno := unix.Syscall6(unix.SYS_MSGSND, uintptr(id),
		uintptr(unsafe.Pointer(&buf[0])), uintptr(len(payload)),
		uintptr(waitFlags(a)), 0, 0)
	if errno != 0 {
		return syscallErr(opMsgSend, errno)
	}
	return nil
}

// Receive reads a message chosen by selector: zero takes the oldest
// message, a positive value the oldest of that type, and a negative value
// the oldest of the lowest type not above its absolute value.
func (q *SysV) Receive(max int, selector int64, a Attempt) (Message, error) {
	id := q.id.Load()
	if id < 0 {
		return Message{}, syscallErr(opMsgReceive, unix.EBADF)
	}
	if max < 0 {
		return Message{}, syscallErr(opMsgReceive, unix.EINVAL)
	}
	buf := make([]byte, mtypeSize+max)
	n, _, errno := unix.Syscall6(unix.SYS_MSGRCV, uintptr(id),
		uintptr(unsafe.Pointer(&buf[0])), uintptr(max),
		uintptr(selector), uintptr(waitFlags(a)), 0)
	if errno != 0 {
		return Message{}, syscallErr(opMsgReceive, errno)
	}
	return Message{
		Payload: buf[mtypeSize : mtypeSize+int(n)],
		Key:     int64(binary.NativeEndian.Uint64(buf)),
	}, nil
}

func (q *SysV) Stat() (Attr, error) {
	ds, err := q.stat()
	if err != nil {
		return Attr{}, err
	}
	return Attr{
		Count:    int64(ds.Qnum),
		MaxBytes: int64(ds.Qbytes),
		Bytes:    int64(ds.Cbytes),
	}, nil
}

func (q *SysV) stat() (msqidDS, error) {
	var ds msqidDS
	id := q.id.Load()
	if id < 0 {
		return ds, syscallErr(opMsgStat, unix.EBADF)
	}
	_, _, errno := unix.Syscall(unix.SYS_MSGCTL, uintptr(id), unix.IPC_STAT, uintptr(unsafe.Pointer(&ds)))
	if errno != 0 {
		return ds, syscallErr(opMsgStat, errno)
	}
	return ds, nil
}

// SetMaxBytes adjusts msg_qbytes. Raising it above the system default
// needs CAP_SYS_RESOURCE.
func (q *SysV) SetMaxBytes(n int64) error {
	if n <= 0 {
		return syscallErr(opMsgSet, unix.EINVAL)
	}
	ds, err := q.stat()
	if err != nil {
		return err
	}
	ds.Qbytes = uint64(n)
	_, _, errno := unix.Syscall(unix.SYS_MSGCTL, uintptr(q.id.Load()), unix.IPC_SET, uintptr(unsafe.Pointer(&ds)))
	if errno != 0 {
		return syscallErr(opMsgSet, errno)
	}
	return nil
}

// Remove destroys the kernel queue. The handle is unusable afterwards
// whether or not removal succeeded.
func (q *SysV) Remove() error {
	id := q.id.Swap(-1)
	if id < 0 {
		return syscallErr(opMsgRemove, unix.EBADF)
	}
	return removeQueue(id)
}

// Close releases the handle. Private queues cannot be found again by any
// other process, so closing one also removes it.
func (q *SysV) Close() error {
	id := q.id.Swap(-1)
	if id < 0 {
		return syscallErr(opMsgClose, unix.EBADF)
	}
	if q.Private() {
		return removeQueue(id)
	}
	return nil
}

func (q *SysV) Translate(err error) error {
	return TranslateSysV(err)
}

func removeQueue(id int64) error {
	_, _, errno := unix.Syscall(unix.SYS_MSGCTL, uintptr(id), unix.IPC_RMID, 0)
	if errno != 0 {
		return syscallErr(opMsgRemove, errno)
	}
	return nil
}

func waitFlags(a Attempt) int {
	if a.Block {
		return 0
	}
	return unix.IPC_NOWAIT
}

// msgmaxPath exposes the per-message size limit of System V queues.
const msgmaxPath = "/proc/sys/kernel/msgmax"

// DefaultSysVMessageMax is the kernel's MSGMAX when the sysctl is unreadable.
const DefaultSysVMessageMax = 8192

// SysVMessageMax returns the largest message msgsnd accepts.
func SysVMessageMax() int64 {
	data, err := os.ReadFile(msgmaxPath)
	if err != nil {
		return DefaultSysVMessageMax
	}
	n, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil || n <= 0 {
		return DefaultSysVMessageMax
	}
	return n
}

//go:build !linux || !(amd64 || arm64)

package kernel

import "golang.org/x/sys/unix"

// PosixLimits are the creation-time limits of a POSIX queue.
type PosixLimits struct {
	MaxItems     int64
	MaxItemBytes int64
}

// Posix is unavailable on this platform; every call fails with ENOSYS.
type Posix struct {
	name string
}

func OpenPosix(name string, limits PosixLimits, mode uint32) (*Posix, error) {
	return nil, syscallErr(opMqOpen, unix.ENOSYS)
}

func UnlinkPosix(name string) error {
	return syscallErr(opMqUnlink, unix.ENOSYS)
}

func (p *Posix) Name() string         { return p.name }
func (p *Posix) NativeDeadline() bool { return true }

func (p *Posix) Send([]byte, int64, Attempt) error {
	return syscallErr(opMqSend, unix.ENOSYS)
}

func (p *Posix) Receive(int, int64, Attempt) (Message, error) {
	return Message{}, syscallErr(opMqReceive, unix.ENOSYS)
}

func (p *Posix) Stat() (Attr, error)       { return Attr{}, syscallErr(opMqAttr, unix.ENOSYS) }
func (p *Posix) Close() error              { return syscallErr(opMqClose, unix.ENOSYS) }
func (p *Posix) Translate(err error) error { return TranslatePosix(err) }

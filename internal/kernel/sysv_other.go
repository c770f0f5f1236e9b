//go:build !linux || !(amd64 || arm64)

package kernel

import "golang.org/x/sys/unix"

// DefaultSysVMessageMax is the kernel's MSGMAX on Linux.
const DefaultSysVMessageMax = 8192

func SysVMessageMax() int64 { return DefaultSysVMessageMax }

// SysV is unavailable on this platform; every call fails with ENOSYS.
type SysV struct {
	key int64
}

func OpenSysV(key int64, mode uint32) (*SysV, error) {
	return nil, syscallErr(opMsgGet, unix.ENOSYS)
}

func DestroySysV(key int64) error {
	return syscallErr(opMsgGet, unix.ENOSYS)
}

func (q *SysV) Key() int64           { return q.key }
func (q *SysV) Private() bool        { return q.key == 0 }
func (q *SysV) ID() int64            { return -1 }
func (q *SysV) NativeDeadline() bool { return false }

func (q *SysV) Send([]byte, int64, Attempt) error {
	return syscallErr(opMsgSend, unix.ENOSYS)
}

func (q *SysV) Receive(int, int64, Attempt) (Message, error) {
	return Message{}, syscallErr(opMsgReceive, unix.ENOSYS)
}

func (q *SysV) Stat() (Attr, error)       { return Attr{}, syscallErr(opMsgStat, unix.ENOSYS) }
func (q *SysV) SetMaxBytes(int64) error   { return syscallErr(opMsgSet, unix.ENOSYS) }
func (q *SysV) Remove() error             { return syscallErr(opMsgRemove, unix.ENOSYS) }
func (q *SysV) Close() error              { return syscallErr(opMsgClose, unix.ENOSYS) }
func (q *SysV) Translate(err error) error { return TranslateSysV(err) }

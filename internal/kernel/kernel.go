package kernel

import (
	"errors"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"ipcqueue/internal/ipcerr"
)

// Attempt describes how a single send or receive call may wait.
//
// Block=false never sleeps in the kernel. Block=true with Forever set waits
// until the call can be satisfied; otherwise it waits until Deadline, and a
// zero or past Deadline has already expired. Deadline is only honoured by
// primitives whose NativeDeadline reports true.
type Attempt struct {
	Block    bool
	Forever  bool
	Deadline time.Time
}

// Message is a payload together with its ordering key: the priority for
// POSIX queues, the message type for System V queues.
type Message struct {
	Payload []byte
	Key     int64
}

// Attr is a snapshot of kernel queue attributes. Count is advisory: other
// processes may change it before the caller acts on it.
type Attr struct {
	Count        int64
	MaxItems     int64
	MaxItemBytes int64
	MaxBytes     int64
	Bytes        int64
}

// Primitive is one open kernel queue object. Implementations add no policy:
// each method is a single atomic kernel call and failures are returned as
// untranslated *os.SyscallError values.
type Primitive interface {
	// NativeDeadline reports whether Send and Receive accept Attempt.Deadline.
	NativeDeadline() bool
	Send(payload []byte, key int64, a Attempt) error
	Receive(max int, selector int64, a Attempt) (Message, error)
	Stat() (Attr, error)
	Close() error
	// Translate maps a raw failure from this primitive into an *ipcerr.Error.
	Translate(err error) error
}

// Unavailable reports whether err is the "resource temporarily unavailable"
// result of a non-blocking attempt.
func Unavailable(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.ENOMSG)
}

func syscallErr(op string, errno unix.Errno) error {
	return os.NewSyscallError(op, errno)
}

func translate(err error, tables map[string]ipcerr.Table) error {
	if err == nil {
		return nil
	}
	var se *os.SyscallError
	if errors.As(err, &se) {
		return ipcerr.Translate(se.Syscall, se.Err, tables[se.Syscall])
	}
	return ipcerr.Translate("", err, nil)
}

// TranslatePosix maps a raw POSIX queue failure into an *ipcerr.Error.
func TranslatePosix(err error) error {
	return translate(err, posixTables)
}

// TranslateSysV maps a raw System V queue failure into an *ipcerr.Error.
func TranslateSysV(err error) error {
	return translate(err, sysvTables)
}

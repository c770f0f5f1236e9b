package ipcerr

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sys/unix"
)

// Kind is the backend-independent classification of a queue failure.
//
// Kind values implement error so they can be used directly as errors.Is
// targets: errors.Is(err, ipcerr.Full).
type Kind int

const (
	Generic Kind = iota
	InvalidValue
	NoPermissions
	NoSystemResources
	InvalidDescriptor
	Interrupted
	MessageTooLarge
	Timeout
	DoesNotExist
	Full
	Empty
)

var kindNames = [...]string{
	Generic:           "generic",
	InvalidValue:      "invalid_value",
	NoPermissions:     "no_permissions",
	NoSystemResources: "no_system_resources",
	InvalidDescriptor: "invalid_descriptor",
	Interrupted:       "interrupted",
	MessageTooLarge:   "message_too_large",
	Timeout:           "timeout",
	DoesNotExist:      "does_not_exist",
	Full:              "full",
	Empty:             "empty",
}

var kindMessages = [...]string{
	Generic:           "queue error",
	InvalidValue:      "invalid value",
	NoPermissions:     "no permissions",
	NoSystemResources: "no system resources",
	InvalidDescriptor: "invalid queue descriptor",
	Interrupted:       "interrupted by signal",
	MessageTooLarge:   "message too large",
	Timeout:           "timed out",
	DoesNotExist:      "queue does not exist",
	Full:              "queue full",
	Empty:             "queue empty",
}

// String returns the snake_case name of the kind.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

func (k Kind) Error() string {
	if k < 0 || int(k) >= len(kindMessages) {
		return kindMessages[Generic]
	}
	return kindMessages[k]
}

// ParseKind maps a snake_case name back to its Kind.
func ParseKind(name string) (Kind, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for k, n := range kindNames {
		if n == name {
			return Kind(k), true
		}
	}
	return Generic, false
}

// Error is the failure returned by every queue operation.
type Error struct {
	// Op is the operation that failed, either a syscall name such as
	// "mq_timedreceive" or a facade operation such as "put".
	Op string
	// Kind classifies the failure.
	Kind Kind
	// Outcome is set on Timeout errors to Full or Empty so deadline expiry
	// also reads as the would-block condition of the operation.
	Outcome Kind
	// Errno is the raw OS failure code; zero when the failure was
	// synthesized in-process.
	Errno unix.Errno
	// Err is an underlying non-OS cause, such as a serializer failure.
	Err error
}

// New returns an in-process error with no OS failure code.
func New(op string, kind Kind) *Error {
	return &Error{Op: op, Kind: kind}
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.Error())
	switch {
	case e.Errno != 0:
		b.WriteString(" (")
		b.WriteString(e.Errno.Error())
		b.WriteString(")")
	case e.Err != nil:
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// ErrorKind returns the snake_case classification of the failure.
func (e *Error) ErrorKind() string {
	return e.Kind.String()
}

// Is reports whether target is the error's Kind or, for timeouts, its
// would-block outcome.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	if !ok {
		return false
	}
	if k == e.Kind {
		return true
	}
	return e.Kind == Timeout && e.Outcome != Generic && k == e.Outcome
}

// Unwrap exposes the raw errno so callers can still match unix.EINTR and
// friends, or the underlying cause when there is no errno.
func (e *Error) Unwrap() error {
	if e.Errno != 0 {
		return e.Errno
	}
	return e.Err
}

// KindOf returns the Kind carried by err, or Generic when err is not a
// queue error. A nil error yields Generic and false.
func KindOf(err error) (Kind, bool) {
	if err == nil {
		return Generic, false
	}
	var qe *Error
	if errors.As(err, &qe) {
		return qe.Kind, true
	}
	var k Kind
	if errors.As(err, &k) {
		return k, true
	}
	return Generic, false
}

// WouldBlock reports whether err is the routine full/empty condition,
// including deadline expiry.
func WouldBlock(err error) bool {
	return errors.Is(err, Full) || errors.Is(err, Empty)
}

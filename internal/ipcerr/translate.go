package ipcerr

import (
	"errors"

	"golang.org/x/sys/unix"
)

// Table maps raw OS failure codes of one operation to domain kinds.
type Table map[unix.Errno]Kind

// Translate converts a raw failure into an *Error using table. Codes that
// are not in the table fall back to Generic with the errno preserved.
// Errors that are already *Error pass through unchanged; non-errno errors
// become Generic and keep the original error as the cause.
func Translate(op string, err error, table Table) error {
	if err == nil {
		return nil
	}
	var qe *Error
	if errors.As(err, &qe) {
		return qe
	}
	var errno unix.Errno
	if !errors.As(err, &errno) {
		return &Error{Op: op, Kind: Generic, Err: err}
	}
	kind, ok := table[errno]
	if !ok {
		kind = Generic
	}
	return &Error{Op: op, Kind: kind, Errno: errno}
}

// Merge returns a new table holding base overlaid with each override in
// order.
func Merge(base Table, overrides ...Table) Table {
	out := make(Table, len(base))
	for code, kind := range base {
		out[code] = kind
	}
	for _, o := range overrides {
		for code, kind := range o {
			out[code] = kind
		}
	}
	return out
}

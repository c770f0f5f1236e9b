package queue

import (
	"errors"

	"ipcqueue/internal/ipcerr"
)

// ErrorClassifier allows errors to declare their classification for metrics
// and CLI exit reporting. *ipcerr.Error implements it.
type ErrorClassifier interface {
	// ErrorKind returns a snake_case classification such as "full" or
	// "timeout".
	ErrorKind() string
}

// Result maps the outcome of an operation to a short label: "ok" for nil,
// the ErrorKind of the first classifier in the chain, or "generic".
func Result(err error) string {
	if err == nil {
		return "ok"
	}
	var classifier ErrorClassifier
	if errors.As(err, &classifier) {
		return classifier.ErrorKind()
	}
	return ipcerr.Generic.String()
}

// IsTimeout reports whether err is a deadline expiry.
func IsTimeout(err error) bool {
	k, ok := ipcerr.KindOf(err)
	return ok && k == ipcerr.Timeout
}

// WouldBlock reports whether err means the queue was full or empty, either
// immediately or when a deadline ran out.
func WouldBlock(err error) bool {
	return ipcerr.WouldBlock(err)
}

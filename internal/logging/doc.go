// Package logging assembles structured slog loggers for the queue facade and
// the ipcq command.
//
// It owns the console and JSON handlers, level parsing, and the standard
// field keys (component, backend, queue, op, kind, errno) so every log line
// has the same shape. NewNop gives library code a logger that cannot fail
// when the caller supplies none.
package logging

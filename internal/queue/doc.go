// Package queue exposes kernel message queues as typed, codec-backed queues.
//
// Two backends share the Queue contract. PosixQueue orders messages by
// priority and waits with the kernel's own deadline. SysVQueue selects
// messages by type; the kernel offers it only blocking and non-blocking
// calls, so deadline-bound waits are built out of non-blocking attempts
// spaced by Options.PollInterval.
//
// Every failure is an *ipcerr.Error. Full, Empty and Timeout are ordinary
// outcomes rather than faults: match them with errors.Is(err, ipcerr.Full)
// and friends. A Timeout also matches the outcome it timed out waiting on.
//
// Interrupted is only reported by SysVQueue. Go installs its signal handlers
// with SA_RESTART and the kernel restarts POSIX queue calls after them, so a
// blocked PosixQueue call keeps waiting through signals.
//
// Attributes and Size are advisory snapshots. Other processes may change
// the queue before the caller acts on them.
package queue

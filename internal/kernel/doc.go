// Package kernel wraps the two kernel message queue families as thin
// primitives: POSIX queues (mq_overview(7)), which order by priority and
// support absolute timeouts natively, and System V queues (svipc(7)), which
// select by message type and can only block or not block.
//
// Each Primitive method is one kernel call. Failures come back as
// *os.SyscallError carrying the raw errno; Primitive.Translate maps them
// into the ipcerr taxonomy through per-operation tables. Handles track
// their own closed state so a closed descriptor is never passed to the
// kernel, where its number may already belong to another file.
package kernel

// Package ipcerr defines the closed error taxonomy shared by both message
// queue backends.
//
// Raw OS failure codes are translated through per-operation Tables owned by
// the kernel package. Unmapped codes become Generic and keep the errno for
// diagnostics; nothing is dropped on the way up. Full and Empty are never
// produced by a table: the blocking coordinator synthesizes them from the
// "resource temporarily unavailable" condition of a non-blocking attempt.
package ipcerr

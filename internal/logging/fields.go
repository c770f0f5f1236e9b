package logging

const (
	// FieldComponent names the subsystem that emitted the record.
	FieldComponent = "component"
	// FieldBackend is "posix" or "sysv".
	FieldBackend = "backend"
	// FieldQueue is the POSIX queue name or the System V key.
	FieldQueue = "queue"
	// FieldOp is the queue operation, such as put or get.
	FieldOp = "op"
	// FieldKind is the snake_case error kind of a failed operation.
	FieldKind = "kind"
	// FieldErrno is the raw errno name behind a failure.
	FieldErrno = "errno"
	// FieldError carries the error message.
	FieldError = "error"
)

package queue

import (
	"errors"
	"time"

	"golang.org/x/sys/unix"

	"ipcqueue/internal/ipcerr"
	"ipcqueue/internal/kernel"
)

const (
	// DefaultPollInterval is the sleep between non-blocking attempts when a
	// deadline-bound wait is emulated. It bounds how far past its deadline
	// such a wait can run.
	DefaultPollInterval = 10 * time.Millisecond
	// MinPollInterval is the floor applied to configured poll intervals.
	MinPollInterval = time.Millisecond
)

type waitKind int

const (
	waitNonBlocking waitKind = iota
	waitForever
	waitUntil
)

// WaitMode selects how long Put and Get may wait for the queue to accept
// or deliver a message. The zero value is NonBlocking.
type WaitMode struct {
	kind     waitKind
	deadline time.Time
}

// NonBlocking makes exactly one attempt and reports Full or Empty when the
// queue cannot satisfy it immediately.
func NonBlocking() WaitMode { return WaitMode{kind: waitNonBlocking} }

// BlockForever waits until the call succeeds or, on System V queues, a signal
// interrupts it.
func BlockForever() WaitMode { return WaitMode{kind: waitForever} }

// BlockUntil waits until deadline and then reports Timeout.
func BlockUntil(deadline time.Time) WaitMode {
	return WaitMode{kind: waitUntil, deadline: deadline}
}

// BlockFor waits at most d from now. The deadline keeps the monotonic clock
// reading of time.Now so wall clock steps do not stretch the wait.
func BlockFor(d time.Duration) WaitMode {
	return BlockUntil(time.Now().Add(d))
}

// Deadline returns the deadline of a BlockUntil mode.
func (w WaitMode) Deadline() (time.Time, bool) {
	if w.kind != waitUntil {
		return time.Time{}, false
	}
	return w.deadline, true
}

func (w WaitMode) String() string {
	switch w.kind {
	case waitForever:
		return "block"
	case waitUntil:
		return "deadline"
	default:
		return "nowait"
	}
}

// waitResult is what the coordinator reports about one operation.
type waitResult struct {
	attempts int
	waited   time.Duration
}

// coordinator realizes a WaitMode on top of one primitive, using the
// kernel's own deadline when the primitive has one and polling otherwise.
type coordinator struct {
	prim         kernel.Primitive
	pollInterval time.Duration
	now          func() time.Time
	sleep        func(time.Duration)
}

func newCoordinator(prim kernel.Primitive, pollInterval time.Duration) coordinator {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	if pollInterval < MinPollInterval {
		pollInterval = MinPollInterval
	}
	return coordinator{
		prim:         prim,
		pollInterval: pollInterval,
		now:          time.Now,
		sleep:        time.Sleep,
	}
}

// run performs call under mode. outcome is the would-block kind of the
// operation: Full for sends, Empty for receives.
func (c coordinator) run(op string, outcome ipcerr.Kind, mode WaitMode, call func(kernel.Attempt) error) (waitResult, error) {
	start := c.now()
	var (
		res waitResult
		err error
	)
	if c.prim.NativeDeadline() {
		res.attempts = 1
		err = c.native(op, outcome, mode, call)
	} else {
		res.attempts, err = c.emulated(op, outcome, mode, call)
	}
	res.waited = c.now().Sub(start)
	return res, err
}

func (c coordinator) native(op string, outcome ipcerr.Kind, mode WaitMode, call func(kernel.Attempt) error) error {
	a := kernel.Attempt{Block: true}
	switch mode.kind {
	case waitNonBlocking:
		a.Deadline = c.now()
	case waitUntil:
		a.Deadline = mode.deadline
	default:
		a.Forever = true
	}
	err := c.prim.Translate(call(a))
	if err == nil {
		return nil
	}
	var qe *ipcerr.Error
	if errors.As(err, &qe) && qe.Kind == ipcerr.Timeout {
		if mode.kind == waitNonBlocking {
			return &ipcerr.Error{Op: op, Kind: outcome, Errno: qe.Errno}
		}
		return &ipcerr.Error{Op: op, Kind: ipcerr.Timeout, Outcome: outcome, Errno: qe.Errno}
	}
	return err
}

// emulated builds the wait out of non-blocking attempts. Only the
// unavailable condition is retried; every other failure returns at once.
// Sleeps are timer based and are not cut short by signal delivery, so a
// signal arriving during a deadline-bound wait is absorbed and polling
// continues until the deadline.
func (c coordinator) emulated(op string, outcome ipcerr.Kind, mode WaitMode, call func(kernel.Attempt) error) (int, error) {
	switch mode.kind {
	case waitNonBlocking:
		err := call(kernel.Attempt{})
		if kernel.Unavailable(err) {
			return 1, &ipcerr.Error{Op: op, Kind: outcome, Errno: errnoOf(err)}
		}
		return 1, c.prim.Translate(err)
	case waitForever:
		return 1, c.prim.Translate(call(kernel.Attempt{Block: true, Forever: true}))
	}

	for attempts := 1; ; attempts++ {
		err := call(kernel.Attempt{})
		if !kernel.Unavailable(err) {
			return attempts, c.prim.Translate(err)
		}
		remaining := mode.deadline.Sub(c.now())
		if remaining <= 0 {
			return attempts, &ipcerr.Error{Op: op, Kind: ipcerr.Timeout, Outcome: outcome}
		}
		c.sleep(min(c.pollInterval, remaining))
	}
}

func errnoOf(err error) unix.Errno {
	var errno unix.Errno
	if errors.As(err, &errno) {
		return errno
	}
	return 0
}

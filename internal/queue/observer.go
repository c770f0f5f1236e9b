package queue

import "time"

// Event describes one completed Put or Get.
type Event struct {
	Backend string
	Op      string
	Mode    WaitMode
	// Err is nil on success.
	Err    error
	Waited time.Duration
	// Attempts counts kernel calls; above one only for emulated waits.
	Attempts int
}

// Observer receives an Event after every Put and Get. It is called on the
// goroutine that made the call and must not block.
type Observer interface {
	ObserveOp(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) ObserveOp(e Event) { f(e) }

type nopObserver struct{}

func (nopObserver) ObserveOp(Event) {}

package queue

import (
	"ipcqueue/internal/kernel"
	"ipcqueue/internal/logging"
)

const (
	// DefaultMaxItems matches the usual /proc/sys/fs/mqueue/msg_default.
	DefaultMaxItems = 10
	// DefaultMaxItemBytes is the default POSIX message size limit.
	DefaultMaxItemBytes = 1024
)

// PosixLimits are applied when the queue is created. Opening an existing
// queue keeps its original limits; Attributes reports the effective ones.
type PosixLimits struct {
	MaxItems     int64
	MaxItemBytes int64
}

// PosixQueue is a priority-ordered queue backed by a POSIX message queue.
// Higher priorities are delivered first and messages of equal priority in
// the order they were sent.
type PosixQueue struct {
	base
	name string
}

var _ Queue = (*PosixQueue)(nil)

// OpenPosix creates or opens the POSIX queue called name, which must start
// with a slash. Zero limits select DefaultMaxItems and DefaultMaxItemBytes.
func OpenPosix(name string, limits PosixLimits, opts Options) (*PosixQueue, error) {
	opts = opts.withDefaults()
	if limits.MaxItems == 0 {
		limits.MaxItems = DefaultMaxItems
	}
	if limits.MaxItemBytes == 0 {
		limits.MaxItemBytes = DefaultMaxItemBytes
	}

	prim, err := kernel.OpenPosix(name, kernel.PosixLimits{
		MaxItems:     limits.MaxItems,
		MaxItemBytes: limits.MaxItemBytes,
	}, opts.Mode)
	if err != nil {
		return nil, kernel.TranslatePosix(err)
	}
	attr, err := prim.Stat()
	if err != nil {
		_ = prim.Close()
		return nil, prim.Translate(err)
	}

	q := &PosixQueue{
		base: newBase(BackendPosix, name, prim, attr.MaxItemBytes, opts),
		name: name,
	}
	q.logger.Debug("queue opened",
		logging.Int64("max_items", attr.MaxItems),
		logging.Int64("max_item_bytes", attr.MaxItemBytes),
		logging.String("codec", opts.Codec.Name()),
	)
	return q, nil
}

// UnlinkPosix removes the POSIX queue called name. Processes holding it
// open keep working until they close it.
func UnlinkPosix(name string) error {
	return kernel.TranslatePosix(kernel.UnlinkPosix(name))
}

// Name returns the queue name.
func (q *PosixQueue) Name() string { return q.name }

// Put sends v with the given priority. Priorities range from 0 up to the
// system's MQ_PRIO_MAX-1.
func (q *PosixQueue) Put(v any, mode WaitMode, priority int64) error {
	return q.put(v, mode, priority)
}

// Get receives the oldest message of the highest priority. selector is
// ignored: POSIX queues have no type selection.
func (q *PosixQueue) Get(v any, mode WaitMode, _ int64) error {
	return q.get(v, mode, 0)
}

func (q *PosixQueue) Attributes() (Attributes, error) {
	attr, err := q.stat()
	if err != nil {
		return Attributes{}, err
	}
	return Attributes{
		Count:        attr.Count,
		MaxItems:     attr.MaxItems,
		MaxItemBytes: attr.MaxItemBytes,
	}, nil
}

func (q *PosixQueue) Size() (int64, error) {
	attr, err := q.Attributes()
	return attr.Count, err
}

// Close releases the descriptor. The queue itself survives until Destroy
// or UnlinkPosix. Closing twice fails with InvalidDescriptor.
func (q *PosixQueue) Close() error {
	if err := q.prim.Close(); err != nil {
		return q.prim.Translate(err)
	}
	q.logger.Debug("queue closed")
	return nil
}

// Destroy unlinks the queue's name. It does not close the descriptor.
func (q *PosixQueue) Destroy() error {
	if err := UnlinkPosix(q.name); err != nil {
		return err
	}
	q.logger.Debug("queue unlinked")
	return nil
}

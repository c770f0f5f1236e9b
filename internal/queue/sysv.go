package queue

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"ipcqueue/internal/kernel"
	"ipcqueue/internal/logging"
)

// DefaultSysVType is the message type callers use when they have no
// reason to pick another. Types must be positive.
const DefaultSysVType = 1

// SysVQueue is a type-selected queue backed by a System V message queue.
// Messages are delivered in the order they were sent, filtered by the
// selector passed to Get.
type SysVQueue struct {
	base
	prim *kernel.SysV
}

var _ Queue = (*SysVQueue)(nil)

// OpenSysV creates or opens the System V queue registered under key. Key 0
// creates a private queue that only this handle can reach and that is
// removed by Close. A positive maxBytes sets the queue's total byte limit
// when it differs from the current one.
//
// When opts.LockDir is set, creation and sizing of keyed queues are
// serialized across processes with a lock file in that directory.
func OpenSysV(key int64, maxBytes int64, opts Options) (*SysVQueue, error) {
	opts = opts.withDefaults()

	if key != 0 && opts.LockDir != "" {
		lock, err := lockSysV(opts.LockDir, key)
		if err != nil {
			return nil, err
		}
		defer func() { _ = lock.Unlock() }()
	}

	prim, err := kernel.OpenSysV(key, opts.Mode)
	if err != nil {
		return nil, kernel.TranslateSysV(err)
	}
	attr, err := prim.Stat()
	if err == nil && maxBytes > 0 && attr.MaxBytes != maxBytes {
		if err = prim.SetMaxBytes(maxBytes); err == nil {
			attr.MaxBytes = maxBytes
		}
	}
	if err != nil {
		if key == 0 {
			_ = prim.Close()
		}
		return nil, prim.Translate(err)
	}

	label := fmt.Sprintf("0x%08x", key)
	if key == 0 {
		label = fmt.Sprintf("private:%d", prim.ID())
	}
	maxItem := min(attr.MaxBytes, kernel.SysVMessageMax())
	q := &SysVQueue{
		base: newBase(BackendSysV, label, prim, maxItem, opts),
		prim: prim,
	}
	q.logger.Debug("queue opened",
		logging.Int64("id", prim.ID()),
		logging.Int64("max_bytes", attr.MaxBytes),
		logging.Int64("max_item_bytes", maxItem),
		logging.String("codec", opts.Codec.Name()),
	)
	return q, nil
}

func lockSysV(dir string, key int64) (*flock.Flock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}
	lock := flock.New(filepath.Join(dir, fmt.Sprintf("sysv-%08x.lock", key)))
	if err := lock.Lock(); err != nil {
		return nil, fmt.Errorf("lock sysv key 0x%08x: %w", key, err)
	}
	return lock, nil
}

// DestroySysV removes the keyed System V queue without opening it.
func DestroySysV(key int64) error {
	return kernel.TranslateSysV(kernel.DestroySysV(key))
}

// Key returns the key the queue was opened with; zero for private queues.
func (q *SysVQueue) Key() int64 { return q.prim.Key() }

// Put sends v with message type mtype, which must be positive.
func (q *SysVQueue) Put(v any, mode WaitMode, mtype int64) error {
	return q.put(v, mode, mtype)
}

// Get receives the first message matching selector.
func (q *SysVQueue) Get(v any, mode WaitMode, selector int64) error {
	return q.get(v, mode, selector)
}

func (q *SysVQueue) Attributes() (Attributes, error) {
	attr, err := q.stat()
	if err != nil {
		return Attributes{}, err
	}
	return Attributes{
		Count:        attr.Count,
		MaxItemBytes: q.maxItem,
		MaxBytes:     attr.MaxBytes,
		Bytes:        attr.Bytes,
	}, nil
}

func (q *SysVQueue) Size() (int64, error) {
	attr, err := q.Attributes()
	return attr.Count, err
}

// Close releases the handle. A private queue is removed as well, since no
// other handle can reach it. Closing twice fails with InvalidDescriptor.
func (q *SysVQueue) Close() error {
	private := q.prim.Private()
	if err := q.prim.Close(); err != nil {
		err = q.prim.Translate(err)
		if private {
			q.logger.Warn("private queue removal failed", logging.Error(err))
		}
		return err
	}
	q.logger.Debug("queue closed", logging.Bool("removed", private))
	return nil
}

// Destroy removes the kernel queue. Every handle to it, in any process,
// fails with InvalidDescriptor or DoesNotExist afterwards.
func (q *SysVQueue) Destroy() error {
	if err := q.prim.Remove(); err != nil {
		return q.prim.Translate(err)
	}
	q.logger.Debug("queue removed")
	return nil
}

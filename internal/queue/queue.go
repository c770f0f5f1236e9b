package queue

import (
	"log/slog"
	"time"

	"ipcqueue/internal/codec"
	"ipcqueue/internal/ipcerr"
	"ipcqueue/internal/kernel"
	"ipcqueue/internal/logging"
)

const (
	BackendPosix = "posix"
	BackendSysV  = "sysv"

	opPut       = "put"
	opGet       = "get"
	opMarshal   = "marshal"
	opUnmarshal = "unmarshal"
)

// DefaultMode is the permission mode used when creating kernel queues.
const DefaultMode = 0o644

// Queue is the contract shared by both backends.
//
// key is the priority on POSIX queues and the message type on System V
// queues. selector only affects System V queues: zero takes the oldest
// message, a positive value the oldest of that type, and a negative value
// the oldest of the lowest type not above its absolute value.
type Queue interface {
	Put(v any, mode WaitMode, key int64) error
	Get(v any, mode WaitMode, selector int64) error
	Attributes() (Attributes, error)
	Size() (int64, error)
	Close() error
	Destroy() error
}

// Attributes is an advisory snapshot of a queue. Count may be stale by the
// time the caller acts on it.
type Attributes struct {
	Count        int64 `json:"count"`
	MaxItems     int64 `json:"max_items,omitempty"`
	MaxItemBytes int64 `json:"max_item_bytes"`
	MaxBytes     int64 `json:"max_bytes,omitempty"`
	Bytes        int64 `json:"bytes,omitempty"`
}

// Options carries the collaborators shared by both backends. Zero values
// select defaults.
type Options struct {
	// Codec serializes items. Defaults to codec.Gob.
	Codec codec.Serializer
	// Mode is the permission mode for newly created queues.
	Mode uint32
	// PollInterval is the granularity of emulated deadline waits.
	PollInterval time.Duration
	// LockDir, when set, holds the lock files that serialize System V
	// queue creation and sizing across processes.
	LockDir  string
	Logger   *slog.Logger
	Observer Observer
}

func (o Options) withDefaults() Options {
	if o.Codec == nil {
		o.Codec = codec.Gob{}
	}
	if o.Mode == 0 {
		o.Mode = DefaultMode
	}
	if o.Observer == nil {
		o.Observer = nopObserver{}
	}
	return o
}

// base holds the behaviour common to both facades.
type base struct {
	backend string
	label   string
	prim    kernel.Primitive
	coord   coordinator
	codec   codec.Serializer
	maxItem int64
	logger  *slog.Logger
	obs     Observer
}

func newBase(backend, label string, prim kernel.Primitive, maxItem int64, opts Options) base {
	logger := logging.NewComponentLogger(opts.Logger, "queue").With(
		logging.String(logging.FieldBackend, backend),
		logging.String(logging.FieldQueue, label),
	)
	return base{
		backend: backend,
		label:   label,
		prim:    prim,
		coord:   newCoordinator(prim, opts.PollInterval),
		codec:   opts.Codec,
		maxItem: maxItem,
		logger:  logger,
		obs:     opts.Observer,
	}
}

// Codec returns the serializer items are encoded with.
func (b *base) Codec() codec.Serializer { return b.codec }

func (b *base) put(v any, mode WaitMode, key int64) error {
	payload, err := b.codec.Marshal(v)
	if err != nil {
		return &ipcerr.Error{Op: opMarshal, Kind: ipcerr.InvalidValue, Err: err}
	}
	if int64(len(payload)) > b.maxItem {
		err := ipcerr.New(opPut, ipcerr.MessageTooLarge)
		b.observe(opPut, mode, waitResult{}, err)
		return err
	}
	res, err := b.coord.run(opPut, ipcerr.Full, mode, func(a kernel.Attempt) error {
		return b.prim.Send(payload, key, a)
	})
	b.observe(opPut, mode, res, err)
	return err
}

// get removes one message and decodes it into v. A message that fails to
// decode has still been removed from the queue.
func (b *base) get(v any, mode WaitMode, selector int64) error {
	var msg kernel.Message
	res, err := b.coord.run(opGet, ipcerr.Empty, mode, func(a kernel.Attempt) error {
		var rerr error
		msg, rerr = b.prim.Receive(int(b.maxItem), selector, a)
		return rerr
	})
	b.observe(opGet, mode, res, err)
	if err != nil {
		return err
	}
	if err := b.codec.Unmarshal(msg.Payload, v); err != nil {
		return &ipcerr.Error{Op: opUnmarshal, Kind: ipcerr.InvalidValue, Err: err}
	}
	return nil
}

func (b *base) stat() (kernel.Attr, error) {
	attr, err := b.prim.Stat()
	if err != nil {
		return kernel.Attr{}, b.prim.Translate(err)
	}
	return attr, nil
}

func (b *base) observe(op string, mode WaitMode, res waitResult, err error) {
	if res.attempts > 1 {
		b.logger.Debug("emulated wait finished",
			logging.String(logging.FieldOp, op),
			logging.Int("attempts", res.attempts),
			logging.Duration("waited", res.waited),
			logging.Bool("ok", err == nil),
		)
	}
	b.obs.ObserveOp(Event{
		Backend:  b.backend,
		Op:       op,
		Mode:     mode,
		Err:      err,
		Waited:   res.waited,
		Attempts: res.attempts,
	})
}

package queue_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"ipcqueue/internal/codec"
	"ipcqueue/internal/ipcerr"
	"ipcqueue/internal/queue"
	"ipcqueue/internal/testsupport"
)

type job struct {
	ID    int
	Title string
}

func rawOptions() queue.Options {
	return queue.Options{Codec: codec.Raw{}}
}

func testLimits() queue.PosixLimits {
	return queue.PosixLimits{MaxItems: 5, MaxItemBytes: 2048}
}

func mustKind(t *testing.T, err error, want ipcerr.Kind) {
	t.Helper()
	got, ok := ipcerr.KindOf(err)
	if !ok || got != want {
		t.Fatalf("kind = %v (err %v), want %v", got, err, want)
	}
}

func TestPosixRoundTripGob(t *testing.T) {
	q := testsupport.OpenPosix(t, testLimits(), queue.Options{})

	if err := q.Put(job{ID: 7, Title: "encode"}, queue.NonBlocking(), 0); err != nil {
		t.Fatalf("Put: %v", err)
	}
	var got job
	if err := q.Get(&got, queue.NonBlocking(), 0); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != 7 || got.Title != "encode" {
		t.Fatalf("unexpected item %+v", got)
	}
}

func TestPosixPriorityOrder(t *testing.T) {
	q := testsupport.OpenPosix(t, testLimits(), rawOptions())

	for _, m := range []struct {
		body string
		prio int64
	}{{"first", 0}, {"urgent", 1}, {"second", 0}} {
		if err := q.Put(m.body, queue.NonBlocking(), m.prio); err != nil {
			t.Fatalf("Put(%s): %v", m.body, err)
		}
	}
	for _, want := range []string{"urgent", "first", "second"} {
		var got string
		if err := q.Get(&got, queue.NonBlocking(), 0); err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got != want {
			t.Fatalf("got %q, want %q", got, want)
		}
	}
}

func TestPosixFullAndEmpty(t *testing.T) {
	q := testsupport.OpenPosix(t, testLimits(), rawOptions())

	mustKind(t, q.Get(new([]byte), queue.NonBlocking(), 0), ipcerr.Empty)
	for i := 0; i < 5; i++ {
		if err := q.Put([]byte("x"), queue.NonBlocking(), 0); err != nil {
			t.Fatalf("Put %d: %v", i, err)
		}
	}
	err := q.Put([]byte("x"), queue.NonBlocking(), 0)
	mustKind(t, err, ipcerr.Full)
	if !queue.WouldBlock(err) {
		t.Fatal("expected Full to be a would-block outcome")
	}
	if n, err := q.Size(); err != nil || n != 5 {
		t.Fatalf("Size = %d, %v; want 5", n, err)
	}
	for i := 0; i < 5; i++ {
		if err := q.Get(new([]byte), queue.NonBlocking(), 0); err != nil {
			t.Fatalf("Get %d: %v", i, err)
		}
	}
	if n, err := q.Size(); err != nil || n != 0 {
		t.Fatalf("Size after draining = %d, %v; want 0", n, err)
	}
	mustKind(t, q.Get(new([]byte), queue.NonBlocking(), 0), ipcerr.Empty)
}

func TestPosixZeroDeadlineTimesOut(t *testing.T) {
	q := testsupport.OpenPosix(t, testLimits(), rawOptions())

	done := make(chan error, 1)
	go func() { done <- q.Get(new([]byte), queue.BlockUntil(time.Time{}), 0) }()
	select {
	case err := <-done:
		if !queue.IsTimeout(err) || !errors.Is(err, ipcerr.Empty) {
			t.Fatalf("expected timeout on empty, got %v", err)
		}
	case <-time.After(2 * time.Second):
		_ = q.Put([]byte("unblock"), queue.NonBlocking(), 0)
		t.Fatal("zero deadline blocked instead of timing out")
	}
}

func TestPosixFarDeadlineWaits(t *testing.T) {
	q := testsupport.OpenPosix(t, testLimits(), rawOptions())

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = q.Put("late", queue.NonBlocking(), 0)
	}()
	var got string
	if err := q.Get(&got, queue.BlockFor(time.Duration(math.MaxInt64)), 0); err != nil {
		t.Fatalf("Get with a deadline centuries away: %v", err)
	}
	if got != "late" {
		t.Fatalf("got %q", got)
	}
}

func TestPosixDeadlineTimeout(t *testing.T) {
	q := testsupport.OpenPosix(t, testLimits(), rawOptions())

	start := time.Now()
	err := q.Get(new([]byte), queue.BlockFor(250*time.Millisecond), 0)
	elapsed := time.Since(start)
	if !queue.IsTimeout(err) || !errors.Is(err, ipcerr.Empty) {
		t.Fatalf("expected timeout on empty, got %v", err)
	}
	if elapsed < 240*time.Millisecond || elapsed > 2*time.Second {
		t.Fatalf("timeout after %v, want about 250ms", elapsed)
	}
}

func TestPosixBlockingGetWakesOnPut(t *testing.T) {
	q := testsupport.OpenPosix(t, testLimits(), rawOptions())

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = q.Put("late", queue.NonBlocking(), 0)
	}()
	var got string
	if err := q.Get(&got, queue.BlockFor(5*time.Second), 0); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "late" {
		t.Fatalf("got %q", got)
	}
}

func TestPosixMessageTooLarge(t *testing.T) {
	q := testsupport.OpenPosix(t, testLimits(), rawOptions())

	mustKind(t, q.Put(bytes.Repeat([]byte("a"), 2049), queue.NonBlocking(), 0), ipcerr.MessageTooLarge)
	if n, err := q.Size(); err != nil || n != 0 {
		t.Fatalf("Size = %d, %v; want 0", n, err)
	}
	if err := q.Put(bytes.Repeat([]byte("a"), 2048), queue.NonBlocking(), 0); err != nil {
		t.Fatalf("Put at the limit: %v", err)
	}
}

func TestPosixAttributes(t *testing.T) {
	q := testsupport.OpenPosix(t, testLimits(), rawOptions())
	if err := q.Put("one", queue.NonBlocking(), 0); err != nil {
		t.Fatalf("Put: %v", err)
	}
	attr, err := q.Attributes()
	if err != nil {
		t.Fatalf("Attributes: %v", err)
	}
	if attr.Count != 1 || attr.MaxItems != 5 || attr.MaxItemBytes != 2048 {
		t.Fatalf("unexpected attributes %+v", attr)
	}
}

func TestPosixCloseTwice(t *testing.T) {
	q := testsupport.OpenPosix(t, testLimits(), rawOptions())
	if err := q.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	mustKind(t, q.Close(), ipcerr.InvalidDescriptor)
	mustKind(t, q.Put("x", queue.NonBlocking(), 0), ipcerr.InvalidDescriptor)
	_, err := q.Size()
	mustKind(t, err, ipcerr.InvalidDescriptor)
}

func TestPosixUnlinkTwice(t *testing.T) {
	name := testsupport.PosixName(t)
	q, err := queue.OpenPosix(name, testLimits(), rawOptions())
	testsupport.SkipIfUnsupported(t, err)
	if err != nil {
		t.Fatalf("OpenPosix: %v", err)
	}
	defer q.Close()

	if err := q.Destroy(); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	mustKind(t, queue.UnlinkPosix(name), ipcerr.DoesNotExist)

	// The open descriptor keeps working after the name is gone.
	if err := q.Put("still here", queue.NonBlocking(), 0); err != nil {
		t.Fatalf("Put after unlink: %v", err)
	}
}

func TestPosixReopenSharesQueue(t *testing.T) {
	first := testsupport.OpenPosix(t, testLimits(), rawOptions())
	second, err := queue.OpenPosix(first.Name(), queue.PosixLimits{MaxItems: 9}, rawOptions())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()

	if err := first.Put("shared", queue.NonBlocking(), 0); err != nil {
		t.Fatalf("Put: %v", err)
	}
	var got string
	if err := second.Get(&got, queue.NonBlocking(), 0); err != nil || got != "shared" {
		t.Fatalf("Get = %q, %v", got, err)
	}
	attr, err := second.Attributes()
	if err != nil || attr.MaxItems != 5 {
		t.Fatalf("existing limits must win, got %+v, %v", attr, err)
	}
}

func TestPosixInvalidName(t *testing.T) {
	_, err := queue.OpenPosix("no-slash", testLimits(), rawOptions())
	testsupport.SkipIfUnsupported(t, err)
	mustKind(t, err, ipcerr.InvalidValue)
}

func TestPosixDecodeFailureIsInvalidValue(t *testing.T) {
	q := testsupport.OpenPosix(t, testLimits(), queue.Options{Codec: codec.JSON{}})
	if err := q.Put("text", queue.NonBlocking(), 0); err != nil {
		t.Fatalf("Put: %v", err)
	}
	var n int
	mustKind(t, q.Get(&n, queue.NonBlocking(), 0), ipcerr.InvalidValue)
	if size, _ := q.Size(); size != 0 {
		t.Fatalf("message must be consumed even when decoding fails, size=%d", size)
	}
}

func TestPosixObserverAndLogging(t *testing.T) {
	var (
		mu     sync.Mutex
		events []queue.Event
		logs   bytes.Buffer
	)
	opts := rawOptions()
	opts.Logger = slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	opts.Observer = queue.ObserverFunc(func(e queue.Event) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, e)
	})
	q := testsupport.OpenPosix(t, testLimits(), opts)

	_ = q.Put("a", queue.NonBlocking(), 0)
	_ = q.Get(new(string), queue.NonBlocking(), 0)
	_ = q.Get(new(string), queue.NonBlocking(), 0)

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	if events[0].Op != "put" || events[0].Backend != queue.BackendPosix || events[0].Err != nil {
		t.Fatalf("unexpected first event %+v", events[0])
	}
	if queue.Result(events[2].Err) != "empty" {
		t.Fatalf("unexpected last result %q", queue.Result(events[2].Err))
	}
	if !strings.Contains(logs.String(), "queue opened") || !strings.Contains(logs.String(), "backend=posix") {
		t.Fatalf("expected open log, got %q", logs.String())
	}
}

func TestPosixConcurrentProducersConsumers(t *testing.T) {
	q := testsupport.OpenPosix(t, testLimits(), queue.Options{Codec: codec.JSON{}})

	const producers, perProducer = 4, 50
	var received atomic.Int64
	var sum atomic.Int64

	g, ctx := errgroup.WithContext(context.Background())
	for p := 0; p < producers; p++ {
		g.Go(func() error {
			for i := 1; i <= perProducer; i++ {
				if err := q.Put(i, queue.BlockFor(5*time.Second), int64(i%3)); err != nil {
					return err
				}
			}
			return nil
		})
	}
	for c := 0; c < 4; c++ {
		g.Go(func() error {
			for ctx.Err() == nil && received.Load() < producers*perProducer {
				var v int
				err := q.Get(&v, queue.BlockFor(50*time.Millisecond), 0)
				if queue.IsTimeout(err) {
					continue
				}
				if err != nil {
					return err
				}
				received.Add(1)
				sum.Add(int64(v))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("workers: %v", err)
	}
	if got, want := sum.Load(), int64(producers*perProducer*(perProducer+1)/2); got != want {
		t.Fatalf("sum = %d, want %d", got, want)
	}
}

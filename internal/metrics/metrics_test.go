package metrics

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"ipcqueue/internal/ipcerr"
	"ipcqueue/internal/queue"
)

func TestNewRegisters(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := New(reg); err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := New(reg); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
}

func TestObserveOpCountsByResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	m.ObserveOp(queue.Event{Backend: queue.BackendPosix, Op: "put", Attempts: 1, Waited: time.Millisecond})
	m.ObserveOp(queue.Event{Backend: queue.BackendPosix, Op: "put", Attempts: 1})
	m.ObserveOp(queue.Event{
		Backend:  queue.BackendSysV,
		Op:       "get",
		Attempts: 7,
		Err:      &ipcerr.Error{Op: "get", Kind: ipcerr.Timeout, Outcome: ipcerr.Empty},
	})

	if got := testutil.ToFloat64(m.operations.WithLabelValues("posix", "put", "ok")); got != 2 {
		t.Fatalf("posix put ok = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.operations.WithLabelValues("sysv", "get", "timeout")); got != 1 {
		t.Fatalf("sysv get timeout = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.attempts.WithLabelValues("sysv", "get")); got != 7 {
		t.Fatalf("sysv get attempts = %v, want 7", got)
	}
	if got := testutil.CollectAndCount(m.waitTime); got != 2 {
		t.Fatalf("wait histogram series = %d, want 2", got)
	}
}

func TestCountsSorted(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	m.ObserveOp(queue.Event{Backend: "sysv", Op: "put"})
	m.ObserveOp(queue.Event{Backend: "posix", Op: "get", Err: ipcerr.New("get", ipcerr.Empty)})
	m.ObserveOp(queue.Event{Backend: "posix", Op: "get"})

	counts, err := Counts(reg)
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	want := []Count{
		{Backend: "posix", Op: "get", Result: "empty", Value: 1},
		{Backend: "posix", Op: "get", Result: "ok", Value: 1},
		{Backend: "sysv", Op: "put", Result: "ok", Value: 1},
	}
	if len(counts) != len(want) {
		t.Fatalf("got %d counts, want %d: %+v", len(counts), len(want), counts)
	}
	for i := range want {
		if counts[i] != want[i] {
			t.Fatalf("counts[%d] = %+v, want %+v", i, counts[i], want[i])
		}
	}
}

func TestWriteText(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	m.ObserveOp(queue.Event{Backend: "posix", Op: "put", Attempts: 1})

	var buf bytes.Buffer
	if err := WriteText(&buf, reg); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	if !strings.Contains(buf.String(), `ipcq_operations_total{backend="posix",op="put",result="ok"} 1`) {
		t.Fatalf("missing counter in output:\n%s", buf.String())
	}
}

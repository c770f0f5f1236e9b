// Package metrics records queue operation outcomes in Prometheus collectors.
//
// Metrics implements queue.Observer, so it plugs into queue.Options without
// the queue package knowing about Prometheus.
package metrics

import (
	"fmt"
	"io"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"ipcqueue/internal/queue"
)

const Namespace = "ipcq"

// Metrics holds the collectors for queue operations.
type Metrics struct {
	operations *prometheus.CounterVec   // by backend, op, result
	waitTime   *prometheus.HistogramVec // by backend, op
	attempts   *prometheus.CounterVec   // by backend, op
}

var _ queue.Observer = (*Metrics)(nil)

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "operations_total",
			Help:      "Queue puts and gets by outcome",
		}, []string{"backend", "op", "result"}),
		waitTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "wait_seconds",
			Help:      "Time spent inside a put or get, including waiting for space or messages",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .25, .5, 1, 5},
		}, []string{"backend", "op"}),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "kernel_attempts_total",
			Help:      "Kernel calls made by puts and gets; exceeds operations when waits are emulated",
		}, []string{"backend", "op"}),
	}
	for _, c := range []prometheus.Collector{m.operations, m.waitTime, m.attempts} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return m, nil
}

// ObserveOp records one completed operation.
func (m *Metrics) ObserveOp(e queue.Event) {
	m.operations.WithLabelValues(e.Backend, e.Op, queue.Result(e.Err)).Inc()
	m.waitTime.WithLabelValues(e.Backend, e.Op).Observe(e.Waited.Seconds())
	if e.Attempts > 0 {
		m.attempts.WithLabelValues(e.Backend, e.Op).Add(float64(e.Attempts))
	}
}

// Count is one operations_total series.
type Count struct {
	Backend string  `json:"backend"`
	Op      string  `json:"op"`
	Result  string  `json:"result"`
	Value   float64 `json:"value"`
}

// Counts gathers operations_total from g, sorted by label values.
func Counts(g prometheus.Gatherer) ([]Count, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather metrics: %w", err)
	}
	var out []Count
	for _, family := range families {
		if family.GetName() != Namespace+"_operations_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			labels := labelsOf(metric)
			out = append(out, Count{
				Backend: labels["backend"],
				Op:      labels["op"],
				Result:  labels["result"],
				Value:   metric.GetCounter().GetValue(),
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Backend != b.Backend {
			return a.Backend < b.Backend
		}
		if a.Op != b.Op {
			return a.Op < b.Op
		}
		return a.Result < b.Result
	})
	return out, nil
}

// WriteText writes every family in g in the Prometheus text format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, family := range families {
		if err := enc.Encode(family); err != nil {
			return fmt.Errorf("encode %s: %w", family.GetName(), err)
		}
	}
	return nil
}

func labelsOf(metric *dto.Metric) map[string]string {
	labels := make(map[string]string, len(metric.GetLabel()))
	for _, pair := range metric.GetLabel() {
		labels[pair.GetName()] = pair.GetValue()
	}
	return labels
}

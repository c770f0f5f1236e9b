package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"ipcqueue/internal/codec"
	"ipcqueue/internal/metrics"
	"ipcqueue/internal/queue"
)

type benchConfig struct {
	Producers int
	Consumers int
	Messages  int
	Size      int
	Timeout   time.Duration
}

type benchResult struct {
	Backend  string          `json:"backend"`
	Messages int             `json:"messages"`
	Size     int             `json:"size"`
	Elapsed  time.Duration   `json:"elapsed_ns"`
	PerSec   float64         `json:"messages_per_second"`
	Counts   []metrics.Count `json:"counts"`
}

func newBenchCommand(ctx *commandContext) *cobra.Command {
	cfg := benchConfig{Producers: 2, Consumers: 2, Messages: 10000, Size: 64, Timeout: 5 * time.Second}
	var (
		metricsOut string
		asJSON     bool
	)
	cmd := &cobra.Command{
		Use:       "bench posix|sysv",
		Short:     "Push messages through a throwaway queue and report throughput",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{queue.BackendPosix, queue.BackendSysV},
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Producers < 1 || cfg.Consumers < 1 || cfg.Messages < 1 || cfg.Size < 1 {
				return fmt.Errorf("--producers, --consumers, --messages and --size must be positive")
			}
			opts, err := ctx.queueOptions(codec.Raw{}.Name(), 0)
			if err != nil {
				return err
			}
			reg := prometheus.NewRegistry()
			m, err := metrics.New(reg)
			if err != nil {
				return err
			}
			opts.Observer = m

			q, cleanup, err := openBenchQueue(args[0], cfg.Size, opts)
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := runBench(q, cfg)
			if err != nil {
				return err
			}
			res.Backend = args[0]
			if res.Counts, err = metrics.Counts(reg); err != nil {
				return err
			}
			if metricsOut != "" {
				if err := writeMetricsFile(metricsOut, reg); err != nil {
					return err
				}
			}
			if asJSON {
				return writeJSON(cmd, res)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderBench(res))
			return nil
		},
	}
	cmd.Flags().IntVar(&cfg.Producers, "producers", cfg.Producers, "Concurrent senders")
	cmd.Flags().IntVar(&cfg.Consumers, "consumers", cfg.Consumers, "Concurrent receivers")
	cmd.Flags().IntVarP(&cfg.Messages, "messages", "n", cfg.Messages, "Total messages to move")
	cmd.Flags().IntVar(&cfg.Size, "size", cfg.Size, "Payload size in bytes")
	cmd.Flags().DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Per-operation timeout")
	cmd.Flags().StringVar(&metricsOut, "metrics-out", "", "Write Prometheus text metrics to this file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

// openBenchQueue creates a queue nobody else knows about. POSIX queues get
// a random name that cleanup unlinks; System V queues are private.
func openBenchQueue(backend string, size int, opts queue.Options) (queue.Queue, func(), error) {
	switch backend {
	case queue.BackendPosix:
		limits := queue.PosixLimits{}
		if size > queue.DefaultMaxItemBytes {
			limits.MaxItemBytes = int64(size)
		}
		name := "/ipcq-bench-" + uuid.NewString()
		q, err := queue.OpenPosix(name, limits, opts)
		if err != nil {
			return nil, nil, err
		}
		return q, func() {
			_ = q.Close()
			_ = queue.UnlinkPosix(name)
		}, nil
	case queue.BackendSysV:
		q, err := queue.OpenSysV(0, 0, opts)
		if err != nil {
			return nil, nil, err
		}
		return q, func() { _ = q.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", backend)
	}
}

// runBench moves cfg.Messages payloads through q, split evenly across the
// producers and consumers. Each call waits at most cfg.Timeout, so a
// failed producer leaves the consumers to time out instead of hanging.
func runBench(q queue.Queue, cfg benchConfig) (benchResult, error) {
	payload := make([]byte, cfg.Size)
	for i := range payload {
		payload[i] = byte('a' + i%26)
	}

	var g errgroup.Group
	start := time.Now()
	for _, n := range split(cfg.Messages, cfg.Producers) {
		g.Go(func() error {
			for i := 0; i < n; i++ {
				if err := q.Put(payload, queue.BlockFor(cfg.Timeout), queue.DefaultSysVType); err != nil {
					return fmt.Errorf("put: %w", err)
				}
			}
			return nil
		})
	}
	for _, n := range split(cfg.Messages, cfg.Consumers) {
		g.Go(func() error {
			var buf []byte
			for i := 0; i < n; i++ {
				if err := q.Get(&buf, queue.BlockFor(cfg.Timeout), 0); err != nil {
					return fmt.Errorf("get: %w", err)
				}
				if len(buf) != cfg.Size {
					return fmt.Errorf("get: payload of %d bytes, want %d", len(buf), cfg.Size)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return benchResult{}, err
	}
	elapsed := time.Since(start)
	res := benchResult{Messages: cfg.Messages, Size: cfg.Size, Elapsed: elapsed}
	if elapsed > 0 {
		res.PerSec = float64(cfg.Messages) / elapsed.Seconds()
	}
	return res, nil
}

// split divides total into parts shares that differ by at most one.
func split(total, parts int) []int {
	shares := make([]int, parts)
	for i := range shares {
		shares[i] = total / parts
		if i < total%parts {
			shares[i]++
		}
	}
	return shares
}

func renderBench(res benchResult) string {
	rows := make([][]string, 0, len(res.Counts))
	for _, c := range res.Counts {
		rows = append(rows, []string{c.Backend, c.Op, c.Result, strconv.FormatFloat(c.Value, 'f', 0, 64)})
	}
	footer := []string{
		"",
		fmt.Sprintf("%d x %dB", res.Messages, res.Size),
		res.Elapsed.Round(time.Millisecond).String(),
		fmt.Sprintf("%.0f msg/s", res.PerSec),
	}
	return renderTable([]string{"Backend", "Op", "Result", "Count"}, rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight}, footer)
}

func writeMetricsFile(path string, g prometheus.Gatherer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create metrics file: %w", err)
	}
	if err := metrics.WriteText(f, g); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ipcqueue/internal/codec"
	"ipcqueue/internal/queue"
)

// waitFlags maps --nowait and --timeout onto a queue.WaitMode. Without
// either flag the command blocks until it succeeds.
type waitFlags struct {
	nowait  bool
	timeout time.Duration
}

func (w *waitFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&w.nowait, "nowait", false, "Fail at once if the queue is full or empty")
	cmd.Flags().DurationVar(&w.timeout, "timeout", 0, "Give up after this long (e.g. 500ms, 2s)")
}

func (w waitFlags) validate() error {
	switch {
	case w.nowait && w.timeout > 0:
		return errors.New("--nowait and --timeout are mutually exclusive")
	case w.timeout < 0:
		return errors.New("--timeout must be positive")
	}
	return nil
}

// mode starts the --timeout clock, so call it right before the queue
// operation. The flags must already have passed validate.
func (w waitFlags) mode() queue.WaitMode {
	switch {
	case w.nowait:
		return queue.NonBlocking()
	case w.timeout > 0:
		return queue.BlockFor(w.timeout)
	default:
		return queue.BlockForever()
	}
}

// messageBody joins args, or reads stdin when there are none.
func messageBody(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) > 0 {
		return []byte(strings.Join(args, " ")), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return nil, fmt.Errorf("read message from stdin: %w", err)
	}
	return data, nil
}

// encodeValue picks the Go value handed to the codec for a command-line
// message: raw bytes stay bytes, JSON input is sent as the value it
// describes when it parses, and everything else travels as a string.
func encodeValue(s codec.Serializer, body []byte) any {
	switch s.Name() {
	case "raw":
		return body
	case "json":
		var v any
		if json.Unmarshal(body, &v) == nil {
			return v
		}
	}
	return string(body)
}

// decodeTarget returns a pointer suitable for s and a function rendering
// what was decoded into it.
func decodeTarget(s codec.Serializer) (any, func() string) {
	if s.Name() == "json" {
		var v any
		return &v, func() string {
			out, err := json.Marshal(v)
			if err != nil {
				return fmt.Sprint(v)
			}
			return string(out)
		}
	}
	var text string
	return &text, func() string { return text }
}

func receive(cmd *cobra.Command, q queue.Queue, s codec.Serializer, wait waitFlags, selector int64, count int) error {
	out := cmd.OutOrStdout()
	mode := wait.mode()
	for i := 0; i < count; i++ {
		target, render := decodeTarget(s)
		if err := q.Get(target, mode, selector); err != nil {
			return err
		}
		fmt.Fprintln(out, render())
	}
	return nil
}

type statReport struct {
	Backend    string           `json:"backend"`
	Queue      string           `json:"queue"`
	Attributes queue.Attributes `json:"attributes"`
}

func writeStat(cmd *cobra.Command, report statReport, asJSON bool) error {
	if asJSON {
		return writeJSON(cmd, report)
	}
	a := report.Attributes
	rows := [][]string{
		{"Backend", report.Backend},
		{"Queue", report.Queue},
		{"Messages", fmt.Sprint(a.Count)},
	}
	if a.MaxItems > 0 {
		rows = append(rows, []string{"Max messages", fmt.Sprint(a.MaxItems)})
	}
	rows = append(rows, []string{"Max message bytes", fmt.Sprint(a.MaxItemBytes)})
	if a.MaxBytes > 0 {
		rows = append(rows,
			[]string{"Bytes queued", fmt.Sprint(a.Bytes)},
			[]string{"Max queue bytes", fmt.Sprint(a.MaxBytes)},
		)
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, []columnAlignment{alignLeft, alignRight}, nil))
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"ipcqueue/internal/ipcerr"
)

// Exit codes. Would-block outcomes get their own code so scripts can tell
// "nothing there yet" apart from real failures.
const (
	exitFailure    = 1
	exitWouldBlock = 2
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "ipcq:", err)
		}
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	if ipcerr.WouldBlock(err) {
		return exitWouldBlock
	}
	return exitFailure
}

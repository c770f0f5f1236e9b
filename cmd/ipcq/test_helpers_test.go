package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ipcqueue/internal/config"
	"ipcqueue/internal/testsupport"
)

type cliResult struct {
	stdout string
	stderr string
	err    error
}

// runCLI executes the root command with a fresh context, as a separate
// process invocation would.
func runCLI(t *testing.T, stdin string, args ...string) cliResult {
	t.Helper()
	return runCLIWithInput(t, strings.NewReader(stdin), args...)
}

func runCLIWithInput(t *testing.T, stdin io.Reader, args ...string) cliResult {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(stdin)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

// writeTestConfig stores cfg as TOML in the test directory and returns
// its path.
func writeTestConfig(t *testing.T, cfg *config.Config) string {
	t.Helper()
	text, err := cfg.Encode()
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func newTestConfigPath(t *testing.T, opts ...testsupport.ConfigOption) string {
	t.Helper()
	t.Setenv("IPCQ_LOG_LEVEL", "")
	return writeTestConfig(t, testsupport.NewConfig(t, opts...))
}

package testsupport

import (
	"path/filepath"
	"testing"

	"ipcqueue/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config whose lock directory and log file live in a
// per-test temp directory.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Defaults.LockDir = filepath.Join(base, "locks")
	cfgVal.Defaults.PollIntervalMS = 5

	builder := &configBuilder{t: t, baseDir: base, cfg: &cfgVal}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithCodec selects the default codec.
func WithCodec(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Defaults.Codec = name
	}
}

// WithLogFile routes a JSON copy of the logs into the test directory.
func WithLogFile() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Logging.File = filepath.Join(b.baseDir, "ipcq.log")
	}
}

// WithPosix declares a POSIX queue with the given limits.
func WithPosix(name string, maxItems, maxItemBytes int64) ConfigOption {
	return func(b *configBuilder) {
		q := config.DefaultPosix(name)
		q.MaxItems = maxItems
		q.MaxItemBytes = maxItemBytes
		b.cfg.Posix = append(b.cfg.Posix, q)
	}
}

// WithSysV declares a System V alias.
func WithSysV(alias string, key, maxBytes int64) ConfigOption {
	return func(b *configBuilder) {
		q := config.DefaultSysV(key)
		q.Alias = alias
		q.MaxBytes = maxBytes
		b.cfg.SysV = append(b.cfg.SysV, q)
	}
}

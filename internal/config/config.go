package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	// File, when set, receives a JSON copy of every record.
	File string `toml:"file"`
}

// Defaults holds settings shared by every queue the CLI opens.
type Defaults struct {
	Codec string `toml:"codec"`
	// PollIntervalMS is the granularity of emulated deadline waits.
	PollIntervalMS int `toml:"poll_interval_ms"`
	// LockDir holds System V creation locks. Empty disables locking.
	LockDir string `toml:"lock_dir"`
}

// PosixQueue declares a named POSIX queue and its creation limits.
type PosixQueue struct {
	Name         string `toml:"name"`
	MaxItems     int64  `toml:"max_items"`
	MaxItemBytes int64  `toml:"max_item_bytes"`
	Mode         string `toml:"mode"`

	// Perm is Mode parsed as octal during normalization.
	Perm uint32 `toml:"-"`
}

// SysVQueue declares a System V queue reachable through an alias.
type SysVQueue struct {
	Alias    string `toml:"alias"`
	Key      int64  `toml:"key"`
	MaxBytes int64  `toml:"max_bytes"`
	Mode     string `toml:"mode"`

	Perm uint32 `toml:"-"`
}

// Config encapsulates all configuration values for ipcq.
//
// Configuration sections:
//   - Logging: log format, level and optional JSON file
//   - Defaults: codec, polling granularity and lock directory
//   - Posix: declared POSIX queues
//   - SysV: declared System V queues
type Config struct {
	Logging  Logging      `toml:"logging"`
	Defaults Defaults     `toml:"defaults"`
	Posix    []PosixQueue `toml:"posix"`
	SysV     []SysVQueue  `toml:"sysv"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. A missing file
// yields the defaults. The returned config has paths expanded and modes
// parsed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file).DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, "", false, fmt.Errorf("parse config: %s", strict.String())
			}
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		path = defaultConfigPath
	}
	expanded, err := expandPath(path)
	if err != nil {
		return "", false, err
	}
	info, err := os.Stat(expanded)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return expanded, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("config path %q is a directory", expanded)
	}
	return expanded, true, nil
}

// PollInterval returns the emulated wait granularity.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Defaults.PollIntervalMS) * time.Millisecond
}

// FindPosix returns the declared POSIX queue called name.
func (c *Config) FindPosix(name string) (PosixQueue, bool) {
	for _, q := range c.Posix {
		if q.Name == name {
			return q, true
		}
	}
	return PosixQueue{}, false
}

// FindSysV returns the declared System V queue with the given alias.
func (c *Config) FindSysV(alias string) (SysVQueue, bool) {
	for _, q := range c.SysV {
		if q.Alias == alias {
			return q, true
		}
	}
	return SysVQueue{}, false
}

// Encode renders the config back to TOML.
func (c *Config) Encode() (string, error) {
	var b strings.Builder
	enc := toml.NewEncoder(&b).SetIndentTables(true)
	if err := enc.Encode(c); err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return b.String(), nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && pathValue[1] == '/' {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

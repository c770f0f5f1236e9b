package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// maxPosixNameLen is NAME_MAX for the mqueue filesystem.
const maxPosixNameLen = 255

var knownCodecs = map[string]bool{"gob": true, "json": true, "raw": true}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateDefaults(); err != nil {
		return err
	}
	if err := c.validatePosix(); err != nil {
		return err
	}
	return c.validateSysV()
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (want console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateDefaults() error {
	if !knownCodecs[c.Defaults.Codec] {
		return fmt.Errorf("defaults.codec: unsupported value %q (want gob, json or raw)", c.Defaults.Codec)
	}
	if c.Defaults.PollIntervalMS < 0 {
		return errors.New("defaults.poll_interval_ms must be positive")
	}
	return nil
}

func (c *Config) validatePosix() error {
	seen := make(map[string]bool, len(c.Posix))
	for i, q := range c.Posix {
		if err := ValidatePosixName(q.Name); err != nil {
			return fmt.Errorf("posix[%d].name: %w", i, err)
		}
		if seen[q.Name] {
			return fmt.Errorf("posix[%d].name: %q declared twice", i, q.Name)
		}
		seen[q.Name] = true
		if q.MaxItems <= 0 || q.MaxItems > math.MaxInt32 {
			return fmt.Errorf("posix[%d].max_items must be between 1 and %d", i, math.MaxInt32)
		}
		if q.MaxItemBytes <= 0 || q.MaxItemBytes > math.MaxInt32 {
			return fmt.Errorf("posix[%d].max_item_bytes must be between 1 and %d", i, math.MaxInt32)
		}
	}
	return nil
}

func (c *Config) validateSysV() error {
	aliases := make(map[string]bool, len(c.SysV))
	for i, q := range c.SysV {
		if q.Alias == "" {
			return fmt.Errorf("sysv[%d].alias must be set", i)
		}
		if aliases[q.Alias] {
			return fmt.Errorf("sysv[%d].alias: %q declared twice", i, q.Alias)
		}
		aliases[q.Alias] = true
		if q.Key < 0 || q.Key > math.MaxUint32 {
			return fmt.Errorf("sysv[%d].key must be between 0 and %d", i, uint32(math.MaxUint32))
		}
		if q.MaxBytes < 0 {
			return fmt.Errorf("sysv[%d].max_bytes must not be negative", i)
		}
	}
	return nil
}

// ValidatePosixName checks the mq_overview(7) naming rules: a leading
// slash, no other slashes, and at most NAME_MAX bytes after the slash.
func ValidatePosixName(name string) error {
	switch {
	case !strings.HasPrefix(name, "/"):
		return fmt.Errorf("%q must start with /", name)
	case len(name) == 1:
		return errors.New("name is empty after the leading /")
	case strings.Contains(name[1:], "/"):
		return fmt.Errorf("%q must not contain / after the first character", name)
	case len(name)-1 > maxPosixNameLen:
		return fmt.Errorf("%q is longer than %d bytes", name, maxPosixNameLen)
	}
	return nil
}

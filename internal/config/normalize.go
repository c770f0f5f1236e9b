package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeLogging()
	if err := c.normalizeDefaults(); err != nil {
		return err
	}
	if err := c.normalizePosix(); err != nil {
		return err
	}
	return c.normalizeSysV()
}

func (c *Config) normalizeLogging() {
	if value, ok := os.LookupEnv(envLogLevel); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.File = strings.TrimSpace(c.Logging.File)
}

func (c *Config) normalizeDefaults() error {
	c.Defaults.Codec = strings.ToLower(strings.TrimSpace(c.Defaults.Codec))
	if c.Defaults.Codec == "" {
		c.Defaults.Codec = defaultCodec
	}
	if c.Defaults.PollIntervalMS == 0 {
		c.Defaults.PollIntervalMS = defaultPollIntervalMS
	}
	if c.Defaults.PollIntervalMS > 0 && c.Defaults.PollIntervalMS < minPollIntervalMS {
		c.Defaults.PollIntervalMS = minPollIntervalMS
	}
	var err error
	if c.Defaults.LockDir, err = expandPath(strings.TrimSpace(c.Defaults.LockDir)); err != nil {
		return fmt.Errorf("defaults.lock_dir: %w", err)
	}
	if c.Logging.File, err = expandPath(c.Logging.File); err != nil {
		return fmt.Errorf("logging.file: %w", err)
	}
	return nil
}

func (c *Config) normalizePosix() error {
	for i := range c.Posix {
		q := &c.Posix[i]
		q.Name = strings.TrimSpace(q.Name)
		if q.MaxItems == 0 {
			q.MaxItems = defaultMaxItems
		}
		if q.MaxItemBytes == 0 {
			q.MaxItemBytes = defaultMaxItemBytes
		}
		perm, err := parseMode(q.Mode)
		if err != nil {
			return fmt.Errorf("posix[%d].mode: %w", i, err)
		}
		q.Perm = perm
	}
	return nil
}

func (c *Config) normalizeSysV() error {
	for i := range c.SysV {
		q := &c.SysV[i]
		q.Alias = strings.TrimSpace(q.Alias)
		perm, err := parseMode(q.Mode)
		if err != nil {
			return fmt.Errorf("sysv[%d].mode: %w", i, err)
		}
		q.Perm = perm
	}
	return nil
}

// parseMode reads an octal permission string such as "0644" or "600".
func parseMode(value string) (uint32, error) {
	value = strings.TrimPrefix(strings.TrimSpace(value), "0o")
	if value == "" {
		value = defaultMode
	}
	mode, err := strconv.ParseUint(value, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid octal mode %q", value)
	}
	if mode&^0o777 != 0 {
		return 0, fmt.Errorf("mode %q has bits outside 0777", value)
	}
	return uint32(mode), nil
}

// ParseMode exposes octal mode parsing for command flags.
func ParseMode(value string) (uint32, error) {
	return parseMode(value)
}

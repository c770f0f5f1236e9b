package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"ipcqueue/internal/codec"
	"ipcqueue/internal/config"
	"ipcqueue/internal/logging"
	"ipcqueue/internal/queue"
)

type commandContext struct {
	configFlag *string
	levelFlag  *string
	verbose    *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	closeLog   func() error
	loggerErr  error
}

func newCommandContext(configFlag, levelFlag *string, verbose *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		levelFlag:  levelFlag,
		verbose:    verbose,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		level := ""
		if c.levelFlag != nil {
			level = *c.levelFlag
		}
		if c.verbose != nil && *c.verbose {
			level = "debug"
		}
		c.logger, c.closeLog, c.loggerErr = logging.NewFromConfig(cfg, level)
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) close() error {
	if c.closeLog == nil {
		return nil
	}
	err := c.closeLog()
	c.closeLog = nil
	return err
}

// queueOptions builds facade options from the config. An empty codecName
// selects the configured default.
func (c *commandContext) queueOptions(codecName string, mode uint32) (queue.Options, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return queue.Options{}, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return queue.Options{}, err
	}
	if strings.TrimSpace(codecName) == "" {
		codecName = cfg.Defaults.Codec
	}
	serializer, err := codec.ByName(codecName)
	if err != nil {
		return queue.Options{}, err
	}
	return queue.Options{
		Codec:        serializer,
		Mode:         mode,
		PollInterval: cfg.PollInterval(),
		LockDir:      cfg.Defaults.LockDir,
		Logger:       logger,
	}, nil
}

func (c *commandContext) posixSpec(name string) (config.PosixQueue, error) {
	if err := config.ValidatePosixName(name); err != nil {
		return config.PosixQueue{}, fmt.Errorf("queue name: %w", err)
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return config.PosixQueue{}, err
	}
	if spec, ok := cfg.FindPosix(name); ok {
		return spec, nil
	}
	return config.DefaultPosix(name), nil
}

func (c *commandContext) openPosix(name, codecName string) (*queue.PosixQueue, error) {
	spec, err := c.posixSpec(name)
	if err != nil {
		return nil, err
	}
	opts, err := c.queueOptions(codecName, spec.Perm)
	if err != nil {
		return nil, err
	}
	return queue.OpenPosix(spec.Name, queue.PosixLimits{
		MaxItems:     spec.MaxItems,
		MaxItemBytes: spec.MaxItemBytes,
	}, opts)
}

// sysvSpec resolves target as a configured alias or a numeric key.
// Decimal, hex (0x) and octal (0o) keys are accepted.
func (c *commandContext) sysvSpec(target string) (config.SysVQueue, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return config.SysVQueue{}, err
	}
	if spec, ok := cfg.FindSysV(target); ok {
		return spec, nil
	}
	key, err := strconv.ParseInt(target, 0, 64)
	if err != nil {
		return config.SysVQueue{}, fmt.Errorf("%q is neither a configured alias nor a numeric key", target)
	}
	return config.DefaultSysV(key), nil
}

func (c *commandContext) openSysV(target, codecName string) (*queue.SysVQueue, error) {
	spec, err := c.sysvSpec(target)
	if err != nil {
		return nil, err
	}
	if spec.Key == 0 {
		return nil, fmt.Errorf("%s resolves to key 0, a private queue no other process can reach", target)
	}
	opts, err := c.queueOptions(codecName, spec.Perm)
	if err != nil {
		return nil, err
	}
	return queue.OpenSysV(spec.Key, spec.MaxBytes, opts)
}

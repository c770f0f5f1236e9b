package config

const (
	defaultConfigPath     = "~/.config/ipcq/config.toml"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	defaultCodec          = "gob"
	defaultPollIntervalMS = 10
	minPollIntervalMS     = 1
	defaultMode           = "0644"
	defaultMaxItems       = 10
	defaultMaxItemBytes   = 1024

	envLogLevel = "IPCQ_LOG_LEVEL"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Defaults: Defaults{
			Codec:          defaultCodec,
			PollIntervalMS: defaultPollIntervalMS,
		},
	}
}

// DefaultPosix returns the settings used for a POSIX queue that the config
// file does not declare.
func DefaultPosix(name string) PosixQueue {
	return PosixQueue{
		Name:         name,
		MaxItems:     defaultMaxItems,
		MaxItemBytes: defaultMaxItemBytes,
		Mode:         defaultMode,
		Perm:         0o644,
	}
}

// DefaultSysV returns the settings used for an undeclared System V key.
func DefaultSysV(key int64) SysVQueue {
	return SysVQueue{Key: key, Mode: defaultMode, Perm: 0o644}
}

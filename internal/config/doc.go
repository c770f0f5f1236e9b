// Package config loads, normalizes, and validates ipcq configuration data.
//
// It supplies defaults, expands user paths, reads TOML files, and honours
// the IPCQ_LOG_LEVEL environment override. Declared queues carry their
// creation limits and permission modes so commands can open them by name
// or alias without repeating flags.
package config

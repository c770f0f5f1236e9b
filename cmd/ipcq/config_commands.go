package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"ipcqueue/internal/config"
	"ipcqueue/internal/kernel"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand(ctx))
	configCmd.AddCommand(newConfigValidateCommand(ctx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !errors.Is(err, fs.ErrNotExist) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			text, err := cfg.Encode()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), text)
			return nil
		},
	}
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration and report on the local queue limits",
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if ctx.configFlag != nil {
				path = strings.TrimSpace(*ctx.configFlag)
			}
			cfg, resolved, exists, err := config.Load(path)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out := cmd.OutOrStdout()
			color := shouldColorize(out)
			for _, line := range validationLines(cfg, resolved, exists) {
				fmt.Fprintln(out, renderStatusLine(line.label, line.kind, line.message, color))
			}
			return nil
		},
	}
}

type statusEntry struct {
	label   string
	kind    statusKind
	message string
}

func validationLines(cfg *config.Config, path string, exists bool) []statusEntry {
	lines := []statusEntry{{label: "Config", kind: statusOK, message: path}}
	if !exists {
		lines[0] = statusEntry{label: "Config", kind: statusWarn, message: "not found; defaults in use"}
	}
	lines = append(lines,
		statusEntry{label: "Codec", kind: statusInfo, message: cfg.Defaults.Codec},
		statusEntry{label: "Poll interval", kind: statusInfo, message: cfg.PollInterval().String()},
	)
	if cfg.Defaults.LockDir == "" {
		lines = append(lines, statusEntry{label: "Lock dir", kind: statusWarn, message: "unset; System V opens are not serialized"})
	} else {
		lines = append(lines, statusEntry{label: "Lock dir", kind: statusOK, message: cfg.Defaults.LockDir})
	}
	for _, q := range cfg.Posix {
		lines = append(lines, statusEntry{
			label:   "POSIX " + q.Name,
			kind:    statusOK,
			message: fmt.Sprintf("%d x %d bytes, mode %s", q.MaxItems, q.MaxItemBytes, q.Mode),
		})
	}
	msgmax := kernel.SysVMessageMax()
	for _, q := range cfg.SysV {
		entry := statusEntry{
			label:   "SysV " + q.Alias,
			kind:    statusOK,
			message: fmt.Sprintf("key 0x%08x, mode %s", q.Key, q.Mode),
		}
		if q.Key == 0 {
			entry.kind = statusWarn
			entry.message += "; key 0 is private to each process"
		}
		if q.MaxBytes > 0 && q.MaxBytes < msgmax {
			entry.message += fmt.Sprintf("; largest message %d bytes", q.MaxBytes)
		}
		lines = append(lines, entry)
	}
	lines = append(lines, statusEntry{label: "SysV msgmax", kind: statusInfo, message: fmt.Sprintf("%d bytes", msgmax)})
	return lines
}

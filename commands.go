package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ytget/yt-queue/internal/config"
	"github.com/ytget/yt-queue/internal/logging"
)

// commandContext carries the persistent flags and the lazily loaded
// environment shared by all subcommands
type commandContext struct {
	configFlag   string
	logLevelFlag string

	env    *config.Environment
	logger *slog.Logger
	closer io.Closer
}

func (c *commandContext) ensureEnvironment() (config.Environment, error) {
	if c.env != nil {
		return *c.env, nil
	}
	env, _, err := config.LoadEnvironment(c.configFlag)
	if err != nil {
		return env, err
	}
	if level := strings.TrimSpace(c.logLevelFlag); level != "" {
		env.Logging.Level = level
	}
	c.env = &env
	return env, nil
}

// ensureLogger builds the logger once. The log file is only opened for the
// window process.
func (c *commandContext) ensureLogger(cmd *cobra.Command, withFile bool) (*slog.Logger, error) {
	if c.logger != nil {
		return c.logger, nil
	}
	env, err := c.ensureEnvironment()
	if err != nil {
		return nil, err
	}
	opts := logging.Options{Level: env.Logging.Level, Console: cmd.ErrOrStderr()}
	if withFile && env.Logging.File {
		if err := os.MkdirAll(env.Paths.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
		opts.File = env.LogPath()
	}
	logger, closer, err := logging.New(opts)
	if err != nil {
		return nil, err
	}
	c.logger, c.closer = logger, closer
	return logger, nil
}

func (c *commandContext) close() {
	if c.closer != nil {
		_ = c.closer.Close()
	}
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "yt-queue",
		Short:         "Download queue for yt-dlp",
		Long:          "yt-queue opens a window that queues video downloads and runs them through yt-dlp and ffmpeg.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := ctx.ensureEnvironment()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger(cmd, true)
			if err != nil {
				return err
			}
			defer ctx.close()
			return runGUI(cmd.Context(), env, logger)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&ctx.configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&ctx.logLevelFlag, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(newToolsCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", AppName, version)
		},
	}
}

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}
	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand(ctx))
	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a sample configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return err
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("check config path: %w", err)
				}
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("create config directory: %w", err)
			}
			if err := os.WriteFile(target, []byte(config.SampleConfig()), 0o644); err != nil {
				return fmt.Errorf("write sample config: %w", err)
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
		Short: "Print the effective runtime configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := ctx.ensureEnvironment()
			if err != nil {
				return err
			}
			rows := [][]string{
				{"paths.data_dir", env.Paths.DataDir},
				{"logging.level", env.Logging.Level},
				{"logging.file", fmt.Sprint(env.Logging.File)},
				{"tools.downloader", orDefault(env.Tools.Downloader)},
				{"tools.converter", orDefault(env.Tools.Converter)},
				{"tools.auto_install", fmt.Sprint(env.Tools.AutoInstall)},
				{"tools.install_dir", env.Tools.InstallDir},
				{"queue.metadata_workers", fmt.Sprint(env.Queue.MetadataWorkers)},
				{"queue.cancel_timeout_seconds", fmt.Sprint(env.Queue.CancelTimeoutSeconds)},
				{"queue.structured_progress", fmt.Sprint(env.Queue.StructuredProgress)},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Key", "Value"}, rows, nil))
			return nil
		},
	}
}

func orDefault(s string) string {
	if s == "" {
		return "(search PATH)"
	}
	return s
}

// signalContext cancels on interrupt so long fetches stop cleanly
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

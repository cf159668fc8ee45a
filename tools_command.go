package main

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/ytget/yt-queue/internal/config"
	"github.com/ytget/yt-queue/internal/tools"
)

const progressBarThrottle = 100 * time.Millisecond

func newToolsCommand(ctx *commandContext) *cobra.Command {
	toolsCmd := &cobra.Command{
		Use:   "tools",
		Short: "Show the external tools yt-queue runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := ctx.ensureEnvironment()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger(cmd, false)
			if err != nil {
				return err
			}
			locator := newLocator(env, logger, nil)
			fmt.Fprintln(cmd.OutOrStdout(), renderToolsTable(locator.Status()))
			return nil
		},
	}
	toolsCmd.AddCommand(newToolsInstallCommand(ctx))
	return toolsCmd
}

func newToolsInstallCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:       "install [yt-dlp|ffmpeg]...",
		Short:     "Download missing tools into the install directory",
		ValidArgs: []string{tools.Downloader, tools.Converter},
		Args:      cobra.OnlyValidArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := ctx.ensureEnvironment()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger(cmd, false)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				args = []string{tools.Downloader, tools.Converter}
			}

			runCtx, cancel := signalContext(cmd.Context())
			defer cancel()

			locator := newLocator(env, logger, progressWriter(cmd.ErrOrStderr()))
			out := cmd.OutOrStdout()
			var failed []string
			for _, st := range locator.Status() {
				if !slices.Contains(args, st.Name) {
					continue
				}
				if st.Available && !force {
					fmt.Fprintf(out, "%s already available at %s\n", st.Name, st.Command)
					continue
				}
				if err := locator.Install(runCtx, st.Name); err != nil {
					logger.Error("install failed", "tool", st.Name, "error", err)
					failed = append(failed, st.Name)
					continue
				}
				fmt.Fprintf(out, "%s installed into %s\n", st.Name, env.Tools.InstallDir)
			}

			locator.Refresh()
			fmt.Fprintln(out, renderToolsTable(locator.Status()))
			if len(failed) > 0 {
				return fmt.Errorf("install failed: %v", failed)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Reinstall even when the tool is already found")
	return cmd
}

func newLocator(env config.Environment, logger *slog.Logger, progress func(string, int64) io.Writer) *tools.Locator {
	return tools.New(tools.Options{
		DownloaderOverride: env.Tools.Downloader,
		ConverterOverride:  env.Tools.Converter,
		InstallDir:         env.Tools.InstallDir,
		AutoInstall:        env.Tools.AutoInstall,
		Logger:             logger,
		Progress:           progress,
	})
}

// progressWriter draws one byte progress bar per fetched archive
func progressWriter(w io.Writer) func(name string, total int64) io.Writer {
	return func(name string, total int64) io.Writer {
		return progressbar.NewOptions64(total,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription(name),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWidth(30),
			progressbar.OptionThrottle(progressBarThrottle),
			progressbar.OptionOnCompletion(func() { fmt.Fprintln(w) }),
		)
	}
}

func renderToolsTable(statuses []tools.Status) string {
	rows := make([][]string, 0, len(statuses))
	for _, st := range statuses {
		state := "missing"
		if st.Available {
			state = "ok"
		} else if st.Optional {
			state = "missing (optional)"
		}
		rows = append(rows, []string{st.Name, state, dash(st.Version), string(st.Source), st.Command})
	}
	return renderTable(
		[]string{"Tool", "State", "Version", "Source", "Command"},
		rows,
		nil,
	)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

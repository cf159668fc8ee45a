package main

import (
	"context"
	"fmt"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"

	"github.com/ytget/yt-queue/internal/appctx"
	"github.com/ytget/yt-queue/internal/config"
	"github.com/ytget/yt-queue/internal/ui"
)

// runGUI opens the main window and blocks until it is closed
func runGUI(ctx context.Context, env config.Environment, logger *slog.Logger) error {
	logger.Info("starting", "version", version, "data_dir", env.Paths.DataDir)

	myApp := app.NewWithID(AppID)

	appCtx, err := appctx.New(ctx, env, logger, fyne.Do)
	if err != nil {
		return fmt.Errorf("start %s: %w", AppName, err)
	}

	myWindow := myApp.NewWindow(fmt.Sprintf("%s v%s", AppName, version))
	root := ui.NewRootUI(myWindow, myApp, appCtx)
	root.CheckTools()

	myWindow.ShowAndRun()

	// a quit from outside the window skips the close intercept
	if err := appCtx.Shutdown(); err != nil {
		logger.Error("shutdown", "error", err)
	}
	logger.Info("stopped")
	return nil
}

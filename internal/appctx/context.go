// Package appctx builds the application object graph once and hands it to the
// UI and the command line. Nothing in the app keeps package-level state.
package appctx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ytget/yt-queue/internal/bridge"
	"github.com/ytget/yt-queue/internal/config"
	"github.com/ytget/yt-queue/internal/download"
	"github.com/ytget/yt-queue/internal/metadata"
	"github.com/ytget/yt-queue/internal/model"
	"github.com/ytget/yt-queue/internal/store"
	"github.com/ytget/yt-queue/internal/tools"
)

// Context carries every long-lived component of a running app
type Context struct {
	Env       config.Environment
	Logger    *slog.Logger
	Store     *store.Store
	Tools     *tools.Locator
	Prober    *metadata.Prober
	Resolver  *metadata.Resolver
	Pool      *metadata.Pool
	Bridge    *bridge.Bridge
	Scheduler *download.Scheduler

	// Warnings collects non-fatal startup problems such as a corrupt document
	Warnings []error

	dispatch bridge.Dispatcher
	settings model.Settings

	mu         sync.Mutex
	onEvents   func([]download.Event)
	onResolved func(metadata.Result)
	closed     bool
}

// New opens the data directory and wires the components. dispatch must run
// its argument on the UI goroutine; the app passes fyne.Do. The returned
// context owns the instance lock until Shutdown.
func New(ctx context.Context, env config.Environment, logger *slog.Logger, dispatch bridge.Dispatcher) (*Context, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Context{Env: env, Logger: logger, dispatch: dispatch}

	st, err := store.Open(env.Paths.DataDir, config.DefaultSettings, logger)
	if err != nil {
		return nil, err
	}
	st.OnWarning(func(err error) { c.Warnings = append(c.Warnings, err) })
	c.Store = st

	// Load errors are already reported as warnings; the returned documents are usable
	settings, _ := st.Settings.Load()
	c.settings = config.NormalizeSettings(settings)
	items, _ := st.LoadQueue()

	c.Tools = tools.New(tools.Options{
		DownloaderOverride: env.Tools.Downloader,
		ConverterOverride:  env.Tools.Converter,
		InstallDir:         env.Tools.InstallDir,
		AutoInstall:        env.Tools.AutoInstall,
		Logger:             logger,
	})
	c.Prober = metadata.NewProber(c.Tools, logger)
	c.Resolver = metadata.NewResolver(c.Prober, metadata.NewNativePlaylist(), logger)

	c.Bridge = bridge.New(dispatch, c.applyEvents)
	c.Scheduler = download.NewScheduler(items, download.Options{
		Runner:             download.ProcessRunner{Prober: c.Prober, Logger: logger},
		Tools:              c.Tools,
		Store:              st,
		Post:               c.Bridge.Post,
		Settings:           c.settings,
		CancelTimeout:      env.CancelTimeout(),
		StructuredProgress: env.Queue.StructuredProgress,
		Logger:             logger,
	})
	c.Pool = metadata.NewPool(ctx, env.Queue.MetadataWorkers, c.Resolver.Resolve, c.deliver, logger)

	logger.Info("application context ready",
		"data_dir", st.Dir(),
		"queued", len(items),
		"concurrency", c.settings.Concurrency)
	return c, nil
}

// OnEvents registers the UI hook that runs after each drained batch was applied
func (c *Context) OnEvents(fn func([]download.Event)) {
	c.mu.Lock()
	c.onEvents = fn
	c.mu.Unlock()
}

// OnResolved registers the UI hook that receives metadata lookups on the UI goroutine
func (c *Context) OnResolved(fn func(metadata.Result)) {
	c.mu.Lock()
	c.onResolved = fn
	c.mu.Unlock()
}

// Settings returns the settings in effect
func (c *Context) Settings() model.Settings {
	return c.settings
}

// SaveSettings normalizes s, persists it and hands it to the scheduler
func (c *Context) SaveSettings(s model.Settings) (model.Settings, error) {
	s = config.NormalizeSettings(s)
	c.settings = s
	c.Scheduler.SetSettings(s)
	if err := c.Store.Settings.Save(s); err != nil {
		return s, fmt.Errorf("save settings: %w", err)
	}
	return s, nil
}

// Lookup schedules a metadata lookup for url using the configured proxy
func (c *Context) Lookup(url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return errors.New("empty url")
	}
	return c.Pool.Submit(metadata.Request{URL: url, Proxy: c.settings.Proxy})
}

// PrepareTools resolves and, when enabled, installs missing tools. It blocks
// on the network and must not run on the UI goroutine.
func (c *Context) PrepareTools(ctx context.Context) []tools.Status {
	return c.Tools.Prepare(ctx)
}

// Shutdown stops every download, drains the remaining events, saves both
// documents and releases the instance lock. With clear_on_exit the documents
// are deleted instead. It must run on the UI goroutine.
func (c *Context) Shutdown() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	start := time.Now()
	killed := c.Scheduler.CancelAll(c.Env.CancelTimeout())
	c.Pool.Close()

	// workers post their last event before signalling done
	c.Bridge.Drain()
	c.Bridge.Close()

	var errs []error
	if c.settings.ClearOnExit {
		if err := c.Store.Clear(); err != nil {
			errs = append(errs, fmt.Errorf("clear on exit: %w", err))
		}
	} else {
		if err := c.Scheduler.Flush(); err != nil {
			errs = append(errs, fmt.Errorf("save queue: %w", err))
		}
		if err := c.Store.Settings.Save(c.settings); err != nil {
			errs = append(errs, fmt.Errorf("save settings: %w", err))
		}
	}
	if err := c.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("release lock: %w", err))
	}

	c.Logger.Info("shutdown complete", "killed", killed, "elapsed", time.Since(start).Round(time.Millisecond))
	return errors.Join(errs...)
}

func (c *Context) applyEvents(batch []download.Event) {
	for _, ev := range batch {
		c.Scheduler.Apply(ev)
	}
	c.mu.Lock()
	fn := c.onEvents
	c.mu.Unlock()
	if fn != nil {
		fn(batch)
	}
}

// deliver runs on a pool worker and hops to the UI goroutine
func (c *Context) deliver(r metadata.Result) {
	c.dispatch(func() {
		c.mu.Lock()
		fn, closed := c.onResolved, c.closed
		c.mu.Unlock()
		if fn != nil && !closed {
			fn(r)
		}
	})
}

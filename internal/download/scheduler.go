package download

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/time/rate"

	"github.com/ytget/yt-queue/internal/config"
	"github.com/ytget/yt-queue/internal/model"
	"github.com/ytget/yt-queue/internal/platform"
)

const (
	// DefaultCancelTimeout is how long a cancelled worker may take before it is killed
	DefaultCancelTimeout = 5 * time.Second

	// ProgressSaveInterval throttles queue writes caused by progress updates
	ProgressSaveInterval = 2 * time.Second
)

// Options configure a Scheduler
type Options struct {
	Runner             Runner
	Tools              Tools
	Store              QueueSaver
	Post               func(Event)
	Settings           model.Settings
	CancelTimeout      time.Duration
	StructuredProgress bool
	Logger             *slog.Logger
}

// Scheduler owns the download queue. It is confined to the UI goroutine:
// every method, including Apply, must be called from there. Workers only
// reach it through events.
type Scheduler struct {
	runner   Runner
	tools    Tools
	store    QueueSaver
	post     func(Event)
	settings model.Settings
	logger   *slog.Logger

	cancelTimeout      time.Duration
	structuredProgress bool

	items     []*model.QueueItem
	completed []*model.QueueItem
	active    map[string]Handle
	progress  map[string]model.ProgressRecord
	steps     map[string]string
	removing  map[string]bool
	selection []string
	autoDrain bool

	saveLimiter *rate.Limiter
	dirty       bool
}

// NewScheduler creates a scheduler over the given restored queue
func NewScheduler(items []*model.QueueItem, opts Options) *Scheduler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.CancelTimeout <= 0 {
		opts.CancelTimeout = DefaultCancelTimeout
	}
	if opts.Post == nil {
		opts.Post = func(Event) {}
	}
	return &Scheduler{
		runner:             opts.Runner,
		tools:              opts.Tools,
		store:              opts.Store,
		post:               opts.Post,
		settings:           opts.Settings,
		logger:             opts.Logger.With("component", "scheduler"),
		cancelTimeout:      opts.CancelTimeout,
		structuredProgress: opts.StructuredProgress,
		items:              slices.Clone(items),
		active:             make(map[string]Handle),
		progress:           make(map[string]model.ProgressRecord),
		steps:              make(map[string]string),
		removing:           make(map[string]bool),
		saveLimiter:        rate.NewLimiter(rate.Every(ProgressSaveInterval), 1),
	}
}

// SetSettings replaces the settings used for future launches. A raised
// concurrency ceiling takes effect immediately.
func (s *Scheduler) SetSettings(settings model.Settings) {
	s.settings = settings
	s.fill()
}

// Settings returns the settings in effect
func (s *Scheduler) Settings() model.Settings {
	return s.settings
}

// Items returns the queue in insertion order. The pointers are live; callers
// on the UI goroutine may read them but must edit through Update.
func (s *Scheduler) Items() []*model.QueueItem {
	return s.items
}

// Completed returns the items finished during this session
func (s *Scheduler) Completed() []*model.QueueItem {
	return s.completed
}

// Item returns the queue item with id
func (s *Scheduler) Item(id string) (*model.QueueItem, bool) {
	i := s.index(id)
	if i < 0 {
		return nil, false
	}
	return s.items[i], true
}

// Progress returns the last progress record of an active item
func (s *Scheduler) Progress(id string) (model.ProgressRecord, bool) {
	rec, ok := s.progress[id]
	return rec, ok
}

// Step returns the last postprocessor step reported for an active item
func (s *Scheduler) Step(id string) string {
	return s.steps[id]
}

// ActiveCount returns the number of running workers
func (s *Scheduler) ActiveCount() int {
	return len(s.active)
}

// IsActive reports whether a worker runs for id
func (s *Scheduler) IsActive(id string) bool {
	_, ok := s.active[id]
	return ok
}

// Idle reports whether no worker is running
func (s *Scheduler) Idle() bool {
	return len(s.active) == 0
}

// HasURL reports whether url is already queued
func (s *Scheduler) HasURL(url string) bool {
	return s.hasURL(url)
}

// Enqueue appends item unless its URL is already queued. An item whose output
// already exists in the save folder is kept as finished.
func (s *Scheduler) Enqueue(item *model.QueueItem) bool {
	if item == nil || item.URL == "" || s.hasURL(item.URL) {
		return false
	}
	if item.ID == "" {
		item.ID = model.NewID()
	}

	item.Status = model.StatusQueued
	if path, ok := platform.ExistingDownload(s.settings.SaveFolder, item.Title, item.Extension()); ok {
		item.Status = model.StatusFinished
		item.SetDownloadPath(path)
		s.logger.Info("already downloaded", "url", item.URL, "path", path)
	}

	s.items = append(s.items, item)
	s.save()
	if s.autoDrain {
		s.fill()
	}
	return true
}

// StartAll launches pending items in insertion order up to the concurrency
// ceiling and keeps doing so as slots free up. Paused items are resumed once;
// an item paused afterwards stays paused until started again.
func (s *Scheduler) StartAll() error {
	if !s.tools.Available() {
		return ErrToolsUnavailable
	}
	if err := config.EnsureOutputDir(s.settings.SaveFolder); err != nil {
		return err
	}
	resumed := false
	for _, it := range s.items {
		if it.Status == model.StatusPaused && !s.IsActive(it.ID) {
			it.Status = model.StatusQueued
			resumed = true
		}
	}
	if resumed {
		s.save()
	}
	s.autoDrain = true
	s.fill()
	return nil
}

// StartSelected launches the given items. Items that do not fit under the
// ceiling are queued and served before auto-drain when a slot frees.
func (s *Scheduler) StartSelected(ids []string) error {
	if !s.tools.Available() {
		for _, id := range ids {
			if it, ok := s.Item(id); ok && it.Status != model.StatusFinished && !s.IsActive(id) {
				it.Status = model.StatusError
				it.Error = ErrorToolUnavailable.Message("")
			}
		}
		s.save()
		return ErrToolsUnavailable
	}
	if err := config.EnsureOutputDir(s.settings.SaveFolder); err != nil {
		return err
	}

	for _, id := range ids {
		it, ok := s.Item(id)
		if !ok || s.IsActive(id) || !it.Status.IsStartable() {
			continue
		}
		it.Status = model.StatusQueued
		it.Error = ""
		if !slices.Contains(s.selection, id) {
			s.selection = append(s.selection, id)
		}
	}
	s.save()
	s.fill()
	return nil
}

// Cancel stops one item. A running worker is asked to stop and killed if it
// does not within the cancel timeout; a waiting item is marked cancelled.
func (s *Scheduler) Cancel(id string) error {
	return s.stop(id, false)
}

// Pause stops one item keeping its partial files so it can resume
func (s *Scheduler) Pause(id string) error {
	return s.stop(id, true)
}

func (s *Scheduler) stop(id string, pause bool) error {
	it, ok := s.Item(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.dropSelection(id)

	if h, ok := s.active[id]; ok {
		if pause {
			h.Pause()
		} else {
			h.Cancel()
		}
		s.armKill(id, h)
		return nil
	}

	switch {
	case pause && it.Status == model.StatusQueued:
		it.Status = model.StatusPaused
	case !pause && it.Status.IsPending():
		it.Status = model.StatusCancelled
	default:
		return nil
	}
	s.save()
	return nil
}

func (s *Scheduler) armKill(id string, h Handle) {
	timeout := s.cancelTimeout
	logger := s.logger
	go func() {
		if !h.Wait(timeout) {
			logger.Warn("worker did not stop in time, killing", "item_id", id, "timeout", timeout)
			h.Kill()
		}
	}()
}

// StopAll leaves auto-drain and cancels every running and waiting item
// without blocking. Running workers are killed after the cancel timeout.
func (s *Scheduler) StopAll() {
	s.autoDrain = false
	s.selection = nil
	changed := false
	for _, it := range s.items {
		if h, ok := s.active[it.ID]; ok {
			h.Cancel()
			s.armKill(it.ID, h)
			continue
		}
		if it.Status.IsPending() {
			it.Status = model.StatusCancelled
			changed = true
		}
	}
	if changed {
		s.save()
	}
}

// CancelAll leaves auto-drain, cancels every worker and blocks until each
// acknowledges or timeout elapses; stragglers are killed. It returns the
// number of killed workers. Terminal events still arrive through the bridge.
func (s *Scheduler) CancelAll(timeout time.Duration) int {
	s.autoDrain = false
	s.selection = nil
	if len(s.active) == 0 {
		return 0
	}

	for _, h := range s.active {
		h.Cancel()
	}

	deadline := time.Now().Add(timeout)
	killed := 0
	for id, h := range s.active {
		if h.Wait(time.Until(deadline)) {
			continue
		}
		s.logger.Warn("worker did not stop in time, killing", "item_id", id)
		h.Kill()
		killed++
	}
	s.logger.Info("cancelled all downloads", "workers", len(s.active), "killed", killed)
	return killed
}

// Remove deletes an item from the queue. A running item is cancelled first
// and removed once its worker ends.
func (s *Scheduler) Remove(id string) error {
	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.dropSelection(id)
	if h, ok := s.active[id]; ok {
		s.removing[id] = true
		h.Cancel()
		s.armKill(id, h)
		return nil
	}
	s.items = slices.Delete(s.items, i, i+1)
	s.save()
	return nil
}

// RemoveCompleted drops an entry from the completed list
func (s *Scheduler) RemoveCompleted(id string) {
	s.completed = slices.DeleteFunc(s.completed, func(it *model.QueueItem) bool { return it.ID == id })
}

// Clear empties the queue. It is refused while downloads run.
func (s *Scheduler) Clear() error {
	if len(s.active) > 0 {
		return ErrActive
	}
	s.items = nil
	s.selection = nil
	s.save()
	return nil
}

// ClearCompleted empties the completed list
func (s *Scheduler) ClearCompleted() {
	s.completed = nil
}

// Update edits an idle item; edits to a running item are rejected
func (s *Scheduler) Update(id string, fn func(*model.QueueItem)) error {
	it, ok := s.Item(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if s.IsActive(id) {
		return ErrActive
	}
	fn(it)
	s.save()
	return nil
}

// Apply folds one worker event into the queue state
func (s *Scheduler) Apply(ev Event) {
	id := ev.ItemID()
	it, ok := s.Item(id)
	if !ok {
		delete(s.active, id)
		return
	}

	switch e := ev.(type) {
	case StepEvent:
		it.Status = e.Status
		if e.Info != nil {
			it.ApplyInfo(*e.Info)
		}
		s.save()
	case ProgressEvent:
		s.progress[id] = e.Record
		if e.Record.Downloaded != "" {
			it.DownloadedSize = e.Record.Downloaded
		}
		if e.Record.Total != "" {
			it.TotalSize = e.Record.Total
		}
		s.saveThrottled()
	case PostprocessEvent:
		s.steps[id] = e.Step
		if it.Status != model.StatusPostprocessing {
			it.Status = model.StatusPostprocessing
			s.save()
		}
	case FinishedEvent:
		s.finish(it, e.Path)
	case ErrorEvent:
		it.Status = model.StatusError
		it.Error = e.Message
		s.logger.Warn("download failed", "item_id", id, "kind", e.Kind, "error", e.Message)
		s.cleanup(it)
	case CancelledEvent:
		if e.Paused {
			it.Status = model.StatusPaused
		} else {
			it.Status = model.StatusCancelled
			s.cleanup(it)
		}
	}

	if !IsTerminal(ev) {
		return
	}
	delete(s.active, id)
	delete(s.progress, id)
	delete(s.steps, id)
	if s.removing[id] {
		delete(s.removing, id)
		if i := s.index(id); i >= 0 {
			s.items = slices.Delete(s.items, i, i+1)
		}
	}
	s.save()
	s.fill()
}

// Flush writes the queue if a throttled save is pending
func (s *Scheduler) Flush() error {
	if !s.dirty {
		return nil
	}
	return s.saveNow()
}

func (s *Scheduler) finish(it *model.QueueItem, path string) {
	it.Status = model.StatusFinished
	it.Error = ""
	it.SetDownloadPath(path)
	if it.TotalSize != "" {
		it.DownloadedSize = it.TotalSize
	}
	s.logger.Info("download finished", "item_id", it.ID, "path", path)

	if i := s.index(it.ID); i >= 0 {
		s.items = slices.Delete(s.items, i, i+1)
	}
	s.completed = append(s.completed, it)
}

func (s *Scheduler) cleanup(it *model.QueueItem) {
	if !s.settings.CleanupOnCancel {
		return
	}
	removed, err := platform.RemovePartialFiles(s.settings.SaveFolder, it.Title)
	if err != nil {
		s.logger.Warn("partial file cleanup failed", "item_id", it.ID, "error", err)
	}
	if len(removed) > 0 {
		s.logger.Info("removed partial files", "item_id", it.ID, "files", removed)
	}
}

// fill launches workers while slots are free: selected items first, then
// pending items in insertion order when auto-drain is on.
func (s *Scheduler) fill() {
	launched := false
	for len(s.active) < config.ClampConcurrency(s.settings.Concurrency) {
		it := s.next()
		if it == nil {
			break
		}
		s.launch(it)
		launched = true
	}
	if launched {
		s.save()
	}
}

func (s *Scheduler) next() *model.QueueItem {
	for len(s.selection) > 0 {
		id := s.selection[0]
		s.selection = s.selection[1:]
		if it, ok := s.Item(id); ok && !s.IsActive(id) && it.Status.IsStartable() {
			return it
		}
	}
	if !s.autoDrain {
		return nil
	}
	// auto-drain takes queued items only; paused ones wait for an explicit start
	for _, it := range s.items {
		if it.Status == model.StatusQueued && !s.IsActive(it.ID) {
			return it
		}
	}
	return nil
}

func (s *Scheduler) launch(it *model.QueueItem) {
	downloader, err := s.tools.DownloaderPath()
	if err != nil {
		it.Status = model.StatusError
		it.Error = ErrorToolUnavailable.Message("")
		s.logger.Error("cannot launch download", "item_id", it.ID, "error", err)
		return
	}

	opts := WorkerOptions{
		OutputDir:          s.settings.SaveFolder,
		Proxy:              s.settings.Proxy,
		Downloader:         downloader,
		Converter:          s.tools.ConverterPath(),
		StructuredProgress: s.structuredProgress,
	}

	it.Status = model.StatusExtracting
	it.Error = ""
	h, err := s.runner.Start(it.Clone(), opts, s.post)
	if err != nil {
		it.Status = model.StatusError
		it.Error = err.Error()
		if errors.Is(err, ErrToolsUnavailable) {
			it.Error = ErrorToolUnavailable.Message("")
		}
		s.logger.Error("cannot launch download", "item_id", it.ID, "error", err)
		return
	}
	s.active[it.ID] = h
	s.logger.Info("download started", "item_id", it.ID, "url", it.URL, "active", len(s.active))
}

func (s *Scheduler) saveThrottled() {
	if s.saveLimiter.Allow() {
		_ = s.saveNow()
		return
	}
	s.dirty = true
}

func (s *Scheduler) save() {
	_ = s.saveNow()
}

func (s *Scheduler) saveNow() error {
	s.dirty = false
	if s.store == nil {
		return nil
	}
	if err := s.store.SaveQueue(s.items); err != nil {
		s.logger.Error("failed to save queue", "error", err)
		return err
	}
	return nil
}

func (s *Scheduler) index(id string) int {
	return slices.IndexFunc(s.items, func(it *model.QueueItem) bool { return it.ID == id })
}

func (s *Scheduler) hasURL(url string) bool {
	return slices.ContainsFunc(s.items, func(it *model.QueueItem) bool { return it.URL == url })
}

func (s *Scheduler) dropSelection(id string) {
	s.selection = slices.DeleteFunc(s.selection, func(sel string) bool { return sel == id })
}

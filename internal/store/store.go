package store

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/ytget/yt-queue/internal/model"
)

// Document file names inside the data directory
const (
	SettingsFile = "settings.json"
	QueueFile    = "queue.json"
	LockFile     = "yt-queue.lock"
)

// ErrLocked is returned by Open when another instance owns the data directory
var ErrLocked = errors.New("data directory is in use by another instance")

// Store owns the data directory: the instance lock and both documents
type Store struct {
	dir      string
	lock     *flock.Flock
	logger   *slog.Logger
	Settings *JSONFile[model.Settings]
	Queue    *JSONFile[[]model.QueueItem]
}

// Open creates dir if needed and takes the instance lock. defaults produces
// the settings document used when none is stored.
func Open(dir string, defaults func() model.Settings, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	lock := flock.New(filepath.Join(dir, LockFile))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, dir)
	}

	logger = logger.With("component", "store")
	return &Store{
		dir:      dir,
		lock:     lock,
		logger:   logger,
		Settings: NewJSONFile(filepath.Join(dir, SettingsFile), defaults, logger),
		Queue:    NewJSONFile(filepath.Join(dir, QueueFile), func() []model.QueueItem { return []model.QueueItem{} }, logger),
	}, nil
}

// Dir returns the data directory
func (s *Store) Dir() string {
	return s.dir
}

// OnWarning routes non-fatal load problems of both documents to fn
func (s *Store) OnWarning(fn func(error)) {
	s.Settings.OnWarning(fn)
	s.Queue.OnWarning(fn)
}

// LoadQueue returns the stored queue with invalid entries dropped. Items that
// were active when the app stopped come back as paused so they can resume.
func (s *Store) LoadQueue() ([]*model.QueueItem, error) {
	items, err := s.Queue.Load()
	return NormalizeQueue(items, s.logger), err
}

// SaveQueue persists items in order
func (s *Store) SaveQueue(items []*model.QueueItem) error {
	out := make([]model.QueueItem, 0, len(items))
	for _, it := range items {
		out = append(out, it.Clone())
	}
	return s.Queue.Save(out)
}

// Clear removes both documents; used by clear-on-exit
func (s *Store) Clear() error {
	return errors.Join(s.Settings.Remove(), s.Queue.Remove())
}

// Close releases the instance lock
func (s *Store) Close() error {
	if s.lock == nil {
		return nil
	}
	return s.lock.Unlock()
}

// NormalizeQueue validates loaded items: entries without URL are dropped,
// duplicate URLs keep their first occurrence, missing IDs are generated and
// unknown or active statuses are reset.
func NormalizeQueue(items []model.QueueItem, logger *slog.Logger) []*model.QueueItem {
	seen := make(map[string]bool, len(items))
	ids := make(map[string]bool, len(items))
	out := make([]*model.QueueItem, 0, len(items))

	for i := range items {
		it := items[i]
		if it.URL == "" || seen[it.URL] {
			if logger != nil {
				logger.Warn("dropping queue entry", "index", i, "url", it.URL)
			}
			continue
		}
		seen[it.URL] = true

		if it.ID == "" || ids[it.ID] {
			it.ID = model.NewID()
		}
		ids[it.ID] = true

		switch {
		case it.Status.IsActive():
			it.Status = model.StatusPaused
		case !it.Status.IsValid():
			it.Status = model.StatusQueued
		}
		if it.Quality == "" {
			it.Quality = model.QualityBest
		}
		out = append(out, &it)
	}
	return out
}

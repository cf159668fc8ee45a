package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// Backup and temp suffixes used while saving
const (
	BackupSuffix = ".bak"
	TempSuffix   = ".tmp"
	filePerm     = 0o644
)

// ErrCorrupt marks a document that exists but could not be used
var ErrCorrupt = errors.New("document is corrupt")

// rename is swapped in tests to simulate failures
var rename = os.Rename

// JSONFile is one persisted document of type T
type JSONFile[T any] struct {
	path      string
	def       func() T
	logger    *slog.Logger
	onWarning func(error)
}

// NewJSONFile binds a document type to a path; def produces the value used
// when the file is missing or unusable.
func NewJSONFile[T any](path string, def func() T, logger *slog.Logger) *JSONFile[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &JSONFile[T]{path: path, def: def, logger: logger.With("document", filepath.Base(path))}
}

// Path returns the document location
func (f *JSONFile[T]) Path() string {
	return f.path
}

// OnWarning registers a callback for non-fatal load problems
func (f *JSONFile[T]) OnWarning(fn func(error)) {
	f.onWarning = fn
}

// Load returns the parsed document or the default. A missing file is not an
// error; a backup left by an interrupted save is used when present. A corrupt file is left untouched, logged, reported through the
// warning callback and returned as an ErrCorrupt-wrapped error alongside the
// default value, which is always usable.
func (f *JSONFile[T]) Load() (T, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		// an interrupted save can leave only the backup behind
		data, err = os.ReadFile(f.path + BackupSuffix)
		if errors.Is(err, fs.ErrNotExist) {
			return f.def(), nil
		}
		if err == nil {
			f.logger.Warn("document missing, loading backup", "path", f.path)
		}
	}
	if err != nil {
		return f.fail(fmt.Errorf("read %s: %w", f.path, err))
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || (trimmed[0] != '{' && trimmed[0] != '[') {
		return f.fail(fmt.Errorf("%w: %s: top level is not an object or array", ErrCorrupt, f.path))
	}

	var v T
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return f.fail(fmt.Errorf("%w: %s: %v", ErrCorrupt, f.path, err))
	}
	return v, nil
}

func (f *JSONFile[T]) fail(err error) (T, error) {
	f.logger.Warn("using default document", "path", f.path, "error", err)
	if f.onWarning != nil {
		f.onWarning(err)
	}
	return f.def(), err
}

// Save writes v as indented JSON. The previous document is kept as .bak until
// the new one is in place and restored if the swap fails; the .bak is removed
// after every successful save.
func (f *JSONFile[T]) Save(v T) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", f.path, err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", f.path, err)
	}

	tmp := f.path + TempSuffix
	if err := os.WriteFile(tmp, data, filePerm); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write %s: %w", tmp, err)
	}

	bak := f.path + BackupSuffix
	hadPrevious := false
	if _, err := os.Stat(f.path); err == nil {
		if err := rename(f.path, bak); err != nil {
			_ = os.Remove(tmp)
			return fmt.Errorf("backup %s: %w", f.path, err)
		}
		hadPrevious = true
	}

	if err := rename(tmp, f.path); err != nil {
		_ = os.Remove(tmp)
		if hadPrevious {
			if rerr := rename(bak, f.path); rerr != nil {
				f.logger.Error("restore from backup failed", "path", f.path, "error", rerr)
				return errors.Join(fmt.Errorf("replace %s: %w", f.path, err), rerr)
			}
			f.logger.Warn("save failed, previous document restored", "path", f.path, "error", err)
		}
		return fmt.Errorf("replace %s: %w", f.path, err)
	}

	if hadPrevious {
		if err := os.Remove(bak); err != nil && !errors.Is(err, fs.ErrNotExist) {
			f.logger.Debug("remove backup", "path", bak, "error", err)
		}
	}
	return nil
}

// Remove deletes the document and any leftovers of an interrupted save
func (f *JSONFile[T]) Remove() error {
	var errs []error
	for _, p := range []string{f.path, f.path + BackupSuffix, f.path + TempSuffix} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

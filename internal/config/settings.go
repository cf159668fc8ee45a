package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ytget/yt-queue/internal/model"
	"github.com/ytget/yt-queue/internal/platform"
)

// Default values of the settings document
const (
	DefaultConcurrency     = 3
	MinConcurrency         = 1
	MaxConcurrency         = 10
	DefaultWindowWidth     = 1100
	DefaultWindowHeight    = 720
	DefaultQuality         = model.QualityBest
	DefaultContainer       = model.ContainerMP4
	DefaultTheme           = model.ThemeSystem
	DefaultLanguage        = "en"
	DefaultCleanupOnCancel = true
	fallbackDownloadDir    = "downloads"
)

// ErrOutputDirNotWritable is returned when the save folder cannot receive files
var ErrOutputDirNotWritable = errors.New("output directory is not writable")

// DefaultSettings returns the settings used when no document exists yet
func DefaultSettings() model.Settings {
	dir, err := platform.GetHomeDownloadsDir()
	if err != nil {
		dir = filepath.Join(os.TempDir(), fallbackDownloadDir)
	}
	return model.Settings{
		WindowSize:      [2]int{DefaultWindowWidth, DefaultWindowHeight},
		SaveFolder:      dir,
		Container:       DefaultContainer,
		Quality:         DefaultQuality,
		Concurrency:     DefaultConcurrency,
		SubtitleLang:    model.SubtitleNone,
		Theme:           DefaultTheme,
		Language:        DefaultLanguage,
		CleanupOnCancel: DefaultCleanupOnCancel,
	}
}

// NormalizeSettings clamps and fills the fields of a loaded document so the
// rest of the app never sees out-of-range values.
func NormalizeSettings(s model.Settings) model.Settings {
	def := DefaultSettings()

	s.Concurrency = ClampConcurrency(s.Concurrency)
	if s.WindowSize[0] <= 0 || s.WindowSize[1] <= 0 {
		s.WindowSize = def.WindowSize
	}
	if strings.TrimSpace(s.SaveFolder) == "" {
		s.SaveFolder = def.SaveFolder
	}
	s.Quality = model.ParseQuality(string(s.Quality))
	s.Container = model.ParseContainer(string(s.Container))
	switch s.Theme {
	case model.ThemeLight, model.ThemeDark, model.ThemeSystem:
	default:
		s.Theme = def.Theme
	}
	if s.Language == "" {
		s.Language = def.Language
	}
	s.Proxy = strings.TrimSpace(s.Proxy)
	return s
}

// ClampConcurrency limits the parallel download count to 1..10. Zero means unset.
func ClampConcurrency(n int) int {
	if n == 0 {
		return DefaultConcurrency
	}
	if n < MinConcurrency {
		return MinConcurrency
	}
	if n > MaxConcurrency {
		return MaxConcurrency
	}
	return n
}

// EnsureOutputDir creates dir if needed and verifies that files can be created in it
func EnsureOutputDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return fmt.Errorf("%w: empty path", ErrOutputDirNotWritable)
	}
	if err := platform.CreateDirectoryIfNotExists(dir); err != nil {
		return fmt.Errorf("%w: %v", ErrOutputDirNotWritable, err)
	}
	probe, err := os.CreateTemp(dir, ".write-test-*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOutputDirNotWritable, err)
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)
	return nil
}

package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// AppName is used for the data directory and the config file location
const AppName = "yt-queue"

//go:embed sample_config.toml
var sampleConfig string

// SampleConfig returns the commented example configuration file
func SampleConfig() string {
	return sampleConfig
}

// Paths holds the data locations.
type Paths struct {
	DataDir string `toml:"data_dir"`
}

// Logging controls log output.
type Logging struct {
	Level string `toml:"level"`
	File  bool   `toml:"file"`
}

// Tools overrides the external tool lookup.
type Tools struct {
	Downloader  string `toml:"downloader"`
	Converter   string `toml:"converter"`
	AutoInstall bool   `toml:"auto_install"`
	InstallDir  string `toml:"install_dir"`
}

// Queue tunes background work.
type Queue struct {
	MetadataWorkers      int  `toml:"metadata_workers"`
	CancelTimeoutSeconds int  `toml:"cancel_timeout_seconds"`
	StructuredProgress   bool `toml:"structured_progress"`
}

// Environment is the runtime configuration read from an optional TOML file.
// User-facing settings live in the settings document instead.
type Environment struct {
	Paths   Paths   `toml:"paths"`
	Logging Logging `toml:"logging"`
	Tools   Tools   `toml:"tools"`
	Queue   Queue   `toml:"queue"`
}

// Environment defaults
const (
	DefaultLogLevel             = "info"
	DefaultMetadataWorkers      = 4
	DefaultCancelTimeoutSeconds = 5
	maxMetadataWorkers          = 16
)

// DefaultEnvironment returns the configuration used without a file
func DefaultEnvironment() Environment {
	return Environment{
		Logging: Logging{Level: DefaultLogLevel},
		Tools:   Tools{AutoInstall: true},
		Queue: Queue{
			MetadataWorkers:      DefaultMetadataWorkers,
			CancelTimeoutSeconds: DefaultCancelTimeoutSeconds,
		},
	}
}

// DefaultConfigPath returns <user config dir>/yt-queue/config.toml
func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config directory: %w", err)
	}
	return filepath.Join(dir, AppName, "config.toml"), nil
}

// LoadEnvironment parses the TOML file at path. An empty path means the
// default location; a missing file yields the defaults. The second return
// value reports whether a file was read.
func LoadEnvironment(path string) (Environment, bool, error) {
	env := DefaultEnvironment()

	if path == "" {
		var err error
		if path, err = DefaultConfigPath(); err != nil {
			return env, false, err
		}
	}
	path, err := ExpandPath(path)
	if err != nil {
		return env, false, err
	}

	exists := true
	file, err := os.Open(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		exists = false
	case err != nil:
		return env, false, fmt.Errorf("open config: %w", err)
	default:
		defer file.Close()
		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&env); err != nil {
			return env, false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := env.normalize(); err != nil {
		return env, exists, err
	}
	return env, exists, nil
}

func (e *Environment) normalize() error {
	var err error
	if strings.TrimSpace(e.Paths.DataDir) == "" {
		dir, derr := os.UserConfigDir()
		if derr != nil {
			return fmt.Errorf("resolve data directory: %w", derr)
		}
		e.Paths.DataDir = filepath.Join(dir, AppName)
	}
	if e.Paths.DataDir, err = ExpandPath(e.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if e.Tools.InstallDir == "" {
		e.Tools.InstallDir = filepath.Join(e.Paths.DataDir, "bin")
	}
	if e.Tools.InstallDir, err = ExpandPath(e.Tools.InstallDir); err != nil {
		return fmt.Errorf("tools.install_dir: %w", err)
	}
	if e.Tools.Downloader, err = ExpandPath(e.Tools.Downloader); err != nil {
		return fmt.Errorf("tools.downloader: %w", err)
	}
	if e.Tools.Converter, err = ExpandPath(e.Tools.Converter); err != nil {
		return fmt.Errorf("tools.converter: %w", err)
	}

	e.Logging.Level = strings.ToLower(strings.TrimSpace(e.Logging.Level))
	switch e.Logging.Level {
	case "":
		e.Logging.Level = DefaultLogLevel
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unknown level %q", e.Logging.Level)
	}

	if e.Queue.MetadataWorkers <= 0 {
		e.Queue.MetadataWorkers = DefaultMetadataWorkers
	}
	e.Queue.MetadataWorkers = min(e.Queue.MetadataWorkers, maxMetadataWorkers)
	if e.Queue.CancelTimeoutSeconds <= 0 {
		e.Queue.CancelTimeoutSeconds = DefaultCancelTimeoutSeconds
	}
	return nil
}

// CancelTimeout is how long a cancelled worker may take before it is killed
func (e Environment) CancelTimeout() time.Duration {
	return time.Duration(e.Queue.CancelTimeoutSeconds) * time.Second
}

// SettingsPath is the location of the settings document
func (e Environment) SettingsPath() string {
	return filepath.Join(e.Paths.DataDir, "settings.json")
}

// QueuePath is the location of the queue document
func (e Environment) QueuePath() string {
	return filepath.Join(e.Paths.DataDir, "queue.json")
}

// LogPath is the location of the optional log file
func (e Environment) LogPath() string {
	return filepath.Join(e.Paths.DataDir, AppName+".log")
}

// ExpandPath resolves a leading ~ and makes the path absolute. Empty stays empty.
func ExpandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

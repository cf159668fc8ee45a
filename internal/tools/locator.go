package tools

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Tool names
const (
	Downloader = "yt-dlp"
	Converter  = "ffmpeg"
	Prober     = "ffprobe"
)

// Source tells where a tool was found
type Source string

const (
	SourceOverride  Source = "override"
	SourcePath      Source = "path"
	SourceLocal     Source = "local"
	SourceInstalled Source = "installed"
	SourceMissing   Source = "missing"
)

// Timeouts
const (
	VersionTimeout = 10 * time.Second
	InstallTimeout = 10 * time.Minute
)

// ErrUnavailable is returned when a required tool cannot be resolved
var ErrUnavailable = errors.New("required tool is not available")

// Status reports the availability of one tool
type Status struct {
	Name        string
	Description string
	Command     string
	Version     string
	Source      Source
	Optional    bool
	Available   bool
	Detail      string
}

// Options configure a Locator
type Options struct {
	DownloaderOverride string
	ConverterOverride  string
	InstallDir         string
	AutoInstall        bool
	Client             *http.Client
	Logger             *slog.Logger

	// Progress, when set, receives a copy of every fetched archive. total is
	// -1 when the server does not announce a length.
	Progress func(name string, total int64) io.Writer

	// DownloaderURL and ConverterURL replace the per-OS release URLs
	DownloaderURL string
	ConverterURL  string
}

// Locator resolves tool paths and caches the results
type Locator struct {
	opts   Options
	logger *slog.Logger

	mu    sync.Mutex
	cache map[string]Status
}

// New creates a locator
func New(opts Options) *Locator {
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: InstallTimeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Locator{
		opts:   opts,
		logger: logger.With("component", "tools"),
		cache:  make(map[string]Status),
	}
}

// Available reports whether the downloader can be started. It never fetches
// and never runs a version probe, so it is safe to call from the UI goroutine.
func (l *Locator) Available() bool {
	_, ok := l.path(Downloader)
	return ok
}

// DownloaderPath returns the downloader location or ErrUnavailable. Like
// Available it only looks at the file system.
func (l *Locator) DownloaderPath() (string, error) {
	path, ok := l.path(Downloader)
	if !ok {
		return "", fmt.Errorf("%w: %s: binary %q not found", ErrUnavailable, Downloader, executableName(Downloader))
	}
	return path, nil
}

// ConverterPath returns the converter location or "" when missing
func (l *Locator) ConverterPath() string {
	path, _ := l.path(Converter)
	return path
}

// path prefers a cached status and falls back to a lookup without a version probe
func (l *Locator) path(name string) (string, bool) {
	l.mu.Lock()
	st, ok := l.cache[name]
	l.mu.Unlock()
	if ok {
		if !st.Available {
			return "", false
		}
		return st.Command, true
	}
	path, _, found := l.lookup(name)
	return path, found
}

// Status resolves both tools
func (l *Locator) Status() []Status {
	return []Status{l.Resolve(Downloader), l.Resolve(Converter)}
}

// Refresh drops cached results so the next call looks again
func (l *Locator) Refresh() {
	l.mu.Lock()
	l.cache = make(map[string]Status)
	l.mu.Unlock()
}

// Resolve finds a tool and its version, using the session cache
func (l *Locator) Resolve(name string) Status {
	l.mu.Lock()
	if st, ok := l.cache[name]; ok {
		l.mu.Unlock()
		return st
	}
	l.mu.Unlock()

	st := Status{
		Name:        name,
		Description: describe(name),
		Optional:    name != Downloader,
		Command:     name,
		Source:      SourceMissing,
	}
	if path, src, ok := l.lookup(name); ok {
		st.Command = path
		st.Source = src
		st.Available = true
		ctx, cancel := context.WithTimeout(context.Background(), VersionTimeout)
		st.Version = probeVersion(ctx, name, path)
		cancel()
	} else {
		st.Detail = fmt.Sprintf("binary %q not found", executableName(name))
	}

	l.mu.Lock()
	l.cache[name] = st
	l.mu.Unlock()
	return st
}

// Prepare resolves both tools, installing missing ones when auto-install is
// enabled. It may download for minutes and must not run on the UI goroutine.
func (l *Locator) Prepare(ctx context.Context) []Status {
	statuses := l.Status()
	if !l.opts.AutoInstall {
		return statuses
	}

	installed := false
	for _, st := range statuses {
		if st.Available {
			continue
		}
		l.logger.Info("installing missing tool", "tool", st.Name, "dir", l.opts.InstallDir)
		if err := l.Install(ctx, st.Name); err != nil {
			l.logger.Warn("tool install failed", "tool", st.Name, "error", err)
			continue
		}
		installed = true
	}
	if !installed {
		return statuses
	}

	l.Refresh()
	statuses = l.Status()
	for i := range statuses {
		if statuses[i].Available && statuses[i].Source == SourceLocal {
			statuses[i].Source = SourceInstalled
		}
	}
	l.mu.Lock()
	for _, st := range statuses {
		l.cache[st.Name] = st
	}
	l.mu.Unlock()
	return statuses
}

func (l *Locator) lookup(name string) (string, Source, bool) {
	override := ""
	switch name {
	case Downloader:
		override = l.opts.DownloaderOverride
	case Converter:
		override = l.opts.ConverterOverride
	}
	if override != "" {
		if info, err := os.Stat(override); err == nil && isExecutable(info) {
			return override, SourceOverride, true
		}
		l.logger.Warn("configured tool path is not executable", "tool", name, "path", override)
	}

	if path, err := exec.LookPath(name); err == nil {
		return path, SourcePath, true
	}

	if l.opts.InstallDir != "" {
		local := filepath.Join(l.opts.InstallDir, executableName(name))
		if info, err := os.Stat(local); err == nil && isExecutable(info) {
			return local, SourceLocal, true
		}
	}
	return "", SourceMissing, false
}

func probeVersion(ctx context.Context, name, path string) string {
	arg := "--version"
	if name == Converter || name == Prober {
		arg = "-version"
	}
	cmd := exec.CommandContext(ctx, path, arg)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return ""
	}
	sc := bufio.NewScanner(&out)
	if !sc.Scan() {
		return ""
	}
	line := strings.TrimSpace(sc.Text())
	if name == Converter || name == Prober {
		// "ffmpeg version 7.0.1-static https://..." -> "7.0.1-static"
		fields := strings.Fields(line)
		if len(fields) >= 3 && fields[1] == "version" {
			return fields[2]
		}
	}
	return line
}

func describe(name string) string {
	switch name {
	case Downloader:
		return "Downloads media and drives postprocessing"
	case Converter:
		return "Merges, remuxes and converts downloaded streams"
	default:
		return ""
	}
}

func executableName(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}

func isExecutable(info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}

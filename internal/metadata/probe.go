package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/ytget/yt-queue/internal/model"
	"github.com/ytget/yt-queue/internal/platform"
)

// DefaultProbeTimeout bounds a single metadata lookup
const DefaultProbeTimeout = 2 * time.Minute

// maxStderr limits how much diagnostic output is kept for error messages
const maxStderr = 4096

// ErrProbeFailed wraps a non-zero exit of the downloader in JSON mode
var ErrProbeFailed = errors.New("metadata probe failed")

// DownloaderLocator resolves the downloader executable
type DownloaderLocator interface {
	DownloaderPath() (string, error)
}

// ProbeOptions tune one lookup
type ProbeOptions struct {
	Proxy string
	// Flat lists playlist entries without resolving each one
	Flat bool
	// NoPlaylist resolves only the video even if the URL names a playlist
	NoPlaylist bool
}

// Prober runs the downloader in metadata-only mode
type Prober struct {
	tools   DownloaderLocator
	timeout time.Duration
	logger  *slog.Logger
}

// NewProber creates a prober
func NewProber(tools DownloaderLocator, logger *slog.Logger) *Prober {
	if logger == nil {
		logger = slog.Default()
	}
	return &Prober{tools: tools, timeout: DefaultProbeTimeout, logger: logger.With("component", "probe")}
}

// SetTimeout sets the timeout for a lookup
func (p *Prober) SetTimeout(timeout time.Duration) {
	p.timeout = timeout
}

// ProbeArgs returns the downloader arguments for a metadata lookup
func ProbeArgs(url string, opts ProbeOptions) []string {
	args := []string{"-J", "--no-warnings", "--skip-download"}
	if opts.Flat {
		args = append(args, "--flat-playlist")
	}
	if opts.NoPlaylist {
		args = append(args, "--no-playlist")
	}
	if opts.Proxy != "" {
		args = append(args, "--proxy", opts.Proxy)
	}
	return append(args, "--", url)
}

// Probe returns the metadata document for url
func (p *Prober) Probe(ctx context.Context, url string, opts ProbeOptions) (model.VideoInfo, error) {
	var info model.VideoInfo

	bin, err := p.tools.DownloaderPath()
	if err != nil {
		return info, err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, bin, ProbeArgs(url, opts)...)
	platform.PrepareCommand(cmd)
	cmd.Cancel = func() error { return platform.KillProcess(cmd) }
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	started := time.Now()
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return info, fmt.Errorf("probe %s: %w", url, ctx.Err())
		}
		return info, fmt.Errorf("%w: %s: %s", ErrProbeFailed, url, tail(stderr.String(), maxStderr))
	}

	if err := json.Unmarshal(stdout.Bytes(), &info); err != nil {
		return info, fmt.Errorf("decode probe output for %s: %w", url, err)
	}
	p.logger.Debug("probe finished", "url", url, "title", info.Title, "entries", len(info.Entries), "elapsed", time.Since(started))
	return info, nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

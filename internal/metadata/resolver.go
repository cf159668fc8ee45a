package metadata

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ytget/yt-queue/internal/model"
)

// ErrNoEntries is returned when a URL resolves to nothing downloadable
var ErrNoEntries = errors.New("no downloadable entries")

// Source looks up one URL
type Source interface {
	Probe(ctx context.Context, url string, opts ProbeOptions) (model.VideoInfo, error)
}

// PlaylistSource lists playlist entries without the downloader
type PlaylistSource interface {
	Entries(ctx context.Context, url string) ([]model.VideoInfo, error)
}

// Resolver turns a URL into the list of videos to queue
type Resolver struct {
	probe    Source
	fallback PlaylistSource
	logger   *slog.Logger
}

// NewResolver creates a resolver; fallback may be nil
func NewResolver(probe Source, fallback PlaylistSource, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{probe: probe, fallback: fallback, logger: logger.With("component", "resolver")}
}

// Resolve returns one VideoInfo per downloadable video. Playlist entries get
// absolute URLs; entries without one are skipped.
func (r *Resolver) Resolve(ctx context.Context, url, proxy string) ([]model.VideoInfo, error) {
	info, err := r.probe.Probe(ctx, url, ProbeOptions{Proxy: proxy, Flat: true})
	if err != nil {
		if r.fallback == nil || !IsPlaylistURL(url) || ctx.Err() != nil {
			return nil, err
		}
		r.logger.Warn("probe failed, listing playlist natively", "url", url, "error", err)
		entries, ferr := r.fallback.Entries(ctx, url)
		if ferr != nil {
			return nil, errors.Join(err, ferr)
		}
		return withURLs(entries)
	}

	if !info.IsPlaylist() {
		if info.WebpageURL == "" {
			info.WebpageURL = url
		}
		return []model.VideoInfo{info}, nil
	}
	return withURLs(info.Entries)
}

func withURLs(entries []model.VideoInfo) ([]model.VideoInfo, error) {
	out := make([]model.VideoInfo, 0, len(entries))
	for _, e := range entries {
		u := e.ResolvedURL()
		if u == "" {
			continue
		}
		e.WebpageURL = u
		if e.Title == "" {
			e.Title = u
		}
		out = append(out, e)
	}
	if len(out) == 0 {
		return nil, ErrNoEntries
	}
	return out, nil
}

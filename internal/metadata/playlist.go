package metadata

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ytget/ytdlp/v2"

	"github.com/ytget/yt-queue/internal/model"
)

// DefaultParseTimeout bounds a native playlist listing
const DefaultParseTimeout = 60 * time.Second

// URL parameters and separators
const (
	PlaylistParam  = "list="
	ParamSeparator = "&"
)

// NativePlaylist lists YouTube playlists in-process, without the downloader
// executable. It is the fallback when the CLI lookup of a playlist fails.
type NativePlaylist struct {
	timeout time.Duration
}

// NewNativePlaylist creates a playlist lister
func NewNativePlaylist() *NativePlaylist {
	return &NativePlaylist{timeout: DefaultParseTimeout}
}

// SetTimeout sets the timeout for parsing operations
func (n *NativePlaylist) SetTimeout(timeout time.Duration) {
	n.timeout = timeout
}

// IsPlaylistURL reports whether url carries a playlist parameter
func IsPlaylistURL(url string) bool {
	return ExtractPlaylistID(url) != ""
}

// ExtractPlaylistID returns the first list= value of url
func ExtractPlaylistID(url string) string {
	_, after, ok := strings.Cut(url, PlaylistParam)
	if !ok {
		return ""
	}
	id, _, _ := strings.Cut(after, ParamSeparator)
	return id
}

// Entries lists the videos of a playlist URL
func (n *NativePlaylist) Entries(ctx context.Context, url string) ([]model.VideoInfo, error) {
	playlistID := ExtractPlaylistID(url)
	if playlistID == "" {
		return nil, fmt.Errorf("could not extract playlist ID from URL: %s", url)
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	d := ytdlp.New()
	items, err := d.GetPlaylistItemsAll(ctx, playlistID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist items: %w", err)
	}

	entries := make([]model.VideoInfo, 0, len(items))
	for _, it := range items {
		entries = append(entries, model.VideoInfo{
			ID:         it.VideoID,
			Title:      it.Title,
			WebpageURL: fmt.Sprintf(model.YouTubeVideoURLTemplate, it.VideoID),
		})
	}
	return entries, nil
}

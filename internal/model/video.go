package model

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// YouTubeVideoURLTemplate builds a watch URL from a bare playlist entry ID
const YouTubeVideoURLTemplate = "https://www.youtube.com/watch?v=%s"

// Time formatting constants
const (
	SecondsPerHour   = 3600
	SecondsPerMinute = 60
)

// VideoInfo is the subset of a metadata probe document the app uses
type VideoInfo struct {
	ID             string      `json:"id"`
	Title          string      `json:"title"`
	URL            string      `json:"url"`
	WebpageURL     string      `json:"webpage_url"`
	Duration       float64     `json:"duration"`
	DurationText   string      `json:"duration_string"`
	Thumbnail      string      `json:"thumbnail"`
	Filesize       int64       `json:"filesize"`
	FilesizeApprox int64       `json:"filesize_approx"`
	ViewCount      int64       `json:"view_count"`
	UploadDate     string      `json:"upload_date"`
	Type           string      `json:"_type"`
	Entries        []VideoInfo `json:"entries"`
}

// IsPlaylist reports whether the probe returned a playlist document
func (vi VideoInfo) IsPlaylist() bool {
	return vi.Type == "playlist" || len(vi.Entries) > 0
}

// ResolvedURL returns an absolute URL for the entry. Flat playlist entries
// sometimes carry only a video ID.
func (vi VideoInfo) ResolvedURL() string {
	for _, candidate := range []string{vi.WebpageURL, vi.URL} {
		if strings.HasPrefix(candidate, "http") {
			return candidate
		}
	}
	if vi.URL != "" {
		return fmt.Sprintf(YouTubeVideoURLTemplate, vi.URL)
	}
	if vi.ID != "" {
		return fmt.Sprintf(YouTubeVideoURLTemplate, vi.ID)
	}
	return ""
}

// DurationString returns the printed duration or formats the numeric one
func (vi VideoInfo) DurationString() string {
	if vi.DurationText != "" {
		return vi.DurationText
	}
	if vi.Duration <= 0 {
		return ""
	}
	return FormatDuration(int(vi.Duration))
}

// SizeString returns the exact or approximate size in human form
func (vi VideoInfo) SizeString() string {
	size := vi.Filesize
	if size <= 0 {
		size = vi.FilesizeApprox
	}
	if size <= 0 {
		return ""
	}
	return humanize.IBytes(uint64(size))
}

// FormatDuration formats seconds into HH:MM:SS or MM:SS
func FormatDuration(seconds int) string {
	hours := seconds / SecondsPerHour
	minutes := (seconds % SecondsPerHour) / SecondsPerMinute
	secs := seconds % SecondsPerMinute
	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%02d:%02d", minutes, secs)
}

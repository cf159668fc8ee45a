package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// QueueItem is one download request together with its persisted state
type QueueItem struct {
	ID             string    `json:"id"`
	URL            string    `json:"url"`
	Title          string    `json:"title"`
	Quality        Quality   `json:"quality"`
	Container      Container `json:"video_format"`
	AudioOnly      bool      `json:"audio_only"`
	SubtitleLang   string    `json:"subtitle_lang"`
	Status         Status    `json:"status"`
	DownloadedSize string    `json:"downloaded_size"`
	TotalSize      string    `json:"filesize_str"`
	DownloadPath   *string   `json:"download_path"`
	ThumbnailURL   string    `json:"thumbnail_url"`
	Duration       string    `json:"duration_str,omitempty"`
	ViewCount      int64     `json:"view_count,omitempty"`
	UploadDate     string    `json:"upload_date,omitempty"`
	Error          string    `json:"error,omitempty"`
	AddedAt        time.Time `json:"added_at"`
}

// NewID returns a time-ordered unique identifier for queue items
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// NewQueueItem creates a queued item for url using the download defaults from settings
func NewQueueItem(url string, s Settings) *QueueItem {
	return &QueueItem{
		ID:           NewID(),
		URL:          url,
		Title:        url,
		Quality:      s.Quality,
		Container:    s.Container,
		AudioOnly:    s.AudioOnly,
		SubtitleLang: s.SubtitleLang,
		Status:       StatusQueued,
		AddedAt:      time.Now(),
	}
}

// ApplyInfo copies probe metadata onto the item
func (qi *QueueItem) ApplyInfo(info VideoInfo) {
	if info.Title != "" {
		qi.Title = info.Title
	}
	if info.WebpageURL != "" {
		qi.URL = info.WebpageURL
	}
	qi.ThumbnailURL = info.Thumbnail
	qi.Duration = info.DurationString()
	qi.TotalSize = info.SizeString()
	qi.ViewCount = info.ViewCount
	qi.UploadDate = info.UploadDate
}

// SetDownloadPath records the output path; an empty path clears it
func (qi *QueueItem) SetDownloadPath(path string) {
	if path == "" {
		qi.DownloadPath = nil
		return
	}
	qi.DownloadPath = &path
}

// Path returns the recorded output path or an empty string
func (qi *QueueItem) Path() string {
	if qi.DownloadPath == nil {
		return ""
	}
	return *qi.DownloadPath
}

// Extension returns the file extension the finished download is expected to have
func (qi *QueueItem) Extension() string {
	if qi.AudioOnly {
		return AudioFormat
	}
	if qi.Container == "" {
		return string(ContainerMP4)
	}
	return string(qi.Container)
}

// FormatLabel describes the chosen output for list rows
func (qi *QueueItem) FormatLabel() string {
	if qi.AudioOnly {
		return "audio/" + AudioFormat
	}
	return fmt.Sprintf("%s/%s", qi.Quality, qi.Extension())
}

// GetDisplayTitle returns title, filename, or URL in order of preference
func (qi *QueueItem) GetDisplayTitle() string {
	if qi.Title != "" && !strings.HasPrefix(qi.Title, "http") {
		return qi.Title
	}

	if p := qi.Path(); p != "" {
		parts := strings.FieldsFunc(p, func(r rune) bool {
			return r == '/' || r == '\\'
		})
		if len(parts) > 0 {
			filename := parts[len(parts)-1]
			if idx := strings.LastIndex(filename, "."); idx > 0 {
				filename = filename[:idx]
			}
			return filename
		}
	}

	return qi.URL
}

// Clone returns a copy that does not share the download path pointer
func (qi *QueueItem) Clone() QueueItem {
	c := *qi
	if qi.DownloadPath != nil {
		p := *qi.DownloadPath
		c.DownloadPath = &p
	}
	return c
}

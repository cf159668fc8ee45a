package download

import (
	"errors"
	"strings"
)

var (
	// ErrToolsUnavailable is returned when the downloader cannot be resolved
	ErrToolsUnavailable = errors.New("yt-dlp is not available")

	// ErrNotFound is returned for an unknown item ID
	ErrNotFound = errors.New("queue item not found")

	// ErrActive is returned when an operation needs the item (or queue) idle
	ErrActive = errors.New("download is active")
)

// ErrorKind classifies a failed download for the user-facing message
type ErrorKind string

const (
	ErrorGeoRestricted   ErrorKind = "geo_restricted"
	ErrorConnectionReset ErrorKind = "connection_reset"
	ErrorToolUnavailable ErrorKind = "tool_unavailable"
	ErrorGeneric         ErrorKind = "generic"
)

var (
	geoMarkers   = []string{"geo-restricted", "geo restricted", "in your country", "geo_restricted"}
	resetMarkers = []string{"connectionreseterror", "10054", "connection reset"}

	// exec and converter lookup texts only; other missing paths stay generic
	toolMarkers = []string{"executable file not found", "ffmpeg not found", "ffprobe and ffmpeg not found", "yt-dlp is not available"}
)

// ClassifyError maps the tail of the downloader output to an ErrorKind
func ClassifyError(output string) ErrorKind {
	lower := strings.ToLower(output)
	switch {
	case containsAny(lower, geoMarkers):
		return ErrorGeoRestricted
	case containsAny(lower, resetMarkers):
		return ErrorConnectionReset
	case containsAny(lower, toolMarkers):
		return ErrorToolUnavailable
	}
	return ErrorGeneric
}

// Message returns the text shown to the user. Generic errors carry the raw
// diagnostic.
func (k ErrorKind) Message(raw string) string {
	switch k {
	case ErrorGeoRestricted:
		return "The video is not available in your region. Try a proxy."
	case ErrorConnectionReset:
		return "The server closed the connection. Please try again."
	case ErrorToolUnavailable:
		return "yt-dlp or ffmpeg could not be found. Check the tool settings."
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "Download failed"
	}
	return lastErrorLine(raw)
}

// lastErrorLine prefers the last "ERROR:" line of a multi-line tail
func lastErrorLine(raw string) string {
	lines := strings.Split(raw, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); strings.HasPrefix(l, "ERROR:") {
			return l
		}
	}
	return raw
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

package model

import "fmt"

// Phase tells whether a progress record belongs to the transfer or to postprocessing
type Phase string

const (
	PhaseDownloading    Phase = "downloading"
	PhasePostprocessing Phase = "postprocessing"
)

// ProgressRecord is one parsed progress update. It is never persisted.
type ProgressRecord struct {
	ItemID          string
	Phase           Phase
	Percent         float64 // 0..100 as printed by the downloader
	Downloaded      string
	Total           string
	DownloadedBytes int64
	TotalBytes      int64
	SpeedBps        float64 // bytes per second, 0 if unknown
	Speed           string
	ETASec          int // -1 if unknown
}

// GetETAString returns ETA formatted as hh:mm:ss, or "—" if unknown
func (pr ProgressRecord) GetETAString() string {
	return FormatETA(pr.ETASec)
}

// FormatETA formats seconds as mm:ss or hh:mm:ss
func FormatETA(sec int) string {
	if sec <= 0 {
		return "—"
	}

	hours := sec / 3600
	minutes := (sec % 3600) / 60
	seconds := sec % 60

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

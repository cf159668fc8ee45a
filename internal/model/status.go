package model

// Status is the lifecycle state of a queue item. Values are persisted verbatim.
type Status string

const (
	// StatusQueued means the item waits for a free slot
	StatusQueued Status = "queued"

	// StatusPaused means the user paused the item; partial files are kept for resume
	StatusPaused Status = "paused"

	// StatusExtracting means the worker is resolving metadata
	StatusExtracting Status = "extracting"

	// StatusDownloading means the download is in progress
	StatusDownloading Status = "downloading"

	// StatusPostprocessing means the converter is merging or converting the output
	StatusPostprocessing Status = "postprocessing"

	// StatusFinished means the file is on disk
	StatusFinished Status = "finished"

	// StatusError means the last attempt failed
	StatusError Status = "error"

	// StatusCancelled means the user cancelled the item
	StatusCancelled Status = "cancelled"
)

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsValid reports whether s is one of the known statuses
func (s Status) IsValid() bool {
	switch s {
	case StatusQueued, StatusPaused, StatusExtracting, StatusDownloading,
		StatusPostprocessing, StatusFinished, StatusError, StatusCancelled:
		return true
	}
	return false
}

// IsActive returns true while a worker owns the item
func (s Status) IsActive() bool {
	return s == StatusExtracting || s == StatusDownloading || s == StatusPostprocessing
}

// IsTerminal returns true for finished, error and cancelled
func (s Status) IsTerminal() bool {
	return s == StatusFinished || s == StatusError || s == StatusCancelled
}

// IsStartable returns true if an explicit start may launch a worker for the item
func (s Status) IsStartable() bool {
	return s == StatusQueued || s == StatusPaused || s == StatusError || s == StatusCancelled
}

// IsPending returns true for items picked up by start-all
func (s Status) IsPending() bool {
	return s == StatusQueued || s == StatusPaused
}

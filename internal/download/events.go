package download

import "github.com/ytget/yt-queue/internal/model"

// Event is something a worker reports about its item. The set of variants is
// closed: StepEvent, ProgressEvent, PostprocessEvent, FinishedEvent,
// ErrorEvent and CancelledEvent.
type Event interface {
	ItemID() string
	isEvent()
}

// StepEvent announces a status transition. Info is set once the metadata probe
// has resolved the canonical title and URL.
type StepEvent struct {
	ID     string
	Status model.Status
	Info   *model.VideoInfo
}

// ProgressEvent carries one parsed progress line
type ProgressEvent struct {
	ID     string
	Record model.ProgressRecord
}

// PostprocessEvent reports a converter step such as "Merger"
type PostprocessEvent struct {
	ID   string
	Step string
}

// FinishedEvent is the last event of a successful worker. Path is empty when
// the output file could not be reconstructed from the downloader output.
type FinishedEvent struct {
	ID   string
	Path string
}

// ErrorEvent is the last event of a failed worker
type ErrorEvent struct {
	ID      string
	Kind    ErrorKind
	Message string
}

// CancelledEvent is the last event of a stopped worker. Paused distinguishes
// a pause from a cancel.
type CancelledEvent struct {
	ID     string
	Paused bool
}

func (e StepEvent) ItemID() string        { return e.ID }
func (e ProgressEvent) ItemID() string    { return e.ID }
func (e PostprocessEvent) ItemID() string { return e.ID }
func (e FinishedEvent) ItemID() string    { return e.ID }
func (e ErrorEvent) ItemID() string       { return e.ID }
func (e CancelledEvent) ItemID() string   { return e.ID }

func (StepEvent) isEvent()        {}
func (ProgressEvent) isEvent()    {}
func (PostprocessEvent) isEvent() {}
func (FinishedEvent) isEvent()    {}
func (ErrorEvent) isEvent()       {}
func (CancelledEvent) isEvent()   {}

// IsTerminal reports whether ev ends its worker
func IsTerminal(ev Event) bool {
	switch ev.(type) {
	case FinishedEvent, ErrorEvent, CancelledEvent:
		return true
	}
	return false
}

package download

import (
	"context"
	"time"

	"github.com/ytget/yt-queue/internal/metadata"
	"github.com/ytget/yt-queue/internal/model"
)

// Prober resolves the canonical title and URL before a download starts
type Prober interface {
	Probe(ctx context.Context, url string, opts metadata.ProbeOptions) (model.VideoInfo, error)
}

// Tools is the part of the tool locator the scheduler needs
type Tools interface {
	Available() bool
	DownloaderPath() (string, error)
	ConverterPath() string
}

// QueueSaver persists the active queue
type QueueSaver interface {
	SaveQueue(items []*model.QueueItem) error
}

// Handle is the scheduler's view of a running worker
type Handle interface {
	// Cancel stops the worker; it ends with a CancelledEvent
	Cancel()
	// Pause stops the worker keeping partial files; it ends with a paused CancelledEvent
	Pause()
	// Kill force-terminates the child process
	Kill()
	Done() <-chan struct{}
	Wait(timeout time.Duration) bool
}

// Runner starts a worker for item. Events are handed to post from the worker
// goroutine.
type Runner interface {
	Start(item model.QueueItem, opts WorkerOptions, post func(Event)) (Handle, error)
}

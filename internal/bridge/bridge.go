package bridge

import (
	"sync"

	"github.com/ytget/yt-queue/internal/download"
)

// Dispatcher runs fn on the UI goroutine. In the app this is fyne.Do.
type Dispatcher func(fn func())

// Bridge is a single-consumer mailbox of download events
type Bridge struct {
	dispatch Dispatcher
	apply    func([]download.Event)

	mu        sync.Mutex
	pending   []download.Event
	scheduled bool
	closed    bool
}

// New creates a bridge. apply receives each drained batch on the UI goroutine.
func New(dispatch Dispatcher, apply func([]download.Event)) *Bridge {
	return &Bridge{dispatch: dispatch, apply: apply}
}

// Post enqueues ev and schedules a drain unless one is already pending. Safe
// for concurrent use; never blocks on the consumer.
func (b *Bridge) Post(ev download.Event) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.pending = append(b.pending, ev)
	schedule := !b.scheduled
	b.scheduled = true
	b.mu.Unlock()

	if schedule {
		b.dispatch(b.Drain)
	}
}

// Drain applies every pending event. It must run on the UI goroutine.
func (b *Bridge) Drain() {
	b.mu.Lock()
	batch := b.pending
	b.pending = nil
	b.scheduled = false
	b.mu.Unlock()

	if len(batch) > 0 {
		b.apply(batch)
	}
}

// Pending returns the number of events not yet drained
func (b *Bridge) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Close drops further events. Pending ones can still be drained.
func (b *Bridge) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
}

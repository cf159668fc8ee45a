package metadata

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/ytget/yt-queue/internal/model"
)

// ErrPoolClosed is returned by Submit after Close
var ErrPoolClosed = errors.New("metadata pool is closed")

// Request is one URL to resolve
type Request struct {
	URL   string
	Proxy string
}

// Result is delivered once per request
type Result struct {
	Request Request
	Videos  []model.VideoInfo
	Err     error
}

// ResolveFunc resolves one URL
type ResolveFunc func(ctx context.Context, url, proxy string) ([]model.VideoInfo, error)

// Pool runs lookups with bounded concurrency. Submit never blocks; results
// are handed to deliver from the worker goroutine, so deliver must hop to
// the UI goroutine itself.
type Pool struct {
	ctx     context.Context
	cancel  context.CancelFunc
	resolve ResolveFunc
	deliver func(Result)
	slots   chan struct{}
	logger  *slog.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewPool creates a pool with the given number of concurrent lookups
func NewPool(ctx context.Context, workers int, resolve ResolveFunc, deliver func(Result), logger *slog.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Pool{
		ctx:     ctx,
		cancel:  cancel,
		resolve: resolve,
		deliver: deliver,
		slots:   make(chan struct{}, workers),
		logger:  logger.With("component", "metadata-pool"),
	}
}

// Submit schedules a lookup
func (p *Pool) Submit(req Request) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPoolClosed
	}
	p.wg.Add(1)
	go p.run(req)
	return nil
}

func (p *Pool) run(req Request) {
	defer p.wg.Done()

	select {
	case p.slots <- struct{}{}:
	case <-p.ctx.Done():
		p.deliver(Result{Request: req, Err: p.ctx.Err()})
		return
	}
	defer func() { <-p.slots }()

	videos, err := p.resolve(p.ctx, req.URL, req.Proxy)
	if err != nil {
		p.logger.Warn("metadata lookup failed", "url", req.URL, "error", err)
	}
	p.deliver(Result{Request: req, Videos: videos, Err: err})
}

// Close rejects new requests, cancels running lookups and waits for them
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.cancel()
	p.wg.Wait()
}

// Wait blocks until every submitted lookup has delivered its result
func (p *Pool) Wait() {
	p.wg.Wait()
}

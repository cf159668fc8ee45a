package metadata

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ytget/yt-queue/internal/logging"
	"github.com/ytget/yt-queue/internal/model"
)

func TestPool_BoundsConcurrency(t *testing.T) {
	var active, peak atomic.Int32
	resolve := func(ctx context.Context, url, _ string) ([]model.VideoInfo, error) {
		n := active.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		active.Add(-1)
		return []model.VideoInfo{{WebpageURL: url}}, nil
	}

	var mu sync.Mutex
	var results []Result
	deliver := func(r Result) {
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
	}

	p := NewPool(context.Background(), 2, resolve, deliver, logging.Discard())
	for i := 0; i < 8; i++ {
		if err := p.Submit(Request{URL: "https://v/" + string(rune('a'+i))}); err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
	}
	p.Wait()

	if got := peak.Load(); got > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", got)
	}
	if len(results) != 8 {
		t.Errorf("delivered %d results, want 8", len(results))
	}
	for _, r := range results {
		if r.Err != nil || len(r.Videos) != 1 || r.Videos[0].WebpageURL != r.Request.URL {
			t.Errorf("unexpected result %+v", r)
		}
	}
	p.Close()
}

func TestPool_CloseCancelsAndRejects(t *testing.T) {
	started := make(chan struct{})
	resolve := func(ctx context.Context, _, _ string) ([]model.VideoInfo, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}

	var got Result
	p := NewPool(context.Background(), 1, resolve, func(r Result) { got = r }, logging.Discard())
	if err := p.Submit(Request{URL: "u"}); err != nil {
		t.Fatal(err)
	}
	<-started
	p.Close()

	if !errors.Is(got.Err, context.Canceled) {
		t.Errorf("result error = %v, want context.Canceled", got.Err)
	}
	if err := p.Submit(Request{URL: "late"}); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("Submit() after Close() = %v, want ErrPoolClosed", err)
	}
}

package download

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ytget/yt-queue/internal/logging"
	"github.com/ytget/yt-queue/internal/metadata"
	"github.com/ytget/yt-queue/internal/model"
	"github.com/ytget/yt-queue/internal/platform"
	"github.com/ytget/yt-queue/internal/progress"
)

const (
	// DefaultWaitDelay bounds how long Wait keeps draining output after the
	// child was signalled
	DefaultWaitDelay = 5 * time.Second

	// tailLines is how many non-progress lines are kept for error reports
	tailLines = 20

	maxLineSize = 1 << 20
)

// WorkerOptions are the per-run settings of a worker
type WorkerOptions struct {
	OutputDir          string
	Proxy              string
	Downloader         string
	Converter          string
	StructuredProgress bool
	WaitDelay          time.Duration
}

const (
	stopNone int32 = iota
	stopCancel
	stopPause
)

// Worker runs one download: probe, spawn, scan output, report. It is driven
// from its own goroutine and talks to the rest of the app only through post.
type Worker struct {
	item   model.QueueItem
	opts   WorkerOptions
	prober Prober
	post   func(Event)
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	// first stop request wins; a later Pause cannot turn a cancel into a pause
	stopMode atomic.Int32

	mu  sync.Mutex
	cmd *exec.Cmd

	done chan struct{}
}

// NewWorker creates a worker for item
func NewWorker(item model.QueueItem, opts WorkerOptions, prober Prober, post func(Event), logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.WaitDelay <= 0 {
		opts.WaitDelay = DefaultWaitDelay
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		item:   item,
		opts:   opts,
		prober: prober,
		post:   post,
		logger: logger.With("component", "worker", "item_id", item.ID),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// ID returns the item ID the worker downloads
func (w *Worker) ID() string {
	return w.item.ID
}

// Done is closed after the worker posted its terminal event
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// Wait blocks until the worker finished or timeout elapsed
func (w *Worker) Wait(timeout time.Duration) bool {
	select {
	case <-w.done:
		return true
	default:
	}
	if timeout <= 0 {
		return false
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-w.done:
		return true
	case <-t.C:
		return false
	}
}

// Cancel asks the worker to stop; partial files are left for the scheduler
func (w *Worker) Cancel() {
	w.stop(stopCancel)
}

// Pause stops the worker like Cancel but marks the result as paused
func (w *Worker) Pause() {
	w.stop(stopPause)
}

func (w *Worker) stop(mode int32) {
	if !w.stopMode.CompareAndSwap(stopNone, mode) {
		return
	}
	w.logger.Info("stop requested", "pause", mode == stopPause)
	w.mu.Lock()
	started := w.cmd != nil
	w.mu.Unlock()
	if !started {
		// aborts the probe; run sees the flag before spawning
		w.cancel()
		return
	}
	w.signal(platform.TerminateProcess)
}

// Kill force-terminates the child process group and aborts the probe
func (w *Worker) Kill() {
	w.stopMode.CompareAndSwap(stopNone, stopCancel)
	w.logger.Warn("killing download")
	w.signal(platform.KillProcess)
	w.cancel()
}

func (w *Worker) stopped() bool {
	return w.stopMode.Load() != stopNone
}

func (w *Worker) signal(fn func(*exec.Cmd) error) {
	w.mu.Lock()
	cmd := w.cmd
	w.mu.Unlock()
	if cmd == nil {
		return
	}
	if err := fn(cmd); err != nil {
		w.logger.Warn("failed to signal downloader", "error", err)
	}
}

// Run executes the download and posts exactly one terminal event
func (w *Worker) Run() {
	defer close(w.done)
	defer w.cancel()
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("worker panicked", "panic", r, "stack", string(debug.Stack()))
			w.post(ErrorEvent{ID: w.item.ID, Kind: ErrorGeneric, Message: fmt.Sprintf("internal error: %v", r)})
		}
	}()

	ev := w.run()
	if w.stopped() {
		ev = w.cancelled()
	}
	w.post(ev)
}

func (w *Worker) run() Event {
	id := w.item.ID
	w.post(StepEvent{ID: id, Status: model.StatusExtracting})

	info, err := w.prober.Probe(w.ctx, w.item.URL, metadata.ProbeOptions{Proxy: w.opts.Proxy, NoPlaylist: true})
	if w.stopped() {
		return w.cancelled()
	}
	if err != nil {
		w.logger.Warn("metadata probe failed", "url", w.item.URL, "error", err)
		return w.failed(err.Error())
	}
	if info.WebpageURL == "" {
		info.WebpageURL = w.item.URL
	}

	args := BuildArgs(w.item, ArgsOptions{
		OutputDir:          w.opts.OutputDir,
		Title:              info.Title,
		Proxy:              w.opts.Proxy,
		ConverterPath:      w.opts.Converter,
		StructuredProgress: w.opts.StructuredProgress,
	})

	cmd := exec.CommandContext(w.ctx, w.opts.Downloader, args...)
	platform.PrepareCommand(cmd)
	cmd.Cancel = func() error { return platform.KillProcess(cmd) }
	cmd.WaitDelay = w.opts.WaitDelay

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return w.failed(err.Error())
	}
	cmd.Stderr = cmd.Stdout

	w.logger.Debug("starting downloader", "path", w.opts.Downloader, "args", args)
	if err := cmd.Start(); err != nil {
		return w.failed(err.Error())
	}
	w.mu.Lock()
	w.cmd = cmd
	w.mu.Unlock()
	if w.stopped() {
		w.signal(platform.TerminateProcess)
	}

	w.post(StepEvent{ID: id, Status: model.StatusDownloading, Info: &info})

	parser := progress.NewParser(id)
	tail := w.consume(stdout, parser)
	waitErr := cmd.Wait()

	if w.stopped() {
		return w.cancelled()
	}
	if waitErr != nil {
		w.logger.Warn("downloader failed", "error", waitErr)
		return w.failed(strings.Join(append(tail, waitErr.Error()), "\n"))
	}

	path := parser.OutputFile()
	if path != "" {
		if found, err := platform.FindFileWithFallback(path); err == nil {
			path = found
		}
	}
	w.logger.Info("download finished", "path", path)
	return FinishedEvent{ID: id, Path: path}
}

// consume reads the merged output until EOF and returns the last
// non-progress lines
func (w *Worker) consume(r io.Reader, parser *progress.Parser) []string {
	sampler := logging.NewProgressSampler(10)
	var tail []string
	var postprocessing bool

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	sc.Split(scanLines)
	for sc.Scan() {
		if w.stopped() {
			// keep draining so the child never blocks on a full pipe
			continue
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		switch parser.Classify(line) {
		case progress.KindProgress:
			rec, ok := parser.ParseLine(line)
			if !ok {
				continue
			}
			if sampler.ShouldLog(rec.Percent, string(rec.Phase)) {
				w.logger.Debug("progress", "percent", rec.Percent, "speed", rec.Speed, "eta", rec.ETASec)
			}
			w.post(ProgressEvent{ID: w.item.ID, Record: rec})
		case progress.KindPostprocess:
			if !postprocessing {
				postprocessing = true
				w.post(StepEvent{ID: w.item.ID, Status: model.StatusPostprocessing})
			}
			w.post(PostprocessEvent{ID: w.item.ID, Step: progress.StepName(line)})
			tail = appendTail(tail, line)
		default:
			w.logger.Debug("downloader output", "line", line)
			tail = appendTail(tail, line)
		}
	}
	if err := sc.Err(); err != nil {
		w.logger.Warn("reading downloader output", "error", err)
	}
	return tail
}

func (w *Worker) cancelled() Event {
	return CancelledEvent{ID: w.item.ID, Paused: w.stopMode.Load() == stopPause}
}

func (w *Worker) failed(output string) Event {
	kind := ClassifyError(output)
	return ErrorEvent{ID: w.item.ID, Kind: kind, Message: kind.Message(output)}
}

func appendTail(tail []string, line string) []string {
	tail = append(tail, line)
	if len(tail) > tailLines {
		tail = tail[len(tail)-tailLines:]
	}
	return tail
}

// scanLines splits on '\n' or '\r' so carriage-return progress updates are
// seen one by one.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// ProcessRunner starts Workers backed by the downloader executable
type ProcessRunner struct {
	Prober Prober
	Logger *slog.Logger
}

// Start launches a worker goroutine for item
func (r ProcessRunner) Start(item model.QueueItem, opts WorkerOptions, post func(Event)) (Handle, error) {
	if opts.Downloader == "" {
		return nil, ErrToolsUnavailable
	}
	w := NewWorker(item, opts, r.Prober, post, r.Logger)
	go w.Run()
	return w, nil
}

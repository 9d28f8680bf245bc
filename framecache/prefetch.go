package framecache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.jacobcolvin.com/asscii/ascii"
	"go.jacobcolvin.com/asscii/video"
)

const (
	// DefaultRadius is how many frames on each side of the playback
	// position are prefetched.
	DefaultRadius = 8

	// DefaultStopTimeout bounds how long [Prefetcher.Stop] waits for the
	// worker goroutine.
	DefaultStopTimeout = time.Second
)

var (
	// ErrStarted is returned when starting a running [Prefetcher].
	ErrStarted = errors.New("prefetcher already started")

	// ErrStopTimeout is returned when the worker did not exit in time.
	ErrStopTimeout = errors.New("prefetcher did not stop in time")
)

// job is one queued prefetch. The parameters and generation are captured at
// enqueue time so a job never mixes snapshots.
type job struct {
	params ascii.Params
	gen    uint64
	index  int
}

// PrefetchOption configures a [Prefetcher].
type PrefetchOption func(*Prefetcher)

// WithRadius sets the look-ahead and look-behind distance. Values less than
// 1 are clamped to 1.
func WithRadius(n int) PrefetchOption {
	return func(p *Prefetcher) {
		p.radius = max(1, n)
	}
}

// WithQueueSize sets the job queue capacity. The default holds four full
// neighborhoods.
func WithQueueSize(n int) PrefetchOption {
	return func(p *Prefetcher) {
		p.queueSize = max(1, n)
	}
}

// WithLogger sets the logger for worker diagnostics.
func WithLogger(l *slog.Logger) PrefetchOption {
	return func(p *Prefetcher) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithStopTimeout bounds how long [Prefetcher.Stop] waits.
func WithStopTimeout(d time.Duration) PrefetchOption {
	return func(p *Prefetcher) {
		p.stopTimeout = d
	}
}

// Prefetcher computes frames near the playback position on one background
// goroutine using a private decoder, so it never shares decoder state with
// the playback path.
//
// Scheduling is best-effort: when the queue is full candidates are dropped
// and may be scheduled again later.
//
// Create instances with [NewPrefetcher].
type Prefetcher struct {
	cache       *Cache
	open        video.Opener
	logger      *slog.Logger
	src         video.Source
	jobs        chan job
	done        chan struct{}
	cancel      context.CancelFunc
	radius      int
	queueSize   int
	frameCount  int
	stopTimeout time.Duration
	mu          sync.Mutex
	running     bool
}

// NewPrefetcher returns a stopped prefetcher that fills cache from decoders
// obtained through open.
func NewPrefetcher(cache *Cache, open video.Opener, opts ...PrefetchOption) *Prefetcher {
	p := &Prefetcher{
		cache:       cache,
		open:        open,
		logger:      slog.Default(),
		radius:      DefaultRadius,
		stopTimeout: DefaultStopTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.queueSize == 0 {
		p.queueSize = 4 * 2 * p.radius
	}

	return p
}

// Start opens the private decoder and launches the worker. The worker runs
// until ctx is done or [Prefetcher.Stop] is called.
func (p *Prefetcher) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return ErrStarted
	}

	src, err := p.open(ctx)
	if err != nil {
		return fmt.Errorf("opening prefetch decoder: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)

	p.src = src
	p.frameCount = src.Info().FrameCount
	p.jobs = make(chan job, p.queueSize)
	p.done = make(chan struct{})
	p.cancel = cancel
	p.running = true

	go p.run(ctx, src, p.jobs, p.done)

	return nil
}

// Running reports whether the worker is started and not yet stopped.
func (p *Prefetcher) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.running
}

// Schedule queues the neighbors of center in near-to-far order, alternating
// ahead and behind. Indices outside the video, already cached or already
// pending are skipped. It returns the number of jobs queued; it never
// blocks.
func (p *Prefetcher) Schedule(center int) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return 0
	}

	queued := 0

	for _, idx := range Neighbors(center, p.radius, p.frameCount) {
		params, gen, ok := p.cache.markPending(idx)
		if !ok {
			continue
		}

		select {
		case p.jobs <- job{index: idx, params: params, gen: gen}:
			queued++
		default:
			p.cache.clearPending(idx, gen)
		}
	}

	return queued
}

// Stop cancels the worker and waits up to the stop timeout for it to exit.
// The private decoder is closed only after the worker has exited; if the
// wait times out, closing is deferred until it does and [ErrStopTimeout] is
// returned. Stopping a stopped prefetcher is a no-op. The wait happens
// outside the lock, so [Prefetcher.Schedule] returns at once while a stop is
// in progress.
func (p *Prefetcher) Stop() error {
	p.mu.Lock()

	if !p.running {
		p.mu.Unlock()

		return nil
	}

	p.running = false
	p.cancel()

	src, done := p.src, p.done

	p.mu.Unlock()

	select {
	case <-done:
		return p.closeSource(src)

	case <-time.After(p.stopTimeout):
		p.logger.Warn("framecache: prefetch worker still running after stop",
			slog.Duration("timeout", p.stopTimeout),
		)

		go func() {
			<-done
			//nolint:errcheck // Logged by closeSource.
			p.closeSource(src)
		}()

		return ErrStopTimeout
	}
}

func (p *Prefetcher) closeSource(src video.Source) error {
	err := src.Close()
	if err != nil {
		p.logger.Debug("framecache: closing prefetch decoder", slog.Any("err", err))

		return fmt.Errorf("closing prefetch decoder: %w", err)
	}

	return nil
}

func (p *Prefetcher) run(ctx context.Context, src video.Source, jobs chan job, done chan struct{}) {
	defer close(done)
	defer p.drain(jobs)

	for {
		select {
		case <-ctx.Done():
			return

		case j := <-jobs:
			p.process(src, j)
		}
	}
}

// drain clears the pending marks of jobs that will never run.
func (p *Prefetcher) drain(jobs chan job) {
	for {
		select {
		case j := <-jobs:
			p.cache.clearPending(j.index, j.gen)
		default:
			return
		}
	}
}

func (p *Prefetcher) process(src video.Source, j job) {
	defer p.cache.clearPending(j.index, j.gen)

	if p.cache.Generation() != j.gen {
		return
	}

	if _, ok := p.cache.Get(j.index); ok {
		return
	}

	frame, err := video.ReadAt(src, j.index)
	if err != nil {
		p.logger.Debug("framecache: prefetch decode failed",
			slog.Int("frame", j.index),
			slog.Any("err", err),
		)

		return
	}

	p.cache.storeAt(j.index, ascii.Quantize(frame, j.params), j.gen)
}

// Neighbors returns center+1, center-1, center+2, center-2, ... up to
// radius, keeping only indices in [0, frameCount).
func Neighbors(center, radius, frameCount int) []int {
	out := make([]int, 0, 2*radius)

	for d := 1; d <= radius; d++ {
		for _, idx := range [2]int{center + d, center - d} {
			if idx >= 0 && idx < frameCount {
				out = append(out, idx)
			}
		}
	}

	return out
}

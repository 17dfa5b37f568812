package thumbs

import (
	"context"
	"errors"
	"image"
	"os"
	"sync"
	"time"

	"imsdly/internal/logging"
	"imsdly/internal/mediatypes"
	"imsdly/internal/metrics"
)

// ErrSourceUnavailable reports that the source file could not be read,
// typically because the card was pulled mid-import. Generators return
// it alongside a placeholder image; the engine shows the placeholder
// but never caches it, so the thumbnail regenerates if the file comes
// back.
var ErrSourceUnavailable = errors.New("source file unavailable")

const (
	// batchSize bounds how many jobs a worker claims per dequeue.
	batchSize = 5
	// popTimeout bounds how long a worker blocks waiting for work
	// before re-checking for shutdown.
	popTimeout = 100 * time.Millisecond
)

// Rendered is a finished thumbnail. Placeholder marks synthetic images
// produced when the source could not be decoded.
type Rendered struct {
	Image       image.Image
	Placeholder bool
}

// Generator produces a thumbnail for a source file. On decode failure
// it returns a placeholder with a nil error; on unreadable sources it
// returns a placeholder alongside ErrSourceUnavailable.
type Generator interface {
	Generate(ctx context.Context, path string, width, height int) (*Rendered, error)
}

// Callback receives a finished thumbnail. Callbacks for the same key
// run sequentially on the engine's dispatcher goroutine and must not
// block.
type Callback func(key string, thumb *Rendered)

// Options configures an Engine.
type Options struct {
	// Workers is the generation pool size. Defaults to 2; thumbnail
	// decode is heavy enough that more workers mostly add memory
	// pressure while a card import is saturating IO.
	Workers int
	// MemoryEntries caps the in-memory LRU. Defaults to 2048.
	MemoryEntries int
	// Width and Height are the thumbnail dimensions.
	Width, Height int
	// Disk is the optional persistent tier.
	Disk *DiskCache
}

type completion struct {
	key   string
	res   *Rendered
	cache bool
}

// Engine is the asynchronous thumbnail cache and scheduler.
type Engine struct {
	gen    Generator
	opts   Options
	memory *lruCache
	queue  *jobQueue

	mu          sync.Mutex
	subscribers map[string][]Callback
	pending     map[string]bool // queued or in flight

	completions chan completion
	ctx         context.Context
	cancel      context.CancelFunc
	workerWG    sync.WaitGroup
	dispatchWG  sync.WaitGroup
	closeOnce   sync.Once
}

// NewEngine starts the worker pool and dispatcher. Callers must Close
// the engine to stop them.
func NewEngine(gen Generator, opts Options) *Engine {
	if opts.Workers <= 0 {
		opts.Workers = 2
	}
	if opts.MemoryEntries <= 0 {
		opts.MemoryEntries = 2048
	}
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		gen:         gen,
		opts:        opts,
		memory:      newLRU(opts.MemoryEntries),
		queue:       newJobQueue(),
		subscribers: make(map[string][]Callback),
		pending:     make(map[string]bool),
		completions: make(chan completion, opts.Workers*batchSize),
		ctx:         ctx,
		cancel:      cancel,
	}

	e.dispatchWG.Add(1)
	go e.dispatch()

	e.workerWG.Add(opts.Workers)
	for i := 0; i < opts.Workers; i++ {
		go e.worker()
	}
	logging.Debug("Thumbnail engine started with %d workers, %d memory entries",
		opts.Workers, opts.MemoryEntries)
	return e
}

// KeyFor returns the cache key for a path at the engine's thumbnail
// size. Unreadable files key on zero metadata so retries after the
// source reappears use the real key.
func (e *Engine) KeyFor(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return CacheKey(path, time.Time{}, 0, e.opts.Width, e.opts.Height)
	}
	return CacheKey(path, info.ModTime(), info.Size(), e.opts.Width, e.opts.Height)
}

// Get returns the thumbnail for path if it is already in the memory
// cache. It never blocks on generation.
func (e *Engine) Get(path string) (*Rendered, bool) {
	res, ok := e.memory.Get(e.KeyFor(path))
	if ok {
		metrics.ThumbnailRequestsTotal.WithLabelValues("memory_hit").Inc()
	}
	return res, ok
}

// GetAsync requests a thumbnail. On a memory hit the callback runs
// synchronously before GetAsync returns. Otherwise the callback fires
// from the dispatcher once generation completes; concurrent requests
// for the same key share one generation. The cache key is returned so
// callers can correlate the eventual callback.
func (e *Engine) GetAsync(path string, cb Callback) string {
	key := e.KeyFor(path)

	if res, ok := e.memory.Get(key); ok {
		metrics.ThumbnailRequestsTotal.WithLabelValues("memory_hit").Inc()
		if cb != nil {
			cb(key, res)
		}
		return key
	}

	e.mu.Lock()
	if cb != nil {
		e.subscribers[key] = append(e.subscribers[key], cb)
	}
	if e.pending[key] {
		e.mu.Unlock()
		metrics.ThumbnailRequestsTotal.WithLabelValues("coalesced").Inc()
		return key
	}
	e.pending[key] = true
	e.mu.Unlock()

	metrics.ThumbnailRequestsTotal.WithLabelValues("queued").Inc()
	e.queue.Push(job{key: key, path: path, width: e.opts.Width, height: e.opts.Height})
	return key
}

// SetViewport moves still-queued jobs for the given keys to the front
// of the work queue. It never cancels queued or in-flight work.
func (e *Engine) SetViewport(keys []string) {
	if len(keys) == 0 {
		return
	}
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		set[k] = true
	}
	e.queue.Promote(set)
}

// Clear empties the memory cache and the disk tier and abandons queued
// work. In-flight generations finish and are cached, but subscribers of
// abandoned jobs are dropped without a callback.
func (e *Engine) Clear() {
	dropped := e.queue.Drain()
	e.mu.Lock()
	for _, j := range dropped {
		delete(e.pending, j.key)
		delete(e.subscribers, j.key)
	}
	e.mu.Unlock()
	e.memory.Clear()
	if e.opts.Disk != nil {
		if err := e.opts.Disk.Clear(); err != nil {
			logging.Warn("Failed to clear disk cache: %v", err)
		}
	}
	logging.Debug("Thumbnail engine cleared, %d queued jobs dropped", len(dropped))
}

// Close stops the workers and dispatcher. Queued jobs are abandoned.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.cancel()
		e.workerWG.Wait()
		close(e.completions)
		e.dispatchWG.Wait()
	})
}

// worker claims batches of jobs and generates thumbnails, posting
// results to the completion channel.
func (e *Engine) worker() {
	defer e.workerWG.Done()
	for {
		select {
		case <-e.ctx.Done():
			return
		default:
		}
		batch := e.queue.PopBatch(batchSize, popTimeout)
		for _, j := range batch {
			e.process(j)
		}
	}
}

func (e *Engine) process(j job) {
	metrics.ThumbnailInFlight.Inc()
	defer metrics.ThumbnailInFlight.Dec()

	if e.opts.Disk != nil {
		if img, ok := e.opts.Disk.Get(j.key); ok {
			metrics.ThumbnailRequestsTotal.WithLabelValues("disk_hit").Inc()
			e.post(completion{key: j.key, res: &Rendered{Image: img}, cache: true})
			return
		}
	}

	fileType := string(mediatypes.Classify(j.path))
	start := time.Now()
	res, err := e.gen.Generate(e.ctx, j.path, j.width, j.height)
	metrics.ThumbnailGenerationDuration.WithLabelValues(fileType).Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		metrics.ThumbnailGenerationsTotal.WithLabelValues(fileType, "error").Inc()
		logging.Warn("Thumbnail generation failed for %s: %v", j.path, err)
		e.post(completion{key: j.key, res: res, cache: false})
	case res != nil && res.Placeholder:
		metrics.ThumbnailGenerationsTotal.WithLabelValues(fileType, "placeholder").Inc()
		e.post(completion{key: j.key, res: res, cache: true})
	default:
		metrics.ThumbnailGenerationsTotal.WithLabelValues(fileType, "success").Inc()
		if e.opts.Disk != nil && res != nil {
			if err := e.opts.Disk.Put(j.key, res.Image); err != nil {
				logging.Warn("Failed to persist thumbnail %s: %v", j.key, err)
			}
		}
		e.post(completion{key: j.key, res: res, cache: true})
	}
}

func (e *Engine) post(c completion) {
	select {
	case e.completions <- c:
	case <-e.ctx.Done():
	}
}

// dispatch is the single goroutine that caches finished thumbnails and
// fans results out to subscribers. Running callbacks here keeps worker
// goroutines free of caller code.
func (e *Engine) dispatch() {
	defer e.dispatchWG.Done()
	for c := range e.completions {
		if c.cache && c.res != nil {
			e.memory.Put(c.key, c.res)
		}

		e.mu.Lock()
		cbs := e.subscribers[c.key]
		delete(e.subscribers, c.key)
		delete(e.pending, c.key)
		e.mu.Unlock()

		for _, cb := range cbs {
			cb(c.key, c.res)
		}
	}
}

// QueueLen reports the number of jobs waiting for a worker.
func (e *Engine) QueueLen() int {
	return e.queue.Len()
}

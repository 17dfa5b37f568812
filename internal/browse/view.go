package browse

import (
	"context"
	"sort"
	"sync"
	"time"

	"imsdly/internal/logging"
	"imsdly/internal/thumbs"
)

// Engine is the subset of the thumbnail engine the view needs. It is
// satisfied by *thumbs.Engine.
type Engine interface {
	KeyFor(path string) string
	GetAsync(path string, cb thumbs.Callback) string
	SetViewport(keys []string)
}

// Config tunes the scheduling behavior. Zero values pick the defaults
// noted on each field.
type Config struct {
	// Debounce is how long scrolling must settle before loading
	// starts. Default 150ms.
	Debounce time.Duration
	// BatchSize is how many requests are issued per burst. Default 5.
	BatchSize int
	// BatchDelay is the stagger between bursts. Default 50ms.
	BatchDelay time.Duration
	// Prewarm is how many off-screen tiles to request beyond the
	// viewport in the scroll direction. Default 10.
	Prewarm int
	// Timeout is how long a visible tile may stay pending before the
	// view regenerates it directly. Default 4s.
	Timeout time.Duration
	// Width and Height are the tile dimensions for direct
	// regeneration.
	Width, Height int
}

func (c *Config) applyDefaults() {
	if c.Debounce <= 0 {
		c.Debounce = 150 * time.Millisecond
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 5
	}
	if c.BatchDelay <= 0 {
		c.BatchDelay = 50 * time.Millisecond
	}
	if c.Prewarm < 0 {
		c.Prewarm = 0
	} else if c.Prewarm == 0 {
		c.Prewarm = 10
	}
	if c.Timeout <= 0 {
		c.Timeout = 4 * time.Second
	}
}

// ThumbFunc receives a loaded tile. It runs on engine or view
// goroutines and must not block.
type ThumbFunc func(index int, thumb *thumbs.Rendered)

// View drives thumbnail loading for one scrolling file grid.
type View struct {
	eng     Engine
	direct  thumbs.Generator // optional, for timeout regeneration
	cfg     Config
	onThumb ThumbFunc

	mu         sync.Mutex
	items      []string
	first      int
	last       int
	scrollDown bool
	generation int
	loaded     map[int]bool
	debounce   *time.Timer
	closed     bool
}

// NewView creates a scheduler over the given engine. direct may be nil
// to disable timeout regeneration.
func NewView(eng Engine, direct thumbs.Generator, cfg Config, onThumb ThumbFunc) *View {
	cfg.applyDefaults()
	return &View{
		eng:     eng,
		direct:  direct,
		cfg:     cfg,
		onThumb: onThumb,
		loaded:  make(map[int]bool),
	}
}

// SetItems replaces the file list and invalidates all pending loads.
func (v *View) SetItems(paths []string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.items = make([]string, len(paths))
	copy(v.items, paths)
	v.generation++
	v.loaded = make(map[int]bool)
	v.first, v.last = 0, 0
	v.scrollDown = true
}

// SetVisibleRange reports the tile indices currently on screen. Loading
// starts after the scroll settles.
func (v *View) SetVisibleRange(first, last int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	if first != v.first {
		v.scrollDown = first >= v.first
	}
	v.first, v.last = first, last

	if v.debounce == nil {
		v.debounce = time.AfterFunc(v.cfg.Debounce, v.flush)
	} else {
		v.debounce.Reset(v.cfg.Debounce)
	}
}

// Close cancels pending timers. In-flight engine work completes but no
// further callbacks are delivered.
func (v *View) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
	v.generation++
	if v.debounce != nil {
		v.debounce.Stop()
	}
}

// flush runs once the scroll has settled: it prioritizes the visible
// range, then requests tiles center-out in staggered batches.
func (v *View) flush() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	gen := v.generation
	first, last := v.clampRangeLocked()
	center := (first + last) / 2

	var want []int
	for i := first; i <= last && i < len(v.items); i++ {
		if !v.loaded[i] {
			want = append(want, i)
		}
	}
	// Center-out order: the tiles the eye lands on load first.
	sort.Slice(want, func(a, b int) bool {
		return abs(want[a]-center) < abs(want[b]-center)
	})

	keys := make([]string, len(want))
	for i, idx := range want {
		keys[i] = v.eng.KeyFor(v.items[idx])
	}
	prewarm := v.prewarmIndicesLocked()
	v.mu.Unlock()

	if len(keys) > 0 {
		v.eng.SetViewport(keys)
	}
	go v.requestBatches(gen, want, prewarm)
	if v.direct != nil && len(want) > 0 {
		time.AfterFunc(v.cfg.Timeout, func() { v.regenerateStale(gen) })
	}
}

func (v *View) clampRangeLocked() (int, int) {
	first, last := v.first, v.last
	if first < 0 {
		first = 0
	}
	if last >= len(v.items) {
		last = len(v.items) - 1
	}
	return first, last
}

// prewarmIndicesLocked picks the off-screen tiles just past the
// viewport edge in the direction of travel.
func (v *View) prewarmIndicesLocked() []int {
	var out []int
	if v.scrollDown {
		for i := v.last + 1; i <= v.last+v.cfg.Prewarm && i < len(v.items); i++ {
			if !v.loaded[i] {
				out = append(out, i)
			}
		}
	} else {
		for i := v.first - 1; i >= v.first-v.cfg.Prewarm && i >= 0; i-- {
			if !v.loaded[i] {
				out = append(out, i)
			}
		}
	}
	return out
}

// requestBatches issues engine requests in bursts with a small delay
// between them, visible tiles first, then the pre-warm set.
func (v *View) requestBatches(gen int, visible, prewarm []int) {
	all := append(append([]int{}, visible...), prewarm...)
	for start := 0; start < len(all); start += v.cfg.BatchSize {
		if v.stale(gen) {
			return
		}
		end := start + v.cfg.BatchSize
		if end > len(all) {
			end = len(all)
		}
		for _, idx := range all[start:end] {
			v.request(gen, idx)
		}
		if end < len(all) {
			time.Sleep(v.cfg.BatchDelay)
		}
	}
}

func (v *View) request(gen, idx int) {
	v.mu.Lock()
	if gen != v.generation || idx >= len(v.items) || v.loaded[idx] {
		v.mu.Unlock()
		return
	}
	path := v.items[idx]
	v.mu.Unlock()

	v.eng.GetAsync(path, func(_ string, thumb *thumbs.Rendered) {
		v.deliver(gen, idx, thumb)
	})
}

func (v *View) deliver(gen, idx int, thumb *thumbs.Rendered) {
	v.mu.Lock()
	if gen != v.generation || v.loaded[idx] {
		v.mu.Unlock()
		return
	}
	v.loaded[idx] = true
	cb := v.onThumb
	v.mu.Unlock()

	if cb != nil && thumb != nil {
		cb(idx, thumb)
	}
}

// regenerateStale directly generates any visible tile the queue has
// not served within the timeout. The loaded check keeps this from
// duplicating work that finished while we waited.
func (v *View) regenerateStale(gen int) {
	v.mu.Lock()
	if gen != v.generation || v.closed {
		v.mu.Unlock()
		return
	}
	first, last := v.clampRangeLocked()
	var stale []int
	for i := first; i <= last && i < len(v.items); i++ {
		if !v.loaded[i] {
			stale = append(stale, i)
		}
	}
	paths := make([]string, len(stale))
	for i, idx := range stale {
		paths[i] = v.items[idx]
	}
	v.mu.Unlock()

	if len(stale) == 0 {
		return
	}
	logging.Debug("Regenerating %d stale visible tiles directly", len(stale))
	for i, idx := range stale {
		if v.stale(gen) {
			return
		}
		res, err := v.direct.Generate(context.Background(), paths[i], v.cfg.Width, v.cfg.Height)
		if err != nil {
			logging.Warn("Direct regeneration failed for %s: %v", paths[i], err)
			continue
		}
		v.deliver(gen, idx, res)
	}
}

func (v *View) stale(gen int) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return gen != v.generation || v.closed
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

package thumbs

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// fakeGen counts calls per path and optionally blocks until released.
type fakeGen struct {
	mu    sync.Mutex
	calls map[string]int
	order []string
	gate  chan struct{} // nil means never block
	fn    func(path string) (*Rendered, error)
}

func newFakeGen() *fakeGen {
	return &fakeGen{calls: make(map[string]int)}
}

func (g *fakeGen) Generate(ctx context.Context, path string, width, height int) (*Rendered, error) {
	if g.gate != nil {
		select {
		case <-g.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	g.mu.Lock()
	g.calls[path]++
	g.order = append(g.order, path)
	fn := g.fn
	g.mu.Unlock()
	if fn != nil {
		return fn(path)
	}
	return &Rendered{Image: image.NewRGBA(image.Rect(0, 0, width, height))}, nil
}

func (g *fakeGen) callCount(path string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[path]
}

func (g *fakeGen) callOrder() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

func tempMedia(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestGetAsyncCoalescesConcurrentRequests(t *testing.T) {
	gen := newFakeGen()
	gen.gate = make(chan struct{})
	e := NewEngine(gen, Options{Workers: 2, Width: 120, Height: 90})
	defer e.Close()

	path := tempMedia(t, "a.jpg")
	var wg sync.WaitGroup
	results := make(chan *Rendered, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		e.GetAsync(path, func(_ string, thumb *Rendered) {
			results <- thumb
			wg.Done()
		})
	}
	close(gen.gate)
	wg.Wait()

	if n := gen.callCount(path); n != 1 {
		t.Errorf("expected 1 generation for 10 requests, got %d", n)
	}
	close(results)
	count := 0
	for range results {
		count++
	}
	if count != 10 {
		t.Errorf("expected 10 callbacks, got %d", count)
	}
}

func TestGetAsyncMemoryHitIsSynchronous(t *testing.T) {
	gen := newFakeGen()
	e := NewEngine(gen, Options{Workers: 1, Width: 120, Height: 90})
	defer e.Close()

	path := tempMedia(t, "b.jpg")
	done := make(chan struct{})
	e.GetAsync(path, func(string, *Rendered) { close(done) })
	<-done

	fired := false
	e.GetAsync(path, func(string, *Rendered) { fired = true })
	if !fired {
		t.Error("callback for cached thumbnail should run before GetAsync returns")
	}
	if _, ok := e.Get(path); !ok {
		t.Error("Get should hit after generation")
	}
	if n := gen.callCount(path); n != 1 {
		t.Errorf("expected 1 generation, got %d", n)
	}
}

func TestPlaceholderForFailedDecodeIsCached(t *testing.T) {
	gen := newFakeGen()
	gen.fn = func(string) (*Rendered, error) {
		return &Rendered{Image: image.NewRGBA(image.Rect(0, 0, 120, 90)), Placeholder: true}, nil
	}
	e := NewEngine(gen, Options{Workers: 1, Width: 120, Height: 90})
	defer e.Close()

	path := tempMedia(t, "corrupt.jpg")
	done := make(chan *Rendered, 1)
	e.GetAsync(path, func(_ string, thumb *Rendered) { done <- thumb })

	thumb := <-done
	if !thumb.Placeholder {
		t.Error("expected placeholder result")
	}
	if res, ok := e.Get(path); !ok || !res.Placeholder {
		t.Error("placeholder should be cached so the decode is not retried")
	}
}

func TestSourceUnavailableIsNotCached(t *testing.T) {
	gen := newFakeGen()
	gen.fn = func(string) (*Rendered, error) {
		return &Rendered{Image: image.NewRGBA(image.Rect(0, 0, 120, 90)), Placeholder: true},
			ErrSourceUnavailable
	}
	e := NewEngine(gen, Options{Workers: 1, Width: 120, Height: 90})
	defer e.Close()

	path := tempMedia(t, "pulled.jpg")
	done := make(chan *Rendered, 1)
	e.GetAsync(path, func(_ string, thumb *Rendered) { done <- thumb })

	thumb := <-done
	if thumb == nil || !thumb.Placeholder {
		t.Fatal("expected placeholder fan-out on unavailable source")
	}
	if _, ok := e.Get(path); ok {
		t.Error("unavailable-source placeholder must not be cached")
	}

	done2 := make(chan struct{})
	e.GetAsync(path, func(string, *Rendered) { close(done2) })
	<-done2
	if n := gen.callCount(path); n != 2 {
		t.Errorf("expected regeneration attempt, got %d calls", n)
	}
}

func TestSetViewportPrioritizesVisibleKeys(t *testing.T) {
	gen := newFakeGen()
	e := NewEngine(gen, Options{Workers: 1, Width: 120, Height: 90})
	defer e.Close()

	dir := t.TempDir()
	var paths []string
	keys := make(map[string]string)
	for i := 0; i < 20; i++ {
		p := filepath.Join(dir, string(rune('a'+i))+".jpg")
		if err := os.WriteFile(p, []byte{byte(i)}, 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		paths = append(paths, p)
	}

	// Plug the single worker so everything below stays queued.
	plug := tempMedia(t, "plug.jpg")
	started := make(chan struct{})
	plugGate := make(chan struct{})
	gen.fn = func(path string) (*Rendered, error) {
		if path == plug {
			close(started)
			<-plugGate
		}
		return &Rendered{Image: image.NewRGBA(image.Rect(0, 0, 120, 90))}, nil
	}

	var wg sync.WaitGroup
	wg.Add(1)
	e.GetAsync(plug, func(string, *Rendered) { wg.Done() })
	<-started

	for _, p := range paths {
		wg.Add(1)
		keys[p] = e.GetAsync(p, func(string, *Rendered) { wg.Done() })
	}

	visible := []string{keys[paths[15]], keys[paths[16]], keys[paths[17]], keys[paths[18]], keys[paths[19]]}
	e.SetViewport(visible)

	close(plugGate)
	wg.Wait()

	order := gen.callOrder()
	if order[0] != plug {
		t.Fatalf("expected plug job first, got %s", order[0])
	}
	// The five promoted paths must be generated before any other
	// queued path.
	want := map[string]bool{
		paths[15]: true, paths[16]: true, paths[17]: true,
		paths[18]: true, paths[19]: true,
	}
	for _, p := range order[1:6] {
		if !want[p] {
			t.Fatalf("non-visible path %s generated before visible ones; order: %v", p, order)
		}
	}
}

func TestDiskTierAvoidsRegeneration(t *testing.T) {
	dir := t.TempDir()
	disk, err := OpenDiskCache(dir, 10<<20)
	if err != nil {
		t.Fatalf("OpenDiskCache: %v", err)
	}
	defer disk.Close()

	path := tempMedia(t, "persist.jpg")

	gen := newFakeGen()
	e := NewEngine(gen, Options{Workers: 1, Width: 120, Height: 90, Disk: disk})
	done := make(chan struct{})
	e.GetAsync(path, func(string, *Rendered) { close(done) })
	<-done
	e.Close()

	// Same disk tier, cold memory cache.
	gen2 := newFakeGen()
	e2 := NewEngine(gen2, Options{Workers: 1, Width: 120, Height: 90, Disk: disk})
	defer e2.Close()
	done2 := make(chan *Rendered, 1)
	e2.GetAsync(path, func(_ string, thumb *Rendered) { done2 <- thumb })

	thumb := <-done2
	if thumb == nil || thumb.Image == nil {
		t.Fatal("expected thumbnail from disk tier")
	}
	if n := gen2.callCount(path); n != 0 {
		t.Errorf("expected disk hit to skip generation, got %d calls", n)
	}
}

func TestClearEmptiesDiskTier(t *testing.T) {
	disk, err := OpenDiskCache(t.TempDir(), 10<<20)
	if err != nil {
		t.Fatalf("OpenDiskCache: %v", err)
	}
	defer disk.Close()

	gen := newFakeGen()
	e := NewEngine(gen, Options{Workers: 1, Width: 120, Height: 90, Disk: disk})
	defer e.Close()

	path := tempMedia(t, "stale.jpg")
	done := make(chan struct{})
	e.GetAsync(path, func(string, *Rendered) { close(done) })
	<-done

	e.Clear()
	if n, err := disk.Len(); err != nil || n != 0 {
		t.Fatalf("disk tier after Clear: %d entries, err %v", n, err)
	}

	done2 := make(chan struct{})
	e.GetAsync(path, func(string, *Rendered) { close(done2) })
	<-done2
	if n := gen.callCount(path); n != 2 {
		t.Errorf("expected regeneration after Clear, got %d calls", n)
	}
}

func TestClearDropsQueuedWork(t *testing.T) {
	gen := newFakeGen()
	e := NewEngine(gen, Options{Workers: 1, Width: 120, Height: 90})
	defer e.Close()

	plug := tempMedia(t, "plug.jpg")
	started := make(chan struct{})
	plugGate := make(chan struct{})
	gen.fn = func(path string) (*Rendered, error) {
		if path == plug {
			close(started)
			<-plugGate
		}
		return &Rendered{Image: image.NewRGBA(image.Rect(0, 0, 120, 90))}, nil
	}

	plugDone := make(chan struct{})
	e.GetAsync(plug, func(string, *Rendered) { close(plugDone) })
	<-started

	queued := tempMedia(t, "queued.jpg")
	e.GetAsync(queued, func(string, *Rendered) {
		t.Error("callback for cleared job should not fire")
	})

	e.Clear()
	close(plugGate)
	<-plugDone

	time.Sleep(100 * time.Millisecond)
	if n := gen.callCount(queued); n != 0 {
		t.Errorf("cleared job was generated %d times", n)
	}
}

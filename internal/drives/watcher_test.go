package drives

import (
	"context"
	"sync"
	"testing"
	"time"
)

// fakeEnumerator serves a swappable volume list.
type fakeEnumerator struct {
	mu      sync.Mutex
	volumes []VolumeInfo
}

func (f *fakeEnumerator) set(vols []VolumeInfo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.volumes = vols
}

func (f *fakeEnumerator) enumerate() ([]VolumeInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]VolumeInfo, len(f.volumes))
	copy(out, f.volumes)
	return out, nil
}

func waitEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for drive event")
		return Event{}
	}
}

func TestWatcherInsertRemove(t *testing.T) {
	fake := &fakeEnumerator{}
	w := NewWatcher(fake.enumerate, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	card := VolumeInfo{Name: "SDCARD", Path: "/media/user/SDCARD", Filesystem: "exfat", TotalBytes: 64 << 30, FreeBytes: 10 << 30}
	fake.set([]VolumeInfo{card})

	ev := waitEvent(t, w.Events())
	if ev.Kind != Inserted || ev.Volume.Path != card.Path {
		t.Fatalf("expected insert of %s, got %+v", card.Path, ev)
	}
	if ev.Volume.Filesystem != "exfat" {
		t.Errorf("filesystem not carried through event: %+v", ev.Volume)
	}

	fake.set(nil)
	ev = waitEvent(t, w.Events())
	if ev.Kind != Removed || ev.Volume.Path != card.Path {
		t.Fatalf("expected removal of %s, got %+v", card.Path, ev)
	}
}

func TestWatcherUpdateOnFreeSpaceChange(t *testing.T) {
	fake := &fakeEnumerator{}
	card := VolumeInfo{Name: "SDCARD", Path: "/media/user/SDCARD", TotalBytes: 64 << 30, FreeBytes: 10 << 30}
	fake.set([]VolumeInfo{card})

	w := NewWatcher(fake.enumerate, 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	if ev := waitEvent(t, w.Events()); ev.Kind != Inserted {
		t.Fatalf("expected initial insert, got %+v", ev)
	}

	card.FreeBytes = 5 << 30
	fake.set([]VolumeInfo{card})
	ev := waitEvent(t, w.Events())
	if ev.Kind != Updated || ev.Volume.FreeBytes != 5<<30 {
		t.Fatalf("expected update with new free space, got %+v", ev)
	}
}

func TestWatcherNoEventWhenUnchanged(t *testing.T) {
	fake := &fakeEnumerator{}
	card := VolumeInfo{Name: "SDCARD", Path: "/media/user/SDCARD"}
	fake.set([]VolumeInfo{card})

	w := NewWatcher(fake.enumerate, 5*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	if ev := waitEvent(t, w.Events()); ev.Kind != Inserted {
		t.Fatalf("expected insert, got %+v", ev)
	}

	select {
	case ev := <-w.Events():
		t.Fatalf("unexpected event for unchanged volume: %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

package drives

import (
	"context"
	"time"

	"imsdly/internal/logging"
	"imsdly/internal/metrics"
)

// VolumeInfo describes a mounted removable volume.
type VolumeInfo struct {
	Name       string
	Path       string
	Filesystem string
	TotalBytes uint64
	FreeBytes  uint64
}

// EventKind distinguishes the drive change events.
type EventKind string

const (
	// Inserted signals a newly mounted volume.
	Inserted EventKind = "inserted"
	// Removed signals a volume that disappeared from the mount table.
	Removed EventKind = "removed"
	// Updated signals a volume whose capacity or free space changed.
	Updated EventKind = "updated"
)

// Event is a single drive change notification.
type Event struct {
	Kind   EventKind
	Volume VolumeInfo
}

// Enumerator lists the currently mounted removable volumes. The
// production implementation reads the platform mount table; tests
// substitute a fake.
type Enumerator func() ([]VolumeInfo, error)

// Watcher polls an Enumerator and emits Events on changes.
type Watcher struct {
	enumerate Enumerator
	interval  time.Duration
	events    chan Event
	known     map[string]VolumeInfo
}

// NewWatcher creates a drive watcher polling at the given interval. A
// zero interval defaults to one second.
func NewWatcher(enumerate Enumerator, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = time.Second
	}
	return &Watcher{
		enumerate: enumerate,
		interval:  interval,
		events:    make(chan Event, 16),
		known:     make(map[string]VolumeInfo),
	}
}

// Events returns the channel on which drive changes are delivered.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Run polls until the context is canceled, emitting events for every
// detected change. The first poll reports all existing volumes as
// Inserted so consumers need no separate startup enumeration.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	defer close(w.events)

	w.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

func (w *Watcher) poll(ctx context.Context) {
	current, err := w.enumerate()
	if err != nil {
		logging.Warn("Drive enumeration failed: %v", err)
		return
	}

	seen := make(map[string]VolumeInfo, len(current))
	for _, vol := range current {
		seen[vol.Path] = vol
		prev, ok := w.known[vol.Path]
		switch {
		case !ok:
			logging.Info("Drive inserted: %s (%s)", vol.Name, vol.Path)
			w.emit(ctx, Event{Kind: Inserted, Volume: vol})
		case prev.TotalBytes != vol.TotalBytes || prev.FreeBytes != vol.FreeBytes:
			w.emit(ctx, Event{Kind: Updated, Volume: vol})
		}
	}

	for path, vol := range w.known {
		if _, ok := seen[path]; !ok {
			logging.Info("Drive removed: %s (%s)", vol.Name, vol.Path)
			w.emit(ctx, Event{Kind: Removed, Volume: vol})
		}
	}

	w.known = seen
	metrics.DrivesConnected.Set(float64(len(seen)))
}

func (w *Watcher) emit(ctx context.Context, ev Event) {
	metrics.DriveEventsTotal.WithLabelValues(string(ev.Kind)).Inc()
	select {
	case w.events <- ev:
	case <-ctx.Done():
	}
}

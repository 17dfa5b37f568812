package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"imsdly/internal/logging"
)

// Watch monitors the source directory for changes using fsnotify and
// invokes onChange after activity settles. It blocks until done is
// closed. Rapid bursts of events (a camera flushing a burst of shots)
// collapse into a single rescan.
func (c *Catalog) Watch(done <-chan struct{}, onChange func()) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logging.Error("Failed to create catalog watcher: %v", err)
		return
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			logging.Error("failed to close catalog watcher: %v", err)
		}
	}()

	watchCount := c.addDirectories(watcher)
	logging.Debug("Catalog watcher started, watching %d directories", watchCount)

	var settle *time.Timer
	var settleC <-chan time.Time
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if strings.Contains(event.Name, "/.") {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				c.maybeWatchNewDir(watcher, event.Name)
			}
			if settle == nil {
				settle = time.NewTimer(500 * time.Millisecond)
				settleC = settle.C
			} else {
				settle.Reset(500 * time.Millisecond)
			}

		case <-settleC:
			settle = nil
			settleC = nil
			onChange()

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logging.Error("Catalog watcher error: %v", err)

		case <-done:
			return
		}
	}
}

// addDirectories adds the source root and all non-hidden subdirectories
// to the watcher.
func (c *Catalog) addDirectories(watcher *fsnotify.Watcher) int {
	watchCount := 0
	err := filepath.Walk(c.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() && !strings.HasPrefix(info.Name(), ".") {
			if addErr := watcher.Add(path); addErr != nil {
				logging.Warn("failed to add path to watcher %s: %v", path, addErr)
			} else {
				watchCount++
			}
		}
		return nil
	})
	if err != nil {
		logging.Error("failed to walk source directory for watcher: %v", err)
	}
	return watchCount
}

// maybeWatchNewDir starts watching a newly created directory so files
// written into it are also observed.
func (c *Catalog) maybeWatchNewDir(watcher *fsnotify.Watcher, path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	if err := watcher.Add(path); err != nil {
		logging.Warn("failed to watch new directory %s: %v", path, err)
	} else {
		logging.Debug("Watching new directory: %s", path)
	}
}

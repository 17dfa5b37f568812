package catalog

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"imsdly/internal/logging"
	"imsdly/internal/mediatypes"
	"imsdly/internal/metrics"
	"imsdly/internal/workers"
)

// FileRecord describes a single cataloged media file. Created is the
// filesystem birth time where one is recorded; filesystems without one
// report the modification time.
type FileRecord struct {
	Path    string
	Name    string
	Size    int64
	Created time.Time
	ModTime time.Time
	Type    mediatypes.FileType
}

// Catalog holds the scanned contents of a source directory.
type Catalog struct {
	mu      sync.RWMutex
	rootDir string
	filter  map[mediatypes.FileType]bool // nil means all media types
	files   []FileRecord
}

// New creates a catalog rooted at the given directory, including every
// media type. Call Scan to populate it.
func New(rootDir string) *Catalog {
	return &Catalog{rootDir: rootDir}
}

// NewFiltered creates a catalog limited to the given file types.
func NewFiltered(rootDir string, types ...mediatypes.FileType) *Catalog {
	filter := make(map[mediatypes.FileType]bool, len(types))
	for _, t := range types {
		filter[t] = true
	}
	return &Catalog{rootDir: rootDir, filter: filter}
}

func (c *Catalog) include(t mediatypes.FileType) bool {
	if c.filter != nil {
		return c.filter[t]
	}
	return mediatypes.IsMedia(t)
}

// Root returns the directory this catalog scans.
func (c *Catalog) Root() string {
	return c.rootDir
}

// Scan walks the source directory and rebuilds the file list. Hidden
// files and directories are skipped, as are non-media files. Stat calls
// run concurrently since card readers respond slowly to serial metadata
// reads.
func (c *Catalog) Scan() ([]FileRecord, error) {
	start := time.Now()
	metrics.CatalogScansTotal.Inc()

	var paths []string
	err := filepath.WalkDir(c.rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logging.Warn("Scan error at %s: %v", path, err)
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() && path != c.rootDir {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if c.include(mediatypes.Classify(path)) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	records := make([]FileRecord, len(paths))
	var g errgroup.Group
	g.SetLimit(workers.ForIO(0))
	for i, p := range paths {
		g.Go(func() error {
			info, statErr := os.Stat(p)
			if statErr != nil {
				logging.Warn("Stat failed for %s: %v", p, statErr)
				return nil
			}
			records[i] = FileRecord{
				Path:    p,
				Name:    info.Name(),
				Size:    info.Size(),
				Created: birthTime(p, info),
				ModTime: info.ModTime(),
				Type:    mediatypes.Classify(p),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Drop entries whose stat failed between walk and stat.
	kept := records[:0]
	counts := make(map[mediatypes.FileType]int)
	for _, r := range records {
		if r.Path == "" {
			continue
		}
		kept = append(kept, r)
		counts[r.Type]++
	}

	c.mu.Lock()
	c.files = kept
	c.mu.Unlock()

	for t, n := range counts {
		metrics.CatalogFiles.WithLabelValues(string(t)).Set(float64(n))
	}
	metrics.CatalogScanDuration.Observe(time.Since(start).Seconds())
	logging.Info("Cataloged %d media files in %s (%v)", len(kept), c.rootDir, time.Since(start))

	return c.Files(), nil
}

// Files returns a copy of the current file list.
func (c *Catalog) Files() []FileRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]FileRecord, len(c.files))
	copy(out, c.files)
	return out
}

// Len returns the number of cataloged files.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.files)
}

// Sort orders the file list in place by the given field and order.
func (c *Catalog) Sort(field mediatypes.SortField, order mediatypes.SortOrder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sortRecords(c.files, field, order)
}

func sortRecords(items []FileRecord, field mediatypes.SortField, order mediatypes.SortOrder) {
	sort.Slice(items, func(i, j int) bool {
		var less bool
		switch field {
		case mediatypes.SortByName:
			less = strings.ToLower(items[i].Name) < strings.ToLower(items[j].Name)
		case mediatypes.SortByDate:
			less = items[i].ModTime.Before(items[j].ModTime)
		case mediatypes.SortBySize:
			less = items[i].Size < items[j].Size
		case mediatypes.SortByType:
			if items[i].Type == items[j].Type {
				less = strings.ToLower(items[i].Name) < strings.ToLower(items[j].Name)
			} else {
				less = items[i].Type < items[j].Type
			}
		default:
			less = strings.ToLower(items[i].Name) < strings.ToLower(items[j].Name)
		}

		if order == mediatypes.SortDesc {
			return !less
		}
		return less
	})
}

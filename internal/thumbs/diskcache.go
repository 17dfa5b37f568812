package thumbs

import (
	"database/sql"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"imsdly/internal/logging"
	"imsdly/internal/metrics"
)

// DiskCache is the persistent thumbnail tier. Thumbnails are stored as
// JPEG files keyed by cache key, with a SQLite index tracking size and
// last access for LRU eviction against a byte budget.
type DiskCache struct {
	dir      string
	maxBytes int64
	db       *sql.DB
}

// OpenDiskCache opens (or creates) the disk cache at dir with the given
// byte budget.
func OpenDiskCache(dir string, maxBytes int64) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	// busy_timeout helps prevent "database is locked" errors
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000",
		filepath.Join(dir, "index.db"))
	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache index: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS thumbnails (
		key TEXT PRIMARY KEY,
		size_bytes INTEGER NOT NULL,
		last_access INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_thumbnails_last_access ON thumbnails(last_access);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache schema: %w", err)
	}

	c := &DiskCache{dir: dir, maxBytes: maxBytes, db: db}
	if total, err := c.totalSize(); err == nil {
		metrics.DiskCacheSizeBytes.Set(float64(total))
	}
	return c, nil
}

// Close closes the cache index.
func (c *DiskCache) Close() error {
	return c.db.Close()
}

func (c *DiskCache) filePath(key string) string {
	return filepath.Join(c.dir, key+".jpg")
}

// Get loads a cached thumbnail and refreshes its access time. It
// returns false on any miss or read error; a broken entry is treated
// as a miss and regenerated upstream.
func (c *DiskCache) Get(key string) (image.Image, bool) {
	var size int64
	err := c.db.QueryRow("SELECT size_bytes FROM thumbnails WHERE key = ?", key).Scan(&size)
	if err == sql.ErrNoRows {
		return nil, false
	}
	if err != nil {
		metrics.DiskCacheErrors.WithLabelValues("index").Inc()
		return nil, false
	}

	f, err := os.Open(c.filePath(key))
	if err != nil {
		// Index entry without a backing file; drop it.
		c.remove(key)
		return nil, false
	}
	defer f.Close()

	img, err := jpeg.Decode(f)
	if err != nil {
		metrics.DiskCacheErrors.WithLabelValues("read").Inc()
		c.remove(key)
		return nil, false
	}

	if _, err := c.db.Exec("UPDATE thumbnails SET last_access = ? WHERE key = ?",
		time.Now().Unix(), key); err != nil {
		metrics.DiskCacheErrors.WithLabelValues("index").Inc()
	}
	return img, true
}

// Put stores a thumbnail, then evicts least recently used entries
// until the cache is back under budget.
func (c *DiskCache) Put(key string, img image.Image) error {
	path := c.filePath(key)
	f, err := os.CreateTemp(c.dir, "tmp-*.jpg")
	if err != nil {
		metrics.DiskCacheErrors.WithLabelValues("write").Inc()
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	tmp := f.Name()

	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 85}); err != nil {
		f.Close()
		os.Remove(tmp)
		metrics.DiskCacheErrors.WithLabelValues("write").Inc()
		return fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		metrics.DiskCacheErrors.WithLabelValues("write").Inc()
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		metrics.DiskCacheErrors.WithLabelValues("write").Inc()
		return fmt.Errorf("failed to place cache file: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if _, err := c.db.Exec(
		"INSERT OR REPLACE INTO thumbnails (key, size_bytes, last_access) VALUES (?, ?, ?)",
		key, info.Size(), time.Now().Unix()); err != nil {
		metrics.DiskCacheErrors.WithLabelValues("index").Inc()
		return fmt.Errorf("failed to index thumbnail: %w", err)
	}

	return c.evict()
}

// evict removes oldest entries until total size is within budget.
func (c *DiskCache) evict() error {
	total, err := c.totalSize()
	if err != nil {
		return err
	}
	for total > c.maxBytes {
		var key string
		var size int64
		err := c.db.QueryRow(
			"SELECT key, size_bytes FROM thumbnails ORDER BY last_access ASC LIMIT 1").
			Scan(&key, &size)
		if err == sql.ErrNoRows {
			break
		}
		if err != nil {
			metrics.DiskCacheErrors.WithLabelValues("evict").Inc()
			return err
		}
		c.remove(key)
		metrics.DiskCacheEvictions.Inc()
		logging.Debug("Evicted disk cache entry %s (%d bytes)", key, size)
		total -= size
	}
	metrics.DiskCacheSizeBytes.Set(float64(total))
	return nil
}

// Clear removes every cached thumbnail and its index entry.
func (c *DiskCache) Clear() error {
	rows, err := c.db.Query("SELECT key FROM thumbnails")
	if err != nil {
		metrics.DiskCacheErrors.WithLabelValues("index").Inc()
		return fmt.Errorf("failed to list cache entries: %w", err)
	}
	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			rows.Close()
			return err
		}
		keys = append(keys, key)
	}
	rows.Close()

	for _, key := range keys {
		if err := os.Remove(c.filePath(key)); err != nil && !os.IsNotExist(err) {
			metrics.DiskCacheErrors.WithLabelValues("evict").Inc()
		}
	}
	if _, err := c.db.Exec("DELETE FROM thumbnails"); err != nil {
		metrics.DiskCacheErrors.WithLabelValues("index").Inc()
		return fmt.Errorf("failed to clear cache index: %w", err)
	}
	metrics.DiskCacheSizeBytes.Set(0)
	logging.Debug("Disk cache cleared, %d entries removed", len(keys))
	return nil
}

func (c *DiskCache) remove(key string) {
	if err := os.Remove(c.filePath(key)); err != nil && !os.IsNotExist(err) {
		metrics.DiskCacheErrors.WithLabelValues("evict").Inc()
	}
	if _, err := c.db.Exec("DELETE FROM thumbnails WHERE key = ?", key); err != nil {
		metrics.DiskCacheErrors.WithLabelValues("index").Inc()
	}
}

func (c *DiskCache) totalSize() (int64, error) {
	var total sql.NullInt64
	if err := c.db.QueryRow("SELECT SUM(size_bytes) FROM thumbnails").Scan(&total); err != nil {
		return 0, err
	}
	return total.Int64, nil
}

// Len returns the number of indexed entries.
func (c *DiskCache) Len() (int, error) {
	var n int
	err := c.db.QueryRow("SELECT COUNT(*) FROM thumbnails").Scan(&n)
	return n, err
}

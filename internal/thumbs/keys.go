package thumbs

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"
)

// CacheKey derives the cache key for a source file at a given thumbnail
// size. The key covers path, modification time, and file size so that a
// rewritten file (same name, new content) maps to a fresh key.
func CacheKey(path string, mtime time.Time, fileSize int64, width, height int) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s|%d|%d|%dx%d", path, mtime.UnixNano(), fileSize, width, height)))
	return hex.EncodeToString(sum[:])
}

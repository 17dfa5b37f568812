//go:build !linux

package catalog

import (
	"os"
	"time"
)

// birthTime falls back to the modification time on platforms where the
// stat result carries no creation time.
func birthTime(_ string, info os.FileInfo) time.Time {
	return info.ModTime()
}

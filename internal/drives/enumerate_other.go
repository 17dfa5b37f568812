//go:build !linux

package drives

// Enumerate is a stub on platforms without mount table support; the
// watcher still works with an injected Enumerator.
func Enumerate() ([]VolumeInfo, error) {
	return nil, nil
}

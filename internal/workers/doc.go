// Package workers provides helpers for sizing worker pools.
//
// Go 1.19+ sets GOMAXPROCS from container CPU limits, so the helpers here
// derive worker counts from runtime.GOMAXPROCS(0) rather than
// runtime.NumCPU, which still reports host CPUs. Thumbnail decoding is a
// mixed workload (file reads plus CPU-heavy decode), so the engine uses
// ForMixed by default.
//
// All helpers honor the THUMBNAIL_WORKERS environment variable as a manual
// override.
package workers

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Thumbnail engine metrics
var (
	ThumbnailRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imsdly_thumbnail_requests_total",
			Help: "Total number of thumbnail requests by outcome",
		},
		[]string{"outcome"}, // "memory_hit", "disk_hit", "coalesced", "queued"
	)

	ThumbnailGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imsdly_thumbnail_generations_total",
			Help: "Total number of thumbnail generations by file type and status",
		},
		[]string{"type", "status"},
	)

	ThumbnailGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "imsdly_thumbnail_generation_duration_seconds",
			Help:    "Thumbnail generation duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"type"},
	)

	ThumbnailQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "imsdly_thumbnail_queue_depth",
			Help: "Number of thumbnail jobs waiting in the queue",
		},
	)

	ThumbnailInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "imsdly_thumbnail_in_flight",
			Help: "Number of thumbnail jobs currently being generated",
		},
	)

	ThumbnailCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "imsdly_thumbnail_cache_entries",
			Help: "Number of thumbnails held in the in-memory cache",
		},
	)

	ThumbnailCacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "imsdly_thumbnail_cache_evictions_total",
			Help: "Total number of in-memory cache evictions",
		},
	)
)

// Disk cache metrics
var (
	DiskCacheSizeBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "imsdly_disk_cache_size_bytes",
			Help: "Total size of the on-disk thumbnail cache in bytes",
		},
	)

	DiskCacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "imsdly_disk_cache_evictions_total",
			Help: "Total number of on-disk cache evictions",
		},
	)

	DiskCacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imsdly_disk_cache_errors_total",
			Help: "Total number of disk cache errors by operation",
		},
		[]string{"operation"}, // "read", "write", "evict", "index"
	)
)

// Video extraction metrics
var (
	VideoExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imsdly_video_extractions_total",
			Help: "Total number of video frame extractions by strategy and status",
		},
		[]string{"strategy", "status"},
	)

	VideoExtractionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "imsdly_video_extraction_duration_seconds",
			Help:    "Video frame extraction duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"strategy"},
	)

	VideoProbeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "imsdly_video_probe_duration_seconds",
			Help:    "ffprobe metadata probe duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)
)

// Catalog and drive metrics
var (
	CatalogScansTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "imsdly_catalog_scans_total",
			Help: "Total number of catalog scans",
		},
	)

	CatalogScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "imsdly_catalog_scan_duration_seconds",
			Help:    "Catalog scan duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		},
	)

	CatalogFiles = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "imsdly_catalog_files",
			Help: "Number of cataloged files by type",
		},
		[]string{"type"},
	)

	DriveEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imsdly_drive_events_total",
			Help: "Total number of drive events by kind",
		},
		[]string{"kind"}, // "inserted", "removed", "updated"
	)

	DrivesConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "imsdly_drives_connected",
			Help: "Number of removable drives currently connected",
		},
	)
)

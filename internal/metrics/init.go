package metrics

// Init pre-populates all expected label combinations so that every metric
// is exported from the first Prometheus scrape. Call this once at startup
// after metric registration.
func Init() {
	for _, outcome := range []string{"memory_hit", "disk_hit", "coalesced", "queued"} {
		ThumbnailRequestsTotal.WithLabelValues(outcome)
	}

	types := []string{"image", "raw", "video", "document", "other"}
	for _, t := range types {
		ThumbnailGenerationDuration.WithLabelValues(t)
		CatalogFiles.WithLabelValues(t)
		for _, status := range []string{"success", "error", "placeholder"} {
			ThumbnailGenerationsTotal.WithLabelValues(t, status)
		}
	}

	for _, op := range []string{"read", "write", "evict", "index"} {
		DiskCacheErrors.WithLabelValues(op)
	}

	strategies := []string{
		"standard", "direct_seek", "keyframe_only", "skip_frames",
		"hardware_accel", "fast_first_frame", "fast_frame_grab",
	}
	for _, s := range strategies {
		VideoExtractionDuration.WithLabelValues(s)
		for _, status := range []string{"success", "error", "fallback"} {
			VideoExtractionsTotal.WithLabelValues(s, status)
		}
	}

	for _, kind := range []string{"inserted", "removed", "updated"} {
		DriveEventsTotal.WithLabelValues(kind)
	}
}

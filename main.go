package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"imsdly/internal/catalog"
	"imsdly/internal/decode"
	"imsdly/internal/drives"
	"imsdly/internal/logging"
	"imsdly/internal/metrics"
	"imsdly/internal/startup"
	"imsdly/internal/thumbs"
)

func main() {
	cfg, err := startup.LoadConfig()
	if err != nil {
		logging.Fatal("Configuration error: %v", err)
	}

	if err := decode.InitVips(); err != nil {
		logging.Warn("libvips initialization failed: %v", err)
	}
	defer decode.ShutdownVips()

	caps := decode.ProbeCapabilities()
	dispatcher := decode.NewDispatcher(decode.Config{
		Capabilities:     caps,
		VideoStrategy:    cfg.VideoStrategy,
		VideoFrameNumber: cfg.VideoFrameNumber,
		VideoFrameTime:   cfg.VideoFrameTime,
		VideoFallback:    cfg.VideoFallback,
	})

	var disk *thumbs.DiskCache
	if cfg.DiskCacheEnabled {
		disk, err = thumbs.OpenDiskCache(cfg.ThumbnailDir, cfg.DiskCacheMaxMB<<20)
		if err != nil {
			logging.Warn("Disk cache unavailable, running memory-only: %v", err)
			disk = nil
		} else {
			defer disk.Close()
		}
	}

	engine := thumbs.NewEngine(dispatcher, thumbs.Options{
		Workers:       cfg.ThumbnailWorkers,
		MemoryEntries: cfg.CacheMaxEntries,
		Width:         cfg.ThumbnailWidth,
		Height:        cfg.ThumbnailHeight,
		Disk:          disk,
	})
	defer engine.Close()

	var metricsSrv *metrics.Server
	if cfg.MetricsEnabled {
		metrics.Init()
		metricsSrv = metrics.NewServer(cfg.MetricsPort)
		metricsSrv.Start()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cat := catalog.New(cfg.SourceDir)
	if _, err := cat.Scan(); err != nil {
		logging.Warn("Initial catalog scan failed: %v", err)
	}
	warmCatalog(cat, engine)

	done := make(chan struct{})
	go cat.Watch(done, func() {
		if _, err := cat.Scan(); err != nil {
			logging.Warn("Catalog rescan failed: %v", err)
			return
		}
		warmCatalog(cat, engine)
	})
	defer close(done)

	watcher := drives.NewWatcher(drives.Enumerate, cfg.DrivePollInterval)
	go watcher.Run(ctx)
	go handleDriveEvents(watcher, engine)

	logging.Info("Import service ready, watching %s", cfg.SourceDir)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logging.Info("Received %s, shutting down", sig)

	cancel()
	if metricsSrv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			logging.Error("Metrics server shutdown error: %v", err)
		}
	}
}

// warmCatalog queues background thumbnail generation for every
// cataloged file so the browse grid is instant when the user gets
// there.
func warmCatalog(cat *catalog.Catalog, engine *thumbs.Engine) {
	files := cat.Files()
	for _, f := range files {
		engine.GetAsync(f.Path, nil)
	}
	logging.Debug("Queued thumbnail warm-up for %d files", len(files))
}

// handleDriveEvents pre-generates thumbnails for newly inserted cards.
func handleDriveEvents(watcher *drives.Watcher, engine *thumbs.Engine) {
	for ev := range watcher.Events() {
		switch ev.Kind {
		case drives.Inserted:
			logging.Info("Scanning inserted drive %s", ev.Volume.Path)
			cat := catalog.New(ev.Volume.Path)
			if _, err := cat.Scan(); err != nil {
				logging.Warn("Drive scan failed for %s: %v", ev.Volume.Path, err)
				continue
			}
			warmCatalog(cat, engine)
		case drives.Removed:
			logging.Info("Drive removed: %s", ev.Volume.Path)
		}
	}
}

package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"imsdly/internal/logging"
	"imsdly/internal/video"
	"imsdly/internal/workers"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Config holds all application configuration.
type Config struct {
	SourceDir string
	CacheDir  string

	ThumbnailWorkers int
	ThumbnailWidth   int
	ThumbnailHeight  int
	CacheMaxEntries  int
	DiskCacheMaxMB   int64

	VideoStrategy    video.Strategy
	VideoFrameNumber int
	VideoFrameTime   float64
	VideoFallback    bool

	DrivePollInterval time.Duration

	MetricsPort    int
	MetricsEnabled bool

	// Derived paths
	ThumbnailDir string

	// DiskCacheEnabled clears when the cache directory is unusable;
	// the engine then runs memory-only.
	DiskCacheEnabled bool
}

// LoadConfig loads and validates configuration from environment
// variables.
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	sourceDir := getEnv("SOURCE_DIR", "/media")
	cacheDir := getEnv("CACHE_DIR", defaultCacheDir())
	width := getEnvInt("THUMBNAIL_WIDTH", 120)
	height := getEnvInt("THUMBNAIL_HEIGHT", 90)
	maxEntries := getEnvInt("CACHE_MAX_ENTRIES", 2048)
	diskMaxMB := getEnvInt("DISK_CACHE_MAX_MB", 500)
	strategy := video.Strategy(getEnv("VIDEO_STRATEGY", string(video.StrategyFastFrameGrab)))
	frameNumber := getEnvInt("VIDEO_FRAME_NUMBER", 5)
	frameTime := getEnvFloat("VIDEO_FRAME_TIME", 1.0)
	videoFallback := getEnvBool("VIDEO_FALLBACK", true)
	pollStr := getEnv("DRIVE_POLL_INTERVAL", "1s")
	metricsPort := getEnvInt("METRICS_PORT", 9090)
	metricsEnabled := getEnvBool("METRICS_ENABLED", true)
	workerCount := workers.ForMixed(4)

	logging.Info("  SOURCE_DIR:          %s", sourceDir)
	logging.Info("  CACHE_DIR:           %s", cacheDir)
	logging.Info("  THUMBNAIL_WORKERS:   %d", workerCount)
	logging.Info("  THUMBNAIL_SIZE:      %dx%d", width, height)
	logging.Info("  CACHE_MAX_ENTRIES:   %d", maxEntries)
	logging.Info("  DISK_CACHE_MAX_MB:   %d", diskMaxMB)
	logging.Info("  VIDEO_STRATEGY:      %s", strategy)
	logging.Info("  VIDEO_FRAME_NUMBER:  %d", frameNumber)
	logging.Info("  VIDEO_FALLBACK:      %v", videoFallback)
	logging.Info("  DRIVE_POLL_INTERVAL: %s", pollStr)
	logging.Info("  METRICS_PORT:        %d", metricsPort)
	logging.Info("  METRICS_ENABLED:     %v", metricsEnabled)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	if !strategy.Valid() {
		logging.Warn("  Invalid VIDEO_STRATEGY %q, using default: %s",
			strategy, video.StrategyFastFrameGrab)
		strategy = video.StrategyFastFrameGrab
	}

	pollInterval, err := time.ParseDuration(pollStr)
	if err != nil || pollInterval <= 0 {
		logging.Warn("  Invalid DRIVE_POLL_INTERVAL, using default: 1s")
		pollInterval = time.Second
	}

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	sourceDir, err = filepath.Abs(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve source directory path: %w", err)
	}
	logging.Info("  Source directory (absolute): %s", sourceDir)

	cacheDir, err = filepath.Abs(cacheDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cache directory path: %w", err)
	}
	logging.Info("  Cache directory (absolute):  %s", cacheDir)

	if err := ensureDirectory(sourceDir, "source"); err != nil {
		logging.Warn("  Source directory issue: %v", err)
	}

	config := &Config{
		SourceDir:         sourceDir,
		CacheDir:          cacheDir,
		ThumbnailWorkers:  workerCount,
		ThumbnailWidth:    width,
		ThumbnailHeight:   height,
		CacheMaxEntries:   maxEntries,
		DiskCacheMaxMB:    int64(diskMaxMB),
		VideoStrategy:     strategy,
		VideoFrameNumber:  frameNumber,
		VideoFrameTime:    frameTime,
		VideoFallback:     videoFallback,
		DrivePollInterval: pollInterval,
		MetricsPort:       metricsPort,
		MetricsEnabled:    metricsEnabled,
		ThumbnailDir:      filepath.Join(cacheDir, "thumbnails"),
	}

	config.DiskCacheEnabled = setupOptionalDir(config.ThumbnailDir, "thumbnail cache")

	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Disk cache: %s", enabledString(config.DiskCacheEnabled))
	logging.Info("    Metrics:    %s", enabledString(config.MetricsEnabled))

	return config, nil
}

// defaultCacheDir places the cache under the user's home directory.
func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".imsdly"
	}
	return filepath.Join(home, ".imsdly")
}

func setupOptionalDir(path, name string) bool {
	logging.Debug("  Setting up %s directory: %s", name, path)

	if err := os.MkdirAll(path, 0o755); err != nil {
		logging.Warn("    Failed to create %s directory: %v", name, err)
		logging.Warn("    %s will be disabled", name)
		return false
	}

	testFile := filepath.Join(path, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		logging.Warn("    %s directory is not writable: %v", name, err)
		logging.Warn("    %s will be disabled", name)
		return false
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("    failed to remove test file %s: %v", testFile, err)
	}

	logging.Debug("    [OK] %s directory ready", name)
	return true
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}
	return nil
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

func printBanner() {
	banner := `
------------------------------------------------------------
    _                    ____
   (_)___ ___  _________/ / /_  __
  / / __ '__ \/ ___/ __  / / / / /
 / / / / / / (__  ) /_/ / / /_/ /
/_/_/ /_/ /_/____/\__,_/_/\__, /
                         /____/
------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}
	logging.Info("")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		logging.Warn("Invalid value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || parsed <= 0 {
		logging.Warn("Invalid value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

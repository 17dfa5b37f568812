package video

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/png"
	"os/exec"
	"time"

	"imsdly/internal/logging"
	"imsdly/internal/metrics"
)

// Strategy selects how a poster frame is located within the video.
type Strategy string

const (
	// StrategyStandard seeks on the output side, decoding every frame
	// up to the target time. Accurate but slowest.
	StrategyStandard Strategy = "standard"
	// StrategyDirectSeek seeks on the input side, jumping to the
	// nearest keyframe and decoding forward from there.
	StrategyDirectSeek Strategy = "direct_seek"
	// StrategyKeyframeOnly returns the nearest keyframe without
	// decoding toward the exact target.
	StrategyKeyframeOnly Strategy = "keyframe_only"
	// StrategySkipFrames decodes only keyframes while approaching the
	// target time.
	StrategySkipFrames Strategy = "skip_frames"
	// StrategyHardwareAccel tries hardware decoders before falling
	// back to software seeking.
	StrategyHardwareAccel Strategy = "hardware_accel"
	// StrategyFastFirstFrame grabs the first frame with no seeking at
	// all.
	StrategyFastFirstFrame Strategy = "fast_first_frame"
	// StrategyFastFrameGrab extracts a specific frame number, reading
	// sequentially for early frames and seeking for later ones.
	StrategyFastFrameGrab Strategy = "fast_frame_grab"
)

// Strategies lists every supported strategy.
var Strategies = []Strategy{
	StrategyStandard, StrategyDirectSeek, StrategyKeyframeOnly,
	StrategySkipFrames, StrategyHardwareAccel, StrategyFastFirstFrame,
	StrategyFastFrameGrab,
}

// Valid reports whether s names a known strategy.
func (s Strategy) Valid() bool {
	for _, known := range Strategies {
		if s == known {
			return true
		}
	}
	return false
}

// hwBackends are tried in order by the hardware_accel strategy.
var hwBackends = []string{"vaapi", "cuda", "videotoolbox"}

// sequentialGrabLimit is the frame number below which fast_frame_grab
// reads sequentially instead of seeking. Early frames are cheaper to
// reach by decoding than by a container seek.
const sequentialGrabLimit = 10

// Options configures a frame extraction.
type Options struct {
	Strategy Strategy
	// FrameTime is the target timestamp in seconds for time-based
	// strategies. Defaults to 1.0.
	FrameTime float64
	// FrameNumber is the target frame for fast_frame_grab.
	FrameNumber int
	// Fallback retries with the standard strategy when the chosen one
	// fails.
	Fallback bool
}

// Extractor runs ffmpeg to pull single frames out of video files. It
// memoizes fast_frame_grab results since browse views request the same
// frame repeatedly.
type Extractor struct {
	memo *frameMemo
}

// NewExtractor creates an Extractor.
func NewExtractor() *Extractor {
	return &Extractor{memo: newFrameMemo(frameMemoCapacity)}
}

// Available reports whether ffmpeg is on PATH.
func Available() bool {
	_, err := exec.LookPath("ffmpeg")
	return err == nil
}

// Frame extracts a poster frame from the video at path.
func (e *Extractor) Frame(ctx context.Context, path string, opts Options) (image.Image, error) {
	if opts.Strategy == "" {
		opts.Strategy = StrategyFastFrameGrab
	}
	if !opts.Strategy.Valid() {
		return nil, fmt.Errorf("unknown extraction strategy %q", opts.Strategy)
	}
	if opts.FrameTime <= 0 {
		opts.FrameTime = 1.0
	}

	start := time.Now()
	img, err := e.extract(ctx, path, opts)
	metrics.VideoExtractionDuration.WithLabelValues(string(opts.Strategy)).Observe(time.Since(start).Seconds())

	if err == nil {
		metrics.VideoExtractionsTotal.WithLabelValues(string(opts.Strategy), "success").Inc()
		return img, nil
	}
	metrics.VideoExtractionsTotal.WithLabelValues(string(opts.Strategy), "error").Inc()

	if opts.Fallback && opts.Strategy != StrategyStandard {
		logging.Debug("Strategy %s failed for %s: %v, falling back to standard",
			opts.Strategy, path, err)
		img, fbErr := runFFmpeg(ctx, standardArgs(path, opts.FrameTime))
		if fbErr == nil {
			metrics.VideoExtractionsTotal.WithLabelValues(string(opts.Strategy), "fallback").Inc()
			return img, nil
		}
		return nil, fmt.Errorf("extraction failed (%v), standard fallback failed: %w", err, fbErr)
	}
	return nil, err
}

func (e *Extractor) extract(ctx context.Context, path string, opts Options) (image.Image, error) {
	switch opts.Strategy {
	case StrategyHardwareAccel:
		return e.hardwareAccel(ctx, path, opts.FrameTime)
	case StrategyFastFrameGrab:
		return e.fastFrameGrab(ctx, path, opts.FrameNumber)
	default:
		return runFFmpeg(ctx, argsFor(opts.Strategy, path, opts.FrameTime))
	}
}

// argsFor builds the ffmpeg argument list for the time-based
// strategies.
func argsFor(s Strategy, path string, frameTime float64) []string {
	ts := formatSeconds(frameTime)
	switch s {
	case StrategyDirectSeek:
		// Input-side seek: jump to the nearest keyframe first.
		return pipeArgs("-ss", ts, "-i", path, "-frames:v", "1")
	case StrategyKeyframeOnly:
		return pipeArgs("-noaccurate_seek", "-ss", ts, "-i", path, "-frames:v", "1")
	case StrategySkipFrames:
		return pipeArgs("-skip_frame", "nokey", "-ss", ts, "-i", path, "-frames:v", "1")
	case StrategyFastFirstFrame:
		return pipeArgs("-i", path, "-frames:v", "1")
	default:
		return standardArgs(path, frameTime)
	}
}

// standardArgs is the accurate output-side seek used as the baseline
// and as the fallback target.
func standardArgs(path string, frameTime float64) []string {
	return pipeArgs("-i", path, "-ss", formatSeconds(frameTime), "-frames:v", "1")
}

// pipeArgs appends the shared image2pipe output arguments.
func pipeArgs(in ...string) []string {
	return append(in, "-f", "image2pipe", "-vcodec", "png", "-")
}

func formatSeconds(s float64) string {
	return fmt.Sprintf("%.3f", s)
}

// hardwareAccel tries each hardware decoder backend in turn, then the
// standard software path.
func (e *Extractor) hardwareAccel(ctx context.Context, path string, frameTime float64) (image.Image, error) {
	ts := formatSeconds(frameTime)
	for _, backend := range hwBackends {
		args := pipeArgs("-hwaccel", backend, "-ss", ts, "-i", path, "-frames:v", "1")
		img, err := runFFmpeg(ctx, args)
		if err == nil {
			logging.Debug("Hardware decode via %s succeeded for %s", backend, path)
			return img, nil
		}
		logging.Debug("Hardware backend %s failed for %s: %v", backend, path, err)
	}
	return runFFmpeg(ctx, standardArgs(path, frameTime))
}

// fastFrameGrab extracts a specific frame number. Early frames are
// read sequentially with a select filter; later frames are reached by
// converting the frame number to a timestamp via the stream frame
// rate.
func (e *Extractor) fastFrameGrab(ctx context.Context, path string, frameNumber int) (image.Image, error) {
	if frameNumber < 0 {
		frameNumber = 0
	}
	memoKey := fmt.Sprintf("%s|%d", path, frameNumber)
	if img, ok := e.memo.Get(memoKey); ok {
		logging.Debug("Frame memo hit for %s frame %d", path, frameNumber)
		return img, nil
	}

	var args []string
	if frameNumber <= sequentialGrabLimit {
		filter := fmt.Sprintf("select=eq(n\\,%d)", frameNumber)
		args = pipeArgs("-i", path, "-vf", filter, "-frames:v", "1", "-fps_mode", "passthrough")
	} else {
		info, err := Probe(ctx, path)
		if err != nil || info.FPS <= 0 {
			return nil, fmt.Errorf("cannot locate frame %d without frame rate: %v", frameNumber, err)
		}
		target := float64(frameNumber) / info.FPS
		args = pipeArgs("-ss", formatSeconds(target), "-i", path, "-frames:v", "1")
	}

	img, err := runFFmpeg(ctx, args)
	if err != nil {
		return nil, err
	}
	e.memo.Put(memoKey, img)
	return img, nil
}

// runFFmpeg executes ffmpeg with the given arguments and decodes the
// PNG frame from stdout.
func runFFmpeg(ctx context.Context, args []string) (image.Image, error) {
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found: %w", err)
	}

	cmd := exec.CommandContext(ctx, ffmpegPath, args...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg failed: %v, stderr: %s", err, stderr.String())
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg produced no output")
	}

	img, _, err := image.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ffmpeg output: %w", err)
	}
	return img, nil
}

package decode

import (
	"context"
	"fmt"
	"image"
	"os"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"imsdly/internal/logging"
	"imsdly/internal/mediatypes"
	"imsdly/internal/thumbs"
	"imsdly/internal/video"
)

// Config configures a Dispatcher.
type Config struct {
	Capabilities Capabilities
	// VideoStrategy selects the frame extraction strategy.
	VideoStrategy video.Strategy
	// VideoFrameNumber is the target frame for fast_frame_grab.
	VideoFrameNumber int
	// VideoFrameTime is the target timestamp for time-based
	// strategies, in seconds.
	VideoFrameTime float64
	// VideoFallback retries failed extractions with the standard
	// strategy.
	VideoFallback bool
}

// Dispatcher routes files to format-specific decoders and implements
// the thumbnail engine's Generator.
type Dispatcher struct {
	cfg       Config
	extractor *video.Extractor
}

// NewDispatcher creates a Dispatcher with the given capabilities and
// video settings.
func NewDispatcher(cfg Config) *Dispatcher {
	return &Dispatcher{cfg: cfg, extractor: video.NewExtractor()}
}

// Generate produces a thumbnail for path. Decode failures yield a
// placeholder with a nil error so the result is cached and the broken
// file is not retried; an unreadable source yields a placeholder
// alongside ErrSourceUnavailable so it is retried if the file returns.
func (d *Dispatcher) Generate(ctx context.Context, path string, width, height int) (*thumbs.Rendered, error) {
	t := mediatypes.Classify(path)

	if _, err := os.Stat(path); err != nil {
		logging.Debug("Source unavailable: %s: %v", path, err)
		return placeholderResult(path, t, width, height), thumbs.ErrSourceUnavailable
	}

	switch t {
	case mediatypes.FileTypeVideo:
		return d.videoThumbnail(ctx, path, width, height)
	case mediatypes.FileTypeImage, mediatypes.FileTypeRaw:
		img, err := d.decodeStill(path, t, width, height)
		if err != nil {
			logging.Warn("Decode failed for %s: %v", path, err)
			return placeholderResult(path, t, width, height), nil
		}
		return &thumbs.Rendered{Image: letterbox(img, width, height)}, nil
	default:
		// Documents and unknown formats always render as tiles.
		return placeholderResult(path, t, width, height), nil
	}
}

// decodeStill decodes an image or RAW file at roughly thumbnail size.
func (d *Dispatcher) decodeStill(path string, t mediatypes.FileType, width, height int) (image.Image, error) {
	if t == mediatypes.FileTypeRaw {
		if !d.cfg.Capabilities.RawSupport {
			return nil, fmt.Errorf("no RAW decode support for %s", path)
		}
		return loadWithVips(path, width, height)
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err == nil {
		return img, nil
	}
	logging.Debug("imaging.Open failed for %s: %v", path, err)

	if d.cfg.Capabilities.RawSupport {
		return loadWithVips(path, width, height)
	}
	return nil, err
}

// videoThumbnail extracts a poster frame and composites the film strip
// border and duration badge onto the tile.
func (d *Dispatcher) videoThumbnail(ctx context.Context, path string, width, height int) (*thumbs.Rendered, error) {
	if !d.cfg.Capabilities.VideoSupport {
		return placeholderResult(path, mediatypes.FileTypeVideo, width, height), nil
	}

	frame, err := d.extractor.Frame(ctx, path, video.Options{
		Strategy:    d.cfg.VideoStrategy,
		FrameTime:   d.cfg.VideoFrameTime,
		FrameNumber: d.cfg.VideoFrameNumber,
		Fallback:    d.cfg.VideoFallback,
	})
	if err != nil {
		logging.Warn("Frame extraction failed for %s: %v", path, err)
		return placeholderResult(path, mediatypes.FileTypeVideo, width, height), nil
	}

	canvas := letterbox(frame, width, height)
	filmstrip(canvas)
	if info, probeErr := video.Probe(ctx, path); probeErr == nil && info.Duration > 0 {
		durationBadge(canvas, video.FormatDuration(info.Duration))
	}
	return &thumbs.Rendered{Image: canvas}, nil
}

func placeholderResult(path string, t mediatypes.FileType, width, height int) *thumbs.Rendered {
	return &thumbs.Rendered{
		Image:       renderPlaceholder(path, t, width, height),
		Placeholder: true,
	}
}

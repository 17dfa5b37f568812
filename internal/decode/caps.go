package decode

import (
	"imsdly/internal/logging"
	"imsdly/internal/video"
)

// Capabilities records which optional decode backends are usable.
// Probe once at startup and inject the result; per-file probing would
// hammer PATH lookups during a large import.
type Capabilities struct {
	// RawSupport means libvips is initialized and RAW/HEIC files can
	// be decoded. Without it RAW files get placeholders.
	RawSupport bool
	// VideoSupport means ffmpeg is on PATH and video frames can be
	// extracted. Without it videos get placeholders.
	VideoSupport bool
}

// ProbeCapabilities checks the optional backends. Call after InitVips.
func ProbeCapabilities() Capabilities {
	caps := Capabilities{
		RawSupport:   IsVipsAvailable(),
		VideoSupport: video.Available(),
	}
	if !caps.RawSupport {
		logging.Warn("libvips unavailable, RAW files will show placeholders")
	}
	if !caps.VideoSupport {
		logging.Warn("ffmpeg not found, videos will show placeholders")
	}
	return caps
}

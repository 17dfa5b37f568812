package video

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"imsdly/internal/metrics"
)

// Info holds the probed video stream metadata.
type Info struct {
	Duration float64 // seconds
	FPS      float64
	Width    int
	Height   int
}

// Probe reads stream metadata with ffprobe.
func Probe(ctx context.Context, filePath string) (*Info, error) {
	start := time.Now()
	defer func() {
		metrics.VideoProbeDuration.Observe(time.Since(start).Seconds())
	}()

	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		filePath,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffprobe error: %w - %s", err, stderr.String())
	}

	return parseProbeOutput(stdout.String())
}

// parseProbeOutput extracts the fields of interest from ffprobe's JSON
// without unmarshaling the whole document.
func parseProbeOutput(output string) (*Info, error) {
	info := &Info{}

	if v, ok := jsonField(output, `"duration"`); ok {
		info.Duration, _ = strconv.ParseFloat(v, 64)
	}
	if v, ok := jsonField(output, `"r_frame_rate"`); ok {
		info.FPS = parseFrameRate(v)
	}
	if v, ok := jsonField(output, `"width"`); ok {
		info.Width, _ = strconv.Atoi(v)
	}
	if v, ok := jsonField(output, `"height"`); ok {
		info.Height, _ = strconv.Atoi(v)
	}

	if info.Duration <= 0 && info.FPS <= 0 {
		return nil, fmt.Errorf("ffprobe returned no usable stream metadata")
	}
	return info, nil
}

// jsonField returns the first value for the given quoted key.
func jsonField(output, key string) (string, bool) {
	idx := strings.Index(output, key)
	if idx == -1 {
		return "", false
	}
	start := strings.Index(output[idx:], ":")
	if start == -1 {
		return "", false
	}
	start += idx + 1
	end := strings.IndexAny(output[start:], ",}")
	if end == -1 {
		return "", false
	}
	return strings.Trim(output[start:start+end], ` "`), true
}

// parseFrameRate converts ffprobe's fractional rate ("30000/1001") to
// frames per second.
func parseFrameRate(s string) float64 {
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err1 := strconv.ParseFloat(num, 64)
		d, err2 := strconv.ParseFloat(den, 64)
		if err1 != nil || err2 != nil || d == 0 {
			return 0
		}
		return n / d
	}
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

// FormatDuration renders a duration in seconds as an MM:SS badge
// label. Durations of an hour or more include the hour component.
func FormatDuration(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

package video

import (
	"image"
	"strings"
	"testing"
)

func argsToString(args []string) string {
	return strings.Join(args, " ")
}

func TestStandardArgsSeekAfterInput(t *testing.T) {
	s := argsToString(standardArgs("/v/clip.mp4", 1.0))
	inputIdx := strings.Index(s, "-i /v/clip.mp4")
	seekIdx := strings.Index(s, "-ss 1.000")
	if inputIdx == -1 || seekIdx == -1 {
		t.Fatalf("missing input or seek: %s", s)
	}
	if seekIdx < inputIdx {
		t.Errorf("standard strategy must seek on the output side: %s", s)
	}
}

func TestDirectSeekArgsSeekBeforeInput(t *testing.T) {
	s := argsToString(argsFor(StrategyDirectSeek, "/v/clip.mp4", 2.5))
	inputIdx := strings.Index(s, "-i /v/clip.mp4")
	seekIdx := strings.Index(s, "-ss 2.500")
	if inputIdx == -1 || seekIdx == -1 {
		t.Fatalf("missing input or seek: %s", s)
	}
	if seekIdx > inputIdx {
		t.Errorf("direct_seek must seek on the input side: %s", s)
	}
}

func TestKeyframeOnlyArgsDisableAccurateSeek(t *testing.T) {
	s := argsToString(argsFor(StrategyKeyframeOnly, "/v/clip.mp4", 1.0))
	if !strings.Contains(s, "-noaccurate_seek") {
		t.Errorf("keyframe_only must pass -noaccurate_seek: %s", s)
	}
}

func TestSkipFramesArgsDecodeKeyframesOnly(t *testing.T) {
	s := argsToString(argsFor(StrategySkipFrames, "/v/clip.mp4", 1.0))
	if !strings.Contains(s, "-skip_frame nokey") {
		t.Errorf("skip_frames must pass -skip_frame nokey: %s", s)
	}
}

func TestFastFirstFrameArgsHaveNoSeek(t *testing.T) {
	s := argsToString(argsFor(StrategyFastFirstFrame, "/v/clip.mp4", 1.0))
	if strings.Contains(s, "-ss") {
		t.Errorf("fast_first_frame must not seek: %s", s)
	}
	if !strings.Contains(s, "-frames:v 1") {
		t.Errorf("must extract exactly one frame: %s", s)
	}
}

func TestAllArgsEndWithImagePipe(t *testing.T) {
	for _, strat := range []Strategy{
		StrategyStandard, StrategyDirectSeek, StrategyKeyframeOnly,
		StrategySkipFrames, StrategyFastFirstFrame,
	} {
		args := argsFor(strat, "/v/clip.mp4", 1.0)
		s := argsToString(args)
		if !strings.Contains(s, "-f image2pipe -vcodec png -") {
			t.Errorf("%s missing pipe output args: %s", strat, s)
		}
		if args[len(args)-1] != "-" {
			t.Errorf("%s must write to stdout: %s", strat, s)
		}
	}
}

func TestStrategyValid(t *testing.T) {
	for _, s := range Strategies {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if Strategy("bogus").Valid() {
		t.Error("unknown strategy should be invalid")
	}
}

func TestFrameMemoEvictsAtCapacity(t *testing.T) {
	m := newFrameMemo(3)
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	for _, k := range []string{"a|0", "b|0", "c|0", "d|0"} {
		m.Put(k, img)
	}
	if m.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", m.Len())
	}
	if _, ok := m.Get("a|0"); ok {
		t.Error("oldest memo entry should be evicted")
	}
	if _, ok := m.Get("d|0"); !ok {
		t.Error("newest memo entry should remain")
	}
}

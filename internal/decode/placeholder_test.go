package decode

import (
	"image"
	"image/color"
	"testing"

	"imsdly/internal/mediatypes"
)

func TestRenderPlaceholderDimensionsAndBackground(t *testing.T) {
	img := renderPlaceholder("/card/clip.mp4", mediatypes.FileTypeVideo, 120, 90)
	b := img.Bounds()
	if b.Dx() != 120 || b.Dy() != 90 {
		t.Fatalf("size = %dx%d, want 120x90", b.Dx(), b.Dy())
	}
	// Corner pixel carries the type's background color.
	want := typeColors[mediatypes.FileTypeVideo]
	if got := img.At(0, 0); got != want {
		t.Errorf("corner = %v, want %v", got, want)
	}
}

func TestRenderPlaceholderUnknownTypeFallsBack(t *testing.T) {
	img := renderPlaceholder("/card/x.zzz", mediatypes.FileType("mystery"), 60, 60)
	want := typeColors[mediatypes.FileTypeOther]
	if got := img.At(0, 0); got != want {
		t.Errorf("corner = %v, want fallback %v", got, want)
	}
}

func TestLetterboxCentersAndPads(t *testing.T) {
	// Wide source inside a 4:3 tile leaves bars top and bottom.
	src := image.NewRGBA(image.Rect(0, 0, 400, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 400; x++ {
			src.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}

	canvas := letterbox(src, 120, 90)
	b := canvas.Bounds()
	if b.Dx() != 120 || b.Dy() != 90 {
		t.Fatalf("canvas size = %dx%d, want 120x90", b.Dx(), b.Dy())
	}
	if canvas.At(60, 2) != letterboxBG {
		t.Error("top bar should carry the letterbox background")
	}
	if canvas.At(60, 45) == letterboxBG {
		t.Error("center should carry source content")
	}
}

func TestFilmstripDrawsBands(t *testing.T) {
	canvas := image.NewRGBA(image.Rect(0, 0, 120, 90))
	filmstrip(canvas)

	dark := color.RGBA{A: 0xff}
	if canvas.At(0, 0) != dark {
		t.Error("top band missing")
	}
	if canvas.At(0, 89) != dark {
		t.Error("bottom band missing")
	}
}

func TestDurationBadgeDrawsInCorner(t *testing.T) {
	canvas := image.NewRGBA(image.Rect(0, 0, 120, 90))
	durationBadge(canvas, "1:35")

	// Some pixel near the corner should no longer be fully transparent.
	changed := false
	for y := 70; y < 90 && !changed; y++ {
		for x := 80; x < 120; x++ {
			if _, _, _, a := canvas.At(x, y).RGBA(); a > 0 {
				changed = true
				break
			}
		}
	}
	if !changed {
		t.Error("badge left the corner untouched")
	}
}

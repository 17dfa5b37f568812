package decode

import (
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"imsdly/internal/thumbs"
)

func writeJPEG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), A: 255})
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, nil); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return path
}

func noBackends() *Dispatcher {
	return NewDispatcher(Config{})
}

func TestGenerateJPEGProducesExactTileSize(t *testing.T) {
	path := writeJPEG(t, t.TempDir(), "photo.jpg", 640, 480)

	res, err := noBackends().Generate(context.Background(), path, 120, 90)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Placeholder {
		t.Error("valid JPEG should not produce a placeholder")
	}
	b := res.Image.Bounds()
	if b.Dx() != 120 || b.Dy() != 90 {
		t.Errorf("tile size = %dx%d, want 120x90", b.Dx(), b.Dy())
	}
}

func TestGenerateCorruptImageYieldsCachedPlaceholder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.jpg")
	if err := os.WriteFile(path, []byte("not a jpeg"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	res, err := noBackends().Generate(context.Background(), path, 120, 90)
	if err != nil {
		t.Fatalf("decode failure must not return an error, got %v", err)
	}
	if !res.Placeholder {
		t.Error("corrupt file should produce a placeholder")
	}
}

func TestGenerateMissingFileReturnsSourceUnavailable(t *testing.T) {
	res, err := noBackends().Generate(context.Background(), "/gone/IMG_0001.JPG", 120, 90)
	if err != thumbs.ErrSourceUnavailable {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
	if res == nil || !res.Placeholder {
		t.Error("unavailable source should still carry a placeholder to show")
	}
}

func TestGenerateRawWithoutSupportYieldsPlaceholder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "IMG_0001.CR2")
	if err := os.WriteFile(path, []byte("raw bytes"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	res, err := noBackends().Generate(context.Background(), path, 120, 90)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !res.Placeholder {
		t.Error("RAW without libvips should produce a placeholder")
	}
}

func TestGenerateVideoWithoutSupportYieldsPlaceholder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(path, []byte("video bytes"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	res, err := noBackends().Generate(context.Background(), path, 120, 90)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !res.Placeholder {
		t.Error("video without ffmpeg should produce a placeholder")
	}
}

func TestGenerateDocumentYieldsPlaceholder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manual.pdf")
	if err := os.WriteFile(path, []byte("%PDF"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	res, err := noBackends().Generate(context.Background(), path, 120, 90)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !res.Placeholder {
		t.Error("documents should render as placeholder tiles")
	}
	b := res.Image.Bounds()
	if b.Dx() != 120 || b.Dy() != 90 {
		t.Errorf("placeholder size = %dx%d, want 120x90", b.Dx(), b.Dy())
	}
}

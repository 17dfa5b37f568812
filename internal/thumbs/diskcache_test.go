package thumbs

import (
	"image"
	"image/color"
	"os"
	"testing"
	"time"
)

func timeFor(i int) time.Time {
	return time.Unix(int64(i), 0)
}

func testImage(c color.RGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 120, 90))
	for y := 0; y < 90; y++ {
		for x := 0; x < 120; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestDiskCacheRoundTrip(t *testing.T) {
	c, err := OpenDiskCache(t.TempDir(), 10<<20)
	if err != nil {
		t.Fatalf("OpenDiskCache: %v", err)
	}
	defer c.Close()

	if _, ok := c.Get("missing"); ok {
		t.Error("expected miss for unknown key")
	}

	if err := c.Put("k1", testImage(color.RGBA{R: 200, A: 255})); err != nil {
		t.Fatalf("Put: %v", err)
	}
	img, ok := c.Get("k1")
	if !ok {
		t.Fatal("expected hit after Put")
	}
	b := img.Bounds()
	if b.Dx() != 120 || b.Dy() != 90 {
		t.Errorf("unexpected dimensions %dx%d", b.Dx(), b.Dy())
	}
}

func TestDiskCacheEvictsOverBudget(t *testing.T) {
	// Budget small enough that a handful of JPEGs overflow it.
	c, err := OpenDiskCache(t.TempDir(), 3000)
	if err != nil {
		t.Fatalf("OpenDiskCache: %v", err)
	}
	defer c.Close()

	for i := 0; i < 10; i++ {
		key := CacheKey("file", timeFor(i), int64(i), 120, 90)
		if err := c.Put(key, testImage(color.RGBA{R: uint8(i * 20), A: 255})); err != nil {
			t.Fatalf("Put %d: %v", i, err)
		}
	}

	total, err := c.totalSize()
	if err != nil {
		t.Fatalf("totalSize: %v", err)
	}
	if total > 3000 {
		t.Errorf("cache over budget after eviction: %d bytes", total)
	}
	n, err := c.Len()
	if err != nil {
		t.Fatalf("Len: %v", err)
	}
	if n >= 10 {
		t.Errorf("expected evictions, still %d entries", n)
	}
}

func TestDiskCacheClear(t *testing.T) {
	c, err := OpenDiskCache(t.TempDir(), 10<<20)
	if err != nil {
		t.Fatalf("OpenDiskCache: %v", err)
	}
	defer c.Close()

	for i := 0; i < 3; i++ {
		key := CacheKey("file", timeFor(i), int64(i), 120, 90)
		if err := c.Put(key, testImage(color.RGBA{B: uint8(i * 40), A: 255})); err != nil {
			t.Fatalf("Put %d: %v", i, err)
		}
	}

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	n, err := c.Len()
	if err != nil {
		t.Fatalf("Len: %v", err)
	}
	if n != 0 {
		t.Errorf("expected empty index, got %d entries", n)
	}
	for i := 0; i < 3; i++ {
		key := CacheKey("file", timeFor(i), int64(i), 120, 90)
		if _, err := os.Stat(c.filePath(key)); !os.IsNotExist(err) {
			t.Errorf("thumbnail file for %s still present", key)
		}
		if _, ok := c.Get(key); ok {
			t.Errorf("expected miss for %s after Clear", key)
		}
	}
}

func TestDiskCacheSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	c, err := OpenDiskCache(dir, 10<<20)
	if err != nil {
		t.Fatalf("OpenDiskCache: %v", err)
	}
	if err := c.Put("persist", testImage(color.RGBA{G: 128, A: 255})); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	c2, err := OpenDiskCache(dir, 10<<20)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer c2.Close()
	if _, ok := c2.Get("persist"); !ok {
		t.Error("entry lost across reopen")
	}
}

// Command thumbgen generates thumbnails for media files from the
// command line. It runs the same decode pipeline as the import service
// but writes the results straight to disk, which is useful for
// pre-populating a cache or debugging a file that renders wrong.
package main

import (
	"context"
	"flag"
	"fmt"
	"image/jpeg"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"imsdly/internal/catalog"
	"imsdly/internal/decode"
	"imsdly/internal/video"
)

func main() {
	outDir := flag.String("out", "thumbnails", "output directory for generated thumbnails")
	width := flag.Int("width", 120, "thumbnail width")
	height := flag.Int("height", 90, "thumbnail height")
	strategy := flag.String("strategy", string(video.StrategyFastFrameGrab), "video frame extraction strategy")
	frameNumber := flag.Int("frame", 5, "frame number for fast_frame_grab")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <file-or-directory>...\n\nFlags:\n", os.Args[0])
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nStrategies: %v\n", video.Strategies)
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}
	if !video.Strategy(*strategy).Valid() {
		fmt.Fprintf(os.Stderr, "unknown strategy %q\n", *strategy)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, shutting down...")
		cancel()
	}()

	if err := decode.InitVips(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: libvips unavailable: %v\n", err)
	}
	defer decode.ShutdownVips()

	dispatcher := decode.NewDispatcher(decode.Config{
		Capabilities:     decode.ProbeCapabilities(),
		VideoStrategy:    video.Strategy(*strategy),
		VideoFrameNumber: *frameNumber,
		VideoFallback:    true,
	})

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "cannot create output directory: %v\n", err)
		os.Exit(1)
	}

	var failures int
	for _, arg := range flag.Args() {
		for _, path := range expand(arg) {
			if ctx.Err() != nil {
				os.Exit(1)
			}
			if err := generateOne(ctx, dispatcher, path, *outDir, *width, *height); err != nil {
				fmt.Fprintf(os.Stderr, "FAIL %s: %v\n", path, err)
				failures++
			} else {
				fmt.Printf("ok   %s\n", path)
			}
		}
	}
	if failures > 0 {
		os.Exit(1)
	}
}

// expand resolves an argument to the media files it names: the file
// itself, or a directory's cataloged contents.
func expand(arg string) []string {
	info, err := os.Stat(arg)
	if err != nil {
		return []string{arg} // let generateOne report the error
	}
	if !info.IsDir() {
		return []string{arg}
	}
	cat := catalog.New(arg)
	files, err := cat.Scan()
	if err != nil {
		fmt.Fprintf(os.Stderr, "scan failed for %s: %v\n", arg, err)
		return nil
	}
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	return paths
}

func generateOne(ctx context.Context, d *decode.Dispatcher, path, outDir string, width, height int) error {
	res, err := d.Generate(ctx, path, width, height)
	if err != nil {
		return err
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	outPath := filepath.Join(outDir, base+".jpg")
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()
	return jpeg.Encode(f, res.Image, &jpeg.Options{Quality: 85})
}

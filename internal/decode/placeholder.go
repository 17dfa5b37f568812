package decode

import (
	"image"
	"image/color"
	"image/draw"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"imsdly/internal/mediatypes"
)

// Placeholder background colors by file type.
var typeColors = map[mediatypes.FileType]color.RGBA{
	mediatypes.FileTypeImage:    {R: 0x3a, G: 0x5a, B: 0x7a, A: 0xff},
	mediatypes.FileTypeRaw:      {R: 0x5a, G: 0x3a, B: 0x6a, A: 0xff},
	mediatypes.FileTypeVideo:    {R: 0x2a, G: 0x2a, B: 0x2a, A: 0xff},
	mediatypes.FileTypeDocument: {R: 0x4a, G: 0x4a, B: 0x4a, A: 0xff},
	mediatypes.FileTypeOther:    {R: 0x55, G: 0x55, B: 0x55, A: 0xff},
}

var letterboxBG = color.RGBA{R: 0x1e, G: 0x1e, B: 0x1e, A: 0xff}

// renderPlaceholder draws a flat-color tile with the file's extension
// as a centered badge. Shown when a file cannot be decoded.
func renderPlaceholder(path string, t mediatypes.FileType, width, height int) image.Image {
	bg, ok := typeColors[t]
	if !ok {
		bg = typeColors[mediatypes.FileTypeOther]
	}
	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	label := strings.ToUpper(strings.TrimPrefix(filepath.Ext(path), "."))
	if label == "" {
		label = "FILE"
	}
	drawCenteredLabel(canvas, label)
	return canvas
}

// letterbox fits src inside a fixed-size canvas, padding with dark
// bars. Browse grids want every tile the exact same dimensions.
func letterbox(src image.Image, width, height int) *image.RGBA {
	fitted := imaging.Fit(src, width, height, imaging.Lanczos)
	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(letterboxBG), image.Point{}, draw.Src)

	offset := image.Pt(
		(width-fitted.Bounds().Dx())/2,
		(height-fitted.Bounds().Dy())/2,
	)
	draw.Draw(canvas, fitted.Bounds().Add(offset), fitted, image.Point{}, draw.Over)
	return canvas
}

// filmstrip overlays sprocket-hole bands along the top and bottom edges
// so video tiles read as video at a glance.
func filmstrip(canvas *image.RGBA) {
	b := canvas.Bounds()
	bandH := b.Dy() / 10
	if bandH < 4 {
		bandH = 4
	}
	dark := color.RGBA{A: 0xff}
	hole := color.RGBA{R: 0xd0, G: 0xd0, B: 0xd0, A: 0xff}

	top := image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+bandH)
	bottom := image.Rect(b.Min.X, b.Max.Y-bandH, b.Max.X, b.Max.Y)
	draw.Draw(canvas, top, image.NewUniform(dark), image.Point{}, draw.Src)
	draw.Draw(canvas, bottom, image.NewUniform(dark), image.Point{}, draw.Src)

	holeW := bandH / 2
	step := holeW * 3
	for x := b.Min.X + holeW; x+holeW < b.Max.X; x += step {
		for _, band := range []image.Rectangle{top, bottom} {
			y0 := band.Min.Y + (bandH-holeW)/2
			r := image.Rect(x, y0, x+holeW, y0+holeW)
			draw.Draw(canvas, r, image.NewUniform(hole), image.Point{}, draw.Src)
		}
	}
}

// durationBadge draws the clip length in the bottom-right corner on a
// dark backing box.
func durationBadge(canvas *image.RGBA, text string) {
	if text == "" {
		return
	}
	face := basicfont.Face7x13
	textW := font.MeasureString(face, text).Ceil()
	pad := 3

	b := canvas.Bounds()
	boxW := textW + pad*2
	boxH := face.Height + pad
	box := image.Rect(b.Max.X-boxW-2, b.Max.Y-boxH-2, b.Max.X-2, b.Max.Y-2)
	draw.Draw(canvas, box, image.NewUniform(color.RGBA{A: 0xc0}), image.Point{}, draw.Over)

	d := font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(color.White),
		Face: face,
		Dot: fixed.P(
			box.Min.X+pad,
			box.Max.Y-pad,
		),
	}
	d.DrawString(text)
}

// drawCenteredLabel draws text centered on the canvas.
func drawCenteredLabel(canvas *image.RGBA, text string) {
	face := basicfont.Face7x13
	textW := font.MeasureString(face, text).Ceil()
	b := canvas.Bounds()

	d := font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(color.White),
		Face: face,
		Dot: fixed.P(
			b.Min.X+(b.Dx()-textW)/2,
			b.Min.Y+(b.Dy()+face.Ascent)/2,
		),
	}
	d.DrawString(text)
}

// Package render draws [ascii.Grid] values as raster images.
//
// Glyph cells are sized from font metrics: a cell is as wide as the advance
// of 'M' and as tall as the font's ascent plus descent. The same metrics give
// the pixel size of a grid, which subtitle exports use to position the
// overlay.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"log/slog"
	"math"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"go.jacobcolvin.com/asscii/ascii"
)

// DefaultFontSize is the point size used when none is configured.
const DefaultFontSize = 14.0

// Metrics is the font information needed to lay out a grid.
type Metrics interface {
	// AdvanceWidth returns the horizontal advance of r in pixels.
	AdvanceWidth(r rune) float64
	// Ascent returns the distance from the top of a cell to its baseline.
	Ascent() int
	// Descent returns the distance from the baseline to the bottom of a cell.
	Descent() int
}

// Face is a loaded monospace font. It implements [Metrics].
//
// Create instances with [LoadFace] or [NewFace].
type Face struct {
	face font.Face
	name string
}

// NewFace wraps an existing [font.Face].
func NewFace(f font.Face, name string) *Face {
	return &Face{face: f, name: name}
}

// BasicFace returns the built-in 7x13 bitmap face.
func BasicFace() *Face {
	return NewFace(basicfont.Face7x13, "basicfont 7x13")
}

// DefaultFontPaths returns common monospace font locations in preference
// order, for use with [LoadFace] when no font is configured.
func DefaultFontPaths() []string {
	return []string{
		`C:\Windows\Fonts\lucon.ttf`,
		`C:\Windows\Fonts\cour.ttf`,
		"/usr/share/fonts/truetype/dejavu/DejaVuSansMono.ttf",
		"/usr/share/fonts/TTF/DejaVuSansMono.ttf",
		"/usr/share/fonts/truetype/freefont/FreeMono.ttf",
		"/Library/Fonts/Courier New.ttf",
	}
}

// LoadFace returns the first of paths that parses as a TrueType or OpenType
// font, at size points and 72 DPI. Unreadable candidates are skipped; when
// none loads, the built-in bitmap face is returned.
func LoadFace(paths []string, size float64) *Face {
	if size <= 0 {
		size = DefaultFontSize
	}

	for _, path := range paths {
		f, err := loadOpenType(path, size)
		if err != nil {
			slog.Debug("render: skipping font", slog.String("path", path), slog.Any("err", err))

			continue
		}

		return NewFace(f, path)
	}

	return BasicFace()
}

func loadOpenType(path string, size float64) (font.Face, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading font: %w", err)
	}

	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("creating face: %w", err)
	}

	return face, nil
}

// Name returns the font path, or a description of the built-in face.
func (f *Face) Name() string { return f.name }

// AdvanceWidth implements [Metrics].
func (f *Face) AdvanceWidth(r rune) float64 {
	adv, ok := f.face.GlyphAdvance(r)
	if !ok {
		return 0
	}

	return fixedToFloat(adv)
}

// Ascent implements [Metrics].
func (f *Face) Ascent() int { return f.face.Metrics().Ascent.Ceil() }

// Descent implements [Metrics].
func (f *Face) Descent() int { return f.face.Metrics().Descent.Ceil() }

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

// CellSize returns the pixel size of one glyph cell for m. Both dimensions
// are at least 1.
func CellSize(m Metrics) (w, h int) {
	w = int(math.Ceil(m.AdvanceWidth('M')))
	h = m.Ascent() + m.Descent()

	return max(1, w), max(1, h)
}

// GridPixelSize returns the pixel size of a cols x rows grid drawn with m,
// without padding.
func GridPixelSize(m Metrics, cols, rows int) (w, h int) {
	cw, ch := CellSize(m)

	return cw * max(0, cols), ch * max(0, rows)
}

// Options controls [Render].
type Options struct {
	Foreground color.Color
	Background color.Color
	Padding    int
}

// DefaultOptions returns light glyphs on a near-black background with 8
// pixels of padding.
func DefaultOptions() Options {
	return Options{
		Foreground: color.RGBA{R: 245, G: 245, B: 245, A: 255},
		Background: color.RGBA{R: 10, G: 10, B: 10, A: 255},
		Padding:    8,
	}
}

// Render draws grid with face on a canvas of the grid's pixel size plus
// padding on every side. Row r is drawn left-aligned at x = padding with the
// top of its cell at y = padding + r*cellHeight.
func Render(grid ascii.Grid, face *Face, opts Options) *image.RGBA {
	if opts.Foreground == nil || opts.Background == nil {
		def := DefaultOptions()
		opts.Foreground = orColor(opts.Foreground, def.Foreground)
		opts.Background = orColor(opts.Background, def.Background)
	}

	pad := max(0, opts.Padding)
	cw, ch := CellSize(face)
	gw, gh := cw*grid.Cols(), ch*grid.Rows()

	img := image.NewRGBA(image.Rect(0, 0, gw+2*pad, gh+2*pad))
	draw.Draw(img, img.Bounds(), image.NewUniform(opts.Background), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(opts.Foreground),
		Face: face.face,
	}

	// Glyphs are placed cell by cell so runes the face lacks keep the
	// columns aligned.
	ascent := face.Ascent()
	for r, line := range grid {
		c := 0
		for _, g := range line {
			if g != ' ' {
				d.Dot = fixed.P(pad+c*cw, pad+r*ch+ascent)
				d.DrawString(string(g))
			}

			c++
		}
	}

	return img
}

func orColor(c, fallback color.Color) color.Color {
	if c == nil {
		return fallback
	}

	return c
}

// WritePNG encodes img as PNG to w.
func WritePNG(w io.Writer, img image.Image) error {
	err := png.Encode(w, img)
	if err != nil {
		return fmt.Errorf("encoding png: %w", err)
	}

	return nil
}

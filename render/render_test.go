package render_test

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.jacobcolvin.com/asscii/ascii"
	"go.jacobcolvin.com/asscii/render"
)

type fakeMetrics struct {
	advance float64
	ascent  int
	descent int
}

func (f fakeMetrics) AdvanceWidth(rune) float64 { return f.advance }
func (f fakeMetrics) Ascent() int                { return f.ascent }
func (f fakeMetrics) Descent() int               { return f.descent }

func TestCellSize(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		metrics render.Metrics
		w, h    int
	}{
		"fractional advance rounds up": {
			metrics: fakeMetrics{advance: 8.2, ascent: 12, descent: 4},
			w:       9, h: 16,
		},
		"degenerate metrics": {
			metrics: fakeMetrics{},
			w:       1, h: 1,
		},
		"basic face": {
			metrics: render.BasicFace(),
			w:       7, h: 13,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			w, h := render.CellSize(tc.metrics)
			assert.Equal(t, tc.w, w)
			assert.Equal(t, tc.h, h)
		})
	}
}

func TestGridPixelSize(t *testing.T) {
	t.Parallel()

	w, h := render.GridPixelSize(fakeMetrics{advance: 10, ascent: 15, descent: 5}, 80, 45)
	assert.Equal(t, 800, w)
	assert.Equal(t, 900, h)
}

func TestLoadFaceFallsBack(t *testing.T) {
	t.Parallel()

	face := render.LoadFace([]string{filepath.Join(t.TempDir(), "missing.ttf")}, 12)
	assert.Equal(t, render.BasicFace().Name(), face.Name())
}

func TestRender(t *testing.T) {
	t.Parallel()

	opts := render.DefaultOptions()
	img := render.Render(ascii.Grid{"M ", "  "}, render.BasicFace(), opts)

	// 2 cols x 7px, 2 rows x 13px, plus 8px padding on each side.
	require.Equal(t, image.Rect(0, 0, 30, 42), img.Bounds())

	bg := color.RGBAModel.Convert(opts.Background)
	assert.Equal(t, bg, img.At(0, 0))

	lit := func(r image.Rectangle) bool {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				if img.At(x, y) != bg {
					return true
				}
			}
		}

		return false
	}

	assert.True(t, lit(image.Rect(8, 8, 15, 21)), "first cell holds a glyph")
	assert.False(t, lit(image.Rect(15, 8, 22, 21)), "blank cell stays background")
	assert.False(t, lit(image.Rect(8, 21, 22, 34)), "blank row stays background")
}

func TestWritePNG(t *testing.T) {
	t.Parallel()

	img := render.Render(ascii.Grid{"#"}, render.BasicFace(), render.Options{Padding: 1})

	var buf bytes.Buffer
	require.NoError(t, render.WritePNG(&buf, img))

	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())
}

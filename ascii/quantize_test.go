package ascii_test

import (
	"image"
	"image/color"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.jacobcolvin.com/asscii/ascii"
)

func uniform(w, h int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}

	return img
}

func gradient(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetGray(x, y, color.Gray{Y: uint8((x*255 + y*7) / max(1, w-1) % 256)})
		}
	}

	return img
}

func plain() ascii.Params {
	p := ascii.DefaultParams()
	p.Invert = false

	return p
}

func TestQuantizeExample(t *testing.T) {
	t.Parallel()

	p := plain()
	p.Cols, p.Rows = 4, 2
	p.Charset = ascii.CustomCharset
	p.CustomCharset = " .:#\n"

	grid := ascii.Quantize(uniform(40, 20, 170), p)

	assert.Equal(t, ascii.Grid{"....", "...."}, grid)
}

func TestQuantizeShape(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		src        *image.Gray
		cols, rows int
		charset    string
	}{
		"downscale": {
			src:  gradient(640, 360),
			cols: 80, rows: 45,
			charset: "Classic (10)",
		},
		"upscale": {
			src:  gradient(7, 3),
			cols: 20, rows: 9,
			charset: "Blocks (5)",
		},
		"non-integer ratio": {
			src:  gradient(333, 101),
			cols: 37, rows: 11,
			charset: "Dense (16)",
		},
		"unknown charset": {
			src:  gradient(64, 64),
			cols: 10, rows: 5,
			charset: "Nope",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			p := ascii.DefaultParams()
			p.Cols, p.Rows = tc.cols, tc.rows
			p.Charset = tc.charset

			grid := ascii.Quantize(tc.src, p)

			require.Len(t, grid, tc.rows)

			glyphs := string(p.Glyphs())
			for _, row := range grid {
				assert.Equal(t, tc.cols, utf8.RuneCountInString(row))

				for _, r := range row {
					assert.True(t, strings.ContainsRune(glyphs, r), "glyph %q not in charset", r)
				}
			}

			// Same frame, same params, same bytes.
			assert.Equal(t, grid, ascii.Quantize(tc.src, p))
		})
	}
}

func TestQuantizeMonotonic(t *testing.T) {
	t.Parallel()

	p := plain()
	p.Cols, p.Rows = 10, 5
	p.Charset = "Classic (10)"
	glyphs := p.Glyphs()

	rank := func(r rune) int {
		for i, g := range glyphs {
			if g == r {
				return i
			}
		}

		return -1
	}

	prev := len(glyphs)
	for v := range 256 {
		grid := ascii.Quantize(uniform(20, 10, uint8(v)), p)
		r, ok := grid.At(0, 0)
		require.True(t, ok)

		got := rank(r)
		assert.LessOrEqual(t, got, prev, "sample %d", v)

		prev = got
	}

	black, _ := ascii.Quantize(uniform(20, 10, 0), p).At(0, 0)
	white, _ := ascii.Quantize(uniform(20, 10, 255), p).At(0, 0)

	assert.Equal(t, glyphs[len(glyphs)-1], black)
	assert.Equal(t, glyphs[0], white)
}

func TestQuantizeBinarize(t *testing.T) {
	t.Parallel()

	p := plain()
	p.Cols, p.Rows = 32, 16
	p.Charset = "Dense (16)"
	p.Binarize = true
	p.Threshold = 100

	glyphs := p.Glyphs()
	first, last := glyphs[0], glyphs[len(glyphs)-1]

	for _, row := range ascii.Quantize(gradient(320, 160), p) {
		for _, r := range row {
			assert.True(t, r == first || r == last, "unexpected glyph %q", r)
		}
	}
}

func TestQuantizeInvertFlipsPolarity(t *testing.T) {
	t.Parallel()

	p := plain()
	p.Cols, p.Rows = 10, 5
	p.Charset = "Blocks (5)"

	normal, _ := ascii.Quantize(uniform(10, 5, 0), p).At(0, 0)

	p.Invert = true
	inverted, _ := ascii.Quantize(uniform(10, 5, 0), p).At(0, 0)

	assert.Equal(t, '█', normal)
	assert.Equal(t, ' ', inverted)
}

func TestToneMap(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		in         uint8
		gamma      float64
		contrast   float64
		brightness float64
		want       uint8
	}{
		"identity": {
			in: 170, gamma: 1, contrast: 1,
			want: 170,
		},
		"identity from 64": {
			in: 64, gamma: 1, contrast: 1,
			want: 64,
		},
		"low neutral samples truncate down": {
			in: 10, gamma: 1, contrast: 1,
			want: 9,
		},
		"white": {
			in: 255, gamma: 1, contrast: 1,
			want: 255,
		},
		"full brightness": {
			in: 0, gamma: 1, contrast: 1, brightness: 100,
			want: 127,
		},
		"brightness truncates": {
			in: 115, gamma: 1, contrast: 1, brightness: 10,
			want: 127,
		},
		"zero contrast": {
			in: 10, gamma: 1, contrast: 0,
			want: 127,
		},
		"contrast truncates": {
			in: 200, gamma: 1, contrast: 1.5,
			want: 236,
		},
		"clipped": {
			in: 250, gamma: 1, contrast: 3,
			want: 255,
		},
		"gamma brightens midtones": {
			in: 64, gamma: 2, contrast: 1,
			want: 127,
		},
		"gamma truncates": {
			in: 1, gamma: 2, contrast: 1,
			want: 15,
		},
		"zero gamma is floored": {
			in: 200, gamma: 0, contrast: 1,
			want: 0,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got := ascii.ToneMap(tc.in, tc.gamma, tc.contrast, tc.brightness)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestQuantizeBinarizeAtThreshold(t *testing.T) {
	t.Parallel()

	p := plain()
	p.Cols, p.Rows = 10, 5
	p.Charset = "Classic (10)"
	p.Binarize = true
	p.Threshold = 128
	p.Brightness = 10

	// 115 tone maps to 127.75, which truncates below the threshold.
	grid := ascii.Quantize(uniform(20, 10, 115), p)
	assert.Equal(t, "@@@@@@@@@@", grid[0])

	p.Brightness = 11
	grid = ascii.Quantize(uniform(20, 10, 115), p)
	assert.Equal(t, "          ", grid[0])
}

func TestResample(t *testing.T) {
	t.Parallel()

	img := image.NewGray(image.Rect(0, 0, 4, 2))
	copy(img.Pix, []uint8{
		0, 100, 200, 50,
		100, 200, 0, 250,
	})

	assert.Equal(t, []uint8{100, 125}, ascii.Resample(img, 2, 1))
	assert.Equal(t, img.Pix, ascii.Resample(img, 4, 2))

	// Sub-image offsets are honored.
	sub, ok := img.SubImage(image.Rect(2, 0, 4, 2)).(*image.Gray)
	require.True(t, ok)
	assert.Equal(t, []uint8{125}, ascii.Resample(sub, 1, 1))
}

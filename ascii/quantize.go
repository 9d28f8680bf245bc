package ascii

import (
	"image"
	"math"
	"strings"
)

// Quantize converts a grayscale frame into a [Grid] of p.Rows rows, each
// p.Cols glyphs wide.
//
// p is used as given; callers normally pass [Params.Normalize]d values.
// Quantize never fails for a non-nil frame with positive dimensions. It is
// pure and safe for concurrent use.
func Quantize(gray *image.Gray, p Params) Grid {
	cols := max(1, p.Cols)
	rows := max(1, p.Rows)

	samples := Resample(gray, cols, rows)
	lut := glyphTable(p)

	grid := make(Grid, rows)

	var sb strings.Builder
	for r := range rows {
		sb.Reset()

		for _, s := range samples[r*cols : (r+1)*cols] {
			sb.WriteRune(lut[s])
		}

		grid[r] = sb.String()
	}

	return grid
}

// glyphTable folds tone mapping, binarization, inversion and glyph indexing
// into one lookup from resampled value to glyph.
func glyphTable(p Params) [256]rune {
	glyphs := p.Glyphs()
	n := len(glyphs)
	threshold := uint8(clampInt(p.Threshold, 0, 255))

	var lut [256]rune
	for v := range 256 {
		s := ToneMap(uint8(v), p.Gamma, p.Contrast, p.Brightness)

		if p.Binarize {
			if s >= threshold {
				s = 255
			} else {
				s = 0
			}
		}

		if p.Invert {
			s = 255 - s
		}

		idx := int(math.Round(float64(s) / 255 * float64(n-1)))
		lut[v] = glyphs[n-1-idx]
	}

	return lut
}

// ToneMap applies gamma, contrast and brightness to one 8-bit sample.
//
// The sample is normalized to [0,1], raised to 1/gamma (gamma floored to a
// small epsilon), scaled around 0.5 by contrast, offset by brightness/100*0.5,
// clipped, and scaled back to [0,255] truncating toward zero. Arithmetic is
// single precision.
func ToneMap(v uint8, gamma, contrast, brightness float64) uint8 {
	exp := float64(float32(1 / math.Max(gamma, gammaEpsilon)))

	x := float32(v) / 255
	x = float32(math.Pow(float64(x), exp))
	x = float32((x-0.5)*float32(contrast)) + 0.5
	x += float32(brightness / 100 * 0.5)

	if math.IsNaN(float64(x)) {
		x = 0
	}

	x = max(0, min(1, x))

	return uint8(x * 255)
}

// Resample scales gray to cols x rows samples with an area-averaging filter
// and returns them in row-major order.
//
// Each output sample is the coverage-weighted mean of the source pixels under
// its footprint, so partially covered pixels contribute proportionally. The
// result is rounded to the nearest integer.
func Resample(gray *image.Gray, cols, rows int) []uint8 {
	out := make([]uint8, cols*rows)

	b := gray.Bounds()
	if b.Empty() || cols <= 0 || rows <= 0 {
		return out
	}

	xs := areaWeights(b.Dx(), cols)
	ys := areaWeights(b.Dy(), rows)

	for oy, ywts := range ys {
		for ox, xwts := range xs {
			var sum, area float64

			for _, wy := range ywts {
				off := gray.PixOffset(b.Min.X, b.Min.Y+wy.src)
				line := gray.Pix[off : off+b.Dx()]

				for _, wx := range xwts {
					w := wy.weight * wx.weight
					sum += w * float64(line[wx.src])
					area += w
				}
			}

			if area > 0 {
				out[oy*cols+ox] = uint8(math.Max(0, math.Min(255, math.Round(sum/area))))
			}
		}
	}

	return out
}

type areaWeight struct {
	src    int
	weight float64
}

// areaWeights returns, for each of dst output cells along one axis, the source
// indices overlapped by the cell and the length of each overlap.
func areaWeights(src, dst int) [][]areaWeight {
	scale := float64(src) / float64(dst)
	weights := make([][]areaWeight, dst)

	for i := range dst {
		lo := float64(i) * scale
		hi := lo + scale

		first := int(math.Floor(lo))
		last := min(src-1, int(math.Ceil(hi))-1)

		for s := max(0, first); s <= last; s++ {
			overlap := math.Min(hi, float64(s+1)) - math.Max(lo, float64(s))
			if overlap <= 0 {
				continue
			}

			weights[i] = append(weights[i], areaWeight{src: s, weight: overlap})
		}

		// Guard against a cell that floating error left uncovered.
		if len(weights[i]) == 0 {
			weights[i] = []areaWeight{{src: min(src-1, max(0, first)), weight: 1}}
		}
	}

	return weights
}

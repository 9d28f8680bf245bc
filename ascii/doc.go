// Package ascii converts grayscale video frames into grids of monospace
// glyphs.
//
// Conversion is a pure function of a frame and a [Params] value. [Quantize]
// runs a fixed pipeline:
//
//  1. Area-averaging resample to exactly Params.Cols x Params.Rows samples
//     (see [Resample]).
//  2. Tone mapping: gamma, contrast around the midpoint, then brightness
//     (see [ToneMap]).
//  3. Optional binarization against Params.Threshold.
//  4. Optional tone inversion (Params.Invert).
//  5. Charset resolution (see [Params.Glyphs]).
//  6. Glyph indexing: idx = round(s/255*(N-1)), and the glyph at N-1-idx is
//     emitted, so sample 0 selects the last glyph of the charset.
//
// The index inversion in step 6 is independent of Params.Invert; both
// polarity flips are applied when Params.Invert is set.
//
// Typical usage:
//
//	p := ascii.DefaultParams()
//	p.Cols, p.Rows = 120, 40
//
//	grid := ascii.Quantize(frame, p.Normalize())
//	fmt.Println(grid.String())
//
// A [Grid] is immutable once produced; callers that need to blank cells build
// a new grid (see package mask).
package ascii

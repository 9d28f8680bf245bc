package ascii

import (
	"errors"
	"fmt"
	"math"
)

// Limits applied by [Params.Normalize].
const (
	MinCols = 10
	MinRows = 5
	MinFPS  = 0.1

	// gammaEpsilon floors gamma so the inverse exponent stays finite.
	gammaEpsilon = 1e-6
)

// ErrInvalidParameter indicates a parameter that cannot be used even after
// defaulting, such as a non-positive frame rate.
var ErrInvalidParameter = errors.New("invalid parameter")

// Params configures a conversion.
//
// Params is comparable; two snapshots are equal iff every field is equal.
// Caches key their invalidation on [Params.Equal].
type Params struct {
	// Charset names a built-in charset, or [CustomCharset].
	Charset string `json:"charset,omitempty" yaml:"charset" toml:"charset" jsonschema:"built-in charset name or Custom"`
	// CustomCharset is used when Charset is [CustomCharset].
	CustomCharset string `json:"customCharset,omitempty" yaml:"customCharset" toml:"customCharset" jsonschema:"glyphs ordered for the Custom charset"`

	Cols int     `json:"cols,omitempty" yaml:"cols" toml:"cols" jsonschema:"grid width in glyphs (min 10)"`
	Rows int     `json:"rows,omitempty" yaml:"rows" toml:"rows" jsonschema:"grid height in glyphs (min 5)"`
	FPS  float64 `json:"fps,omitempty" yaml:"fps" toml:"fps" jsonschema:"ASCII conversion rate in ticks per second"`

	Threshold  int     `json:"threshold,omitempty" yaml:"threshold" toml:"threshold" jsonschema:"binarize threshold in [0,255]"`
	Gamma      float64 `json:"gamma,omitempty" yaml:"gamma" toml:"gamma" jsonschema:"gamma applied as x^(1/gamma)"`
	Contrast   float64 `json:"contrast,omitempty" yaml:"contrast" toml:"contrast" jsonschema:"contrast multiplier around the midpoint"`
	Brightness float64 `json:"brightness,omitempty" yaml:"brightness" toml:"brightness" jsonschema:"brightness offset in [-100,100]"`

	Invert   bool `json:"invert,omitempty" yaml:"invert" toml:"invert" jsonschema:"complement tones before glyph lookup"`
	Binarize bool `json:"binarize,omitempty" yaml:"binarize" toml:"binarize" jsonschema:"threshold tones to black or white"`
}

// DefaultParams returns the parameters used when nothing is configured.
func DefaultParams() Params {
	return Params{
		Cols:       80,
		Rows:       45,
		FPS:        12,
		Charset:    DefaultCharset,
		Invert:     true,
		Threshold:  128,
		Gamma:      1,
		Contrast:   1,
		Brightness: 0,
	}
}

// Equal reports whether p and o describe the same conversion.
func (p Params) Equal(o Params) bool {
	return p == o
}

// Normalize returns a copy of p with dimensions, frame rate, threshold and
// brightness clamped into their supported ranges.
func (p Params) Normalize() Params {
	p.Cols = max(MinCols, p.Cols)
	p.Rows = max(MinRows, p.Rows)

	if math.IsNaN(p.FPS) || p.FPS < MinFPS {
		p.FPS = MinFPS
	}

	p.Threshold = clampInt(p.Threshold, 0, 255)
	p.Brightness = math.Max(-100, math.Min(100, p.Brightness))

	return p
}

// Validate reports parameters that cannot be converted.
func (p Params) Validate() error {
	if p.Cols < MinCols {
		return fmt.Errorf("%w: cols %d < %d", ErrInvalidParameter, p.Cols, MinCols)
	}

	if p.Rows < MinRows {
		return fmt.Errorf("%w: rows %d < %d", ErrInvalidParameter, p.Rows, MinRows)
	}

	if !(p.FPS > 0) || math.IsInf(p.FPS, 0) {
		return fmt.Errorf("%w: fps must be positive, got %v", ErrInvalidParameter, p.FPS)
	}

	if !(p.Gamma > 0) {
		return fmt.Errorf("%w: gamma must be positive, got %v", ErrInvalidParameter, p.Gamma)
	}

	return nil
}

// LockedRows returns the row count that preserves the aspect ratio of a
// videoW x videoH source when rendered with cols glyphs of cellW x cellH
// pixels. It returns rows unchanged when any input is non-positive.
func LockedRows(rows, cols, videoW, videoH, cellW, cellH int) int {
	if videoW <= 0 || videoH <= 0 || cellW <= 0 || cellH <= 0 {
		return rows
	}

	ratio := float64(videoW) / float64(videoH)
	cols = max(MinCols, cols)
	target := math.Round(float64(cols*cellW) / (ratio * float64(cellH)))

	return max(MinRows, int(target))
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

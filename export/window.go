package export

import (
	"fmt"
	"math"
	"slices"

	"go.jacobcolvin.com/asscii/video"
)

// Mode selects which part of the video is exported.
type Mode string

const (
	// ModeFull exports the whole video.
	ModeFull Mode = "full"
	// ModeCurrent exports one ASCII frame starting at a source frame.
	ModeCurrent Mode = "current"
	// ModeCustom exports an explicit time range.
	ModeCustom Mode = "custom"
)

// Modes returns every [Mode] in display order.
func Modes() []Mode {
	return []Mode{ModeFull, ModeCurrent, ModeCustom}
}

// ModeStrings returns every [Mode] as a string, for flag help and
// completions.
func ModeStrings() []string {
	out := make([]string, 0, 3)
	for _, m := range Modes() {
		out = append(out, string(m))
	}

	return out
}

// ParseMode parses a mode name. The empty string selects [ModeFull].
func ParseMode(s string) (Mode, error) {
	if s == "" {
		return ModeFull, nil
	}

	m := Mode(s)
	if !slices.Contains(Modes(), m) {
		return "", fmt.Errorf("%w: unknown export mode %q", ErrInvalidParameter, s)
	}

	return m, nil
}

// Window describes the exported time range.
type Window struct {
	Mode Mode
	// Start and Duration are in seconds and used by [ModeCustom].
	Start    float64
	Duration float64
	// Frame is the source frame used by [ModeCurrent].
	Frame int
}

// Validate checks the parts of w that do not depend on the video.
func (w Window) Validate() error {
	switch w.Mode {
	case ModeFull, ModeCurrent, "":
		return nil

	case ModeCustom:
		if !(w.Duration > 0) || math.IsInf(w.Duration, 0) {
			return fmt.Errorf("%w: custom duration must be positive, got %v", ErrInvalidParameter, w.Duration)
		}

		if math.IsNaN(w.Start) || math.IsInf(w.Start, 0) {
			return fmt.Errorf("%w: custom start must be finite, got %v", ErrInvalidParameter, w.Start)
		}

		return nil
	}

	return fmt.Errorf("%w: unknown export mode %q", ErrInvalidParameter, w.Mode)
}

// Resolve returns the exported range in seconds for a video described by
// info, exported at asciiFPS. Negative starts are clamped to zero.
func (w Window) Resolve(info video.Info, asciiFPS float64) (start, duration float64, err error) {
	err = w.Validate()
	if err != nil {
		return 0, 0, err
	}

	switch w.Mode {
	case ModeCurrent:
		if info.FPS > 0 {
			start = float64(max(0, w.Frame)) / info.FPS
		}

		duration = 1 / asciiFPS

	case ModeCustom:
		start, duration = math.Max(0, w.Start), w.Duration

	default:
		duration = info.Seconds()
	}

	if !(duration > 0) {
		return 0, 0, fmt.Errorf("%w: empty export window", ErrInvalidParameter)
	}

	return start, duration, nil
}

// tickEpsilon absorbs floating error when counting ticks, so a window of
// exactly n ticks does not round up to n+1.
const tickEpsilon = 1e-9

// TickCount returns the number of ASCII frames in a window of duration
// seconds at fps.
func TickCount(duration, fps float64) int {
	if !(duration > 0) || !(fps > 0) {
		return 0
	}

	return max(1, int(math.Ceil(duration*fps-tickEpsilon)))
}

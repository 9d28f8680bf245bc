package player

import "math"

// binding is one row of the help overlay.
type binding struct {
	keys string
	help string
}

var bindings = []binding{
	{"space", "play / pause"},
	{", .", "step one frame back / forward"},
	{"{ } pgup pgdn", "jump one second back / forward"},
	{"0 end", "first / last frame"},
	{":", "go to a frame number (enter to jump, esc to cancel)"},
	{"←↓↑→ hjkl", "move the edit cursor"},
	{"x z", "erase / restore the cell under the cursor"},
	{"c", "clear this frame's mask"},
	{"[ ]", "fewer / more columns"},
	{"- =", "fewer / more rows"},
	{"< >", "lower / raise the ASCII frame rate"},
	{"g G", "lower / raise gamma"},
	{"v V", "lower / raise contrast"},
	{"d D", "darker / brighter"},
	{"y Y", "lower / raise the binarize threshold"},
	{"n", "next charset"},
	{"i b", "toggle invert / binarize"},
	{"a", "toggle aspect lock"},
	{"t", "write this frame as text"},
	{"w", "save masks"},
	{"?", "toggle help"},
	{"q", "quit"},
}

const (
	colsStep       = 2
	rowsStep       = 1
	fpsStep        = 1.0
	toneStep       = 0.1
	brightnessStep = 10.0
	thresholdStep  = 8

	// Gamma and contrast keys stay within [minTone, maxTone].
	minTone = 0.3
	maxTone = 3.0

	// maxEntry bounds the digits of a go-to frame number.
	maxEntry = 9
)

// stepTone moves a gamma or contrast value by d, rounded to hundredths.
func stepTone(v, d float64) float64 {
	next := math.Round((v+d)*100) / 100

	return math.Max(minTone, math.Min(maxTone, next))
}

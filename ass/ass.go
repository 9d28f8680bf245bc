// Package ass models and writes Advanced SubStation Alpha (v4.00+) subtitle
// documents.
//
// Only what is needed to replay pre-rendered text is modeled: a script info
// block, styles and dialogue events. Event text is written verbatim, so
// callers escape user content with [EscapeText] or [JoinLines] and add
// override tags such as [Pos] themselves.
package ass

import (
	"fmt"
	"strings"
	"time"
)

// Alignment values use numpad layout.
const (
	AlignBottomLeft = 1
	AlignTopLeft    = 7
)

// WrapNone disables automatic line wrapping; only \N breaks lines.
const WrapNone = 2

// wordJoiner follows a literal backslash so no override sequence can form.
const wordJoiner = '\u2060'

// Color is an RGBA color. A is opacity; it is written inverted, as ASS
// stores transparency.
type Color struct {
	R, G, B, A uint8
}

// Opaque returns a fully opaque color.
func Opaque(r, g, b uint8) Color { return Color{R: r, G: g, B: b, A: 0xff} }

// String formats c as &HAABBGGRR.
func (c Color) String() string {
	return fmt.Sprintf("&H%02X%02X%02X%02X", 0xff-c.A, c.B, c.G, c.R)
}

// ScriptInfo is the [Script Info] section.
type ScriptInfo struct {
	Title                 string
	Comments              []string
	PlayResX              int
	PlayResY              int
	WrapStyle             int
	ScaledBorderAndShadow bool
}

// Style is one line of the [V4+ Styles] section.
type Style struct {
	Name            string
	FontName        string
	FontSize        float64
	PrimaryColour   Color
	SecondaryColour Color
	OutlineColour   Color
	BackColour      Color
	Bold            bool
	Italic          bool
	Underline       bool
	StrikeOut       bool
	ScaleX          float64
	ScaleY          float64
	Spacing         float64
	Angle           float64
	BorderStyle     int
	Outline         float64
	Shadow          float64
	Alignment       int
	MarginL         int
	MarginR         int
	MarginV         int
	Encoding        int
}

// NewStyle returns a borderless, shadowless top-left style with white
// glyphs.
func NewStyle(name, fontName string, fontSize float64) Style {
	return Style{
		Name:            name,
		FontName:        fontName,
		FontSize:        fontSize,
		PrimaryColour:   Opaque(0xff, 0xff, 0xff),
		SecondaryColour: Opaque(0xff, 0, 0),
		OutlineColour:   Opaque(0, 0, 0),
		BackColour:      Opaque(0, 0, 0),
		ScaleX:          100,
		ScaleY:          100,
		BorderStyle:     1,
		Alignment:       AlignTopLeft,
		Encoding:        1,
	}
}

// Event is one Dialogue line of the [Events] section.
type Event struct {
	Style   string
	Name    string
	Effect  string
	Text    string
	Start   time.Duration
	End     time.Duration
	Layer   int
	MarginL int
	MarginR int
	MarginV int
}

// Document is a complete subtitle script.
type Document struct {
	Info   ScriptInfo
	Styles []Style
	Events []Event
}

// FormatTime formats d as H:MM:SS.cc, rounded to the nearest centisecond.
// Negative durations format as zero.
func FormatTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	cs := (d + 5*time.Millisecond) / (10 * time.Millisecond)

	h := cs / 360000
	m := cs / 6000 % 60
	s := cs / 100 % 60
	c := cs % 100

	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, c)
}

// EscapeText makes s safe to use as literal event text: a backslash is
// followed by a word joiner so it cannot start an override, braces are
// escaped, and spaces become hard spaces so runs of them survive rendering.
func EscapeText(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))

	for _, r := range s {
		switch r {
		case '\\':
			sb.WriteRune('\\')
			sb.WriteRune(wordJoiner)
		case '{':
			sb.WriteString(`\{`)
		case '}':
			sb.WriteString(`\}`)
		case ' ':
			sb.WriteString(`\h`)
		case '\n', '\r':
			// Line breaks are only introduced by JoinLines.
		default:
			sb.WriteRune(r)
		}
	}

	return sb.String()
}

// JoinLines escapes each line and joins them with hard line breaks.
func JoinLines(lines []string) string {
	escaped := make([]string, len(lines))
	for i, l := range lines {
		escaped[i] = EscapeText(l)
	}

	return strings.Join(escaped, `\N`)
}

// Pos returns a \pos override block anchoring an event at (x, y).
func Pos(x, y int) string {
	return fmt.Sprintf(`{\pos(%d,%d)}`, x, y)
}

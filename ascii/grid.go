package ascii

import (
	"slices"
	"strings"
	"unicode/utf8"
)

// Grid is a converted frame: one string per row, each holding one glyph per
// column. Cells are addressed by rune index, not byte offset.
//
// Grids are treated as immutable once produced.
type Grid []string

// Rows returns the number of rows in g.
func (g Grid) Rows() int {
	return len(g)
}

// Cols returns the width of the widest row of g, in glyphs.
func (g Grid) Cols() int {
	cols := 0
	for _, row := range g {
		cols = max(cols, utf8.RuneCountInString(row))
	}

	return cols
}

// At returns the glyph at row r, column c, or false when the cell does not
// exist.
func (g Grid) At(r, c int) (rune, bool) {
	if r < 0 || r >= len(g) || c < 0 {
		return 0, false
	}

	i := 0
	for _, ch := range g[r] {
		if i == c {
			return ch, true
		}

		i++
	}

	return 0, false
}

// Equal reports whether g and o hold the same rows.
func (g Grid) Equal(o Grid) bool {
	return slices.Equal(g, o)
}

// Clone returns a copy of g that shares no backing array with it.
func (g Grid) Clone() Grid {
	if g == nil {
		return nil
	}

	return slices.Clone(g)
}

// String joins the rows of g with LF line endings.
func (g Grid) String() string {
	return strings.Join(g, "\n")
}

// Package mask tracks manual per-cell erasure of converted frames.
//
// A [Mask] marks the cells of one frame that should render blank. A [Store]
// keys masks by frame index and owns their shape: masks always match the
// store's current grid dimensions, and a mask whose shape disagrees is
// treated as absent rather than resized.
package mask

import (
	"slices"

	"go.jacobcolvin.com/asscii/ascii"
)

// Blank is the glyph written into erased cells.
const Blank = ' '

// Mask is a rows x cols grid of erase flags. A true cell renders as [Blank].
type Mask struct {
	cells []bool
	rows  int
	cols  int
}

// New returns an all-false mask of the given shape.
func New(rows, cols int) *Mask {
	rows, cols = max(0, rows), max(0, cols)

	return &Mask{
		cells: make([]bool, rows*cols),
		rows:  rows,
		cols:  cols,
	}
}

// FromCells builds a mask from row-major flags. It returns nil when the
// number of flags does not match the shape.
func FromCells(rows, cols int, cells []bool) *Mask {
	if rows < 0 || cols < 0 || len(cells) != rows*cols {
		return nil
	}

	return &Mask{cells: slices.Clone(cells), rows: rows, cols: cols}
}

// Rows returns the number of rows in m.
func (m *Mask) Rows() int { return m.rows }

// Cols returns the number of columns in m.
func (m *Mask) Cols() int { return m.cols }

// Cells returns a row-major copy of the flags in m.
func (m *Mask) Cells() []bool { return slices.Clone(m.cells) }

// Is reports whether m has the given shape.
func (m *Mask) Is(rows, cols int) bool {
	return m != nil && m.rows == rows && m.cols == cols
}

// At reports whether the cell at row r, column c is erased. Cells outside
// the mask are never erased.
func (m *Mask) At(r, c int) bool {
	if !m.inside(r, c) {
		return false
	}

	return m.cells[r*m.cols+c]
}

// Set marks the cell at row r, column c. It reports whether the value
// changed; cells outside the mask are ignored.
func (m *Mask) Set(r, c int, erase bool) bool {
	if !m.inside(r, c) || m.cells[r*m.cols+c] == erase {
		return false
	}

	m.cells[r*m.cols+c] = erase

	return true
}

// Empty reports whether no cell of m is erased.
func (m *Mask) Empty() bool {
	return !slices.Contains(m.cells, true)
}

// Count returns the number of erased cells.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.cells {
		if v {
			n++
		}
	}

	return n
}

// Clone returns a deep copy of m.
func (m *Mask) Clone() *Mask {
	if m == nil {
		return nil
	}

	return &Mask{cells: slices.Clone(m.cells), rows: m.rows, cols: m.cols}
}

func (m *Mask) inside(r, c int) bool {
	return r >= 0 && c >= 0 && r < m.rows && c < m.cols
}

// Apply returns a copy of grid with every cell erased by m replaced with
// [Blank]. Rows and columns beyond the mask pass through unchanged, and a nil
// mask returns grid as is.
//
// Apply is idempotent: applying the same mask twice equals applying it once.
func Apply(grid ascii.Grid, m *Mask) ascii.Grid {
	if m == nil || len(grid) == 0 {
		return grid
	}

	out := make(ascii.Grid, len(grid))
	copy(out, grid)

	for r := range min(len(grid), m.rows) {
		row := []rune(grid[r])
		changed := false

		for c := range min(len(row), m.cols) {
			if m.cells[r*m.cols+c] && row[c] != Blank {
				row[c] = Blank
				changed = true
			}
		}

		if changed {
			out[r] = string(row)
		}
	}

	return out
}

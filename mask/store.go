package mask

import "sync"

// Store holds per-frame masks for the current grid dimensions.
//
// Masks handed out by a Store are copies; mutate through [Store.SetCell].
// Safe for concurrent use.
//
// Create instances with [NewStore].
type Store struct {
	masks map[int]*Mask
	rows  int
	cols  int
	mu    sync.Mutex
}

// NewStore returns an empty store for rows x cols grids.
func NewStore(rows, cols int) *Store {
	return &Store{
		masks: make(map[int]*Mask),
		rows:  rows,
		cols:  cols,
	}
}

// Dimensions returns the grid shape masks must match.
func (s *Store) Dimensions() (rows, cols int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.rows, s.cols
}

// SetDimensions changes the grid shape. Existing masks are kept but are
// treated as absent until the shape matches them again. It reports whether
// the shape changed.
func (s *Store) SetDimensions(rows, cols int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rows == rows && s.cols == cols {
		return false
	}

	s.rows, s.cols = rows, cols

	return true
}

// Get returns a copy of the mask for frame index.
//
// When the frame has no mask, or its mask has a stale shape, Get returns nil
// unless create is set, in which case an all-false mask of the current shape
// replaces it.
func (s *Store) Get(index int, create bool) *Mask {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.live(index, create)

	return m.Clone()
}

// Lookup returns a copy of the mask for frame index, or nil. It never
// creates masks.
func (s *Store) Lookup(index int) *Mask {
	return s.Get(index, false)
}

// SetCell erases (or restores) one cell of frame index, creating the mask on
// demand. It reports whether the stored value changed.
func (s *Store) SetCell(index, row, col int, erase bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Restoring a cell of a missing mask is a no-op; do not allocate for it.
	m := s.live(index, erase)
	if m == nil {
		return false
	}

	return m.Set(row, col, erase)
}

// Clear removes the mask of frame index. It reports whether one existed.
func (s *Store) Clear(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.masks[index]
	delete(s.masks, index)

	return ok
}

// Reset removes every mask.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.masks)
}

// Put stores a copy of m for frame index. Masks of another shape are kept
// but stay invisible until the dimensions match.
func (s *Store) Put(index int, m *Mask) {
	if m == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.masks[index] = m.Clone()
}

// All returns copies of every mask that matches the current dimensions and
// erases at least one cell.
func (s *Store) All() map[int]*Mask {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[int]*Mask, len(s.masks))
	for idx, m := range s.masks {
		if m.Is(s.rows, s.cols) && !m.Empty() {
			out[idx] = m.Clone()
		}
	}

	return out
}

// Len returns the number of stored masks, including stale ones.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.masks)
}

// live returns the stored mask for index if its shape is current. With
// create, missing or stale masks are replaced by a fresh one. s.mu must be
// held.
func (s *Store) live(index int, create bool) *Mask {
	if index < 0 {
		return nil
	}

	m := s.masks[index]
	if m.Is(s.rows, s.cols) {
		return m
	}

	if !create {
		return nil
	}

	m = New(s.rows, s.cols)
	s.masks[index] = m

	return m
}

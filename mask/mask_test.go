package mask_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.jacobcolvin.com/asscii/ascii"
	"go.jacobcolvin.com/asscii/mask"
)

func TestStoreGetCreatesBlankMask(t *testing.T) {
	t.Parallel()

	s := mask.NewStore(2, 3)

	assert.Nil(t, s.Get(5, false))

	m := s.Get(5, true)
	require.NotNil(t, m)
	assert.Equal(t, 2, m.Rows())
	assert.Equal(t, 3, m.Cols())
	assert.Equal(t, []bool{false, false, false, false, false, false}, m.Cells())
	assert.True(t, m.Empty())

	assert.True(t, s.SetCell(5, 0, 0, true))

	got := mask.Apply(ascii.Grid{"abc", "def"}, s.Lookup(5))
	assert.Equal(t, ascii.Grid{" bc", "def"}, got)
}

func TestStoreReturnsCopies(t *testing.T) {
	t.Parallel()

	s := mask.NewStore(2, 2)
	m := s.Get(0, true)
	m.Set(1, 1, true)

	assert.True(t, s.Lookup(0).Empty(), "mutating a returned mask must not leak into the store")
}

func TestStoreSetCell(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		setup    func(*mask.Store)
		row, col int
		erase    bool
		changed  bool
	}{
		"erase new cell": {
			row: 1, col: 2, erase: true,
			changed: true,
		},
		"erase twice": {
			setup:   func(s *mask.Store) { s.SetCell(0, 1, 2, true) },
			row:     1, col: 2, erase: true,
			changed: false,
		},
		"restore erased cell": {
			setup:   func(s *mask.Store) { s.SetCell(0, 1, 2, true) },
			row:     1, col: 2, erase: false,
			changed: true,
		},
		"restore without mask": {
			row: 0, col: 0, erase: false,
			changed: false,
		},
		"out of range": {
			row: 2, col: 0, erase: true,
			changed: false,
		},
		"negative column": {
			row: 0, col: -1, erase: true,
			changed: false,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			s := mask.NewStore(2, 3)
			if tc.setup != nil {
				tc.setup(s)
			}

			assert.Equal(t, tc.changed, s.SetCell(0, tc.row, tc.col, tc.erase))
		})
	}
}

func TestStoreDimensionChangeHidesMasks(t *testing.T) {
	t.Parallel()

	s := mask.NewStore(2, 3)
	s.SetCell(1, 0, 0, true)
	require.Len(t, s.All(), 1)

	assert.True(t, s.SetDimensions(4, 6))
	assert.False(t, s.SetDimensions(4, 6))

	assert.Nil(t, s.Lookup(1))
	assert.Empty(t, s.All())

	fresh := s.Get(1, true)
	require.NotNil(t, fresh)
	assert.True(t, fresh.Is(4, 6))
	assert.True(t, fresh.Empty())
}

func TestStoreClearAndReset(t *testing.T) {
	t.Parallel()

	s := mask.NewStore(2, 2)
	s.SetCell(0, 0, 0, true)
	s.SetCell(1, 0, 0, true)

	assert.True(t, s.Clear(0))
	assert.False(t, s.Clear(0))
	assert.Nil(t, s.Lookup(0))
	assert.NotNil(t, s.Lookup(1))

	s.Reset()
	assert.Equal(t, 0, s.Len())
}

func TestStorePut(t *testing.T) {
	t.Parallel()

	s := mask.NewStore(1, 2)

	s.Put(3, mask.FromCells(1, 2, []bool{false, true}))
	s.Put(4, mask.FromCells(2, 1, []bool{true, true}))
	s.Put(5, nil)

	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Lookup(3).At(0, 1))
	assert.Nil(t, s.Lookup(4), "stale shapes stay hidden")

	all := s.All()
	require.Len(t, all, 1)
	assert.Equal(t, 1, all[3].Count())
}

func TestApply(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		grid ascii.Grid
		mask *mask.Mask
		want ascii.Grid
	}{
		"nil mask": {
			grid: ascii.Grid{"ab", "cd"},
			want: ascii.Grid{"ab", "cd"},
		},
		"all false is identity": {
			grid: ascii.Grid{"ab", "cd"},
			mask: mask.New(2, 2),
			want: ascii.Grid{"ab", "cd"},
		},
		"multibyte glyphs": {
			grid: ascii.Grid{"█▓", "▒░"},
			mask: mask.FromCells(2, 2, []bool{false, true, true, false}),
			want: ascii.Grid{"█ ", " ░"},
		},
		"mask larger than grid": {
			grid: ascii.Grid{"ab"},
			mask: mask.FromCells(2, 3, []bool{true, false, true, true, true, true}),
			want: ascii.Grid{" b"},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			once := mask.Apply(tc.grid, tc.mask)
			assert.Equal(t, tc.want, once)
			assert.Equal(t, once, mask.Apply(once, tc.mask))
		})
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	grid := ascii.Grid{"abc"}
	_ = mask.Apply(grid, mask.FromCells(1, 3, []bool{true, true, true}))

	assert.Equal(t, ascii.Grid{"abc"}, grid)
}

func TestStoreConcurrentEdits(t *testing.T) {
	t.Parallel()

	s := mask.NewStore(4, 4)

	var wg sync.WaitGroup
	for r := range 4 {
		for c := range 4 {
			wg.Go(func() {
				s.SetCell(7, r, c, true)
				_ = s.All()
			})
		}
	}

	wg.Wait()

	assert.Equal(t, 16, s.Lookup(7).Count())
}

func TestFromCellsRejectsBadShape(t *testing.T) {
	t.Parallel()

	assert.Nil(t, mask.FromCells(2, 2, []bool{true}))
	assert.Nil(t, mask.FromCells(-1, 0, nil))
}

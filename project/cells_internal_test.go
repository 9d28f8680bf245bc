package project

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCellsEncoding(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		cells []bool
		want  []byte
	}{
		"empty": {
			cells: []bool{},
			want:  []byte{},
		},
		"partial byte": {
			cells: []bool{true, false, true},
			want:  []byte{0b101},
		},
		"spans bytes": {
			cells: []bool{false, false, false, false, false, false, false, true, true},
			want:  []byte{0b1000_0000, 0b1},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got := encodeCells(tc.cells)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.cells, decodeCells(got, len(tc.cells)))
		})
	}

	assert.Nil(t, decodeCells([]byte{1, 2}, 3), "length mismatch")
}

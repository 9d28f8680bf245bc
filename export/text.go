package export

import (
	"io"

	"go.jacobcolvin.com/asscii/ascii"
)

// WriteText writes grid to path as UTF-8 lines joined by newlines, with no
// header or trailing newline. Erase masks must already be applied. The file
// is replaced atomically.
func WriteText(path string, grid ascii.Grid) error {
	return WriteFileAtomic(path, func(w io.Writer) error {
		_, err := io.WriteString(w, grid.String())

		return err
	})
}

package export

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteFileAtomic streams write's output into a temporary file next to path
// and renames it over path once write and the flush succeed. On any failure
// the temporary file is removed and path is left untouched.
func WriteFileAtomic(path string, write func(w io.Writer) error) error {
	dir, name := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}

	tmpName := tmp.Name()
	committed := false

	defer func() {
		if committed {
			return
		}

		//nolint:errcheck // Best-effort cleanup of an abandoned temp file.
		tmp.Close()
		//nolint:errcheck // Best-effort cleanup of an abandoned temp file.
		os.Remove(tmpName)
	}()

	bw := bufio.NewWriter(tmp)

	err = write(bw)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}

	err = bw.Flush()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}

	err = tmp.Chmod(0o644)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}

	err = tmp.Sync()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}

	err = tmp.Close()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}

	err = os.Rename(tmpName, path)
	if err != nil {
		//nolint:errcheck // Best-effort cleanup of an abandoned temp file.
		os.Remove(tmpName)

		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}

	committed = true

	return nil
}

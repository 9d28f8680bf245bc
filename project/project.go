// Package project persists erase masks in a SQLite database.
//
// A project file holds the masks of any number of videos, keyed by the
// video path and the source frame index. Each row records the grid
// dimensions the mask was drawn for, so masks of another shape can be
// skipped when loading.
package project

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.jacobcolvin.com/asscii/mask"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrProject indicates the project database could not be opened, read or
// written.
var ErrProject = errors.New("project")

// Project wraps a project database.
//
// Create instances with [Open].
type Project struct {
	db *sql.DB
}

// Open opens or creates the project database at path and applies
// migrations. Missing parent directories are created.
func Open(ctx context.Context, path string) (*Project, error) {
	err := os.MkdirAll(filepath.Dir(path), 0o755)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProject, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrProject, path, err)
	}

	// One connection keeps writes serialized within the process.
	db.SetMaxOpenConns(1)

	p := &Project{db: db}

	err = p.migrate(ctx)
	if err != nil {
		//nolint:errcheck // Best-effort close on migration failure.
		db.Close()

		return nil, err
	}

	return p, nil
}

// Close closes the underlying database.
func (p *Project) Close() error {
	return p.db.Close()
}

func (p *Project) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS masks (
			video TEXT NOT NULL,
			frame INTEGER NOT NULL,
			rows INTEGER NOT NULL,
			cols INTEGER NOT NULL,
			cells BLOB NOT NULL,
			PRIMARY KEY (video, frame)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_masks_video ON masks(video);`,
	}
	for _, stmt := range stmts {
		_, err := p.db.ExecContext(ctx, stmt)
		if err != nil {
			return fmt.Errorf("%w: migrate: %w", ErrProject, err)
		}
	}

	return nil
}

// SaveMasks replaces every stored mask of video with masks. Nil and empty
// masks are not stored.
func (p *Project) SaveMasks(ctx context.Context, video string, masks map[int]*mask.Mask) (err error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrProject, err)
	}

	defer func() {
		if err != nil {
			//nolint:errcheck // Best-effort rollback.
			tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `DELETE FROM masks WHERE video = ?`, video)
	if err != nil {
		return fmt.Errorf("%w: delete masks: %w", ErrProject, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO masks (video, frame, rows, cols, cells) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrProject, err)
	}

	defer func() {
		//nolint:errcheck // Best-effort statement close.
		stmt.Close()
	}()

	for frame, m := range masks {
		if m == nil || m.Empty() {
			continue
		}

		_, err = stmt.ExecContext(ctx, video, frame, m.Rows(), m.Cols(), encodeCells(m.Cells()))
		if err != nil {
			return fmt.Errorf("%w: insert mask %d: %w", ErrProject, frame, err)
		}
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("%w: commit: %w", ErrProject, err)
	}

	return nil
}

// LoadMasks returns the stored masks of video drawn for a rows x cols grid.
// Masks of other dimensions are skipped.
func (p *Project) LoadMasks(ctx context.Context, video string, rows, cols int) (map[int]*mask.Mask, error) {
	rs, err := p.db.QueryContext(ctx,
		`SELECT frame, cells FROM masks WHERE video = ? AND rows = ? AND cols = ? ORDER BY frame`,
		video, rows, cols)
	if err != nil {
		return nil, fmt.Errorf("%w: query masks: %w", ErrProject, err)
	}

	defer func() {
		//nolint:errcheck // Rows are fully consumed or the error is reported below.
		rs.Close()
	}()

	out := map[int]*mask.Mask{}

	for rs.Next() {
		var (
			frame int
			blob  []byte
		)

		err := rs.Scan(&frame, &blob)
		if err != nil {
			return nil, fmt.Errorf("%w: scan mask: %w", ErrProject, err)
		}

		m := mask.FromCells(rows, cols, decodeCells(blob, rows*cols))
		if m == nil {
			return nil, fmt.Errorf("%w: mask %d of %s is corrupt", ErrProject, frame, video)
		}

		out[frame] = m
	}

	err = rs.Err()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProject, err)
	}

	return out, nil
}

// DeleteMasks removes every stored mask of video.
func (p *Project) DeleteMasks(ctx context.Context, video string) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM masks WHERE video = ?`, video)
	if err != nil {
		return fmt.Errorf("%w: delete masks: %w", ErrProject, err)
	}

	return nil
}

// Videos lists the videos with stored masks and how many frames each has.
func (p *Project) Videos(ctx context.Context) (map[string]int, error) {
	rs, err := p.db.QueryContext(ctx, `SELECT video, COUNT(*) FROM masks GROUP BY video`)
	if err != nil {
		return nil, fmt.Errorf("%w: query videos: %w", ErrProject, err)
	}

	defer func() {
		//nolint:errcheck // Rows are fully consumed or the error is reported below.
		rs.Close()
	}()

	out := map[string]int{}

	for rs.Next() {
		var (
			video string
			n     int
		)

		err := rs.Scan(&video, &n)
		if err != nil {
			return nil, fmt.Errorf("%w: scan video: %w", ErrProject, err)
		}

		out[video] = n
	}

	err = rs.Err()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProject, err)
	}

	return out, nil
}

// encodeCells packs cells eight to a byte, row-major, low bit first.
func encodeCells(cells []bool) []byte {
	out := make([]byte, (len(cells)+7)/8)
	for i, erased := range cells {
		if erased {
			out[i/8] |= 1 << (i % 8)
		}
	}

	return out
}

// decodeCells unpacks n cells from blob. It returns nil if blob has the
// wrong length.
func decodeCells(blob []byte, n int) []bool {
	if len(blob) != (n+7)/8 {
		return nil
	}

	out := make([]bool, n)
	for i := range out {
		out[i] = blob[i/8]&(1<<(i%8)) != 0
	}

	return out
}

// Restore loads the masks of video matching the dimensions of store into
// it and returns how many were loaded.
func (p *Project) Restore(ctx context.Context, video string, store *mask.Store) (int, error) {
	rows, cols := store.Dimensions()

	masks, err := p.LoadMasks(ctx, video, rows, cols)
	if err != nil {
		return 0, err
	}

	for frame, m := range masks {
		store.Put(frame, m)
	}

	return len(masks), nil
}

// Persist replaces the stored masks of video with the contents of store.
func (p *Project) Persist(ctx context.Context, video string, store *mask.Store) error {
	return p.SaveMasks(ctx, video, store.All())
}

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"go.jacobcolvin.com/asscii/ascii"
)

type eraseOptions struct {
	cells   []string
	frame   int
	restore bool
	clear   bool
}

func (a *app) eraseCmd() *cobra.Command {
	var opts eraseOptions

	cmd := &cobra.Command{
		Use:   "erase <video_file|frame_directory>",
		Short: "Edit the erase mask of a frame",
		Long: `Erase or restore cells of one frame's mask in the project database. Erased
cells are rendered as spaces by every output.

Cells are given as row,col pairs counted from zero. --clear removes the whole
mask before any --cell is applied. Masks belong to the current grid shape;
saving masks for one shape replaces those of any other.`,
		Example: `  asscii erase clip.mp4 --frame 12 --cell 0,0 --cell 0,1
  asscii erase clip.mp4 --frame 12 --cell 0,1 --restore
  asscii erase clip.mp4 --frame 12 --clear`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.erase(cmd, args[0], opts)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&opts.frame, "frame", 0, "source frame index")
	flags.StringArrayVar(&opts.cells, "cell", nil, "cell as row,col (repeatable)")
	flags.BoolVar(&opts.restore, "restore", false, "restore the cells instead of erasing them")
	flags.BoolVar(&opts.clear, "clear", false, "remove the frame's mask first")

	return cmd
}

func (a *app) erase(cmd *cobra.Command, path string, opts eraseOptions) error {
	ctx := cmd.Context()
	p := a.params()

	if opts.frame < 0 {
		return fmt.Errorf("%w: negative frame %d", ascii.ErrInvalidParameter, opts.frame)
	}

	cells := make([][2]int, 0, len(opts.cells))
	for _, s := range opts.cells {
		r, c, err := parseCell(s, p.Rows, p.Cols)
		if err != nil {
			return err
		}

		cells = append(cells, [2]int{r, c})
	}

	proj, masks, err := a.openProject(ctx, path)
	if err != nil {
		return err
	}

	defer a.closeProject(proj)

	if opts.clear {
		masks.Clear(opts.frame)
	}

	for _, cell := range cells {
		masks.SetCell(opts.frame, cell[0], cell[1], !opts.restore)
	}

	err = proj.Persist(ctx, videoKey(path), masks)
	if err != nil {
		return err
	}

	erased := 0
	if m := masks.Lookup(opts.frame); m != nil {
		erased = m.Count()
	}

	fmt.Fprintf(a.stdout, "frame %d: %d of %d cells erased\n", opts.frame, erased, p.Rows*p.Cols)

	return nil
}

// parseCell parses a "row,col" pair inside a rows x cols grid.
func parseCell(s string, rows, cols int) (row, col int, err error) {
	rs, cs, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, fmt.Errorf("%w: cell %q: want row,col", ascii.ErrInvalidParameter, s)
	}

	row, err = strconv.Atoi(strings.TrimSpace(rs))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: cell %q: %w", ascii.ErrInvalidParameter, s, err)
	}

	col, err = strconv.Atoi(strings.TrimSpace(cs))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: cell %q: %w", ascii.ErrInvalidParameter, s, err)
	}

	if row < 0 || row >= rows || col < 0 || col >= cols {
		return 0, 0, fmt.Errorf("%w: cell %q outside %dx%d grid", ascii.ErrInvalidParameter, s, rows, cols)
	}

	return row, col, nil
}

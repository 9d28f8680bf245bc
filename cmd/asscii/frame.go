package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"go.jacobcolvin.com/asscii/ascii"
	"go.jacobcolvin.com/asscii/export"
	"go.jacobcolvin.com/asscii/mask"
	"go.jacobcolvin.com/asscii/render"
	"go.jacobcolvin.com/asscii/video"
)

func (a *app) textCmd() *cobra.Command {
	var (
		output string
		frame  int
	)

	cmd := &cobra.Command{
		Use:   "text <video_file|frame_directory>",
		Short: "Write one frame as plain text",
		Long: `Convert one source frame, apply its erase mask and write the grid as
UTF-8 lines. With no --output the grid is printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			grid, err := a.convertFrame(cmd.Context(), args[0], frame)
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				_, err = fmt.Fprintln(a.stdout, grid.String())
				if err != nil {
					return fmt.Errorf("%w: %w", export.ErrWriteOutput, err)
				}

				return nil
			}

			return export.WriteText(output, grid)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&frame, "frame", 0, "source frame index")
	flags.StringVarP(&output, "output", "o", "", "output file (default stdout)")

	return cmd
}

func (a *app) renderCmd() *cobra.Command {
	var (
		output string
		frame  int
	)

	cmd := &cobra.Command{
		Use:   "render <video_file|frame_directory>",
		Short: "Write one frame as a PNG image",
		Long: `Convert one source frame, apply its erase mask and draw the grid with the
configured monospace font. The built-in bitmap font is used when none of the
configured fonts loads.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			grid, err := a.convertFrame(cmd.Context(), args[0], frame)
			if err != nil {
				return err
			}

			if output == "" {
				output = fmt.Sprintf("%s_%06d.png", stem(args[0]), frame)
			}

			face := render.LoadFace(a.file.Player.FontPaths, a.file.Player.FontSize)
			img := render.Render(grid, face, render.DefaultOptions())

			err = export.WriteFileAtomic(output, func(w io.Writer) error {
				return render.WritePNG(w, img)
			})
			if err != nil {
				return err
			}

			b := img.Bounds()
			fmt.Fprintf(a.stdout, "wrote %s: %dx%d px, font %s\n", output, b.Dx(), b.Dy(), face.Name())

			return nil
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&frame, "frame", 0, "source frame index")
	flags.StringVarP(&output, "output", "o", "", "output file (default <video>_<frame>.png)")

	err := cmd.RegisterFlagCompletionFunc("output",
		cobra.FixedCompletions([]string{"png"}, cobra.ShellCompDirectiveFilterFileExt))
	if err != nil {
		fmt.Fprintf(a.stderr, "register completions: %v\n", err)
	}

	return cmd
}

// convertFrame decodes source frame index of the video at path, converts it
// with the effective parameters and applies its stored erase mask.
func (a *app) convertFrame(ctx context.Context, path string, index int) (ascii.Grid, error) {
	src, err := a.openSource(ctx, path, a.logger)
	if err != nil {
		return nil, err
	}

	defer a.closeSource(src)

	if n := src.Info().FrameCount; index < 0 || (n > 0 && index >= n) {
		return nil, fmt.Errorf("%w: frame %d outside [0,%d)", ascii.ErrInvalidParameter, index, n)
	}

	gray, err := video.ReadAt(src, index)
	if err != nil {
		return nil, fmt.Errorf("frame %d: %w", index, err)
	}

	proj, masks, err := a.openProject(ctx, path)
	if err != nil {
		return nil, err
	}

	defer a.closeProject(proj)

	grid := ascii.Quantize(gray, a.params())

	return mask.Apply(grid, masks.Lookup(index)), nil
}

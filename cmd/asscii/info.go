package main

import (
	"fmt"
	"strconv"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"go.jacobcolvin.com/asscii/ascii"
	"go.jacobcolvin.com/asscii/render"
	"go.jacobcolvin.com/asscii/version"
)

func (a *app) infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <video_file|frame_directory>",
		Short: "Show video metadata",
		Long: `Show the stream metadata of a video, the grid it converts to with the
effective settings, and how many masked frames the project holds for it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := args[0]

			src, err := a.openSource(ctx, path, a.logger)
			if err != nil {
				return err
			}

			info := src.Info()
			a.closeSource(src)

			proj, _, err := a.openProject(ctx, path)
			if err != nil {
				return err
			}

			defer a.closeProject(proj)

			videos, err := proj.Videos(ctx)
			if err != nil {
				return err
			}

			p := a.params()
			face := render.LoadFace(a.file.Player.FontPaths, a.file.Player.FontSize)
			cellW, cellH := render.CellSize(face)

			rows := [][]string{
				{"Path", videoKey(path)},
				{"Resolution", fmt.Sprintf("%dx%d", info.Width, info.Height)},
				{"Frame rate", strconv.FormatFloat(info.FPS, 'f', -1, 64)},
				{"Frames", strconv.Itoa(info.FrameCount)},
				{"Duration", info.Duration.String()},
				{"Grid", fmt.Sprintf("%d cols x %d rows at %s fps", p.Cols, p.Rows, strconv.FormatFloat(p.FPS, 'f', -1, 64))},
				{"Locked rows", strconv.Itoa(ascii.LockedRows(p.Rows, p.Cols, info.Width, info.Height, cellW, cellH))},
				{"Font", fmt.Sprintf("%s (%dx%d px cell)", face.Name(), cellW, cellH)},
				{"Masked frames", strconv.Itoa(videos[videoKey(path)])},
			}

			fmt.Fprintln(a.stdout, renderTable([]string{"Field", "Value"}, rows, nil))

			return nil
		},
	}
}

func (a *app) charsetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "charsets",
		Short:       "List the built-in charsets",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfig: "true"},
		RunE: func(_ *cobra.Command, _ []string) error {
			names := ascii.CharsetNames()
			rows := make([][]string, 0, len(names))

			for _, name := range names {
				glyphs, _ := ascii.Charset(name)
				rows = append(rows, []string{
					name,
					strconv.Itoa(len([]rune(glyphs))),
					strconv.Itoa(runewidth.StringWidth(glyphs)),
					strconv.Quote(glyphs),
				})
			}

			fmt.Fprintln(a.stdout, renderTable(
				[]string{"Name", "Glyphs", "Width", "Sparse to dense"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft},
			))

			return nil
		},
	}
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Show build information",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfig: "true"},
		RunE: func(_ *cobra.Command, _ []string) error {
			fields := version.Fields()
			rows := make([][]string, 0, len(fields))

			for _, f := range fields {
				rows = append(rows, []string{f.Name, f.Value})
			}

			fmt.Fprintln(a.stdout, renderTable([]string{"Field", "Value"}, rows, nil))

			return nil
		},
	}
}

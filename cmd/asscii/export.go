package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"go.jacobcolvin.com/asscii/export"
	"go.jacobcolvin.com/asscii/render"
)

type exportOptions struct {
	output   string
	mode     string
	fontName string
	start    float64
	duration float64
	fontSize float64
	frame    int
	posX     int
	posY     int
	resX     int
	resY     int
}

func (a *app) exportCmd() *cobra.Command {
	var opts exportOptions

	cmd := &cobra.Command{
		Use:   "export <video_file|frame_directory>",
		Short: "Write the conversion as an ASS subtitle track",
		Long: `Export converts every ASCII frame of a time window and writes one positioned
subtitle event per frame. Erase masks from the project database are applied.

Modes:
  full     the whole video
  current  one ASCII frame starting at --frame
  custom   --duration seconds starting at --start`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runExport(cmd, args[0], opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.output, "output", "o", "", "output file (default <video>.ass)")
	flags.StringVar(&opts.mode, "mode", string(export.ModeFull),
		fmt.Sprintf("export window, one of: %s", strings.Join(export.ModeStrings(), ", ")))
	flags.Float64Var(&opts.start, "start", 0, "custom window start in seconds")
	flags.Float64Var(&opts.duration, "duration", export.DefaultDuration, "custom window length in seconds")
	flags.IntVar(&opts.frame, "frame", 0, "source frame exported by the current mode")
	flags.IntVar(&opts.posX, "pos-x", 0, "horizontal grid position in PlayRes pixels")
	flags.IntVar(&opts.posY, "pos-y", 0, "vertical grid position in PlayRes pixels")
	flags.StringVar(&opts.fontName, "font-name", export.DefaultFontName, "font family of the subtitle style")
	flags.Float64Var(&opts.fontSize, "font-size", export.DefaultFontSize, "font size of the subtitle style")
	flags.IntVar(&opts.resX, "play-res-x", 0, "script width (default: video width)")
	flags.IntVar(&opts.resY, "play-res-y", 0, "script height (default: video height)")

	err := cmd.RegisterFlagCompletionFunc("mode",
		cobra.FixedCompletions(export.ModeStrings(), cobra.ShellCompDirectiveNoFileComp))
	if err != nil {
		fmt.Fprintf(a.stderr, "register completions: %v\n", err)
	}

	err = cmd.RegisterFlagCompletionFunc("output",
		cobra.FixedCompletions([]string{"ass"}, cobra.ShellCompDirectiveFilterFileExt))
	if err != nil {
		fmt.Fprintf(a.stderr, "register completions: %v\n", err)
	}

	return cmd
}

func (a *app) runExport(cmd *cobra.Command, path string, opts exportOptions) error {
	ctx := cmd.Context()
	flags := cmd.Flags()

	// Flags the user left alone fall back to the config file.
	e := a.file.Export
	overrides := map[string]func(){
		"mode":      func() { e.Mode = opts.mode },
		"duration":  func() { e.Duration = opts.duration },
		"font-name": func() { e.FontName = opts.fontName },
		"font-size": func() { e.FontSize = opts.fontSize },
		"pos-x":     func() { e.PosX = opts.posX },
		"pos-y":     func() { e.PosY = opts.posY },
	}

	for name, apply := range overrides {
		if flags.Changed(name) {
			apply()
		}
	}

	mode, err := export.ParseMode(e.Mode)
	if err != nil {
		return err
	}

	output := opts.output
	if output == "" {
		output = stem(path) + ".ass"
	}

	params := a.params()
	face := render.LoadFace(a.file.Player.FontPaths, e.FontSize)
	gridW, gridH := render.GridPixelSize(face, params.Cols, params.Rows)

	proj, masks, err := a.openProject(ctx, path)
	if err != nil {
		return err
	}

	defer a.closeProject(proj)

	req := export.Request{
		Masks:    masks.Lookup,
		Source:   path,
		Output:   output,
		FontName: e.FontName,
		FontSize: e.FontSize,
		Params:   params,
		Window: export.Window{
			Mode:     mode,
			Start:    opts.start,
			Duration: e.Duration,
			Frame:    opts.frame,
		},
		PosX:       e.PosX,
		PosY:       e.PosY,
		PlayResX:   opts.resX,
		PlayResY:   opts.resY,
		GridPixelW: gridW,
		GridPixelH: gridH,
	}

	exportOpts := []export.Option{export.WithLogger(a.logger)}

	var bar *progress
	if isTerminal(a.stderr) {
		bar = &progress{w: a.stderr}
		exportOpts = append(exportOpts, export.WithProgress(bar.update))
	}

	res, err := export.New(exportOpts...).Export(ctx, req)

	bar.finish()

	if err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "wrote %s: %d events, %s, %s from %s\n",
		res.Path, res.Events, humanize.IBytes(uint64(max(0, res.Bytes))), res.Duration, res.Start)

	return nil
}

// progress draws an export progress bar. The bar is created on the first
// update, once the number of ticks is known.
type progress struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

func (p *progress) update(done, total int) {
	if p.bar == nil {
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(p.w),
			progressbar.OptionSetDescription("exporting"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionClearOnFinish(),
		)
	}

	//nolint:errcheck // Progress rendering is best effort.
	p.bar.Set(done)
}

func (p *progress) finish() {
	if p == nil || p.bar == nil {
		return
	}

	//nolint:errcheck // Progress rendering is best effort.
	p.bar.Finish()
}

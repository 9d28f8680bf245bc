package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"go.jacobcolvin.com/asscii/ascii"
	"go.jacobcolvin.com/asscii/framecache"
	"go.jacobcolvin.com/asscii/mask"
	"go.jacobcolvin.com/asscii/player"
	"go.jacobcolvin.com/asscii/render"
	"go.jacobcolvin.com/asscii/video"
)

type playOptions struct {
	textDir    string
	aspectLock bool
	fit        bool
	paused     bool
}

func (a *app) playCmd() *cobra.Command {
	var opts playOptions

	cmd := &cobra.Command{
		Use:   "play <video_file|frame_directory>",
		Short: "Preview the conversion in the terminal",
		Long: `Play the video as ASCII art in the terminal. Playback loops at the end of
the stream. Press ? for key bindings.

Masks edited in the player are saved to the project database with w.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("aspect-lock") {
				a.file.Player.AspectLock = opts.aspectLock
			}

			return a.play(cmd, args[0], opts)
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&opts.aspectLock, "aspect-lock", false, "derive rows from cols and the video aspect ratio")
	flags.BoolVar(&opts.fit, "fit", false, "size the grid to the terminal")
	flags.BoolVar(&opts.paused, "paused", false, "start paused")
	flags.StringVar(&opts.textDir, "text-dir", ".", "directory for text exports")

	err := cmd.RegisterFlagCompletionFunc("text-dir",
		func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
			return nil, cobra.ShellCompDirectiveFilterDirs
		})
	if err != nil {
		fmt.Fprintf(a.stderr, "register completions: %v\n", err)
	}

	return cmd
}

func (a *app) play(cmd *cobra.Command, path string, opts playOptions) error {
	ctx := cmd.Context()

	// The terminal belongs to the player; logs go to the status line.
	logger, tail, err := a.logCfg.NewTailLogger()
	if err != nil {
		return err
	}

	src, err := a.openSource(ctx, path, logger)
	if err != nil {
		return err
	}

	defer a.closeSource(src)

	info := src.Info()
	face := render.LoadFace(a.file.Player.FontPaths, a.file.Player.FontSize)
	params := a.params()

	if opts.fit {
		w, h, sizeErr := term.GetSize(int(os.Stdout.Fd()))
		if sizeErr != nil {
			return fmt.Errorf("unable to detect terminal size (set --%s and --%s): %w",
				a.cfg.Flags.Cols, a.cfg.Flags.Rows, sizeErr)
		}

		params = player.Fit(params, w, h)
	}

	if a.file.Player.AspectLock {
		cellW, cellH := render.CellSize(face)
		params.Rows = ascii.LockedRows(params.Rows, params.Cols, info.Width, info.Height, cellW, cellH)
		params = params.Normalize()
	}

	a.file.ASCII = params

	proj, masks, err := a.openProject(ctx, path)
	if err != nil {
		return err
	}

	defer a.closeProject(proj)

	cache := framecache.New(params)
	prefetch := framecache.NewPrefetcher(cache,
		video.OpenerFor(path, video.WithLogger(logger)),
		framecache.WithRadius(a.file.Player.PrefetchRadius),
		framecache.WithLogger(logger),
	)

	err = prefetch.Start(ctx)
	if err != nil {
		return err
	}

	defer func() {
		stopErr := prefetch.Stop()
		if stopErr != nil {
			a.logger.Warn("asscii: stopping prefetcher", slog.Any("err", stopErr))
		}
	}()

	key := videoKey(path)
	name := stem(path)

	playerOpts := []player.Option{
		player.WithPrefetcher(prefetch),
		player.WithMasks(masks),
		player.WithMetrics(face),
		player.WithAspectLock(a.file.Player.AspectLock),
		player.WithTail(tail),
		player.WithLogger(logger),
		player.WithSave(func(s *mask.Store) error {
			return proj.Persist(ctx, key, s)
		}),
		player.WithTextPath(func(index int) string {
			return filepath.Join(opts.textDir, fmt.Sprintf("%s_%06d.txt", name, index))
		}),
	}
	if opts.paused {
		playerOpts = append(playerOpts, player.WithPaused())
	}

	m := player.New(src, cache, playerOpts...)

	_, err = tea.NewProgram(m, tea.WithContext(ctx)).Run()
	if err != nil {
		return fmt.Errorf("running player: %w", err)
	}

	return nil
}

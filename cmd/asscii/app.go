package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"go.jacobcolvin.com/asscii/ascii"
	"go.jacobcolvin.com/asscii/config"
	"go.jacobcolvin.com/asscii/log"
	"go.jacobcolvin.com/asscii/mask"
	"go.jacobcolvin.com/asscii/profile"
	"go.jacobcolvin.com/asscii/project"
	"go.jacobcolvin.com/asscii/video"
)

// skipConfig marks commands that run without resolving the config file.
const skipConfig = "asscii/skip-config"

// app holds the state shared by every subcommand.
type app struct {
	stdout   io.Writer
	stderr   io.Writer
	cfg      *config.Config
	logCfg   *log.Config
	profCfg  *profile.Config
	profiler *profile.Profiler
	logger   *slog.Logger
	file     config.File
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		stdout:  stdout,
		stderr:  stderr,
		cfg:     config.NewConfig(),
		logCfg:  log.NewConfig(),
		profCfg: profile.NewConfig(),
		logger:  slog.New(slog.DiscardHandler),
		file:    config.Default(),
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "asscii",
		Short: "Convert video to ASCII art",
		Long: `asscii converts video to ASCII art. It previews the conversion in the
terminal, keeps per-frame erase masks in a project database, and exports the
result as an ASS subtitle track, plain text or PNG snapshots.

Settings come from the config file, overridden by any flag that is set.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	a.cfg.RegisterFlags(flags)
	a.logCfg.RegisterFlags(flags)
	a.profCfg.RegisterFlags(flags)

	for _, register := range []func(*cobra.Command) error{
		a.cfg.RegisterCompletions,
		a.logCfg.RegisterCompletions,
		a.profCfg.RegisterCompletions,
	} {
		err := register(root)
		if err != nil {
			fmt.Fprintf(a.stderr, "register completions: %v\n", err)
		}
	}

	root.AddCommand(
		a.playCmd(),
		a.exportCmd(),
		a.textCmd(),
		a.renderCmd(),
		a.eraseCmd(),
		a.infoCmd(),
		a.charsetsCmd(),
		a.configCmd(),
		a.versionCmd(),
	)

	return root
}

// setup builds the logger, resolves the configuration and starts the
// profiler.
func (a *app) setup(cmd *cobra.Command) error {
	logger, err := a.logCfg.NewLogger(a.stderr)
	if err != nil {
		return err
	}

	a.logger = logger

	if cmd.Annotations[skipConfig] == "" {
		file, err := a.cfg.Resolve(cmd.Flags())
		if err != nil {
			return err
		}

		file.ASCII = file.ASCII.Normalize()

		err = file.Validate()
		if err != nil {
			return err
		}

		a.file = file
	}

	profiler := a.profCfg.NewProfiler()

	err = profiler.Start()
	if err != nil {
		return fmt.Errorf("starting profiler: %w", err)
	}

	a.profiler = profiler

	return nil
}

func (a *app) stopProfiler() error {
	if a.profiler == nil {
		return nil
	}

	err := a.profiler.Stop()
	a.profiler = nil

	return err
}

// params returns the effective conversion parameters.
func (a *app) params() ascii.Params {
	return a.file.ASCII
}

// openSource opens the video at path, logging through logger.
func (a *app) openSource(ctx context.Context, path string, logger *slog.Logger) (video.Source, error) {
	return video.Open(ctx, path, video.WithLogger(logger))
}

func (a *app) closeSource(src video.Source) {
	err := src.Close()
	if err != nil {
		a.logger.Debug("asscii: closing source", slog.Any("err", err))
	}
}

// openProject opens the mask database and restores the masks of the video
// at path for the current grid shape.
func (a *app) openProject(ctx context.Context, path string) (*project.Project, *mask.Store, error) {
	p := a.params()

	proj, err := project.Open(ctx, a.file.Project)
	if err != nil {
		return nil, nil, err
	}

	store := mask.NewStore(p.Rows, p.Cols)

	n, err := proj.Restore(ctx, videoKey(path), store)
	if err != nil {
		a.closeProject(proj)

		return nil, nil, err
	}

	a.logger.Debug("asscii: restored masks",
		slog.String("video", videoKey(path)),
		slog.Int("count", n),
	)

	return proj, store, nil
}

func (a *app) closeProject(proj *project.Project) {
	err := proj.Close()
	if err != nil {
		a.logger.Debug("asscii: closing project", slog.Any("err", err))
	}
}

// videoKey identifies a video in the project database. Relative paths are
// made absolute so masks survive a change of working directory.
func videoKey(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}

	return abs
}

// stem returns the base name of path without its extension.
func stem(path string) string {
	base := filepath.Base(filepath.Clean(path))

	return strings.TrimSuffix(base, filepath.Ext(base))
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	fd := f.Fd()

	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

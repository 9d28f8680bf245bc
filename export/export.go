// Package export writes converted video as subtitle documents.
//
// An [Exporter] walks a time window at the ASCII frame rate, converts the
// source frame shown at each tick (reusing a [framecache.Cache] when its
// parameters match), applies the frame's erase mask, and writes one
// positioned Dialogue event per tick to an ASS document. The document is
// written atomically: a failed export never leaves a partial file behind.
package export

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"math"
	"strings"
	"time"

	"go.jacobcolvin.com/asscii/ascii"
	"go.jacobcolvin.com/asscii/ass"
	"go.jacobcolvin.com/asscii/framecache"
	"go.jacobcolvin.com/asscii/mask"
	"go.jacobcolvin.com/asscii/video"
)

const (
	// StyleName is the name of the single style events use.
	StyleName = "ASCII"

	// DefaultFontName is the style font when none is requested.
	DefaultFontName = "Lucida Console"

	// DefaultFontSize is the style font size when none is requested.
	DefaultFontSize = 18.0

	// DefaultDuration is the custom window length used by the CLI.
	DefaultDuration = 5.0

	// FallbackPlayResX and FallbackPlayResY are used when neither the
	// request nor the video provides a resolution.
	FallbackPlayResX = 1920
	FallbackPlayResY = 1080
)

var (
	// ErrInvalidParameter indicates a request that can never succeed. It is
	// reported before any I/O. It is [ascii.ErrInvalidParameter], so invalid
	// conversion parameters match it too.
	ErrInvalidParameter = ascii.ErrInvalidParameter

	// ErrSourceUnavailable indicates the video could not be opened, seeked or
	// decoded for some tick.
	ErrSourceUnavailable = errors.New("export: source unavailable")

	// ErrWriteOutput indicates the destination could not be written.
	ErrWriteOutput = errors.New("export: cannot write output")
)

// MaskLookup returns the erase mask of a source frame, or nil.
type MaskLookup func(index int) *mask.Mask

// SourceOpener opens the video at path for an export.
type SourceOpener func(ctx context.Context, path string) (video.Source, error)

// ProgressFunc is called after each tick with the number of ticks done and
// the total.
type ProgressFunc func(done, total int)

// Request describes one export.
type Request struct {
	// Masks, when set, supplies per-frame erase masks.
	Masks    MaskLookup
	Source   string
	Output   string
	FontName string
	Window   Window
	Params   ascii.Params
	FontSize float64
	// PosX and PosY anchor the top-left corner of the grid, in PlayRes
	// coordinates.
	PosX int
	PosY int
	// PlayResX and PlayResY default to the video resolution.
	PlayResX int
	PlayResY int
	// GridPixelW and GridPixelH are the rendered grid size, if known. They
	// are used to warn when the grid overflows the canvas.
	GridPixelW int
	GridPixelH int
}

// Result summarizes a finished export.
type Result struct {
	Path     string
	Start    time.Duration
	Duration time.Duration
	Events   int
	Bytes    int64
}

// Option configures an [Exporter].
type Option func(*Exporter)

// WithCache lets exports reuse c when its parameters equal the request's.
func WithCache(c *framecache.Cache) Option {
	return func(e *Exporter) {
		e.cache = c
	}
}

// WithOpener replaces the function that opens the source video.
func WithOpener(open SourceOpener) Option {
	return func(e *Exporter) {
		if open != nil {
			e.open = open
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Exporter) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithProgress registers a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(e *Exporter) {
		e.progress = fn
	}
}

// Exporter writes ASS documents. It decodes with its own [video.Source], so
// it never disturbs a playback decoder.
//
// Create instances with [New].
type Exporter struct {
	open     SourceOpener
	cache    *framecache.Cache
	logger   *slog.Logger
	progress ProgressFunc
}

// New returns an [Exporter] configured by opts.
func New(opts ...Option) *Exporter {
	e := &Exporter{
		open: func(ctx context.Context, path string) (video.Source, error) {
			return video.Open(ctx, path)
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Export renders req to req.Output. Invalid requests fail with
// [ErrInvalidParameter] before the video is opened. A source failure on any
// tick fails the whole export with [ErrSourceUnavailable]. The context is
// checked between ticks.
func (e *Exporter) Export(ctx context.Context, req Request) (Result, error) {
	err := validate(req)
	if err != nil {
		return Result{}, err
	}

	src, err := e.open(ctx, req.Source)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	defer func() {
		closeErr := src.Close()
		if closeErr != nil {
			e.logger.Debug("export: closing source", slog.Any("err", closeErr))
		}
	}()

	info := src.Info()

	start, duration, err := req.Window.Resolve(info, req.Params.FPS)
	if err != nil {
		return Result{}, err
	}

	doc := e.document(req, info)
	cache := e.cacheFor(req.Params)
	ticks := TickCount(duration, req.Params.FPS)
	end := start + duration

	e.logger.Info("export: starting",
		slog.String("source", req.Source),
		slog.String("output", req.Output),
		slog.Float64("start", start),
		slog.Float64("duration", duration),
		slog.Int("ticks", ticks),
	)

	var last ascii.Grid

	doc.Events = make([]ass.Event, 0, ticks)
	for i := range ticks {
		err := ctx.Err()
		if err != nil {
			return Result{}, fmt.Errorf("export canceled: %w", err)
		}

		t := start + float64(i)/req.Params.FPS
		tEnd := math.Min(start+float64(i+1)/req.Params.FPS, end)
		idx := info.FrameAt(t)

		grid, err := cache.Ensure(idx, provider(src, idx))
		switch {
		case errors.Is(err, framecache.ErrNoFrame) && last != nil:
			// The container reported more frames than it holds; hold the
			// last one rather than dropping the tail of the window.
			e.logger.Debug("export: no frame, repeating previous", slog.Int("frame", idx))

			grid = last

		case errors.Is(err, framecache.ErrNoFrame):
			return Result{}, fmt.Errorf("%w: no frame at index %d", ErrSourceUnavailable, idx)

		case err != nil:
			return Result{}, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
		}

		last = grid

		if req.Masks != nil {
			// Masks drawn for other grid dimensions do not apply.
			m := req.Masks(idx)
			if m.Is(req.Params.Rows, req.Params.Cols) {
				grid = mask.Apply(grid, m)
			}
		}

		doc.Events = append(doc.Events, ass.Event{
			Start: seconds(t),
			End:   seconds(tEnd),
			Style: StyleName,
			Text:  ass.Pos(req.PosX, req.PosY) + ass.JoinLines(grid),
		})

		if e.progress != nil {
			e.progress(i+1, ticks)
		}
	}

	var n int64

	err = WriteFileAtomic(req.Output, func(w io.Writer) error {
		var werr error

		n, werr = doc.WriteTo(w)

		return werr
	})
	if err != nil {
		return Result{}, err
	}

	e.logger.Info("export: finished",
		slog.String("output", req.Output),
		slog.Int("events", len(doc.Events)),
		slog.Int64("bytes", n),
	)

	return Result{
		Path:     req.Output,
		Start:    seconds(start),
		Duration: seconds(duration),
		Events:   len(doc.Events),
		Bytes:    n,
	}, nil
}

func validate(req Request) error {
	err := req.Params.Validate()
	if err != nil {
		return err
	}

	err = req.Window.Validate()
	if err != nil {
		return err
	}

	if req.Output == "" {
		return fmt.Errorf("%w: no output path", ErrInvalidParameter)
	}

	if req.FontSize < 0 || math.IsNaN(req.FontSize) {
		return fmt.Errorf("%w: font size %v", ErrInvalidParameter, req.FontSize)
	}

	// Style lines are comma separated with one style per line.
	if strings.ContainsAny(req.FontName, ",\r\n") {
		return fmt.Errorf("%w: font name %q has a comma or line break", ErrInvalidParameter, req.FontName)
	}

	return nil
}

// cacheFor returns the shared cache if it was built for p, and a private
// one otherwise.
func (e *Exporter) cacheFor(p ascii.Params) *framecache.Cache {
	if e.cache != nil && e.cache.Params().Equal(p) {
		return e.cache
	}

	return framecache.New(p)
}

// document builds the header part of the output.
func (e *Exporter) document(req Request, info video.Info) *ass.Document {
	resX, resY := req.PlayResX, req.PlayResY
	if resX <= 0 || resY <= 0 {
		resX, resY = FallbackPlayResX, FallbackPlayResY
		if info.Width > 0 && info.Height > 0 {
			resX, resY = info.Width, info.Height
		}
	}

	fontName := req.FontName
	if fontName == "" {
		fontName = DefaultFontName
	}

	fontSize := req.FontSize
	if fontSize == 0 {
		fontSize = DefaultFontSize
	}

	var comments []string

	if req.GridPixelW > 0 && req.GridPixelH > 0 {
		comment := fmt.Sprintf("Grid: %dx%d px at (%d,%d)", req.GridPixelW, req.GridPixelH, req.PosX, req.PosY)

		if req.PosX+req.GridPixelW > resX || req.PosY+req.GridPixelH > resY {
			e.logger.Warn("export: grid overflows the canvas",
				slog.Int("grid_w", req.GridPixelW),
				slog.Int("grid_h", req.GridPixelH),
				slog.Int("pos_x", req.PosX),
				slog.Int("pos_y", req.PosY),
				slog.Int("play_res_x", resX),
				slog.Int("play_res_y", resY),
			)

			comment += fmt.Sprintf(", overflows %dx%d", resX, resY)
		}

		comments = append(comments, comment)
	}

	return &ass.Document{
		Info: ass.ScriptInfo{
			Comments:              comments,
			PlayResX:              resX,
			PlayResY:              resY,
			WrapStyle:             ass.WrapNone,
			ScaledBorderAndShadow: true,
		},
		Styles: []ass.Style{ass.NewStyle(StyleName, fontName, fontSize)},
	}
}

func provider(src video.Source, index int) framecache.FrameProvider {
	return func() (*image.Gray, error) {
		return video.ReadAt(src, index)
	}
}

// seconds converts s to a [time.Duration] rounded to the nanosecond.
func seconds(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}

// Package video decodes frames for conversion.
//
// A [Source] yields grayscale frames in presentation order and can be
// repositioned by frame index. Two implementations are provided: [FFmpeg]
// pipes raw gray frames out of an ffmpeg process, and [ImageSequence] reads a
// directory of PNG files. [Open] picks one by looking at the path.
//
// Sources are not safe for concurrent use. Goroutines that decode in parallel
// each open their own Source, typically through an [Opener].
package video

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"time"
)

var (
	// ErrSourceUnavailable indicates the video could not be opened, seeked or
	// decoded.
	ErrSourceUnavailable = errors.New("video source unavailable")

	// ErrEndOfStream is returned by [Source.ReadFrame] past the last frame.
	// It is [io.EOF], so either may be used with [errors.Is].
	ErrEndOfStream = io.EOF
)

// Info describes a video stream.
type Info struct {
	Width      int
	Height     int
	FPS        float64
	FrameCount int
	Duration   time.Duration
}

// Seconds returns the duration in seconds.
func (i Info) Seconds() float64 { return i.Duration.Seconds() }

// FrameAt returns the index of the frame shown at t seconds, clamped to the
// valid range. It returns 0 for streams without frames.
func (i Info) FrameAt(t float64) int {
	if i.FrameCount <= 0 || i.FPS <= 0 {
		return 0
	}

	idx := int(t*i.FPS + 0.5)

	return max(0, min(i.FrameCount-1, idx))
}

// Source is a seekable stream of grayscale frames.
type Source interface {
	// Info returns stream metadata.
	Info() Info
	// Seek positions the source so the next ReadFrame returns frame index.
	Seek(index int) error
	// ReadFrame decodes the next frame. It returns [ErrEndOfStream] after
	// the last frame.
	ReadFrame() (*image.Gray, error)
	// Close releases the decoder.
	Close() error
}

// Opener opens a new, independent [Source] for the same video.
type Opener func(ctx context.Context) (Source, error)

// Option configures [Open], [OpenFFmpeg] and [OpenImageSequence].
type Option func(*options)

type options struct {
	logger  *slog.Logger
	ffmpeg  string
	ffprobe string
	fps     float64
}

func newOptions(opts []Option) options {
	o := options{
		logger:  slog.Default(),
		ffmpeg:  "ffmpeg",
		ffprobe: "ffprobe",
		fps:     DefaultSequenceFPS,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// DefaultSequenceFPS is the frame rate assumed for image sequences.
const DefaultSequenceFPS = 24.0

// WithBinaries overrides the ffmpeg and ffprobe executables. Empty values
// keep the defaults.
func WithBinaries(ffmpeg, ffprobe string) Option {
	return func(o *options) {
		if ffmpeg != "" {
			o.ffmpeg = ffmpeg
		}

		if ffprobe != "" {
			o.ffprobe = ffprobe
		}
	}
}

// WithSequenceFPS sets the frame rate of image sequences. Non-positive
// values are ignored.
func WithSequenceFPS(fps float64) Option {
	return func(o *options) {
		if fps > 0 {
			o.fps = fps
		}
	}
}

// WithLogger sets the logger used for decoder diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Open opens path as an [ImageSequence] when it is a directory and as an
// [FFmpeg] source otherwise.
func Open(ctx context.Context, path string, opts ...Option) (Source, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	if st.IsDir() {
		return OpenImageSequence(path, opts...)
	}

	return OpenFFmpeg(ctx, path, opts...)
}

// OpenerFor returns an [Opener] that calls [Open] with path and opts.
func OpenerFor(path string, opts ...Option) Opener {
	return func(ctx context.Context) (Source, error) {
		return Open(ctx, path, opts...)
	}
}

// ReadAt seeks src to index and decodes one frame.
func ReadAt(src Source, index int) (*image.Gray, error) {
	err := src.Seek(index)
	if err != nil {
		return nil, err
	}

	return src.ReadFrame()
}

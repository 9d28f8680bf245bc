package video

import (
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// ImageSequence is a [Source] backed by a directory of PNG frames, ordered by
// file name. Frames are decoded on demand.
//
// Create instances with [OpenImageSequence].
type ImageSequence struct {
	dir   string
	names []string
	info  Info
	pos   int
}

// OpenImageSequence lists the PNG files in dir. The frame size is taken from
// the first file and the frame rate from [WithSequenceFPS].
func OpenImageSequence(dir string, opts ...Option) (*ImageSequence, error) {
	o := newOptions(opts)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: reading directory: %w", ErrSourceUnavailable, err)
	}

	var names []string

	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		if strings.HasSuffix(strings.ToLower(e.Name()), ".png") {
			names = append(names, e.Name())
		}
	}

	slices.Sort(names)

	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no PNG files found in %s", ErrSourceUnavailable, dir)
	}

	cfg, err := decodePNGConfig(filepath.Join(dir, names[0]))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %w", ErrSourceUnavailable, names[0], err)
	}

	count := len(names)

	return &ImageSequence{
		dir:   dir,
		names: names,
		info: Info{
			Width:      cfg.Width,
			Height:     cfg.Height,
			FPS:        o.fps,
			FrameCount: count,
			Duration:   time.Duration(float64(count) / o.fps * float64(time.Second)),
		},
	}, nil
}

// Info implements [Source].
func (s *ImageSequence) Info() Info { return s.info }

// Seek implements [Source].
func (s *ImageSequence) Seek(index int) error {
	if index < 0 {
		return fmt.Errorf("%w: seek to frame %d", ErrSourceUnavailable, index)
	}

	s.pos = index

	return nil
}

// ReadFrame implements [Source].
func (s *ImageSequence) ReadFrame() (*image.Gray, error) {
	if s.pos >= len(s.names) {
		return nil, ErrEndOfStream
	}

	name := s.names[s.pos]

	img, err := decodePNG(filepath.Join(s.dir, name))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %w", ErrSourceUnavailable, name, err)
	}

	s.pos++

	return ToGray(img), nil
}

// Close implements [Source].
func (s *ImageSequence) Close() error { return nil }

func decodePNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	defer func() {
		closeErr := f.Close()
		if closeErr != nil {
			slog.Warn("video: closing frame", slog.String("path", path), slog.Any("err", closeErr))
		}
	}()

	img, err := png.Decode(f)
	if err != nil {
		return nil, err
	}

	return img, nil
}

func decodePNGConfig(path string) (image.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return image.Config{}, err
	}

	defer f.Close() //nolint:errcheck // Read-only file.

	return png.DecodeConfig(f)
}

// Package videotest provides an in-memory [video.Source] for tests.
package videotest

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"go.jacobcolvin.com/asscii/video"
)

// ErrDecode is returned for frames listed in [Source.Fail].
var ErrDecode = errors.New("videotest: decode failure")

// Source is a deterministic [video.Source]. Frame i is a uniform image whose
// value is Value(i).
type Source struct {
	// Fail lists frame indices whose decode fails with [ErrDecode].
	Fail   map[int]bool
	reads  *atomic.Int64
	closed *atomic.Bool
	info   video.Info
	pos    int
}

// New returns a source of count frames at fps, each w x h pixels.
func New(w, h, count int, fps float64) *Source {
	return &Source{
		reads:  &atomic.Int64{},
		closed: &atomic.Bool{},
		info: video.Info{
			Width:      w,
			Height:     h,
			FPS:        fps,
			FrameCount: count,
			Duration:   time.Duration(float64(count) / fps * float64(time.Second)),
		},
	}
}

// Value returns the pixel value of frame i.
func Value(i int) uint8 { return uint8((i * 37) % 256) }

// Frame returns the image that frame i decodes to.
func Frame(w, h, i int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for p := range img.Pix {
		img.Pix[p] = Value(i)
	}

	return img
}

// Info implements [video.Source].
func (s *Source) Info() video.Info { return s.info }

// Seek implements [video.Source].
func (s *Source) Seek(index int) error {
	if index < 0 {
		return fmt.Errorf("%w: seek to frame %d", video.ErrSourceUnavailable, index)
	}

	s.pos = index

	return nil
}

// ReadFrame implements [video.Source].
func (s *Source) ReadFrame() (*image.Gray, error) {
	if s.pos >= s.info.FrameCount {
		return nil, video.ErrEndOfStream
	}

	i := s.pos
	s.pos++
	s.reads.Add(1)

	if s.Fail[i] {
		return nil, fmt.Errorf("%w: frame %d", ErrDecode, i)
	}

	return Frame(s.info.Width, s.info.Height, i), nil
}

// Close implements [video.Source].
func (s *Source) Close() error {
	s.closed.Store(true)

	return nil
}

// Reads returns the number of frames decoded, including failures.
func (s *Source) Reads() int { return int(s.reads.Load()) }

// Closed reports whether Close was called.
func (s *Source) Closed() bool { return s.closed.Load() }

// Opener hands out independent copies of a template [Source] and remembers
// every copy so tests can inspect them.
type Opener struct {
	// Err, when set, is returned by every Open call.
	Err      error
	template *Source
	opened   []*Source
	mu       sync.Mutex
}

// NewOpener returns an Opener cloning template.
func NewOpener(template *Source) *Opener {
	return &Opener{template: template}
}

// Open is a [video.Opener].
func (o *Opener) Open(_ context.Context) (video.Source, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.Err != nil {
		return nil, o.Err
	}

	src := New(o.template.info.Width, o.template.info.Height,
		o.template.info.FrameCount, o.template.info.FPS)
	src.Fail = o.template.Fail
	o.opened = append(o.opened, src)

	return src, nil
}

// Opened returns the sources handed out so far.
func (o *Opener) Opened() []*Source {
	o.mu.Lock()
	defer o.mu.Unlock()

	return append([]*Source(nil), o.opened...)
}

// Reads returns the total number of frames decoded by every opened source.
func (o *Opener) Reads() int {
	n := 0
	for _, s := range o.Opened() {
		n += s.Reads()
	}

	return n
}

package video_test

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.jacobcolvin.com/asscii/video"
)

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)

	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func sequenceDir(t *testing.T, n int) string {
	t.Helper()

	dir := t.TempDir()
	for i := range n {
		img := image.NewRGBA(image.Rect(0, 0, 4, 3))
		for p := 0; p < len(img.Pix); p += 4 {
			v := uint8(i * 50)
			img.Pix[p], img.Pix[p+1], img.Pix[p+2], img.Pix[p+3] = v, v, v, 255
		}

		// Written out of order; the source sorts by name.
		writePNG(t, filepath.Join(dir, "frame_"+string(rune('a'+n-1-i))+".png"), img)
	}

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o600))

	return dir
}

func TestImageSequence(t *testing.T) {
	t.Parallel()

	dir := sequenceDir(t, 3)

	src, err := video.OpenImageSequence(dir, video.WithSequenceFPS(10))
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, src.Close()) })

	info := src.Info()
	assert.Equal(t, 4, info.Width)
	assert.Equal(t, 3, info.Height)
	assert.Equal(t, 3, info.FrameCount)
	assert.InDelta(t, 10.0, info.FPS, 1e-9)
	assert.InDelta(t, 0.3, info.Duration.Seconds(), 1e-6)

	// frame_a holds the last-written image (i = 2).
	first, err := src.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, uint8(100), first.GrayAt(0, 0).Y)

	last, err := video.ReadAt(src, 2)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), last.GrayAt(3, 2).Y)

	_, err = src.ReadFrame()
	require.ErrorIs(t, err, video.ErrEndOfStream)

	require.ErrorIs(t, src.Seek(-1), video.ErrSourceUnavailable)
}

func TestOpenPicksImageSequence(t *testing.T) {
	t.Parallel()

	src, err := video.Open(context.Background(), sequenceDir(t, 2))
	require.NoError(t, err)

	_, ok := src.(*video.ImageSequence)
	assert.True(t, ok)
	assert.InDelta(t, video.DefaultSequenceFPS, src.Info().FPS, 1e-9)
}

func TestOpenErrors(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		path func(t *testing.T) string
	}{
		"missing path": {
			path: func(t *testing.T) string {
				t.Helper()

				return filepath.Join(t.TempDir(), "missing.mp4")
			},
		},
		"empty directory": {
			path: func(t *testing.T) string {
				t.Helper()

				return t.TempDir()
			},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := video.Open(context.Background(), tc.path(t))
			require.ErrorIs(t, err, video.ErrSourceUnavailable)
		})
	}
}

func TestToGray(t *testing.T) {
	t.Parallel()

	rgba := image.NewRGBA(image.Rect(5, 5, 7, 6))
	rgba.Set(5, 5, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	rgba.Set(6, 5, color.RGBA{A: 255})

	g := video.ToGray(rgba)
	assert.Equal(t, image.Rect(0, 0, 2, 1), g.Bounds())
	assert.Equal(t, uint8(255), g.GrayAt(0, 0).Y)
	assert.Equal(t, uint8(0), g.GrayAt(1, 0).Y)

	same := image.NewGray(image.Rect(0, 0, 2, 2))
	assert.Same(t, same, video.ToGray(same))
}

func TestInfoFrameAt(t *testing.T) {
	t.Parallel()

	info := video.Info{FPS: 25, FrameCount: 100}

	tcs := map[string]struct {
		t    float64
		want int
	}{
		"start":         {t: 0, want: 0},
		"rounds":        {t: 0.03, want: 1},
		"one second":    {t: 1, want: 25},
		"past the end":  {t: 10, want: 99},
		"negative time": {t: -1, want: 0},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, info.FrameAt(tc.t))
		})
	}

	assert.Equal(t, 0, video.Info{}.FrameAt(3))
}

package player

import (
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.jacobcolvin.com/asscii/ascii"
	"go.jacobcolvin.com/asscii/framecache"
	"go.jacobcolvin.com/asscii/log"
	"go.jacobcolvin.com/asscii/mask"
	"go.jacobcolvin.com/asscii/render"
	"go.jacobcolvin.com/asscii/video"
	"go.jacobcolvin.com/asscii/video/videotest"
)

func testParams() ascii.Params {
	p := ascii.DefaultParams()
	p.Cols, p.Rows = 10, 5
	p.Charset = "Classic (10)"
	p.Invert = false

	return p
}

func key(s string) tea.KeyPressMsg {
	switch s {
	case "space":
		return tea.KeyPressMsg{Code: tea.KeySpace, Text: " "}
	case "left":
		return tea.KeyPressMsg{Code: tea.KeyLeft}
	case "right":
		return tea.KeyPressMsg{Code: tea.KeyRight}
	case "up":
		return tea.KeyPressMsg{Code: tea.KeyUp}
	case "down":
		return tea.KeyPressMsg{Code: tea.KeyDown}
	case "enter":
		return tea.KeyPressMsg{Code: tea.KeyEnter}
	case "esc":
		return tea.KeyPressMsg{Code: tea.KeyEscape}
	case "backspace":
		return tea.KeyPressMsg{Code: tea.KeyBackspace}
	case "pgup":
		return tea.KeyPressMsg{Code: tea.KeyPgUp}
	case "pgdown":
		return tea.KeyPressMsg{Code: tea.KeyPgDown}
	case "end":
		return tea.KeyPressMsg{Code: tea.KeyEnd}
	}

	return tea.KeyPressMsg{Code: []rune(s)[0], Text: s}
}

func press(m *Model, keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = m.Update(key(k))
	}

	return cmd
}

func newModel(t *testing.T, count int, opts ...Option) *Model {
	t.Helper()

	src := videotest.New(40, 20, count, 25)
	m := New(src, framecache.New(testParams()), opts...)
	m.Init()

	return m
}

// shortSource reports more frames than it can decode.
type shortSource struct {
	*videotest.Source
	decodable int
	pos       int
}

func (s *shortSource) Seek(index int) error {
	s.pos = index

	return s.Source.Seek(index)
}

func (s *shortSource) ReadFrame() (*image.Gray, error) {
	if s.pos >= s.decodable {
		return nil, video.ErrEndOfStream
	}

	s.pos++

	return s.Source.ReadFrame()
}

func TestInitShowsFirstFrame(t *testing.T) {
	t.Parallel()

	src := videotest.New(40, 20, 10, 25)
	m := New(src, framecache.New(testParams()))

	cmd := m.Init()
	assert.NotNil(t, cmd, "playback starts with a tick")
	assert.True(t, m.Playing())
	assert.Equal(t, 0, m.Index())

	grid := m.Grid()
	require.Equal(t, 5, grid.Rows())
	assert.Equal(t, "@@@@@@@@@@", grid[0])

	paused := New(videotest.New(40, 20, 10, 25), framecache.New(testParams()), WithPaused())
	assert.Nil(t, paused.Init())
	assert.False(t, paused.Playing())
}

func TestTick(t *testing.T) {
	t.Parallel()

	m := newModel(t, 3)

	_, cmd := m.Update(tickMsg{session: m.session})
	assert.NotNil(t, cmd)
	assert.Equal(t, 1, m.Index())

	_, cmd = m.Update(tickMsg{session: m.session - 1})
	assert.Nil(t, cmd, "ticks of an older play session are dropped")
	assert.Equal(t, 1, m.Index())

	m.Update(tickMsg{session: m.session})
	assert.Equal(t, 2, m.Index())

	m.Update(tickMsg{session: m.session})
	assert.Equal(t, 0, m.Index(), "playback loops at the end")
}

func TestTickLoopsAtShortStream(t *testing.T) {
	t.Parallel()

	src := &shortSource{Source: videotest.New(40, 20, 10, 25), decodable: 2}
	m := New(src, framecache.New(testParams()))
	m.Init()

	m.Update(tickMsg{session: m.session})
	assert.Equal(t, 1, m.Index())

	m.Update(tickMsg{session: m.session})
	assert.Equal(t, 0, m.Index(), "a stream shorter than its frame count loops early")
	assert.True(t, m.Playing())
}

func TestTickWhilePaused(t *testing.T) {
	t.Parallel()

	m := newModel(t, 10)
	press(m, "space")
	assert.False(t, m.Playing())

	_, cmd := m.Update(tickMsg{session: m.session})
	assert.Nil(t, cmd)
	assert.Equal(t, 0, m.Index())

	cmd = press(m, "space")
	assert.True(t, m.Playing())
	assert.NotNil(t, cmd, "resuming schedules a tick")
}

func TestStepKeys(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		keys []string
		want int
	}{
		"step forward": {
			keys: []string{".", "."},
			want: 2,
		},
		"step back": {
			keys: []string{".", ".", ".", ","},
			want: 2,
		},
		"step back at start": {
			keys: []string{","},
			want: 0,
		},
		"step past the end": {
			keys: []string{".", ".", ".", ".", "."},
			want: 3,
		},
		"rewind": {
			keys: []string{".", ".", "0"},
			want: 0,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			m := newModel(t, 4)
			press(m, tc.keys...)

			assert.Equal(t, tc.want, m.Index())
			assert.False(t, m.Playing(), "stepping pauses playback")
		})
	}
}

func TestCursor(t *testing.T) {
	t.Parallel()

	m := newModel(t, 4)

	press(m, "right", "l", "down", "j", "j")

	row, col := m.Cursor()
	assert.Equal(t, 3, row)
	assert.Equal(t, 2, col)

	press(m, "up", "k", "k", "k", "k", "left", "h", "h")

	row, col = m.Cursor()
	assert.Zero(t, row, "cursor clamps at the top")
	assert.Zero(t, col, "cursor clamps at the left")

	for range 20 {
		press(m, "l", "j")
	}

	row, col = m.Cursor()
	assert.Equal(t, 4, row)
	assert.Equal(t, 9, col)
}

func TestEraseKeys(t *testing.T) {
	t.Parallel()

	m := newModel(t, 4)

	press(m, "space", "x", "l", "x")
	assert.Equal(t, "  @@@@@@@@", m.Grid()[0])

	press(m, "z")
	assert.Equal(t, " @@@@@@@@@", m.Grid()[0])

	press(m, ".")
	assert.Equal(t, "%%%%%%%%%%", m.Grid()[0], "masks are per frame")

	press(m, ",", "c")
	assert.Equal(t, "@@@@@@@@@@", m.Grid()[0])
	assert.Contains(t, m.Status(), "cleared")
}

func TestParamKeys(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		keys  []string
		check func(*testing.T, ascii.Params)
	}{
		"more columns": {
			keys: []string{"]"},
			check: func(t *testing.T, p ascii.Params) {
				t.Helper()
				assert.Equal(t, 12, p.Cols)
			},
		},
		"columns clamp to the minimum": {
			keys: []string{"[", "["},
			check: func(t *testing.T, p ascii.Params) {
				t.Helper()
				assert.Equal(t, ascii.MinCols, p.Cols)
			},
		},
		"rows": {
			keys: []string{"=", "=", "-"},
			check: func(t *testing.T, p ascii.Params) {
				t.Helper()
				assert.Equal(t, 6, p.Rows)
			},
		},
		"fps": {
			keys: []string{">", ">", "<"},
			check: func(t *testing.T, p ascii.Params) {
				t.Helper()
				assert.InDelta(t, ascii.DefaultParams().FPS+1, p.FPS, 1e-9)
			},
		},
		"charset cycles": {
			keys: []string{"n"},
			check: func(t *testing.T, p ascii.Params) {
				t.Helper()

				names := ascii.CharsetNames()
				i := 0

				for j, n := range names {
					if n == "Classic (10)" {
						i = j
					}
				}

				assert.Equal(t, names[(i+1)%len(names)], p.Charset)
			},
		},
		"toggles": {
			keys: []string{"i", "b"},
			check: func(t *testing.T, p ascii.Params) {
				t.Helper()
				assert.True(t, p.Invert)
				assert.True(t, p.Binarize)
			},
		},
		"gamma": {
			keys: []string{"G", "G", "g"},
			check: func(t *testing.T, p ascii.Params) {
				t.Helper()
				assert.InDelta(t, 1.1, p.Gamma, 1e-9)
			},
		},
		"gamma clamps": {
			keys: []string{"g", "g", "g", "g", "g", "g", "g", "g", "g", "g"},
			check: func(t *testing.T, p ascii.Params) {
				t.Helper()
				assert.InDelta(t, 0.3, p.Gamma, 1e-9)
			},
		},
		"contrast": {
			keys: []string{"V", "V", "V", "v"},
			check: func(t *testing.T, p ascii.Params) {
				t.Helper()
				assert.InDelta(t, 1.2, p.Contrast, 1e-9)
			},
		},
		"brightness": {
			keys: []string{"d", "d", "D"},
			check: func(t *testing.T, p ascii.Params) {
				t.Helper()
				assert.InDelta(t, -10, p.Brightness, 1e-9)
			},
		},
		"brightness clamps": {
			keys: []string{"D", "D", "D", "D", "D", "D", "D", "D", "D", "D", "D", "D"},
			check: func(t *testing.T, p ascii.Params) {
				t.Helper()
				assert.InDelta(t, 100, p.Brightness, 1e-9)
			},
		},
		"threshold": {
			keys: []string{"Y", "y", "y"},
			check: func(t *testing.T, p ascii.Params) {
				t.Helper()
				assert.Equal(t, 120, p.Threshold)
			},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			m := newModel(t, 4)
			press(m, tc.keys...)
			tc.check(t, m.Params())
		})
	}
}

func TestParamChangeReconverts(t *testing.T) {
	t.Parallel()

	masks := mask.NewStore(5, 10)
	m := newModel(t, 4, WithMasks(masks))

	press(m, "x")
	assert.Equal(t, ' ', []rune(m.Grid()[0])[0])

	press(m, "i")
	assert.Equal(t, " ", m.Grid()[0][:1], "tone changes keep masks")
	assert.Equal(t, "          ", m.Grid()[1], "inverted black is blank")

	press(m, "]")
	assert.Equal(t, 12, m.Grid().Cols())
	assert.Zero(t, masks.Len(), "resizing the grid discards masks")

	rows, cols := masks.Dimensions()
	assert.Equal(t, 5, rows)
	assert.Equal(t, 12, cols)
}

func TestToneKeyReconverts(t *testing.T) {
	t.Parallel()

	m := newModel(t, 4)

	press(m, ".", ".", "0")
	require.Equal(t, 3, m.cache.Len())
	assert.Equal(t, "@@@@@@@@@@", m.Grid()[0])

	press(m, "D", "D", "D", "D", "D")

	assert.Equal(t, 1, m.cache.Len(), "tone changes drop cached frames")

	_, ok := m.cache.Get(1)
	assert.False(t, ok)

	// Black at brightness 50 tones to 63.
	assert.Equal(t, "##########", m.Grid()[0])
	assert.Equal(t, ascii.Quantize(videotest.Frame(40, 20, 0), m.Params()), m.Grid())
	assert.Contains(t, m.statusLine(), "brightness +50")
}

func TestSeekKeys(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		keys []string
		want int
	}{
		"jump forward": {
			keys: []string{"}", "}"},
			want: 50,
		},
		"jump back": {
			keys: []string{"pgdown", "pgdown", "pgdown", "{"},
			want: 50,
		},
		"jump back clamps": {
			keys: []string{".", "pgup"},
			want: 0,
		},
		"jump forward clamps": {
			keys: []string{"}", "}", "}", "}", "}"},
			want: 99,
		},
		"last frame": {
			keys: []string{"end"},
			want: 99,
		},
		"go to": {
			keys: []string{":", "4", "2", "enter"},
			want: 42,
		},
		"go to with correction": {
			keys: []string{":", "7", "9", "backspace", "1", "enter"},
			want: 71,
		},
		"go to past the end": {
			keys: []string{":", "5", "0", "0", "enter"},
			want: 99,
		},
		"go to cancelled": {
			keys: []string{".", ":", "6", "esc"},
			want: 1,
		},
		"go to ignores other keys": {
			keys: []string{":", "x", "1", "0", "q", "enter"},
			want: 10,
		},
		"empty go to": {
			keys: []string{".", ":", "enter"},
			want: 1,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			m := newModel(t, 100)
			cmd := press(m, tc.keys...)

			assert.Nil(t, cmd)
			assert.Equal(t, tc.want, m.Index())
			assert.False(t, m.Playing(), "seeking pauses playback")
			assert.False(t, m.entering)
			assert.Equal(t, ascii.Quantize(videotest.Frame(40, 20, tc.want), m.Params()), m.Grid())
		})
	}
}

func TestGoToStatus(t *testing.T) {
	t.Parallel()

	m := newModel(t, 100)

	press(m, ":", "1", "2")
	assert.Equal(t, "go to frame: 12", m.Status())
	assert.Zero(t, m.Index(), "nothing moves before enter")

	press(m, "x")
	assert.Zero(t, m.masks.Len(), "keys are not commands while typing")
}

func TestAspectLock(t *testing.T) {
	t.Parallel()

	p := testParams()
	p.Cols = 40

	src := videotest.New(40, 20, 4, 25)
	m := New(src, framecache.New(p), WithMetrics(render.BasicFace()))
	m.Init()

	assert.Equal(t, 5, m.Params().Rows)

	press(m, "a")

	// 40 cols of 7px cells over a 2:1 video with 13px rows.
	assert.Equal(t, 11, m.Params().Rows)
	assert.Equal(t, 11, m.Grid().Rows())

	press(m, "]")
	assert.Equal(t, 42, m.Params().Cols)
	assert.Equal(t, 11, m.Params().Rows)

	press(m, "=")
	assert.Equal(t, 11, m.Params().Rows, "rows follow cols while locked")

	locked := New(videotest.New(40, 20, 4, 25), framecache.New(p),
		WithMetrics(render.BasicFace()), WithAspectLock(true))
	assert.Equal(t, 11, locked.Params().Rows)
}

func TestWriteText(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	m := newModel(t, 4, WithTextPath(func(index int) string {
		return filepath.Join(dir, "frame-"+strconv.Itoa(index)+".txt")
	}))

	press(m, ".", "x")

	cmd := press(m, "t")
	require.NotNil(t, cmd)

	msg := cmd()
	m.Update(msg)

	path := filepath.Join(dir, "frame-1.txt")
	assert.Contains(t, m.Status(), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, m.Grid().String(), string(data))
	assert.True(t, strings.HasPrefix(string(data), " %%%%"))

	assert.Nil(t, press(newModel(t, 4), "t"), "text export needs a path")
}

func TestSaveMasks(t *testing.T) {
	t.Parallel()

	var saved map[int]*mask.Mask

	m := newModel(t, 4, WithSave(func(s *mask.Store) error {
		saved = s.All()

		return nil
	}))

	press(m, "x")

	cmd := press(m, "w")
	require.NotNil(t, cmd)

	m.Update(cmd())

	require.Len(t, saved, 1)
	assert.True(t, saved[0].At(0, 0))
	assert.Equal(t, "saved masks", m.Status())
}

func TestDecodeFailurePauses(t *testing.T) {
	t.Parallel()

	src := videotest.New(40, 20, 4, 25)
	src.Fail = map[int]bool{1: true}

	m := New(src, framecache.New(testParams()))
	m.Init()

	m.Update(tickMsg{session: m.session})

	assert.False(t, m.Playing())
	assert.Equal(t, 0, m.Index(), "the last good frame stays visible")
	assert.Contains(t, m.Status(), "frame 1")
}

func TestView(t *testing.T) {
	t.Parallel()

	tail := log.NewTail()
	_, err := tail.Write([]byte("level=INFO msg=\"player: opened\"\n"))
	require.NoError(t, err)

	m := newModel(t, 4, WithTail(tail))
	m.Update(tea.WindowSizeMsg{Width: 30, Height: 10})

	v := m.View()
	assert.True(t, v.AltScreen)

	content := m.statusLine()
	assert.Contains(t, content, "frame 0/3")
	assert.Contains(t, content, "10x5")
	assert.Contains(t, content, "Classic (10)")

	assert.Equal(t, 30, len([]rune(m.truncate(content))), "status is cut to the window width")

	line, _, ok := m.logLine()
	require.True(t, ok)
	assert.Contains(t, line, "player: opened")

	press(m, "?")
	assert.True(t, m.help)
}

func TestPrefetchScheduled(t *testing.T) {
	t.Parallel()

	cache := framecache.New(testParams())
	opener := videotest.NewOpener(videotest.New(40, 20, 50, 25))
	pf := framecache.NewPrefetcher(cache, opener.Open, framecache.WithRadius(2))

	require.NoError(t, pf.Start(t.Context()))

	t.Cleanup(func() {
		assert.NoError(t, pf.Stop())
	})

	m := New(videotest.New(40, 20, 50, 25), cache, WithPrefetcher(pf))
	m.Init()
	press(m, ".", ".", ".", ".", ".")

	require.Eventually(t, func() bool {
		for _, i := range []int{3, 4, 6, 7} {
			if _, ok := cache.Get(i); !ok {
				return false
			}
		}

		return true
	}, 5*time.Second, 5*time.Millisecond)
}

func TestFit(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		width, height      int
		wantCols, wantRows int
	}{
		"terminal":      {width: 120, height: 40, wantCols: 120, wantRows: 38},
		"tiny terminal": {width: 4, height: 3, wantCols: ascii.MinCols, wantRows: ascii.MinRows},
		"unknown size":  {width: 0, height: 0, wantCols: 10, wantRows: 5},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			p := Fit(testParams(), tc.width, tc.height)
			assert.Equal(t, tc.wantCols, p.Cols)
			assert.Equal(t, tc.wantRows, p.Rows)
		})
	}
}

// Package player previews ASCII conversion of a video in the terminal.
//
// [Model] is a Bubble Tea model. It plays source frames at the ASCII frame
// rate, looping at the end of the stream, and converts each one through a
// shared [framecache.Cache] that a [framecache.Prefetcher] keeps warm around
// the playhead. While playing or paused, erase masks for the shown frame
// can be edited cell by cell with a keyboard cursor.
//
// Conversion parameters, tone included, change live from the keyboard. A
// change invalidates the cache and reconverts the shown frame. Seeking by
// second or to a typed frame number moves the prefetch window with it.
package player

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/mattn/go-runewidth"

	"go.jacobcolvin.com/asscii/ascii"
	"go.jacobcolvin.com/asscii/export"
	"go.jacobcolvin.com/asscii/framecache"
	"go.jacobcolvin.com/asscii/log"
	"go.jacobcolvin.com/asscii/mask"
	"go.jacobcolvin.com/asscii/render"
	"go.jacobcolvin.com/asscii/video"
)

// SaveFunc persists the masks of the open video.
type SaveFunc func(masks *mask.Store) error

// TextPathFunc names the text file written for a source frame.
type TextPathFunc func(index int) string

// Option configures a [Model].
type Option func(*Model)

// WithPrefetcher schedules neighbor conversion around every shown frame.
func WithPrefetcher(p *framecache.Prefetcher) Option {
	return func(m *Model) {
		m.prefetch = p
	}
}

// WithMasks sets the mask store. By default masks live only in memory.
func WithMasks(s *mask.Store) Option {
	return func(m *Model) {
		if s != nil {
			m.masks = s
		}
	}
}

// WithMetrics sets the font metrics used for aspect lock.
func WithMetrics(metrics render.Metrics) Option {
	return func(m *Model) {
		m.cellW, m.cellH = render.CellSize(metrics)
	}
}

// WithAspectLock derives rows from cols and the video aspect ratio.
func WithAspectLock(on bool) Option {
	return func(m *Model) {
		m.aspectLock = on
	}
}

// WithTail shows the newest log line in the status bar.
func WithTail(t *log.Tail) Option {
	return func(m *Model) {
		m.tail = t
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Model) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithSave enables the save key.
func WithSave(fn SaveFunc) Option {
	return func(m *Model) {
		m.save = fn
	}
}

// WithTextPath enables the text export key.
func WithTextPath(fn TextPathFunc) Option {
	return func(m *Model) {
		m.textPath = fn
	}
}

// WithPaused starts the player paused.
func WithPaused() Option {
	return func(m *Model) {
		m.playing = false
	}
}

// tickMsg advances playback. Ticks from an earlier play session are
// ignored.
type tickMsg struct {
	session int
}

// doneMsg reports the outcome of a background save or text export.
type doneMsg struct {
	err  error
	what string
}

// Model is the Bubble Tea model of the preview.
//
// Create instances with [New].
type Model struct {
	src      video.Source
	cache    *framecache.Cache
	prefetch *framecache.Prefetcher
	masks    *mask.Store
	tail     *log.Tail
	logger   *slog.Logger
	save     SaveFunc
	textPath TextPathFunc
	grid     ascii.Grid
	status   string
	info     video.Info
	index    int
	row      int
	col      int
	cellW    int
	cellH    int
	width    int
	session  int
	entry    string
	playing  bool
	loaded   bool
	help     bool
	entering bool

	aspectLock bool
}

// New returns a [Model] playing src through cache. The cache parameters
// are the initial conversion parameters.
func New(src video.Source, cache *framecache.Cache, opts ...Option) *Model {
	p := cache.Params()

	m := &Model{
		src:     src,
		cache:   cache,
		info:    src.Info(),
		masks:   mask.NewStore(p.Rows, p.Cols),
		logger:  slog.Default(),
		playing: true,
	}
	for _, opt := range opts {
		opt(m)
	}

	m.masks.SetDimensions(p.Rows, p.Cols)

	if m.aspectLock {
		m.setParams(p)
	}

	return m
}

// Index returns the shown source frame.
func (m *Model) Index() int { return m.index }

// Playing reports whether playback is running.
func (m *Model) Playing() bool { return m.playing }

// Params returns the live conversion parameters.
func (m *Model) Params() ascii.Params { return m.cache.Params() }

// Cursor returns the edit cursor cell.
func (m *Model) Cursor() (row, col int) { return m.row, m.col }

// Status returns the last status message.
func (m *Model) Status() string { return m.status }

// Grid returns the shown grid with its mask applied.
func (m *Model) Grid() ascii.Grid {
	return mask.Apply(m.grid, m.masks.Lookup(m.index))
}

// Init shows the first frame and starts playback.
func (m *Model) Init() tea.Cmd {
	m.display(0)

	if m.playing {
		return m.tick()
	}

	return nil
}

// Update handles ticks, keys, resizes and background results.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		return m, m.handleKey(msg.String())

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tickMsg:
		if !m.playing || msg.session != m.session {
			return m, nil
		}

		m.advance()

		if !m.playing {
			return m, nil
		}

		return m, m.tick()

	case doneMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("%s failed: %v", msg.what, msg.err)
			m.logger.Error("player: "+msg.what, slog.Any("err", msg.err))
		} else {
			m.status = msg.what
		}
	}

	return m, nil
}

func (m *Model) handleKey(key string) tea.Cmd {
	if m.entering {
		return m.handleEntry(key)
	}

	p := m.cache.Params()

	switch key {
	case "q", "ctrl+c", "esc":
		return tea.Quit

	case "space":
		m.playing = !m.playing
		if m.playing {
			return m.tick()
		}

	case ",":
		m.playing = false
		m.display(max(0, m.index-1))

	case ".":
		m.playing = false
		m.display(m.index + 1)

	case "0", "home":
		m.seek(0)
	case "end":
		m.seek(max(0, m.info.FrameCount-1))
	case "{", "pgup":
		m.seek(max(0, m.index-m.secondOfFrames()))
	case "}", "pgdown":
		m.seek(m.index + m.secondOfFrames())
	case ":":
		m.playing = false
		m.entering = true
		m.entry = ""
		m.status = "go to frame: "

	case "left", "h":
		m.moveCursor(0, -1)
	case "right", "l":
		m.moveCursor(0, 1)
	case "up", "k":
		m.moveCursor(-1, 0)
	case "down", "j":
		m.moveCursor(1, 0)

	case "x":
		m.masks.SetCell(m.index, m.row, m.col, true)
	case "z":
		m.masks.SetCell(m.index, m.row, m.col, false)
	case "c":
		if m.masks.Clear(m.index) {
			m.status = fmt.Sprintf("cleared mask of frame %d", m.index)
		}

	case "[":
		p.Cols -= colsStep
		m.setParams(p)
	case "]":
		p.Cols += colsStep
		m.setParams(p)
	case "-":
		p.Rows -= rowsStep
		m.setParams(p)
	case "=", "+":
		p.Rows += rowsStep
		m.setParams(p)
	case "<":
		p.FPS -= fpsStep
		m.setParams(p)
	case ">":
		p.FPS += fpsStep
		m.setParams(p)

	case "g":
		p.Gamma = stepTone(p.Gamma, -toneStep)
		m.setParams(p)
	case "G":
		p.Gamma = stepTone(p.Gamma, toneStep)
		m.setParams(p)
	case "v":
		p.Contrast = stepTone(p.Contrast, -toneStep)
		m.setParams(p)
	case "V":
		p.Contrast = stepTone(p.Contrast, toneStep)
		m.setParams(p)
	case "d":
		p.Brightness -= brightnessStep
		m.setParams(p)
	case "D":
		p.Brightness += brightnessStep
		m.setParams(p)
	case "y":
		p.Threshold -= thresholdStep
		m.setParams(p)
	case "Y":
		p.Threshold += thresholdStep
		m.setParams(p)

	case "n":
		p.Charset = nextCharset(p.Charset)
		m.setParams(p)
	case "i":
		p.Invert = !p.Invert
		m.setParams(p)
	case "b":
		p.Binarize = !p.Binarize
		m.setParams(p)
	case "a":
		m.aspectLock = !m.aspectLock
		m.setParams(p)

	case "t":
		return m.writeText()
	case "w":
		return m.saveMasks()

	case "?":
		m.help = !m.help
	}

	return nil
}

// handleEntry edits the go-to frame number typed after ":".
func (m *Model) handleEntry(key string) tea.Cmd {
	switch key {
	case "ctrl+c":
		return tea.Quit

	case "esc":
		m.entering = false
		m.status = ""

		return nil

	case "enter":
		m.entering = false
		m.status = ""

		n, err := strconv.Atoi(m.entry)
		if err == nil {
			m.seek(n)
		}

		return nil

	case "backspace":
		if m.entry != "" {
			m.entry = m.entry[:len(m.entry)-1]
		}

	default:
		if len(key) == 1 && key[0] >= '0' && key[0] <= '9' && len(m.entry) < maxEntry {
			m.entry += key
		}
	}

	m.status = "go to frame: " + m.entry

	return nil
}

// seek pauses playback and shows frame index, clamped to the video.
func (m *Model) seek(index int) {
	m.playing = false

	if m.info.FrameCount > 0 {
		index = min(index, m.info.FrameCount-1)
	}

	m.display(max(0, index))
}

// secondOfFrames is the number of source frames in one second of video.
func (m *Model) secondOfFrames() int {
	return max(1, int(math.Round(m.info.FPS)))
}

func nextCharset(name string) string {
	names := ascii.CharsetNames()

	i := slices.Index(names, name)

	return names[(i+1)%len(names)]
}

func (m *Model) tick() tea.Cmd {
	m.session++
	session := m.session

	fps := max(m.cache.Params().FPS, ascii.MinFPS)

	return tea.Tick(time.Duration(float64(time.Second)/fps), func(time.Time) tea.Msg {
		return tickMsg{session: session}
	})
}

// advance shows the next source frame, looping to the first at the end of
// the stream.
func (m *Model) advance() {
	next := m.index + 1
	if m.info.FrameCount > 0 && next >= m.info.FrameCount {
		next = 0
	}

	err := m.show(next)
	if errors.Is(err, framecache.ErrNoFrame) && next != 0 {
		// The stream ended before the reported frame count.
		m.display(0)
	}
}

// display shows frame index and reports failures in the status bar.
func (m *Model) display(index int) {
	err := m.show(index)
	if errors.Is(err, framecache.ErrNoFrame) {
		m.status = fmt.Sprintf("no frame %d", index)
	}
}

// show converts and displays frame index. When the frame cannot be decoded
// playback pauses and the previous frame stays visible. A missing frame
// returns [framecache.ErrNoFrame] and changes nothing.
func (m *Model) show(index int) error {
	if m.info.FrameCount > 0 {
		index = min(index, m.info.FrameCount-1)
	}

	grid, err := m.cache.Ensure(index, func() (*image.Gray, error) {
		return video.ReadAt(m.src, index)
	})
	if errors.Is(err, framecache.ErrNoFrame) {
		return err
	}

	if err != nil {
		m.playing = false
		m.status = fmt.Sprintf("frame %d: %v", index, err)
		m.logger.Error("player: decoding frame", slog.Int("frame", index), slog.Any("err", err))

		return err
	}

	m.index, m.grid, m.loaded = index, grid, true

	if m.prefetch != nil {
		m.prefetch.Schedule(index)
	}

	return nil
}

// setParams normalizes p, applies aspect lock, and swaps it into the cache.
// Changing the grid shape discards every mask.
func (m *Model) setParams(p ascii.Params) {
	p = p.Normalize()

	if m.aspectLock {
		p.Rows = ascii.LockedRows(p.Rows, p.Cols, m.info.Width, m.info.Height, m.cellW, m.cellH)
	}

	if m.masks.SetDimensions(p.Rows, p.Cols) {
		m.masks.Reset()
		m.logger.Debug("player: grid resized, masks reset", slog.Int("rows", p.Rows), slog.Int("cols", p.Cols))
	}

	m.row = min(m.row, p.Rows-1)
	m.col = min(m.col, p.Cols-1)

	if m.cache.SetParams(p) && m.loaded {
		m.display(m.index)
	}
}

func (m *Model) moveCursor(dr, dc int) {
	p := m.cache.Params()

	m.row = max(0, min(p.Rows-1, m.row+dr))
	m.col = max(0, min(p.Cols-1, m.col+dc))
}

func (m *Model) writeText() tea.Cmd {
	if m.textPath == nil || !m.loaded {
		return nil
	}

	path := m.textPath(m.index)
	grid := m.Grid()

	return func() tea.Msg {
		err := export.WriteText(path, grid)

		return doneMsg{what: "wrote " + path, err: err}
	}
}

func (m *Model) saveMasks() tea.Cmd {
	if m.save == nil {
		return nil
	}

	masks := m.masks

	save := m.save

	return func() tea.Msg {
		return doneMsg{what: "saved masks", err: save(masks)}
	}
}

var (
	cursorStyle = lipgloss.NewStyle().Reverse(true)
	statusStyle = lipgloss.NewStyle().Faint(true)
	helpStyle   = lipgloss.NewStyle().Bold(true)
)

// View renders the grid, the status bar and, if toggled, the help.
func (m *Model) View() tea.View {
	var b strings.Builder

	if m.help {
		for _, kb := range bindings {
			fmt.Fprintf(&b, "%s  %s\n", helpStyle.Render(fmt.Sprintf("%-14s", kb.keys)), kb.help)
		}
	} else {
		m.writeGrid(&b)
	}

	b.WriteString(statusStyle.Render(m.truncate(m.statusLine())))

	if line, _, ok := m.logLine(); ok {
		b.WriteByte('\n')
		b.WriteString(statusStyle.Render(m.truncate(line)))
	}

	v := tea.NewView(b.String())
	v.AltScreen = true
	v.WindowTitle = "asscii"

	return v
}

func (m *Model) writeGrid(b *strings.Builder) {
	for r, line := range m.Grid() {
		if r != m.row {
			b.WriteString(line)
			b.WriteByte('\n')

			continue
		}

		for c, g := range []rune(line) {
			if c == m.col {
				b.WriteString(cursorStyle.Render(string(g)))
			} else {
				b.WriteRune(g)
			}
		}

		b.WriteByte('\n')
	}
}

func (m *Model) statusLine() string {
	p := m.cache.Params()

	state := "paused"
	if m.playing {
		state = "playing"
	}

	last := max(0, m.info.FrameCount-1)

	parts := []string{
		fmt.Sprintf("frame %d/%d", m.index, last),
		state,
		fmt.Sprintf("%dx%d @ %.1f fps", p.Cols, p.Rows, p.FPS),
		p.Charset,
		fmt.Sprintf("gamma %.2f contrast %.2f brightness %+.0f", p.Gamma, p.Contrast, p.Brightness),
		fmt.Sprintf("cursor %d,%d", m.row, m.col),
		fmt.Sprintf("masks %d", len(m.masks.All())),
	}

	if p.Binarize {
		parts = append(parts, fmt.Sprintf("threshold %d", p.Threshold))
	}

	if m.aspectLock {
		parts = append(parts, "aspect lock")
	}

	if m.status != "" {
		parts = append(parts, m.status)
	}

	parts = append(parts, "? help")

	return strings.Join(parts, " | ")
}

func (m *Model) logLine() (string, uint64, bool) {
	if m.tail == nil {
		return "", 0, false
	}

	return m.tail.Last()
}

func (m *Model) truncate(s string) string {
	if m.width <= 0 {
		return s
	}

	return runewidth.Truncate(s, m.width, "…")
}

// statusLines is the number of terminal rows below the grid.
const statusLines = 2

// Fit sizes p to a width x height terminal, leaving room for the status
// bar. Non-positive sizes leave p unchanged.
func Fit(p ascii.Params, width, height int) ascii.Params {
	if width <= 0 || height <= 0 {
		return p
	}

	p.Cols = width
	p.Rows = height - statusLines

	return p.Normalize()
}

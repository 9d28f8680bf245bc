package log

import (
	"bytes"
	"sync"
)

const defaultTailSize = 64

// Tail is an [io.Writer] that keeps the most recent log lines in memory.
//
// Handlers write one entry per line; a partial line is held until its
// newline arrives. When the buffer is full the oldest line is dropped so
// Write never blocks. It is meant for surfaces that own the terminal, such
// as a Bubble Tea program showing the latest entry in a status line.
// Safe for concurrent use.
//
// Create instances with [NewTail].
type Tail struct {
	lines   []string
	partial []byte
	next    int
	count   int
	seq     uint64
	mu      sync.Mutex
}

// TailOption configures a [Tail].
type TailOption func(*Tail)

// WithTailSize sets the number of retained lines. Values less than 1 are
// clamped to 1.
func WithTailSize(n int) TailOption {
	return func(t *Tail) {
		t.lines = make([]string, max(1, n))
	}
}

// NewTail creates a [Tail] with the given options. The default size is 64
// lines.
func NewTail(opts ...TailOption) *Tail {
	t := &Tail{
		lines: make([]string, defaultTailSize),
	}
	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Write appends the complete lines in b. It always returns len(b), nil.
func (t *Tail) Write(b []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	data := b
	for {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			t.partial = append(t.partial, data...)

			break
		}

		line := string(append(t.partial, data[:i]...))
		t.partial = t.partial[:0]
		data = data[i+1:]

		t.lines[t.next] = line
		t.next = (t.next + 1) % len(t.lines)
		t.count = min(t.count+1, len(t.lines))
		t.seq++
	}

	return len(b), nil
}

// Lines returns the retained lines, oldest first.
func (t *Tail) Lines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]string, 0, t.count)

	start := (t.next - t.count + len(t.lines)) % len(t.lines)
	for i := range t.count {
		out = append(out, t.lines[(start+i)%len(t.lines)])
	}

	return out
}

// Last returns the newest complete line and a sequence number that grows
// with every line written. ok is false when nothing was written yet.
func (t *Tail) Last() (line string, seq uint64, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.count == 0 {
		return "", t.seq, false
	}

	return t.lines[(t.next-1+len(t.lines))%len(t.lines)], t.seq, true
}

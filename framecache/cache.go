// Package framecache memoizes converted frames.
//
// A [Cache] maps frame indices to [ascii.Grid] values computed under one
// parameter snapshot. Changing the parameters or calling
// [Cache.InvalidateAll] drops every entry and starts a new generation;
// results computed under an older generation are discarded rather than
// stored, so a grid in the cache always matches the live parameters.
//
// A [Prefetcher] fills the cache around the playback position from a
// background goroutine with its own decoder.
package framecache

import (
	"errors"
	"fmt"
	"image"
	"io"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"go.jacobcolvin.com/asscii/ascii"
)

// ErrNoFrame indicates that no frame was available for an index. It is an
// absence, not a failure: the caller has nothing to show.
var ErrNoFrame = errors.New("no frame available")

// FrameProvider returns the decoded frame for a cache miss. Returning
// [io.EOF] (or a nil image) means the frame does not exist.
type FrameProvider func() (*image.Gray, error)

// Cache is a concurrent frame index to [ascii.Grid] map bound to one
// [ascii.Params] snapshot.
//
// A single mutex guards entries, the pending set, the parameters and the
// generation counter. It is never held while decoding or quantizing.
//
// Create instances with [New].
type Cache struct {
	entries map[int]ascii.Grid
	// pending maps indices queued for prefetch to the generation they were
	// queued under.
	pending map[int]uint64
	group   singleflight.Group
	params  ascii.Params
	gen     uint64
	mu      sync.Mutex
}

// New returns an empty cache for p.
func New(p ascii.Params) *Cache {
	return &Cache{
		entries: make(map[int]ascii.Grid),
		pending: make(map[int]uint64),
		params:  p,
	}
}

// Params returns the live parameter snapshot.
func (c *Cache) Params() ascii.Params {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.params
}

// Snapshot returns the live parameters together with the current
// generation.
func (c *Cache) Snapshot() (ascii.Params, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.params, c.gen
}

// Generation returns the current generation.
func (c *Cache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.gen
}

// SetParams replaces the live parameters. When p differs from the current
// snapshot every entry is dropped and SetParams reports true.
func (c *Cache) SetParams(p ascii.Params) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.params.Equal(p) {
		return false
	}

	c.params = p
	c.invalidateLocked()

	return true
}

// InvalidateAll drops every entry and pending mark and starts a new
// generation.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.invalidateLocked()
}

func (c *Cache) invalidateLocked() {
	clear(c.entries)
	clear(c.pending)
	c.gen++
}

// Get returns the cached grid for index, if any.
func (c *Cache) Get(index int) (ascii.Grid, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	g, ok := c.entries[index]

	return g, ok
}

// Len returns the number of cached grids.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// PendingLen returns the number of indices queued for prefetch.
func (c *Cache) PendingLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.pending)
}

// Store inserts grid for index under the current generation and clears its
// pending mark. Storing the same grid twice is harmless.
func (c *Cache) Store(index int, grid ascii.Grid) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[index] = grid
	delete(c.pending, index)
}

// storeAt inserts grid only if gen is still current. It reports whether the
// grid was stored.
func (c *Cache) storeAt(index int, grid ascii.Grid, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		return false
	}

	c.entries[index] = grid
	delete(c.pending, index)

	return true
}

// Ensure returns the grid for index, computing it from provide on a miss.
//
// Concurrent calls for the same index and generation share a single
// computation. A result whose generation was invalidated while it was being
// computed is returned to the caller but not stored. When no frame is
// available Ensure returns [ErrNoFrame]; provider failures are returned
// wrapped.
func (c *Cache) Ensure(index int, provide FrameProvider) (ascii.Grid, error) {
	c.mu.Lock()
	if g, ok := c.entries[index]; ok {
		c.mu.Unlock()

		return g, nil
	}

	p, gen := c.params, c.gen
	c.mu.Unlock()

	if provide == nil {
		return nil, ErrNoFrame
	}

	key := strconv.FormatUint(gen, 10) + ":" + strconv.Itoa(index)

	v, err, _ := c.group.Do(key, func() (any, error) {
		frame, err := provide()
		if errors.Is(err, io.EOF) {
			return nil, ErrNoFrame
		}

		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", index, err)
		}

		if frame == nil || frame.Bounds().Empty() {
			return nil, ErrNoFrame
		}

		grid := ascii.Quantize(frame, p)
		c.storeAt(index, grid, gen)

		return grid, nil
	})
	if err != nil {
		return nil, err
	}

	grid, ok := v.(ascii.Grid)
	if !ok {
		return nil, ErrNoFrame
	}

	return grid, nil
}

// markPending records index as queued if it is neither cached nor already
// pending. It returns the snapshot the job must be computed under.
func (c *Cache) markPending(index int) (ascii.Params, uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[index]; ok {
		return ascii.Params{}, 0, false
	}

	if _, ok := c.pending[index]; ok {
		return ascii.Params{}, 0, false
	}

	c.pending[index] = c.gen

	return c.params, c.gen, true
}

// clearPending removes the pending mark of index if it was set under gen.
func (c *Cache) clearPending(index int, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if g, ok := c.pending[index]; ok && g == gen {
		delete(c.pending, index)
	}
}

package pitch

import (
	"hash/fnv"
	"math"
	"sync"
)

// Key identifies one cached contour computation: a content hash of the
// waveform plus the analysis parameters.
type Key struct {
	Hash        uint64
	SampleRate  int
	F0Min       float64
	F0Max       float64
	FramePeriod float64
}

type cacheEntry struct {
	done   chan struct{}
	values []float64
	err    error
}

// Cache memoizes contour computations with at-most-one computation per
// key: concurrent callers for the same key block until the first caller's
// computation finishes and then share its result. The returned slices are
// shared; callers must copy before mutating.
type Cache struct {
	mu      sync.Mutex
	entries map[Key]*cacheEntry
}

// NewCache creates an empty contour cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[Key]*cacheEntry)}
}

// GetOrCompute returns the cached contour for key, computing it via
// compute on first use. Failed computations are not cached.
func (c *Cache) GetOrCompute(key Key, compute func() ([]float64, error)) ([]float64, error) {
	c.mu.Lock()

	if e, ok := c.entries[key]; ok {
		c.mu.Unlock()
		<-e.done

		return e.values, e.err
	}

	e := &cacheEntry{done: make(chan struct{})}
	c.entries[key] = e
	c.mu.Unlock()

	e.values, e.err = compute()
	close(e.done)

	if e.err != nil {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
	}

	return e.values, e.err
}

// Invalidate drops all entries whose content hash matches hash.
func (c *Cache) Invalidate(hash uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k := range c.entries {
		if k.Hash == hash {
			delete(c.entries, k)
		}
	}
}

// Reset drops all entries.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[Key]*cacheEntry)
}

// Len returns the number of cached contours.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// HashWaveform computes a content identity for a waveform (FNV-1a over
// the raw sample bits).
func HashWaveform(pcm []float64) uint64 {
	h := fnv.New64a()

	var buf [8]byte

	for _, v := range pcm {
		bits := math.Float64bits(v)
		for i := range buf {
			buf[i] = byte(bits >> (8 * i))
		}

		h.Write(buf[:])
	}

	return h.Sum64()
}

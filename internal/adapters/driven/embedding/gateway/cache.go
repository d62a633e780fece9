package gateway

import (
	"crypto/sha256"
	"sync"
)

// embedCache memoises text to vector by content hash so re-ingesting
// unchanged chunks never re-calls the backend. Bounded: when full, the
// whole cache is dropped rather than tracking recency.
type embedCache struct {
	mu   sync.Mutex
	max  int
	vecs map[[32]byte][]float32
}

func newEmbedCache(max int) *embedCache {
	return &embedCache{
		max:  max,
		vecs: make(map[[32]byte][]float32),
	}
}

func (c *embedCache) get(text string) ([]float32, bool) {
	key := sha256.Sum256([]byte(text))
	c.mu.Lock()
	defer c.mu.Unlock()
	vec, ok := c.vecs[key]
	return vec, ok
}

func (c *embedCache) put(text string, vec []float32) {
	key := sha256.Sum256([]byte(text))
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.vecs) >= c.max {
		c.vecs = make(map[[32]byte][]float32)
	}
	c.vecs[key] = vec
}

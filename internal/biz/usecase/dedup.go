package usecase

import "sync"

// intentCacheCeiling bounds the dedup set; exceeding it evicts the
// oldest half in insertion order.
const intentCacheCeiling = 100

// IntentCache is a bounded set of already-processed click-intent keys.
// The transport delivers at least once and UIs double-tap; a payment
// send must not execute twice.
type IntentCache struct {
	mu    sync.Mutex
	seen  map[string]struct{}
	order []string // insertion order, for eviction
}

// NewIntentCache creates an empty cache
func NewIntentCache() *IntentCache {
	return &IntentCache{seen: make(map[string]struct{})}
}

// Process returns false if the key was already handled, otherwise
// records it and returns true.
func (c *IntentCache) Process(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.seen[key]; ok {
		return false
	}
	c.seen[key] = struct{}{}
	c.order = append(c.order, key)

	if len(c.order) > intentCacheCeiling {
		drop := len(c.order) / 2
		for _, old := range c.order[:drop] {
			delete(c.seen, old)
		}
		c.order = append([]string(nil), c.order[drop:]...)
	}
	return true
}

// Len reports the current cache size
func (c *IntentCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}

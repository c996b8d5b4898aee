package router

import (
	"sync"
	"time"
)

// seenCache tracks recently handled message ids so duplicate datagrams,
// including our own broadcasts echoed back, are applied at most once.
type seenCache struct {
	mu   sync.Mutex
	seen map[string]time.Time
	ttl  time.Duration
}

func newSeenCache(ttl time.Duration) *seenCache {
	return &seenCache{seen: make(map[string]time.Time), ttl: ttl}
}

// Seen records the id and reports whether it was already present within the
// ttl. Expired entries are swept on every call.
func (c *seenCache) Seen(id string) bool {
	if id == "" {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	if ts, ok := c.seen[id]; ok && now.Sub(ts) < c.ttl {
		return true
	}
	c.seen[id] = now
	for key, ts := range c.seen {
		if now.Sub(ts) > c.ttl {
			delete(c.seen, key)
		}
	}
	return false
}

package oracle

import (
	"sync"
	"time"
)

// etagEntry is the last pushed_at seen for a URL and the ETag it came with.
type etagEntry struct {
	etag     string
	pushedAt time.Time
}

// etagCache lets conditional requests reuse a previous answer.
// A 304 Not Modified response does not count against the GitHub rate limit.
// Entries live as long as the client; the key space is the set of eligible
// repositories.
type etagCache struct {
	mu      sync.Mutex
	entries map[string]etagEntry
}

func newETagCache() *etagCache {
	return &etagCache{entries: make(map[string]etagEntry)}
}

func (c *etagCache) get(url string) (etagEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[url]
	return entry, ok
}

func (c *etagCache) put(url, etag string, pushedAt time.Time) {
	if etag == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[url] = etagEntry{etag: etag, pushedAt: pushedAt}
}

package cache

import (
	"sync"

	"github.com/nao1215/sitehash/internal/model"
)

// Cache is a concurrency-safe map from root URL to CacheEntry.
// Each write is atomic with respect to every read.
type Cache struct {
	mu      sync.RWMutex
	entries map[model.NormalizedURL]model.CacheEntry
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		entries: make(map[model.NormalizedURL]model.CacheEntry),
	}
}

// Get returns the entry stored for key.
func (c *Cache) Get(key model.NormalizedURL) (model.CacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	return entry, ok
}

// Put stores entry for key, replacing any existing entry.
func (c *Cache) Put(key model.NormalizedURL, entry model.CacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry
}

// PutIfNewer stores entry unless the existing entry is valid from a later
// time. It reports whether entry was stored.
func (c *Cache) PutIfNewer(key model.NormalizedURL, entry model.CacheEntry) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[key]; ok && existing.LastUpdated.After(entry.LastUpdated) {
		return false
	}
	c.entries[key] = entry
	return true
}

// Len returns the number of cached roots.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

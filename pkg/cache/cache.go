package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache is a TTL-bounded in-memory cache. Entries expire after their TTL and
// are swept by a background janitor; there is no other eviction path, so
// callers keep TTLs short for anything that can go stale.
type Cache struct {
	c *gocache.Cache
}

// New creates a cache with the given default TTL and cleanup interval
func New(defaultTTL, cleanupInterval time.Duration) *Cache {
	return &Cache{c: gocache.New(defaultTTL, cleanupInterval)}
}

// Get returns the value stored under key, if present and unexpired
func (m *Cache) Get(k string) (interface{}, bool) {
	return m.c.Get(k)
}

// Set stores a value under key with the cache's default TTL
func (m *Cache) Set(k string, v interface{}) {
	m.c.SetDefault(k, v)
}

// SetWithTTL stores a value under key with an explicit TTL
func (m *Cache) SetWithTTL(k string, v interface{}, ttl time.Duration) {
	m.c.Set(k, v, ttl)
}

// Delete removes the value stored under key
func (m *Cache) Delete(k string) {
	m.c.Delete(k)
}

// Flush drops every entry
func (m *Cache) Flush() {
	m.c.Flush()
}

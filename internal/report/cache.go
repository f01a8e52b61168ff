package report

import (
	"strings"
	"sync"
	"time"
)

// DefaultCacheEntries bounds the advisory cache. A handful of
// report kinds per user keeps this comfortable for dozens of
// users.
const DefaultCacheEntries = 100

type cacheEntry struct {
	value     any
	storedAt  time.Time
	expiresAt time.Time
}

// Cache is a bounded TTL map for computed reports. Reads past
// the deadline miss, writes past the bound evict the oldest
// entry. Safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	max     int
	hits    int64
	misses  int64
	now     func() time.Time
}

// NewCache creates a cache holding at most maxEntries values.
// maxEntries <= 0 selects DefaultCacheEntries.
func NewCache(maxEntries int) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultCacheEntries
	}
	return &Cache{
		entries: make(map[string]*cacheEntry),
		max:     maxEntries,
		now:     time.Now,
	}
}

// Get returns the live value for key, if any. Expired entries
// are removed on sight.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || c.now().After(e.expiresAt) {
		if ok {
			delete(c.entries, key)
		}
		c.misses++
		return nil, false
	}
	c.hits++
	return e.value, true
}

// Set stores value under key for ttl. At capacity the oldest
// entry by store time goes first.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if _, ok := c.entries[key]; !ok && len(c.entries) >= c.max {
		c.evictOldestLocked()
	}
	c.entries[key] = &cacheEntry{value: value, storedAt: now, expiresAt: now.Add(ttl)}
}

func (c *Cache) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	for k, e := range c.entries {
		if oldestKey == "" || e.storedAt.Before(oldestAt) {
			oldestKey = k
			oldestAt = e.storedAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

// Invalidate removes every key with the given prefix and reports
// how many were dropped.
func (c *Cache) Invalidate(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

// CleanupExpired drops entries past their deadline and reports
// how many were removed.
func (c *Cache) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	n := 0
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

// CacheStats is a point-in-time view of cache effectiveness.
type CacheStats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

// Stats reports the current entry count and hit counters.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{Entries: len(c.entries), Hits: c.hits, Misses: c.misses}
}

// Package cache provides a short-lived in-process memoization cache for
// recommendation computations. Entries carry an absolute expiry and are
// purged lazily on read; there is no background sweep. Keys are readable
// strings (e.g. "related:<id>:10:2:true") so whole families of entries can
// be invalidated by substring.
package cache

import (
	"strings"
	"sync"
	"time"
)

// DefaultTTL is the expiry applied by Set. More expensive computations
// (vendor metrics, trending, personalized) use longer TTLs via SetTTL.
const DefaultTTL = 5 * time.Minute

type entry struct {
	value     any
	expiresAt time.Time
}

// Cache is a concurrency-safe key/value store with per-entry expiry.
// The zero value is not usable; construct with New or NewWithClock.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

// New creates an empty cache using wall-clock time.
func New() *Cache {
	return NewWithClock(time.Now)
}

// NewWithClock creates an empty cache with an injected clock, so tests can
// control expiry deterministically.
func NewWithClock(now func() time.Time) *Cache {
	return &Cache{
		entries: make(map[string]entry),
		now:     now,
	}
}

// Get returns the stored value if present and not expired. A read past an
// entry's expiry counts as a miss and evicts the stale entry.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().After(e.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock: another request may have
		// refreshed the entry since the read above.
		if cur, ok := c.entries[key]; ok && c.now().After(cur.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

// Set stores value under key with the default TTL.
func (c *Cache) Set(key string, value any) {
	c.SetTTL(key, value, DefaultTTL)
}

// SetTTL stores value under key, expiring ttl from now. Concurrent writers
// to the same key are last-writer-wins; results are idempotent functions of
// the same snapshot, so the overwrite is harmless.
func (c *Cache) SetTTL(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	exp := c.now().Add(ttl)
	c.mu.Lock()
	c.entries[key] = entry{value: value, expiresAt: exp}
	c.mu.Unlock()
}

// Clear removes entries. With an empty pattern the whole cache is emptied;
// otherwise every key containing the pattern substring is deleted.
func (c *Cache) Clear(pattern string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if pattern == "" {
		c.entries = make(map[string]entry)
		return
	}
	for key := range c.entries {
		if strings.Contains(key, pattern) {
			delete(c.entries, key)
		}
	}
}

// Stats reports the entry count and current keys, for observability only.
// Expired-but-unswept entries are included; they disappear on next read.
func (c *Cache) Stats() (int, []string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	return len(c.entries), keys
}

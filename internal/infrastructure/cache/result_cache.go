package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// ResultCache provides thread-safe caching of values keyed by content digest
// with TTL support. When full, the entry closest to expiry is evicted.
type ResultCache[V any] struct {
	mu         sync.RWMutex
	ttl        time.Duration
	maxEntries int
	entries    map[string]entry[V]
	now        func() time.Time
}

// NewResultCache creates a cache. A non-positive ttl disables caching and a
// non-positive maxEntries removes the size bound.
func NewResultCache[V any](ttl time.Duration, maxEntries int) *ResultCache[V] {
	return &ResultCache[V]{
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]entry[V]),
		now:        time.Now,
	}
}

// Digest returns the hex SHA-256 of content, the key used by callers.
func Digest(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Get returns the cached value if it's still valid.
func (c *ResultCache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var zero V
	e, ok := c.entries[key]
	if !ok || c.now().After(e.expiresAt) {
		return zero, false
	}
	return e.value, true
}

// Set stores value under key for the cache TTL.
func (c *ResultCache[V]) Set(key string, value V) {
	if c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, exists := c.entries[key]; !exists && c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		c.evictLocked(now)
	}
	c.entries[key] = entry[V]{value: value, expiresAt: now.Add(c.ttl)}
}

// evictLocked drops expired entries, or the one closest to expiry when none
// has expired yet.
func (c *ResultCache[V]) evictLocked(now time.Time) {
	var oldestKey string
	var oldest time.Time
	removed := false
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
			removed = true
			continue
		}
		if oldestKey == "" || e.expiresAt.Before(oldest) {
			oldestKey, oldest = k, e.expiresAt
		}
	}
	if !removed && oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

// Len returns the number of stored entries, expired ones included.
func (c *ResultCache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear removes every entry.
func (c *ResultCache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry[V])
}

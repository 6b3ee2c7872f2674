// Package cache provides the response cache for the Athena API: a bounded
// in-memory implementation with TTL support and a Redis-backed alternative
// sharing one interface. Cached values are serialized response bodies.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"math"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
)

// Cache stores serialized values under string keys with per-entry TTLs.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Stats() Stats
}

// Stats reports cache effectiveness counters.
type Stats struct {
	Hits          int64   `json:"hits"`
	Misses        int64   `json:"misses"`
	Sets          int64   `json:"sets"`
	Evictions     int64   `json:"evictions"`
	Size          int     `json:"size"`
	TotalRequests int64   `json:"total_requests"`
	HitRate       float64 `json:"hit_rate"`
}

// Key builds a cache key from its parts, hashed so arbitrary user input
// cannot produce oversized or colliding keys.
func Key(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return "athena:" + hex.EncodeToString(hash[:])
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCache is an LRU-bounded in-memory cache with TTL support.
type MemoryCache struct {
	mu         sync.Mutex
	entries    *lru.Cache
	defaultTTL time.Duration

	hits      int64
	misses    int64
	sets      int64
	evictions int64
}

// NewMemoryCache creates a cache holding at most size entries; least
// recently used entries are evicted when full. A background sweep removes
// expired entries so they do not linger occupying slots.
func NewMemoryCache(size int, defaultTTL time.Duration) (*MemoryCache, error) {
	c := &MemoryCache{defaultTTL: defaultTTL}

	entries, err := lru.NewWithEvict(size, func(key, value interface{}) {
		c.evictions++
	})
	if err != nil {
		return nil, err
	}
	c.entries = entries

	go c.sweepExpired()

	return c, nil
}

// Get retrieves a value, treating expired entries as misses.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	value, ok := c.entries.Get(key)
	if !ok {
		c.misses++
		return nil, false
	}

	entry := value.(memoryEntry)
	if time.Now().After(entry.expiresAt) {
		c.entries.Remove(key)
		c.misses++
		return nil, false
	}

	c.hits++
	return entry.value, true
}

// Set stores a value. A zero ttl uses the cache default.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries.Add(key, memoryEntry{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	})
	c.sets++
	return nil
}

// Delete removes a key.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Remove(key)
	return nil
}

// Clear removes all entries.
func (c *MemoryCache) Clear(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Purge()
	return nil
}

// Stats returns a snapshot of the counters.
func (c *MemoryCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	rate := 0.0
	if total > 0 {
		rate = math.Round(float64(c.hits)/float64(total)*10000) / 100
	}

	return Stats{
		Hits:          c.hits,
		Misses:        c.misses,
		Sets:          c.sets,
		Evictions:     c.evictions,
		Size:          c.entries.Len(),
		TotalRequests: total,
		HitRate:       rate,
	}
}

func (c *MemoryCache) sweepExpired() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		c.mu.Lock()
		for _, key := range c.entries.Keys() {
			if value, ok := c.entries.Peek(key); ok {
				if now.After(value.(memoryEntry).expiresAt) {
					c.entries.Remove(key)
				}
			}
		}
		c.mu.Unlock()
	}
}

// Package cache implements the bounded in-memory cache htag uses to keep
// parsed template fragments between invocations that produce identical
// tagged markup.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// Cache is a bounded, concurrency-safe key/value cache
type Cache[V any] struct {
	mu         sync.Mutex
	entries    map[string]*Entry[V]
	maxEntries int
	maxAge     time.Duration
	strategy   EvictionStrategy
	clock      uint64 // logical access clock, monotonic per cache
	stats      Stats
}

// Entry represents a single cached value
type Entry[V any] struct {
	Key         string
	Value       V
	Created     time.Time
	LastAccess  uint64
	Inserted    uint64
	AccessCount int
}

// Stats tracks cache performance metrics
type Stats struct {
	Hits       int64 `json:"hits"`
	Misses     int64 `json:"misses"`
	Evictions  int64 `json:"evictions"`
	EntryCount int   `json:"entry_count"`
}

// EvictionStrategy defines how cache entries are removed
type EvictionStrategy int

const (
	// LRU removes least recently used entries
	LRU EvictionStrategy = iota
	// LFU removes least frequently used entries
	LFU
	// FIFO removes oldest entries first
	FIFO
)

// Config holds cache configuration
type Config struct {
	MaxEntries int              // Maximum number of entries (default: 256, negative: unbounded)
	MaxAge     time.Duration    // Maximum age for entries (default: no expiry)
	Strategy   EvictionStrategy // Eviction strategy (default: LRU)
}

// DefaultConfig returns the default cache configuration
func DefaultConfig() Config {
	return Config{
		MaxEntries: 256,
		Strategy:   LRU,
	}
}

// New creates a new cache instance
func New[V any](config Config) *Cache[V] {
	if config.MaxEntries == 0 {
		config.MaxEntries = DefaultConfig().MaxEntries
	}
	return &Cache[V]{
		entries:    make(map[string]*Entry[V]),
		maxEntries: config.MaxEntries,
		maxAge:     config.MaxAge,
		strategy:   config.Strategy,
	}
}

// Get retrieves a cached value
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	entry, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		return zero, false
	}
	if c.isExpired(entry) {
		delete(c.entries, key)
		c.stats.EntryCount = len(c.entries)
		c.stats.Misses++
		return zero, false
	}

	c.clock++
	entry.LastAccess = c.clock
	entry.AccessCount++
	c.stats.Hits++
	return entry.Value, true
}

// Put stores a value, evicting entries according to the strategy when the
// cache is full
func (c *Cache[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.clock++
	if existing, ok := c.entries[key]; ok {
		existing.Value = value
		existing.Created = time.Now()
		existing.LastAccess = c.clock
		return
	}

	c.ensureSpace()
	c.entries[key] = &Entry[V]{
		Key:        key,
		Value:      value,
		Created:    time.Now(),
		LastAccess: c.clock,
		Inserted:   c.clock,
	}
	c.stats.EntryCount = len(c.entries)
}

// Delete removes an entry from the cache
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	c.stats.EntryCount = len(c.entries)
}

// Clear removes all cached entries and resets statistics
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*Entry[V])
	c.stats = Stats{}
}

// Len returns the number of cached entries
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// GetStats returns cache statistics
func (c *Cache[V]) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Key generates a cache key from inputs
func Key(inputs ...string) string {
	h := sha256.New()
	for _, input := range inputs {
		h.Write([]byte(input))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (c *Cache[V]) isExpired(entry *Entry[V]) bool {
	// If maxAge is 0 or negative, entries never expire
	if c.maxAge <= 0 {
		return false
	}
	return time.Since(entry.Created) > c.maxAge
}

// ensureSpace evicts until one more entry fits. Caller must hold c.mu.
func (c *Cache[V]) ensureSpace() {
	if c.maxEntries < 0 {
		return
	}

	for len(c.entries) >= c.maxEntries && len(c.entries) > 0 {
		var evict *Entry[V]

		switch c.strategy {
		case LRU:
			for _, entry := range c.entries {
				if evict == nil || entry.LastAccess < evict.LastAccess {
					evict = entry
				}
			}

		case LFU:
			for _, entry := range c.entries {
				if evict == nil || entry.AccessCount < evict.AccessCount ||
					(entry.AccessCount == evict.AccessCount && entry.LastAccess < evict.LastAccess) {
					evict = entry
				}
			}

		case FIFO:
			for _, entry := range c.entries {
				if evict == nil || entry.Inserted < evict.Inserted {
					evict = entry
				}
			}
		}

		if evict == nil {
			break
		}

		delete(c.entries, evict.Key)
		c.stats.Evictions++
	}

	c.stats.EntryCount = len(c.entries)
}

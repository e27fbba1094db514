package cache

import (
	"context"
	"sync"
	"time"

	"github.com/recipebox/backend/internal/domain"
)

const defaultCleanupInterval = 10 * time.Minute

// entry is one cached payload with its expiry
type entry struct {
	value     []byte
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryCache is a thread-safe in-process byte cache with TTL support
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	stop    chan struct{}
	once    sync.Once
}

// NewMemoryCache creates a cache that sweeps expired entries every cleanupInterval
// (10 minutes when zero)
func NewMemoryCache(cleanupInterval time.Duration) *MemoryCache {
	if cleanupInterval <= 0 {
		cleanupInterval = defaultCleanupInterval
	}
	c := &MemoryCache{
		entries: make(map[string]entry),
		stop:    make(chan struct{}),
	}
	go c.sweep(cleanupInterval)
	return c
}

// Get returns a copy of the stored bytes, or domain.ErrCacheMiss
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || e.expired(time.Now()) {
		return nil, domain.ErrCacheMiss
	}
	return append([]byte(nil), e.value...), nil
}

// Set stores a copy of value. A zero ttl never expires.
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	e := entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}

	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
	return nil
}

// Delete removes a key
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

// Exists reports whether key holds an unexpired value
func (c *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	return ok && !e.expired(time.Now()), nil
}

// Size returns the number of stored entries, expired or not
func (c *MemoryCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear drops every entry. The vocabulary reload path uses it to invalidate lookups.
func (c *MemoryCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
	return nil
}

// Close stops the sweeper
func (c *MemoryCache) Close() error {
	c.once.Do(func() { close(c.stop) })
	return nil
}

func (c *MemoryCache) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.removeExpired()
		}
	}
}

func (c *MemoryCache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
		}
	}
}

package cache

import (
	"context"
	"sync"
	"time"
)

// Options configure a Cache
type Options struct {
	TTL         time.Duration
	MaxSize     int
	PurgeWindow time.Duration
}

type item[V any] struct {
	value      V
	expiration int64
}

func (i item[V]) expired(now int64) bool {
	return i.expiration > 0 && now > i.expiration
}

// Cache is a thread-safe in-memory cache with expiration
type Cache[K comparable, V any] struct {
	items    map[K]item[V]
	mu       sync.RWMutex
	ttl      time.Duration
	maxItems int
	now      func() time.Time
}

// New creates a cache. When PurgeWindow > 0 expired entries are swept until ctx is done.
func New[K comparable, V any](ctx context.Context, opts Options) *Cache[K, V] {
	c := &Cache[K, V]{
		items:    make(map[K]item[V]),
		ttl:      opts.TTL,
		maxItems: opts.MaxSize,
		now:      time.Now,
	}

	if opts.PurgeWindow > 0 {
		go c.janitor(ctx, opts.PurgeWindow)
	}

	return c
}

// Set adds an item to the cache with the default expiration
func (c *Cache[K, V]) Set(key K, value V) {
	c.SetWithExpiration(key, value, c.ttl)
}

// SetWithExpiration adds an item to the cache with a specific expiration time
func (c *Cache[K, V]) SetWithExpiration(key K, value V, d time.Duration) {
	var exp int64
	if d > 0 {
		exp = c.now().Add(d).UnixNano()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && c.maxItems > 0 && len(c.items) >= c.maxItems {
		c.evictOldest()
	}

	c.items[key] = item[V]{value: value, expiration: exp}
}

// Get retrieves an item from the cache
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var zero V
	it, found := c.items[key]
	if !found || it.expired(c.now().UnixNano()) {
		return zero, false
	}
	return it.value, true
}

// Delete removes an item from the cache
func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Count returns the number of items in the cache (including expired items)
func (c *Cache[K, V]) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Cache[K, V]) janitor(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.deleteExpired()
		}
	}
}

func (c *Cache[K, V]) deleteExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now().UnixNano()
	for k, v := range c.items {
		if v.expired(now) {
			delete(c.items, k)
		}
	}
}

// evictOldest removes the entry closest to expiry
func (c *Cache[K, V]) evictOldest() {
	var (
		oldestKey K
		oldestExp int64
		found     bool
	)
	for k, v := range c.items {
		if !found || v.expiration < oldestExp {
			oldestKey, oldestExp, found = k, v.expiration, true
		}
	}
	if found {
		delete(c.items, oldestKey)
	}
}

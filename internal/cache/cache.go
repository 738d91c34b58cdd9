package cache

import (
	"sync"
	"time"
)

type CacheItem[V any] struct {
	Value     V
	ExpiresAt time.Time
}

// Cache is a TTL keyed store. Expired items are dropped on read and by a
// background sweep that runs until Close.
type Cache[V any] struct {
	mu    sync.RWMutex
	items map[string]CacheItem[V]
	now   func() time.Time
	done  chan struct{}
	once  sync.Once
}

func New[V any](sweepEvery time.Duration) *Cache[V] {
	c := &Cache[V]{
		items: make(map[string]CacheItem[V]),
		now:   time.Now,
		done:  make(chan struct{}),
	}

	if sweepEvery > 0 {
		go c.cleanupLoop(sweepEvery)
	}

	return c
}

func (c *Cache[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = CacheItem[V]{
		Value:     value,
		ExpiresAt: c.now().Add(ttl),
	}
}

func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V

	c.mu.RLock()
	item, exists := c.items[key]
	c.mu.RUnlock()
	if !exists {
		return zero, false
	}

	if c.now().After(item.ExpiresAt) {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return zero, false
	}

	return item.Value, true
}

func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Close stops the background sweep.
func (c *Cache[V]) Close() {
	c.once.Do(func() { close(c.done) })
}

func (c *Cache[V]) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.done:
			return
		}
	}
}

func (c *Cache[V]) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, item := range c.items {
		if now.After(item.ExpiresAt) {
			delete(c.items, key)
		}
	}
}

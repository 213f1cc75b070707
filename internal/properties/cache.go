package properties

import (
	"container/list"
	"context"
	"sync"
	"time"
)

const (
	DefaultCacheTTL  = 30 * time.Minute
	DefaultCacheSize = 64
)

// Cache stores search results by cache key.
type Cache interface {
	Get(ctx context.Context, key string) (*SearchResult, bool)
	Set(ctx context.Context, key string, result *SearchResult)
}

type lruEntry struct {
	key      string
	result   *SearchResult
	storedAt time.Time
}

// LRUCache is a bounded in-process cache with a per-entry TTL. Entries are
// replaced whole, so a reader never sees a partially written result.
type LRUCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	size    int
	order   *list.List
	entries map[string]*list.Element
	now     func() time.Time
}

func NewLRUCache(size int, ttl time.Duration) *LRUCache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &LRUCache{
		ttl:     ttl,
		size:    size,
		order:   list.New(),
		entries: make(map[string]*list.Element, size),
		now:     time.Now,
	}
}

// Get returns the stored result when the key matches and it is younger than the TTL.
func (c *LRUCache) Get(_ context.Context, key string) (*SearchResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	entry := el.Value.(*lruEntry)
	if c.now().Sub(entry.storedAt) >= c.ttl {
		c.order.Remove(el)
		delete(c.entries, key)
		return nil, false
	}
	c.order.MoveToFront(el)
	return entry.result, true
}

// Set stores result under key, evicting the least recently used entry when full.
func (c *LRUCache) Set(_ context.Context, key string, result *SearchResult) {
	c.setAt(key, result, c.now())
}

func (c *LRUCache) setAt(key string, result *SearchResult, storedAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry := &lruEntry{key: key, result: result, storedAt: storedAt}
	if el, ok := c.entries[key]; ok {
		el.Value = entry
		c.order.MoveToFront(el)
		return
	}
	c.entries[key] = c.order.PushFront(entry)
	for c.order.Len() > c.size {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*lruEntry).key)
	}
}

// Len reports the number of stored entries, expired ones included.
func (c *LRUCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// TieredCache reads the local LRU first and falls back to Redis, promoting
// shared hits into the local tier with their original store time.
type TieredCache struct {
	local  *LRUCache
	shared *RedisCache
}

func NewTieredCache(local *LRUCache, shared *RedisCache) *TieredCache {
	return &TieredCache{local: local, shared: shared}
}

func (c *TieredCache) Get(ctx context.Context, key string) (*SearchResult, bool) {
	if result, ok := c.local.Get(ctx, key); ok {
		return result, true
	}
	if c.shared == nil {
		return nil, false
	}
	result, storedAt, ok := c.shared.getEntry(ctx, key)
	if ok {
		c.local.setAt(key, result, storedAt)
	}
	return result, ok
}

func (c *TieredCache) Set(ctx context.Context, key string, result *SearchResult) {
	c.local.Set(ctx, key, result)
	if c.shared != nil {
		c.shared.Set(ctx, key, result)
	}
}

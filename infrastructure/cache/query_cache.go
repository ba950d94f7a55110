// Package cache is the portal's query cache: results of backend reads are kept
// under hierarchical keys for a TTL, concurrent reads of the same key share
// one fetch, and mutations invalidate whole key prefixes.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"ctdportal/pkg/observability"
)

// QueryCache is safe for concurrent use.
type QueryCache struct {
	mu         sync.RWMutex
	items      map[string]cacheItem
	generation uint64

	ttl     time.Duration
	group   singleflight.Group
	metrics *observability.Collector
	now     func() time.Time
}

type cacheItem struct {
	value     interface{}
	expiresAt time.Time
}

// NewQueryCache creates a cache. A zero ttl disables storage but keeps
// request de-duplication.
func NewQueryCache(ttl time.Duration, metrics *observability.Collector) *QueryCache {
	return &QueryCache{
		items:   make(map[string]cacheItem),
		ttl:     ttl,
		metrics: metrics,
		now:     time.Now,
	}
}

// Key joins parts into a cache key scoped to one user, e.g.
// Key("u1", "document", "42") == "u:u1/document/42". Key("u1") is the prefix
// of every key of that user.
func Key(userID string, parts ...string) string {
	if len(parts) == 0 {
		return "u:" + userID
	}
	return "u:" + userID + "/" + strings.Join(parts, "/")
}

// Get retrieves a live value from cache
func (c *QueryCache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, exists := c.items[key]
	if !exists || !c.now().Before(item.expiresAt) {
		return nil, false
	}
	return item.value, true
}

// Set stores a value for the cache's TTL
func (c *QueryCache) Set(key string, value interface{}) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = cacheItem{value: value, expiresAt: c.now().Add(c.ttl)}
}

// Invalidate drops every key equal to one of prefixes or nested below it and
// returns how many entries were removed. Fetches already in flight will not
// store their results.
func (c *QueryCache) Invalidate(prefixes ...string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	removed := 0
	for key := range c.items {
		for _, p := range prefixes {
			if key == p || strings.HasPrefix(key, p+"/") {
				delete(c.items, key)
				removed++
				break
			}
		}
	}

	c.metrics.CacheInvalidated(removed)
	return removed
}

// Len returns the number of stored entries, expired ones included.
func (c *QueryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Prune removes expired entries.
func (c *QueryCache) Prune() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, item := range c.items {
		if !now.Before(item.expiresAt) {
			delete(c.items, key)
		}
	}
}

// RunJanitor prunes expired entries every interval until ctx is done.
func (c *QueryCache) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Prune()
		}
	}
}

func (c *QueryCache) gen() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

func (c *QueryCache) setIfCurrent(key string, value interface{}, gen uint64) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		return
	}
	c.items[key] = cacheItem{value: value, expiresAt: c.now().Add(c.ttl)}
}

// Fetch returns the cached value for key or calls fn once for all concurrent
// callers and caches a successful result. Errors are never cached.
//
// The shared call runs detached from any one caller's cancellation; each
// caller stops waiting when its own ctx is done.
func Fetch[T any](ctx context.Context, c *QueryCache, key string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	resource := resourceOf(key)

	if v, ok := c.Get(key); ok {
		if typed, ok := v.(T); ok {
			c.metrics.CacheHit(resource)
			return typed, nil
		}
	}
	c.metrics.CacheMiss(resource)

	gen := c.gen()
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		value, err := fn(shared)
		if err != nil {
			return nil, err
		}
		c.setIfCurrent(key, value, gen)
		return value, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

// resourceOf strips the user scope and identifiers: "u:1/document/42" -> "document".
func resourceOf(key string) string {
	if i := strings.IndexByte(key, '/'); i >= 0 && strings.HasPrefix(key, "u:") {
		key = key[i+1:]
	}
	if i := strings.IndexByte(key, '/'); i >= 0 {
		key = key[:i]
	}
	return key
}

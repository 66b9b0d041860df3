package probe

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type cacheEntry struct {
	found bool
	at    time.Time
}

// CachedChecker memoizes outcomes of next in a fixed-size LRU. Both present
// and absent answers are cached; entries older than the TTL are re-probed.
// Outcomes produced while the caller's context was already done are not
// stored, since cancellation forces "absent".
type CachedChecker struct {
	next  Checker
	ttl   time.Duration
	now   func() time.Time
	cache *lru.Cache[string, cacheEntry]

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCachedChecker wraps next with an LRU of size entries. A ttl <= 0 keeps
// entries until evicted.
func NewCachedChecker(next Checker, size int, ttl time.Duration) (*CachedChecker, error) {
	cache, err := lru.New[string, cacheEntry](size)
	if err != nil {
		return nil, fmt.Errorf("init probe cache: %w", err)
	}
	return &CachedChecker{next: next, ttl: ttl, now: time.Now, cache: cache}, nil
}

// Exists answers from the cache when a fresh entry exists, else probes next.
func (c *CachedChecker) Exists(ctx context.Context, target string) bool {
	if e, ok := c.cache.Get(target); ok && (c.ttl <= 0 || c.now().Sub(e.at) < c.ttl) {
		c.hits.Add(1)
		return e.found
	}
	c.misses.Add(1)
	found := c.next.Exists(ctx, target)
	if ctx.Err() == nil {
		c.cache.Add(target, cacheEntry{found: found, at: c.now()})
	}
	return found
}

// Stats returns cumulative cache hits and misses.
func (c *CachedChecker) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Purge drops every cached outcome.
func (c *CachedChecker) Purge() {
	c.cache.Purge()
}

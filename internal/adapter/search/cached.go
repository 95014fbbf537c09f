package search

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"mockview/internal/domain"
)

// cacheEntry holds one cached result set with its expiry.
type cacheEntry struct {
	results []domain.SearchResult
	expires time.Time
}

// CachedProvider wraps a domain.SearchProvider with a TTL cache. Company
// lookups repeat heavily within an interview, and search backends are the
// slowest dependency in the turn pipeline.
type CachedProvider struct {
	inner domain.SearchProvider
	ttl   time.Duration

	mu    sync.Mutex
	cache map[uint64]cacheEntry
}

// NewCachedProvider wraps inner with a TTL result cache.
// If ttl <= 0, the inner provider is returned behavior-wise uncached.
func NewCachedProvider(inner domain.SearchProvider, ttl time.Duration) *CachedProvider {
	return &CachedProvider{
		inner: inner,
		ttl:   ttl,
		cache: make(map[uint64]cacheEntry),
	}
}

// Name implements domain.SearchProvider.
func (c *CachedProvider) Name() string { return c.inner.Name() }

// Search implements domain.SearchProvider. Errors are never cached.
func (c *CachedProvider) Search(ctx context.Context, query string, maxResults int) ([]domain.SearchResult, error) {
	if c.ttl <= 0 {
		return c.inner.Search(ctx, query, maxResults)
	}

	key := cacheKey(query, maxResults)
	now := time.Now()

	c.mu.Lock()
	entry, ok := c.cache[key]
	if ok && now.Before(entry.expires) {
		c.mu.Unlock()
		return entry.results, nil
	}
	if ok {
		delete(c.cache, key)
	}
	c.mu.Unlock()

	results, err := c.inner.Search(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cache[key] = cacheEntry{results: results, expires: now.Add(c.ttl)}
	c.mu.Unlock()

	return results, nil
}

// cacheKey returns an FNV-1a hash of the query plus the result cap.
func cacheKey(query string, maxResults int) uint64 {
	h := fnv.New64a()
	h.Write([]byte(query))
	h.Write([]byte{byte(maxResults)})
	return h.Sum64()
}

var _ domain.SearchProvider = (*CachedProvider)(nil)

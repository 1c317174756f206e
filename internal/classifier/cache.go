package classifier

import (
	"time"

	"github.com/ashutoshrp06/dealroom-orchestrator/internal/types"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	defaultCacheSize = 1024
	defaultCacheTTL  = 10 * time.Minute
)

// Cache memoizes classifications per (deal, query). Entries are keyed by deal so
// a cached result is never served across tenants. A nil *Cache classifies
// directly.
type Cache struct {
	lru *expirable.LRU[cacheKey, types.Classification]
}

type cacheKey struct {
	dealID string
	query  string
}

// NewCache creates a cache holding at most size entries for ttl each.
func NewCache(size int, ttl time.Duration) *Cache {
	if size <= 0 {
		size = defaultCacheSize
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Cache{
		lru: expirable.NewLRU[cacheKey, types.Classification](size, nil, ttl),
	}
}

// Classify returns the cached classification for the deal and query, computing
// and storing it on a miss.
func (c *Cache) Classify(dealID, query string) types.Classification {
	if c == nil {
		return Classify(query)
	}
	key := cacheKey{dealID: dealID, query: query}
	if cached, ok := c.lru.Get(key); ok {
		return cached
	}
	result := Classify(query)
	c.lru.Add(key, result)
	return result
}

// size returns the number of cached entries.
func (c *Cache) size() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}

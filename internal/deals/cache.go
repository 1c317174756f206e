package deals

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ashutoshrp06/dealroom-orchestrator/internal/types"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultCacheTTL = 5 * time.Minute

// RedisInterface defines the minimal Redis interface needed for caching.
type RedisInterface interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// CachedProvider wraps a Provider with a Redis read-through cache. Cache
// failures fall through to the wrapped provider.
type CachedProvider struct {
	next   Provider
	client RedisInterface
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedProvider(next Provider, client RedisInterface, ttl time.Duration, logger *zap.Logger) *CachedProvider {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedProvider{next: next, client: client, ttl: ttl, logger: logger}
}

func cacheKey(dealID string) string {
	return "dealroom:deal:" + dealID
}

// Get implements Provider.
func (c *CachedProvider) Get(ctx context.Context, dealID string) (*types.DealContext, error) {
	key := cacheKey(dealID)

	cached := c.client.Get(ctx, key)
	if cached.Err() == nil {
		var deal types.DealContext
		if err := json.Unmarshal([]byte(cached.Val()), &deal); err == nil {
			c.logger.Debug("Deal cache hit", zap.String("cache_key", key))
			return &deal, nil
		}
		c.logger.Debug("Failed to unmarshal cached deal", zap.String("cache_key", key))
	}

	deal, err := c.next.Get(ctx, dealID)
	if err != nil || deal == nil {
		return deal, err
	}

	data, err := json.Marshal(deal)
	if err != nil {
		c.logger.Warn("Failed to marshal deal for cache", zap.Error(err))
		return deal, nil
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("Failed to cache deal", zap.String("cache_key", key), zap.Error(err))
	}
	return deal, nil
}

// Invalidate drops the cached entry for dealID.
func (c *CachedProvider) Invalidate(ctx context.Context, dealID string) error {
	return c.client.Del(ctx, cacheKey(dealID)).Err()
}

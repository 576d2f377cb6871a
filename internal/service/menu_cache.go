package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/coffeeshop-service/internal/domain"
)

const menuCacheKey = "menu:drinks"

// MenuCache keeps the public drink list in Redis. Every method is a no-op on
// a nil client so the service runs uncached when Redis is absent. Cache
// failures never fail a request.
type MenuCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewMenuCache builds the cache.
func NewMenuCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *MenuCache {
	return &MenuCache{client: client, ttl: ttl, logger: logger}
}

// Get returns the cached drink list, reporting whether the entry was present.
func (c *MenuCache) Get(ctx context.Context) ([]domain.Drink, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, menuCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("menu cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var drinks []domain.Drink
	if err := json.Unmarshal(raw, &drinks); err != nil {
		c.logger.Warn("menu cache entry corrupt; dropping", zap.Error(err))
		c.Invalidate(ctx)
		return nil, false
	}
	return drinks, true
}

// Set stores the drink list for the configured TTL.
func (c *MenuCache) Set(ctx context.Context, drinks []domain.Drink) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(drinks)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, menuCacheKey, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("menu cache write failed", zap.Error(err))
	}
}

// Invalidate drops the cached list.
func (c *MenuCache) Invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, menuCacheKey).Err(); err != nil {
		c.logger.Warn("menu cache invalidation failed", zap.Error(err))
	}
}

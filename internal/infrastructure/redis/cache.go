package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sp3dr4/shortlink/internal/pkg/metrics"
)

const resolutionComponent = "resolution_cache"

// ResolutionCache stores short code -> destination strings in Redis.
type ResolutionCache struct {
	client  *redis.Client
	keys    Keyspace
	logger  *slog.Logger
	metrics metrics.Registry
}

func NewResolutionCache(client *redis.Client, keys Keyspace, logger *slog.Logger, registry metrics.Registry) *ResolutionCache {
	if registry == nil {
		registry = metrics.NewNoOpRegistry()
	}
	return &ResolutionCache{
		client:  client,
		keys:    keys,
		logger:  logger,
		metrics: registry,
	}
}

func (c *ResolutionCache) Get(ctx context.Context, shortCode string) (string, bool) {
	key := c.keys.Resolution(shortCode)

	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.degrade("get", key, err)
		}
		return "", false
	}

	return val, true
}

func (c *ResolutionCache) Set(ctx context.Context, shortCode, destination string, ttl time.Duration) {
	key := c.keys.Resolution(shortCode)

	if err := c.client.Set(ctx, key, destination, ttl).Err(); err != nil {
		c.degrade("set", key, err)
	}
}

func (c *ResolutionCache) Invalidate(ctx context.Context, shortCode string) {
	key := c.keys.Resolution(shortCode)

	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.degrade("invalidate", key, err)
	}
}

func (c *ResolutionCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// degrade is the single fallback branch for transport failures: the failure
// is logged and counted, and the caller proceeds as on a miss.
func (c *ResolutionCache) degrade(op, key string, err error) {
	c.logger.Warn("Resolution cache unavailable, degrading to miss",
		"operation", op,
		"key", key,
		"error", err,
	)
	c.metrics.IncCacheTransportFailures(resolutionComponent, op)
}

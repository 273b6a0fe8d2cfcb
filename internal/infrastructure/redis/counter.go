package redis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sp3dr4/shortlink/internal/pkg/metrics"
)

const counterComponent = "click_counter"

// ClickCounter buffers clicks per short code in Redis with INCR. The
// window is (re)armed only on the 0 -> 1 transition.
type ClickCounter struct {
	client  *redis.Client
	keys    Keyspace
	ttl     time.Duration
	logger  *slog.Logger
	metrics metrics.Registry
}

func NewClickCounter(client *redis.Client, keys Keyspace, ttl time.Duration, logger *slog.Logger, registry metrics.Registry) *ClickCounter {
	if registry == nil {
		registry = metrics.NewNoOpRegistry()
	}
	return &ClickCounter{
		client:  client,
		keys:    keys,
		ttl:     ttl,
		logger:  logger,
		metrics: registry,
	}
}

func (c *ClickCounter) Increment(ctx context.Context, shortCode string) int64 {
	key := c.keys.Counter(shortCode)

	n, err := incrWithTTL.Run(ctx, c.client, []string{key}, ttlSeconds(c.ttl)).Int64()
	if err != nil {
		c.degrade("increment", key, err)
		return 0
	}
	return n
}

func (c *ClickCounter) Peek(ctx context.Context, shortCode string) int64 {
	key := c.keys.Counter(shortCode)

	n, err := c.client.Get(ctx, key).Int64()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.degrade("peek", key, err)
		}
		return 0
	}
	return n
}

func (c *ClickCounter) ResetAndClear(ctx context.Context, shortCode string) {
	key := c.keys.Counter(shortCode)

	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.degrade("reset", key, err)
	}
}

func (c *ClickCounter) degrade(op, key string, err error) {
	c.logger.Warn("Click counter unavailable, degrading to zero",
		"operation", op,
		"key", key,
		"error", err,
	)
	c.metrics.IncCacheTransportFailures(counterComponent, op)
}

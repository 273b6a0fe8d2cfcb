package redis

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sp3dr4/shortlink/internal/domain"
)

const rateLimitWindow = time.Minute

// FixedWindowLimiter allows perMinute requests per client address in each
// calendar minute. When Redis is unreachable every request is allowed.
type FixedWindowLimiter struct {
	client    *redis.Client
	keys      Keyspace
	perMinute int
	logger    *slog.Logger
}

func NewFixedWindowLimiter(client *redis.Client, keys Keyspace, perMinute int, logger *slog.Logger) *FixedWindowLimiter {
	return &FixedWindowLimiter{
		client:    client,
		keys:      keys,
		perMinute: perMinute,
		logger:    logger,
	}
}

func (l *FixedWindowLimiter) Allow(ctx context.Context, clientAddr string, now time.Time) domain.RateLimitDecision {
	windowStart := now.UTC().Truncate(rateLimitWindow)
	decision := domain.RateLimitDecision{
		Allowed:   true,
		Limit:     l.perMinute,
		Remaining: l.perMinute,
		ResetAt:   windowStart.Add(rateLimitWindow),
	}

	key := l.keys.RateLimit(clientAddr, windowStart.Format("200601021504"))
	count, err := incrWithTTL.Run(ctx, l.client, []string{key}, ttlSeconds(rateLimitWindow)).Int64()
	if err != nil {
		l.logger.Warn("Rate limiter unavailable, allowing request", "key", key, "error", err)
		return decision
	}

	decision.Allowed = count <= int64(l.perMinute)
	decision.Remaining = max(0, l.perMinute-int(count))
	return decision
}

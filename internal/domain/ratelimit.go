package domain

import (
	"context"
	"time"
)

// RateLimitDecision is the result of a per-client rate check.
type RateLimitDecision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RateLimiter gates inbound requests per client address. The redirect core
// never calls it; it runs in front of the HTTP handlers.
type RateLimiter interface {
	Allow(ctx context.Context, clientAddr string, now time.Time) RateLimitDecision
}

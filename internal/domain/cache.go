package domain

import (
	"context"
	"time"
)

// ResolutionCache maps short code to destination. It is advisory: a
// transport failure is reported as a miss (or a no-op for writes), never
// as an error, because redirect correctness depends on the durable store.
type ResolutionCache interface {
	// Get reports a miss identically for keys that were never set and keys
	// that expired.
	Get(ctx context.Context, shortCode string) (string, bool)
	// Set overwrites unconditionally.
	Set(ctx context.Context, shortCode, destination string, ttl time.Duration)
	Invalidate(ctx context.Context, shortCode string)
	Ping(ctx context.Context) error
}

// ClickCounter buffers clicks not yet folded into the durable count. The
// expiry window is armed only when a counter is created (0 -> 1).
type ClickCounter interface {
	// Increment atomically adds one and returns the buffered count, or 0 on
	// transport failure.
	Increment(ctx context.Context, shortCode string) int64
	// Peek returns the buffered count, 0 when absent, expired or unreachable.
	Peek(ctx context.Context, shortCode string) int64
	ResetAndClear(ctx context.Context, shortCode string)
}

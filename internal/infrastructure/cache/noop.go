package cache

import (
	"context"
	"time"
)

// NoOpCache is the resolution cache used when caching is disabled. Every
// lookup misses, so each redirect takes the durable path.
type NoOpCache struct{}

func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

func (c *NoOpCache) Get(_ context.Context, _ string) (string, bool) {
	return "", false
}

func (c *NoOpCache) Set(_ context.Context, _, _ string, _ time.Duration) {}

func (c *NoOpCache) Invalidate(_ context.Context, _ string) {}

func (c *NoOpCache) Ping(_ context.Context) error {
	return nil
}

// NoOpCounter buffers nothing; reconciled totals equal the durable count.
type NoOpCounter struct{}

func NewNoOpCounter() *NoOpCounter {
	return &NoOpCounter{}
}

func (c *NoOpCounter) Increment(_ context.Context, _ string) int64 { return 0 }

func (c *NoOpCounter) Peek(_ context.Context, _ string) int64 { return 0 }

func (c *NoOpCounter) ResetAndClear(_ context.Context, _ string) {}

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sp3dr4/shortlink/internal/domain"
)

var (
	_ domain.ResolutionCache = (*NoOpCache)(nil)
	_ domain.ClickCounter    = (*NoOpCounter)(nil)
)

func TestNoOpCache_AlwaysMisses(t *testing.T) {
	c := NewNoOpCache()
	ctx := context.Background()

	c.Set(ctx, "abc123", "https://example.org", time.Hour)
	_, ok := c.Get(ctx, "abc123")
	assert.False(t, ok)

	c.Invalidate(ctx, "abc123")
	assert.NoError(t, c.Ping(ctx))
}

func TestNoOpCounter_AlwaysZero(t *testing.T) {
	c := NewNoOpCounter()
	ctx := context.Background()

	assert.Zero(t, c.Increment(ctx, "abc123"))
	assert.Zero(t, c.Peek(ctx, "abc123"))
	c.ResetAndClear(ctx, "abc123")
}

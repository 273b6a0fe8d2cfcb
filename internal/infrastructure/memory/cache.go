package memory

import (
	"context"
	"sync"
	"time"
)

type resolutionEntry struct {
	destination string
	expiresAt   time.Time
}

// ResolutionCache is an in-process short code -> destination cache with
// per-entry TTL. Expired entries are dropped on read and by Sweep.
type ResolutionCache struct {
	mu      sync.RWMutex
	entries map[string]resolutionEntry
	now     func() time.Time
}

func NewResolutionCache(now func() time.Time) *ResolutionCache {
	if now == nil {
		now = time.Now
	}
	return &ResolutionCache{
		entries: make(map[string]resolutionEntry),
		now:     now,
	}
}

func (c *ResolutionCache) Get(_ context.Context, shortCode string) (string, bool) {
	c.mu.RLock()
	entry, ok := c.entries[shortCode]
	c.mu.RUnlock()

	if !ok {
		return "", false
	}
	if !c.now().Before(entry.expiresAt) {
		c.mu.Lock()
		if current, still := c.entries[shortCode]; still && current == entry {
			delete(c.entries, shortCode)
		}
		c.mu.Unlock()
		return "", false
	}
	return entry.destination, true
}

func (c *ResolutionCache) Set(_ context.Context, shortCode, destination string, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[shortCode] = resolutionEntry{destination: destination, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
}

func (c *ResolutionCache) Invalidate(_ context.Context, shortCode string) {
	c.mu.Lock()
	delete(c.entries, shortCode)
	c.mu.Unlock()
}

func (c *ResolutionCache) Ping(context.Context) error {
	return nil
}

// Sweep drops every expired entry and reports how many were removed.
func (c *ResolutionCache) Sweep() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for code, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			delete(c.entries, code)
			removed++
		}
	}
	return removed
}

// Len reports the number of entries held, expired or not.
func (c *ResolutionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

type counterEntry struct {
	count     int64
	expiresAt time.Time
}

// ClickCounter is an in-process buffered counter. The TTL is armed when a
// counter is created and is not extended by later increments.
type ClickCounter struct {
	mu      sync.Mutex
	entries map[string]*counterEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewClickCounter(ttl time.Duration, now func() time.Time) *ClickCounter {
	if now == nil {
		now = time.Now
	}
	return &ClickCounter{
		entries: make(map[string]*counterEntry),
		ttl:     ttl,
		now:     now,
	}
}

func (c *ClickCounter) Increment(_ context.Context, shortCode string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	entry, ok := c.entries[shortCode]
	if !ok || !now.Before(entry.expiresAt) {
		entry = &counterEntry{expiresAt: now.Add(c.ttl)}
		c.entries[shortCode] = entry
	}
	entry.count++
	return entry.count
}

func (c *ClickCounter) Peek(_ context.Context, shortCode string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[shortCode]
	if !ok {
		return 0
	}
	if !c.now().Before(entry.expiresAt) {
		delete(c.entries, shortCode)
		return 0
	}
	return entry.count
}

func (c *ClickCounter) ResetAndClear(_ context.Context, shortCode string) {
	c.mu.Lock()
	delete(c.entries, shortCode)
	c.mu.Unlock()
}

// Sweep drops every expired counter and reports how many were removed.
func (c *ClickCounter) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for code, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			delete(c.entries, code)
			removed++
		}
	}
	return removed
}

func (c *ClickCounter) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

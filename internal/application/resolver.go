package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sp3dr4/shortlink/internal/domain"
	"github.com/sp3dr4/shortlink/internal/pkg/logging"
	"github.com/sp3dr4/shortlink/internal/pkg/metrics"
)

// DefaultResolutionTTL is how long a resolved destination stays in the cache.
const DefaultResolutionTTL = 24 * time.Hour

// Resolver turns short codes into redirect outcomes. It holds no mutable
// state of its own; everything lives in the store and the two caches.
type Resolver struct {
	repo    domain.URLRepository
	cache   domain.ResolutionCache
	counter domain.ClickCounter
	ttl     time.Duration
	now     func() time.Time
	metrics metrics.Registry
}

type ResolverOption func(*Resolver)

// WithClock overrides the time source used for expiry checks and click timestamps.
func WithClock(now func() time.Time) ResolverOption {
	return func(r *Resolver) { r.now = now }
}

func WithResolutionTTL(ttl time.Duration) ResolverOption {
	return func(r *Resolver) { r.ttl = ttl }
}

func WithMetrics(registry metrics.Registry) ResolverOption {
	return func(r *Resolver) { r.metrics = registry }
}

func NewResolver(repo domain.URLRepository, cache domain.ResolutionCache, counter domain.ClickCounter, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		repo:    repo,
		cache:   cache,
		counter: counter,
		ttl:     DefaultResolutionTTL,
		now:     time.Now,
		metrics: metrics.NewNoOpRegistry(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve runs one redirect request through the cache-aside protocol.
// NotFound, Inactive and Expired are outcomes, not errors; the only error
// returned wraps domain.ErrStoreUnavailable.
func (r *Resolver) Resolve(ctx context.Context, shortCode string, meta domain.ClickMetadata) (domain.RedirectOutcome, error) {
	logger := logging.FromContext(ctx)

	if destination, ok := r.cache.Get(ctx, shortCode); ok {
		r.metrics.RecordCacheLookup(true)
		r.counter.Increment(ctx, shortCode)

		outcome := domain.Redirect(destination, true)
		r.record(outcome)
		return outcome, nil
	}
	r.metrics.RecordCacheLookup(false)

	url, err := r.repo.FindByShortCode(ctx, shortCode)
	if err != nil {
		if errors.Is(err, domain.ErrURLNotFound) {
			return r.record(domain.NotFound()), nil
		}
		logger.Error("Store lookup failed", "short_code", shortCode, "error", err)
		if !errors.Is(err, domain.ErrStoreUnavailable) {
			err = fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
		}
		return domain.RedirectOutcome{}, err
	}

	now := r.now()
	if !url.IsActive {
		return r.record(domain.Inactive()), nil
	}
	if url.IsExpired(now) {
		return r.record(domain.Expired()), nil
	}

	r.Warm(ctx, url)

	if err := r.repo.AppendClickEvent(ctx, shortCode, meta, now); err != nil {
		r.metrics.IncClickEventsDropped()
		logger.Warn("Dropping click event", "short_code", shortCode, "error", err)
	}

	r.counter.Increment(ctx, shortCode)

	outcome := domain.Redirect(url.OriginalURL, false)
	r.record(outcome)
	logger.Debug("Resolved from store", "short_code", shortCode)
	return outcome, nil
}

// Warm writes the record's destination into the resolution cache. A record
// with an expiry is cached no longer than it stays valid, so cache hits can
// never outlive it.
func (r *Resolver) Warm(ctx context.Context, url *domain.URL) {
	ttl := r.ttl
	if url.ExpiresAt != nil {
		remaining := url.ExpiresAt.Sub(r.now())
		if remaining <= 0 {
			return
		}
		ttl = min(ttl, remaining)
	}
	r.cache.Set(ctx, url.ShortCode, url.OriginalURL, ttl)
}

// InvalidateAndReset drops every derived trace of a code. Callers run it after
// deactivating or deleting the record and before acknowledging the change.
func (r *Resolver) InvalidateAndReset(ctx context.Context, shortCode string) {
	r.cache.Invalidate(ctx, shortCode)
	r.counter.ResetAndClear(ctx, shortCode)
	logging.FromContext(ctx).Info("Invalidated cached state", "short_code", shortCode)
}

// ApproximateClickTotal is the durable event count plus the buffered count.
// The two reads are not atomic; a buffer expiring in between is tolerated.
func (r *Resolver) ApproximateClickTotal(ctx context.Context, shortCode string) (int64, error) {
	return r.ApproximateClickTotalSince(ctx, shortCode, nil)
}

// ApproximateClickTotalSince bounds the durable half of the total below by since.
func (r *Resolver) ApproximateClickTotalSince(ctx context.Context, shortCode string, since *time.Time) (int64, error) {
	durable, err := r.repo.CountEvents(ctx, shortCode, since)
	if err != nil {
		return 0, err
	}
	return durable + r.counter.Peek(ctx, shortCode), nil
}

// BufferedClicks exposes the counter's live buffer for a code.
func (r *Resolver) BufferedClicks(ctx context.Context, shortCode string) int64 {
	return r.counter.Peek(ctx, shortCode)
}

// Now is the resolver clock.
func (r *Resolver) Now() time.Time {
	return r.now()
}

// CacheHealth reports whether the resolution cache transport answers.
func (r *Resolver) CacheHealth(ctx context.Context) error {
	return r.cache.Ping(ctx)
}

func (r *Resolver) record(outcome domain.RedirectOutcome) domain.RedirectOutcome {
	r.metrics.RecordRedirect(outcome.Kind.String(), outcome.CacheHit)
	return outcome
}

package application

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sp3dr4/shortlink/internal/domain"
	"github.com/sp3dr4/shortlink/internal/infrastructure/memory"
	"github.com/sp3dr4/shortlink/internal/pkg/metrics"
)

const testBaseURL = "http://localhost:8080"

func newService(f *fixture) *URLService {
	return NewURLService(f.repo, f.resolver, metrics.NewNoOpRegistry(), testBaseURL, 6)
}

func TestGenerateShortCode(t *testing.T) {
	code, err := GenerateShortCode(8)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[A-Za-z0-9]{8}$`), code)
}

func TestURLService_CreateShortURL(t *testing.T) {
	f := newFixture()
	service := newService(f)
	ctx := context.Background()

	t.Run("generated code", func(t *testing.T) {
		resp, err := service.CreateShortURL(ctx, 1, CreateURLRequest{URL: "https://example.com"})
		require.NoError(t, err)
		assert.Len(t, resp.ShortCode, 6)
		assert.Equal(t, testBaseURL+"/"+resp.ShortCode, resp.ShortURL)
		assert.True(t, resp.IsActive)
		assert.Zero(t, resp.ClickCount)

		destination, ok := f.cache.Get(ctx, resp.ShortCode)
		assert.True(t, ok, "created record is written into the resolution cache")
		assert.Equal(t, "https://example.com", destination)
	})

	t.Run("custom code and title", func(t *testing.T) {
		title := "Example"
		resp, err := service.CreateShortURL(ctx, 1, CreateURLRequest{
			URL:             "https://example.org",
			CustomShortCode: "abc123",
			Title:           &title,
		})
		require.NoError(t, err)
		assert.Equal(t, "abc123", resp.ShortCode)
		require.NotNil(t, resp.Title)
		assert.Equal(t, "Example", *resp.Title)
	})

	t.Run("duplicate custom code", func(t *testing.T) {
		_, err := service.CreateShortURL(ctx, 2, CreateURLRequest{
			URL:             "https://other.example",
			CustomShortCode: "abc123",
		})
		assert.ErrorIs(t, err, domain.ErrShortCodeExists)
	})

	t.Run("expiry in the past", func(t *testing.T) {
		past := f.clock.Now().Add(-time.Minute)
		_, err := service.CreateShortURL(ctx, 1, CreateURLRequest{URL: "https://example.com", ExpiresAt: &past})
		assert.ErrorIs(t, err, domain.ErrInvalidExpiry)
	})
}

type countingRepo struct {
	*memory.URLRepository
	creates   int
	existsErr error
}

func (r *countingRepo) Create(ctx context.Context, url *domain.URL) (*domain.URL, error) {
	r.creates++
	return r.URLRepository.Create(ctx, url)
}

func (r *countingRepo) Exists(ctx context.Context, shortCode string) (bool, error) {
	if r.existsErr != nil {
		return false, r.existsErr
	}
	return r.URLRepository.Exists(ctx, shortCode)
}

func TestURLService_CreateShortURL_TakenCustomCodeSkipsInsert(t *testing.T) {
	f := newFixture()
	repo := &countingRepo{URLRepository: f.repo}
	resolver := NewResolver(repo, f.cache, f.counter, WithClock(f.clock.Now))
	service := NewURLService(repo, resolver, metrics.NewNoOpRegistry(), testBaseURL, 6)
	ctx := context.Background()

	_, err := service.CreateShortURL(ctx, 1, CreateURLRequest{URL: "https://example.org", CustomShortCode: "abc123"})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.creates)

	_, err = service.CreateShortURL(ctx, 2, CreateURLRequest{URL: "https://other.example", CustomShortCode: "abc123"})
	assert.ErrorIs(t, err, domain.ErrShortCodeExists)
	assert.Equal(t, 1, repo.creates, "a taken code is rejected before the insert")

	repo.existsErr = fmt.Errorf("%w: connection refused", domain.ErrStoreUnavailable)
	_, err = service.CreateShortURL(ctx, 1, CreateURLRequest{URL: "https://example.org", CustomShortCode: "zzz999"})
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Equal(t, 1, repo.creates)
}

func TestURLService_CreateShortURL_Validation(t *testing.T) {
	service := newService(newFixture())

	tests := []struct {
		name    string
		request CreateURLRequest
		field   string
	}{
		{name: "empty URL", request: CreateURLRequest{URL: ""}, field: "URL"},
		{name: "invalid URL", request: CreateURLRequest{URL: "not-a-url"}, field: "URL"},
		{name: "code too short", request: CreateURLRequest{URL: "https://a.io", CustomShortCode: "ab1"}, field: "CustomShortCode"},
		{name: "code too long", request: CreateURLRequest{URL: "https://a.io", CustomShortCode: "abcdefghijk"}, field: "CustomShortCode"},
		{name: "code not alphanumeric", request: CreateURLRequest{URL: "https://a.io", CustomShortCode: "ab-123"}, field: "CustomShortCode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.CreateShortURL(context.Background(), 1, tt.request)
			require.Error(t, err)

			var validationErrors validator.ValidationErrors
			require.True(t, errors.As(err, &validationErrors))
			assert.Equal(t, tt.field, validationErrors[0].Field())
		})
	}
}

func TestURLService_GetAndList(t *testing.T) {
	f := newFixture()
	service := newService(f)
	ctx := context.Background()

	for _, code := range []string{"first1", "second"} {
		_, err := service.CreateShortURL(ctx, 1, CreateURLRequest{URL: "https://example.com/" + code, CustomShortCode: code})
		require.NoError(t, err)
	}
	_, err := service.CreateShortURL(ctx, 2, CreateURLRequest{URL: "https://example.com", CustomShortCode: "theirs"})
	require.NoError(t, err)

	require.NoError(t, f.repo.AppendClickEvent(ctx, "first1", domain.ClickMetadata{}, f.clock.Now()))
	f.counter.Increment(ctx, "first1")
	f.counter.Increment(ctx, "first1")

	got, err := service.GetURL(ctx, 1, "first1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.ClickCount)

	_, err = service.GetURL(ctx, 1, "theirs")
	assert.ErrorIs(t, err, domain.ErrURLNotFound)

	list, err := service.ListURLs(ctx, 1, ListURLsQuery{Skip: 0, Limit: 100})
	require.NoError(t, err)
	require.Len(t, list, 2)

	totals := map[string]int64{}
	for _, u := range list {
		totals[u.ShortCode] = u.ClickCount
	}
	assert.Equal(t, map[string]int64{"first1": 3, "second": 0}, totals)

	_, err = service.ListURLs(ctx, 1, ListURLsQuery{Limit: 0})
	assert.Error(t, err)
}

func TestURLService_UpdateURL(t *testing.T) {
	f := newFixture()
	service := newService(f)
	ctx := context.Background()

	_, err := service.CreateShortURL(ctx, 1, CreateURLRequest{URL: "https://example.org", CustomShortCode: "abc123"})
	require.NoError(t, err)

	_, err = f.resolver.Resolve(ctx, "abc123", domain.ClickMetadata{})
	require.NoError(t, err)

	title := "Renamed"
	resp, err := service.UpdateURL(ctx, 1, "abc123", UpdateURLRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", *resp.Title)
	_, cached := f.cache.Get(ctx, "abc123")
	assert.True(t, cached, "title change keeps the cached destination")

	inactive := false
	_, err = service.UpdateURL(ctx, 2, "abc123", UpdateURLRequest{IsActive: &inactive})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	resp, err = service.UpdateURL(ctx, 1, "abc123", UpdateURLRequest{IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, resp.IsActive)

	_, cached = f.cache.Get(ctx, "abc123")
	assert.False(t, cached)
	assert.Zero(t, f.counter.Peek(ctx, "abc123"))

	outcome, err := f.resolver.Resolve(ctx, "abc123", domain.ClickMetadata{})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeInactive, outcome.Kind)

	_, err = service.UpdateURL(ctx, 1, "missing", UpdateURLRequest{Title: &title})
	assert.ErrorIs(t, err, domain.ErrURLNotFound)
}

func TestURLService_UpdateURL_DeactivateAlreadyInactive(t *testing.T) {
	f := newFixture()
	service := newService(f)
	ctx := context.Background()

	f.createRecord(t, "abc123", "https://example.org", nil)
	inactive := false
	_, err := f.repo.Update(ctx, "abc123", domain.URLPatch{IsActive: &inactive})
	require.NoError(t, err)

	// A destination warmed by a request that read the record before it was
	// deactivated.
	f.cache.Set(ctx, "abc123", "https://example.org", time.Hour)
	f.counter.Increment(ctx, "abc123")

	resp, err := service.UpdateURL(ctx, 1, "abc123", UpdateURLRequest{IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, resp.IsActive)

	_, cached := f.cache.Get(ctx, "abc123")
	assert.False(t, cached)
	assert.Zero(t, f.counter.Peek(ctx, "abc123"))

	outcome, err := f.resolver.Resolve(ctx, "abc123", domain.ClickMetadata{})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeInactive, outcome.Kind)
}

func TestURLService_DeleteURL(t *testing.T) {
	f := newFixture()
	service := newService(f)
	ctx := context.Background()

	_, err := service.CreateShortURL(ctx, 1, CreateURLRequest{URL: "https://example.org", CustomShortCode: "abc123"})
	require.NoError(t, err)
	_, err = f.resolver.Resolve(ctx, "abc123", domain.ClickMetadata{})
	require.NoError(t, err)

	assert.ErrorIs(t, service.DeleteURL(ctx, 2, "abc123"), domain.ErrForbidden)
	require.NoError(t, service.DeleteURL(ctx, 1, "abc123"))

	_, cached := f.cache.Get(ctx, "abc123")
	assert.False(t, cached)
	assert.Zero(t, f.counter.Peek(ctx, "abc123"))
	assert.Zero(t, f.events(t, "abc123"))

	outcome, err := f.resolver.Resolve(ctx, "abc123", domain.ClickMetadata{})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeNotFound, outcome.Kind)

	assert.ErrorIs(t, service.DeleteURL(ctx, 1, "abc123"), domain.ErrURLNotFound)
}

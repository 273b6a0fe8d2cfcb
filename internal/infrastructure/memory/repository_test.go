package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sp3dr4/shortlink/internal/domain"
)

func newURL(t *testing.T, code string, owner int64) *domain.URL {
	t.Helper()
	url, err := domain.NewURL(code, "https://example.com/"+code, owner, nil)
	require.NoError(t, err)
	return url
}

func TestMemoryRepository_Create(t *testing.T) {
	repo := NewURLRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, newURL(t, "test123", 1))
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	assert.True(t, created.IsActive)

	_, err = repo.Create(ctx, newURL(t, "test123", 2))
	assert.ErrorIs(t, err, domain.ErrShortCodeExists)
}

func TestMemoryRepository_FindByShortCode(t *testing.T) {
	repo := NewURLRepository()
	ctx := context.Background()

	_, err := repo.Create(ctx, newURL(t, "test123", 1))
	require.NoError(t, err)

	found, err := repo.FindByShortCode(ctx, "test123")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/test123", found.OriginalURL)

	_, err = repo.FindByShortCode(ctx, "notfound")
	assert.ErrorIs(t, err, domain.ErrURLNotFound)
}

func TestMemoryRepository_Update(t *testing.T) {
	repo := NewURLRepository()
	ctx := context.Background()

	_, err := repo.Create(ctx, newURL(t, "test123", 1))
	require.NoError(t, err)

	title, off := "docs", false
	updated, err := repo.Update(ctx, "test123", domain.URLPatch{Title: &title, IsActive: &off})
	require.NoError(t, err)
	assert.Equal(t, "docs", *updated.Title)
	assert.False(t, updated.IsActive)

	_, err = repo.Update(ctx, "missing", domain.URLPatch{Title: &title})
	assert.ErrorIs(t, err, domain.ErrURLNotFound)
}

func TestMemoryRepository_DeleteCascadesClickEvents(t *testing.T) {
	repo := NewURLRepository()
	ctx := context.Background()

	_, err := repo.Create(ctx, newURL(t, "test123", 1))
	require.NoError(t, err)
	require.NoError(t, repo.AppendClickEvent(ctx, "test123", domain.ClickMetadata{SourceIP: "10.0.0.1"}, time.Now()))

	require.NoError(t, repo.Delete(ctx, "test123"))

	n, err := repo.CountEvents(ctx, "test123", nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	// A recreated code starts from a clean event log.
	_, err = repo.Create(ctx, newURL(t, "test123", 1))
	require.NoError(t, err)
	n, err = repo.CountEvents(ctx, "test123", nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.ErrorIs(t, repo.Delete(ctx, "missing"), domain.ErrURLNotFound)
}

func TestMemoryRepository_ClickEvents(t *testing.T) {
	repo := NewURLRepository()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	_, err := repo.Create(ctx, newURL(t, "test123", 1))
	require.NoError(t, err)

	for i, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.1"} {
		meta := domain.ClickMetadata{SourceIP: ip, UserAgent: "curl", Referrer: "https://ref"}
		require.NoError(t, repo.AppendClickEvent(ctx, "test123", meta, base.Add(time.Duration(i)*time.Hour)))
	}

	err = repo.AppendClickEvent(ctx, "missing", domain.ClickMetadata{}, base)
	assert.ErrorIs(t, err, domain.ErrURLNotFound)

	total, err := repo.CountEvents(ctx, "test123", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	since := base.Add(time.Hour)
	windowed, err := repo.CountEvents(ctx, "test123", &since)
	require.NoError(t, err)
	assert.Equal(t, int64(2), windowed)

	unique, err := repo.CountUniqueSources(ctx, "test123", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unique)

	events, err := repo.ListClickEvents(ctx, "test123", 0, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, base.Add(2*time.Hour), events[0].ClickedAt, "newest first")
}

func TestMemoryRepository_ListAndTopByOwner(t *testing.T) {
	repo := NewURLRepository()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i, code := range []string{"aaaa", "bbbb", "cccc"} {
		url := newURL(t, code, 1)
		url.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		_, err := repo.Create(ctx, url)
		require.NoError(t, err)
	}
	_, err := repo.Create(ctx, newURL(t, "other", 2))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.AppendClickEvent(ctx, "bbbb", domain.ClickMetadata{}, base))
	}
	require.NoError(t, repo.AppendClickEvent(ctx, "aaaa", domain.ClickMetadata{}, base))

	listed, err := repo.ListByOwner(ctx, 1, 0, 10)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, "cccc", listed[0].ShortCode, "newest first")

	paged, err := repo.ListByOwner(ctx, 1, 2, 10)
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, "aaaa", paged[0].ShortCode)

	top, err := repo.TopByOwner(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "bbbb", top[0].URL.ShortCode)
	assert.Equal(t, int64(3), top[0].EventCount)
	assert.Equal(t, "aaaa", top[1].URL.ShortCode)
}

func TestMemoryRepository_Exists(t *testing.T) {
	repo := NewURLRepository()
	ctx := context.Background()

	_, err := repo.Create(ctx, newURL(t, "test123", 1))
	require.NoError(t, err)

	exists, err := repo.Exists(ctx, "test123")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.Exists(ctx, "notfound")
	require.NoError(t, err)
	assert.False(t, exists)
}

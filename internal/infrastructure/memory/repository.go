package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sp3dr4/shortlink/internal/domain"
)

// URLRepository is an in-process durable store used for local runs and tests.
type URLRepository struct {
	mu       sync.RWMutex
	urls     map[string]*domain.URL
	clicks   map[string][]*domain.ClickEvent
	nextID   int64
	nextClID int64
}

func NewURLRepository() *URLRepository {
	return &URLRepository{
		urls:   make(map[string]*domain.URL),
		clicks: make(map[string][]*domain.ClickEvent),
	}
}

func (r *URLRepository) Create(ctx context.Context, url *domain.URL) (*domain.URL, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.urls[url.ShortCode]; exists {
		return nil, domain.ErrShortCodeExists
	}

	r.nextID++
	created := *url
	created.ID = r.nextID

	r.urls[url.ShortCode] = &created
	out := created
	return &out, nil
}

func (r *URLRepository) FindByShortCode(ctx context.Context, shortCode string) (*domain.URL, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	url, exists := r.urls[shortCode]
	if !exists {
		return nil, domain.ErrURLNotFound
	}

	out := *url
	return &out, nil
}

func (r *URLRepository) Update(ctx context.Context, shortCode string, patch domain.URLPatch) (*domain.URL, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	url, exists := r.urls[shortCode]
	if !exists {
		return nil, domain.ErrURLNotFound
	}

	if patch.Title != nil {
		title := *patch.Title
		url.Title = &title
	}
	if patch.IsActive != nil {
		url.IsActive = *patch.IsActive
	}
	url.UpdatedAt = time.Now().UTC()

	out := *url
	return &out, nil
}

// Delete removes the record together with its click events.
func (r *URLRepository) Delete(ctx context.Context, shortCode string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.urls[shortCode]; !exists {
		return domain.ErrURLNotFound
	}

	delete(r.urls, shortCode)
	delete(r.clicks, shortCode)
	return nil
}

func (r *URLRepository) ListByOwner(ctx context.Context, ownerID int64, offset, limit int) ([]*domain.URL, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var owned []*domain.URL
	for _, url := range r.urls {
		if url.OwnerID == ownerID {
			out := *url
			owned = append(owned, &out)
		}
	}

	sort.Slice(owned, func(i, j int) bool {
		if owned[i].CreatedAt.Equal(owned[j].CreatedAt) {
			return owned[i].ID > owned[j].ID
		}
		return owned[i].CreatedAt.After(owned[j].CreatedAt)
	})

	return page(owned, offset, limit), nil
}

func (r *URLRepository) Exists(ctx context.Context, shortCode string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.urls[shortCode]
	return exists, nil
}

func (r *URLRepository) AppendClickEvent(ctx context.Context, shortCode string, meta domain.ClickMetadata, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.urls[shortCode]; !exists {
		return domain.ErrURLNotFound
	}

	r.nextClID++
	r.clicks[shortCode] = append(r.clicks[shortCode], &domain.ClickEvent{
		ID:        r.nextClID,
		ShortCode: shortCode,
		SourceIP:  meta.SourceIP,
		UserAgent: meta.UserAgent,
		Referrer:  meta.Referrer,
		ClickedAt: at,
	})
	return nil
}

func (r *URLRepository) CountEvents(ctx context.Context, shortCode string, since *time.Time) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for _, ev := range r.clicks[shortCode] {
		if since == nil || !ev.ClickedAt.Before(*since) {
			n++
		}
	}
	return n, nil
}

func (r *URLRepository) CountUniqueSources(ctx context.Context, shortCode string, since *time.Time) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, ev := range r.clicks[shortCode] {
		if ev.SourceIP == "" {
			continue
		}
		if since == nil || !ev.ClickedAt.Before(*since) {
			seen[ev.SourceIP] = struct{}{}
		}
	}
	return int64(len(seen)), nil
}

func (r *URLRepository) ListClickEvents(ctx context.Context, shortCode string, offset, limit int) ([]*domain.ClickEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := make([]*domain.ClickEvent, 0, len(r.clicks[shortCode]))
	for i := len(r.clicks[shortCode]) - 1; i >= 0; i-- {
		ev := *r.clicks[shortCode][i]
		events = append(events, &ev)
	}
	return page(events, offset, limit), nil
}

func (r *URLRepository) TopByOwner(ctx context.Context, ownerID int64, limit int) ([]domain.URLClicks, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var top []domain.URLClicks
	for code, url := range r.urls {
		if url.OwnerID != ownerID {
			continue
		}
		out := *url
		top = append(top, domain.URLClicks{URL: &out, EventCount: int64(len(r.clicks[code]))})
	}

	sort.Slice(top, func(i, j int) bool {
		if top[i].EventCount == top[j].EventCount {
			return top[i].URL.ID < top[j].URL.ID
		}
		return top[i].EventCount > top[j].EventCount
	})

	return page(top, 0, limit), nil
}

func (r *URLRepository) Close() error {
	return nil
}

func (r *URLRepository) HealthCheck(ctx context.Context) error {
	return nil
}

func page[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

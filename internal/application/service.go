package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/sp3dr4/shortlink/internal/domain"
	"github.com/sp3dr4/shortlink/internal/pkg/logging"
	"github.com/sp3dr4/shortlink/internal/pkg/metrics"
)

const (
	shortCodeAlphabet     = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	maxGenerationAttempts = 5
	totalsConcurrency     = 8
)

type URLService struct {
	repo       domain.URLRepository
	resolver   *Resolver
	validate   *validator.Validate
	metrics    metrics.Registry
	baseURL    string
	codeLength int
}

func NewURLService(repo domain.URLRepository, resolver *Resolver, registry metrics.Registry, baseURL string, codeLength int) *URLService {
	return &URLService{
		repo:       repo,
		resolver:   resolver,
		validate:   validator.New(),
		metrics:    registry,
		baseURL:    baseURL,
		codeLength: codeLength,
	}
}

type CreateURLRequest struct {
	URL             string     `json:"url" validate:"required,url"`
	CustomShortCode string     `json:"customShortCode,omitempty" validate:"omitempty,alphanum,min=4,max=10"`
	Title           *string    `json:"title,omitempty" validate:"omitempty,max=255"`
	ExpiresAt       *time.Time `json:"expiresAt,omitempty"`
}

type UpdateURLRequest struct {
	Title    *string `json:"title,omitempty" validate:"omitempty,max=255"`
	IsActive *bool   `json:"isActive,omitempty"`
}

type ListURLsQuery struct {
	Skip  int `json:"skip" validate:"min=0"`
	Limit int `json:"limit" validate:"min=1,max=100"`
}

type URLResponse struct {
	ID          int64      `json:"id"`
	ShortCode   string     `json:"shortCode"`
	ShortURL    string     `json:"shortUrl"`
	OriginalURL string     `json:"originalUrl"`
	Title       *string    `json:"title,omitempty"`
	IsActive    bool       `json:"isActive"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	ClickCount  int64      `json:"clickCount"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// GenerateShortCode returns a random code of the given length over [A-Za-z0-9].
func GenerateShortCode(length int) (string, error) {
	return gonanoid.Generate(shortCodeAlphabet, length)
}

// CreateShortURL stores a new record and warms the resolution cache with it.
// Redirects for the new code are therefore cache hits from the first request:
// they are counted in the click buffer and write no click events until the
// cached entry expires or is invalidated.
func (s *URLService) CreateShortURL(ctx context.Context, ownerID int64, req CreateURLRequest) (*URLResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	if req.ExpiresAt != nil && !req.ExpiresAt.After(s.resolver.Now()) {
		return nil, domain.ErrInvalidExpiry
	}

	var (
		created *domain.URL
		err     error
	)
	if req.CustomShortCode != "" {
		created, err = s.createCustom(ctx, ownerID, req)
	} else {
		for attempt := 1; attempt <= maxGenerationAttempts; attempt++ {
			code, genErr := GenerateShortCode(s.codeLength)
			if genErr != nil {
				return nil, fmt.Errorf("failed to generate short code: %w", genErr)
			}
			created, err = s.create(ctx, code, ownerID, req)
			if !errors.Is(err, domain.ErrShortCodeExists) {
				break
			}
			logging.FromContext(ctx).Debug("Generated short code collided", "short_code", code, "attempt", attempt)
		}
	}
	if err != nil {
		return nil, err
	}

	s.resolver.Warm(ctx, created)
	s.metrics.IncURLsCreated()

	logging.FromContext(ctx).Info("Created short URL", "short_code", created.ShortCode, "owner_id", ownerID)
	return s.toResponse(created, 0), nil
}

// createCustom rejects a taken custom code before attempting the insert. The
// store's uniqueness constraint still decides concurrent claims.
func (s *URLService) createCustom(ctx context.Context, ownerID int64, req CreateURLRequest) (*domain.URL, error) {
	taken, err := s.repo.Exists(ctx, req.CustomShortCode)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.ErrShortCodeExists
	}
	return s.create(ctx, req.CustomShortCode, ownerID, req)
}

func (s *URLService) create(ctx context.Context, code string, ownerID int64, req CreateURLRequest) (*domain.URL, error) {
	url, err := domain.NewURL(code, req.URL, ownerID, req.ExpiresAt)
	if err != nil {
		return nil, err
	}
	url.Title = req.Title
	return s.repo.Create(ctx, url)
}

// GetURL returns one of the owner's records. Records owned by someone else
// are reported as not found.
func (s *URLService) GetURL(ctx context.Context, ownerID int64, shortCode string) (*URLResponse, error) {
	url, err := s.repo.FindByShortCode(ctx, shortCode)
	if err != nil {
		return nil, err
	}
	if !url.OwnedBy(ownerID) {
		return nil, domain.ErrURLNotFound
	}

	total, err := s.resolver.ApproximateClickTotal(ctx, shortCode)
	if err != nil {
		return nil, err
	}
	return s.toResponse(url, total), nil
}

// ListURLs returns the owner's records newest first, each with its reconciled click total.
func (s *URLService) ListURLs(ctx context.Context, ownerID int64, query ListURLsQuery) ([]*URLResponse, error) {
	if err := s.validate.Struct(query); err != nil {
		return nil, err
	}

	urls, err := s.repo.ListByOwner(ctx, ownerID, query.Skip, query.Limit)
	if err != nil {
		return nil, err
	}

	responses := make([]*URLResponse, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(totalsConcurrency)
	for i, url := range urls {
		g.Go(func() error {
			total, err := s.resolver.ApproximateClickTotal(gctx, url.ShortCode)
			if err != nil {
				return err
			}
			responses[i] = s.toResponse(url, total)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return responses, nil
}

// UpdateURL applies an administrative patch. A patch that sets the record
// inactive clears its cached destination and buffered count before returning,
// even when the record already reads as inactive.
func (s *URLService) UpdateURL(ctx context.Context, ownerID int64, shortCode string, req UpdateURLRequest) (*URLResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	if _, err := s.authorize(ctx, ownerID, shortCode); err != nil {
		return nil, err
	}

	patch := domain.URLPatch{Title: req.Title, IsActive: req.IsActive}
	updated, err := s.repo.Update(ctx, shortCode, patch)
	if err != nil {
		return nil, err
	}

	if patch.Deactivates() {
		s.resolver.InvalidateAndReset(ctx, shortCode)
	}

	total, err := s.resolver.ApproximateClickTotal(ctx, shortCode)
	if err != nil {
		return nil, err
	}
	return s.toResponse(updated, total), nil
}

// DeleteURL removes the record and its click events, then clears derived state.
func (s *URLService) DeleteURL(ctx context.Context, ownerID int64, shortCode string) error {
	if _, err := s.authorize(ctx, ownerID, shortCode); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, shortCode); err != nil {
		return err
	}

	s.resolver.InvalidateAndReset(ctx, shortCode)
	logging.FromContext(ctx).Info("Deleted short URL", "short_code", shortCode, "owner_id", ownerID)
	return nil
}

func (s *URLService) authorize(ctx context.Context, ownerID int64, shortCode string) (*domain.URL, error) {
	url, err := s.repo.FindByShortCode(ctx, shortCode)
	if err != nil {
		return nil, err
	}
	if !url.OwnedBy(ownerID) {
		return nil, domain.ErrForbidden
	}
	return url, nil
}

func (s *URLService) toResponse(url *domain.URL, clicks int64) *URLResponse {
	return &URLResponse{
		ID:          url.ID,
		ShortCode:   url.ShortCode,
		ShortURL:    s.baseURL + "/" + url.ShortCode,
		OriginalURL: url.OriginalURL,
		Title:       url.Title,
		IsActive:    url.IsActive,
		ExpiresAt:   url.ExpiresAt,
		ClickCount:  clicks,
		CreatedAt:   url.CreatedAt,
		UpdatedAt:   url.UpdatedAt,
	}
}

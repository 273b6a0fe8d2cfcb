package application

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/sp3dr4/shortlink/internal/domain"
)

type AnalyticsService struct {
	repo     domain.URLRepository
	resolver *Resolver
	validate *validator.Validate
}

func NewAnalyticsService(repo domain.URLRepository, resolver *Resolver) *AnalyticsService {
	return &AnalyticsService{
		repo:     repo,
		resolver: resolver,
		validate: validator.New(),
	}
}

type ClickEventsQuery struct {
	Skip  int `json:"skip" validate:"min=0"`
	Limit int `json:"limit" validate:"min=1,max=1000"`
}

type SummaryQuery struct {
	Days int `json:"days" validate:"min=1,max=365"`
}

type TopQuery struct {
	Limit int `json:"limit" validate:"min=1,max=50"`
}

type ClickSummary struct {
	ShortCode   string    `json:"shortCode"`
	Days        int       `json:"days"`
	Since       time.Time `json:"since"`
	TotalClicks int64     `json:"totalClicks"`
	UniqueIPs   int64     `json:"uniqueIps"`
}

type TopURL struct {
	ShortCode   string  `json:"shortCode"`
	OriginalURL string  `json:"originalUrl"`
	Title       *string `json:"title,omitempty"`
	TotalClicks int64   `json:"totalClicks"`
}

// ClickEvents lists the durably recorded events for one of the owner's codes, newest first.
func (s *AnalyticsService) ClickEvents(ctx context.Context, ownerID int64, shortCode string, query ClickEventsQuery) ([]*domain.ClickEvent, error) {
	if err := s.validate.Struct(query); err != nil {
		return nil, err
	}
	if err := s.owned(ctx, ownerID, shortCode); err != nil {
		return nil, err
	}
	return s.repo.ListClickEvents(ctx, shortCode, query.Skip, query.Limit)
}

// Summary reports the reconciled total and distinct source count over the last query.Days days.
func (s *AnalyticsService) Summary(ctx context.Context, ownerID int64, shortCode string, query SummaryQuery) (*ClickSummary, error) {
	if err := s.validate.Struct(query); err != nil {
		return nil, err
	}
	if err := s.owned(ctx, ownerID, shortCode); err != nil {
		return nil, err
	}

	since := s.resolver.Now().AddDate(0, 0, -query.Days)

	var total, unique int64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		total, err = s.resolver.ApproximateClickTotalSince(gctx, shortCode, &since)
		return err
	})
	g.Go(func() (err error) {
		unique, err = s.repo.CountUniqueSources(gctx, shortCode, &since)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &ClickSummary{
		ShortCode:   shortCode,
		Days:        query.Days,
		Since:       since,
		TotalClicks: total,
		UniqueIPs:   unique,
	}, nil
}

// Top returns the owner's records ordered by durable event count, each with
// the buffered count folded into its total.
func (s *AnalyticsService) Top(ctx context.Context, ownerID int64, query TopQuery) ([]TopURL, error) {
	if err := s.validate.Struct(query); err != nil {
		return nil, err
	}

	ranked, err := s.repo.TopByOwner(ctx, ownerID, query.Limit)
	if err != nil {
		return nil, err
	}

	top := make([]TopURL, len(ranked))
	for i, entry := range ranked {
		top[i] = TopURL{
			ShortCode:   entry.URL.ShortCode,
			OriginalURL: entry.URL.OriginalURL,
			Title:       entry.URL.Title,
			TotalClicks: entry.EventCount + s.resolver.BufferedClicks(ctx, entry.URL.ShortCode),
		}
	}
	return top, nil
}

func (s *AnalyticsService) owned(ctx context.Context, ownerID int64, shortCode string) error {
	url, err := s.repo.FindByShortCode(ctx, shortCode)
	if err != nil {
		return err
	}
	if !url.OwnedBy(ownerID) {
		return domain.ErrURLNotFound
	}
	return nil
}

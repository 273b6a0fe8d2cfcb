package domain

import (
	"context"
	"time"
)

// URLRepository is the durable store: the source of truth for records and
// the click event log. Implementations must enforce short code uniqueness
// atomically and cascade record deletion to its click events.
type URLRepository interface {
	Create(ctx context.Context, url *URL) (*URL, error)
	FindByShortCode(ctx context.Context, shortCode string) (*URL, error)
	Update(ctx context.Context, shortCode string, patch URLPatch) (*URL, error)
	Delete(ctx context.Context, shortCode string) error
	ListByOwner(ctx context.Context, ownerID int64, offset, limit int) ([]*URL, error)
	Exists(ctx context.Context, shortCode string) (bool, error)

	// AppendClickEvent fails with ErrURLNotFound when the record is gone.
	AppendClickEvent(ctx context.Context, shortCode string, meta ClickMetadata, at time.Time) error
	// CountEvents counts click events, optionally bounded below by since.
	CountEvents(ctx context.Context, shortCode string, since *time.Time) (int64, error)
	CountUniqueSources(ctx context.Context, shortCode string, since *time.Time) (int64, error)
	ListClickEvents(ctx context.Context, shortCode string, offset, limit int) ([]*ClickEvent, error)
	TopByOwner(ctx context.Context, ownerID int64, limit int) ([]URLClicks, error)

	Close() error
	HealthCheck(ctx context.Context) error
}

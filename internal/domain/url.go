package domain

import (
	"errors"
	"time"
)

var (
	ErrURLNotFound      = errors.New("url not found")
	ErrShortCodeExists  = errors.New("short code already exists")
	ErrInvalidURL       = errors.New("invalid url")
	ErrInvalidShortCode = errors.New("invalid short code")
	ErrForbidden        = errors.New("url is owned by another user")
	ErrInvalidExpiry    = errors.New("expiry must be in the future")

	// ErrStoreUnavailable wraps any durable store failure that is not a
	// well-known outcome. It must never be reported as ErrURLNotFound.
	ErrStoreUnavailable = errors.New("durable store unavailable")
)

// URL is a short code mapping owned by the durable store.
type URL struct {
	ID          int64      `db:"id" json:"id"`
	ShortCode   string     `db:"short_code" json:"shortCode"`
	OriginalURL string     `db:"original_url" json:"originalUrl"`
	Title       *string    `db:"title" json:"title,omitempty"`
	IsActive    bool       `db:"is_active" json:"isActive"`
	OwnerID     int64      `db:"owner_id" json:"ownerId"`
	ExpiresAt   *time.Time `db:"expires_at" json:"expiresAt,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updatedAt"`
}

func NewURL(shortCode, originalURL string, ownerID int64, expiresAt *time.Time) (*URL, error) {
	if shortCode == "" {
		return nil, ErrInvalidShortCode
	}
	if originalURL == "" {
		return nil, ErrInvalidURL
	}

	now := time.Now().UTC()
	return &URL{
		ShortCode:   shortCode,
		OriginalURL: originalURL,
		IsActive:    true,
		OwnerID:     ownerID,
		ExpiresAt:   expiresAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// IsExpired reports whether the record is expired at now. The boundary is
// inclusive: a record expiring exactly at now is expired.
func (u *URL) IsExpired(now time.Time) bool {
	return u.ExpiresAt != nil && !now.Before(*u.ExpiresAt)
}

// OwnedBy reports whether ownerID may mutate the record.
func (u *URL) OwnedBy(ownerID int64) bool {
	return u.OwnerID == ownerID
}

// URLPatch carries the administrative fields that may change after creation.
// Nil fields are left untouched.
type URLPatch struct {
	Title    *string
	IsActive *bool
}

// Deactivates reports whether the patch sets the record inactive. It does not
// depend on the record's prior state, which may be stale by the time the
// patch is written.
func (p URLPatch) Deactivates() bool {
	return p.IsActive != nil && !*p.IsActive
}

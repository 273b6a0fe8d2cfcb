package domain

import "time"

// ClickEvent is an append-only record of a redirect that reached the durable path.
type ClickEvent struct {
	ID        int64     `db:"id" json:"id"`
	ShortCode string    `db:"short_code" json:"shortCode"`
	SourceIP  string    `db:"ip_address" json:"ipAddress"`
	UserAgent string    `db:"user_agent" json:"userAgent"`
	Referrer  string    `db:"referrer" json:"referrer"`
	ClickedAt time.Time `db:"clicked_at" json:"clickedAt"`
}

// ClickMetadata is what the redirect request knows about the visitor.
type ClickMetadata struct {
	SourceIP  string
	UserAgent string
	Referrer  string
}

// URLClicks pairs a record with its durable event count.
type URLClicks struct {
	URL        *URL
	EventCount int64
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sp3dr4/shortlink/internal/domain"
)

const urlColumns = `id, short_code, original_url, title, is_active, owner_id, expires_at, created_at, updated_at`

// URLRepository is the PostgreSQL durable store. It works with both the
// lib/pq ("postgres") and pgx ("pgx") database/sql drivers.
type URLRepository struct {
	db *sqlx.DB
}

func NewURLRepository(db *sqlx.DB) *URLRepository {
	return &URLRepository{db: db}
}

func (r *URLRepository) Create(ctx context.Context, url *domain.URL) (*domain.URL, error) {
	query := `
		INSERT INTO urls (short_code, original_url, title, is_active, owner_id, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + urlColumns

	var result domain.URL
	err := r.db.GetContext(ctx, &result, query,
		url.ShortCode, url.OriginalURL, url.Title, url.IsActive, url.OwnerID,
		url.ExpiresAt, url.CreatedAt, url.UpdatedAt,
	)
	if err != nil {
		return nil, r.handlePostgreSQLError(err, "create URL")
	}

	slog.Debug("URL created successfully", "short_code", result.ShortCode, "id", result.ID)
	return &result, nil
}

func (r *URLRepository) FindByShortCode(ctx context.Context, shortCode string) (*domain.URL, error) {
	var url domain.URL
	query := `SELECT ` + urlColumns + ` FROM urls WHERE short_code = $1`

	if err := r.db.GetContext(ctx, &url, query, shortCode); err != nil {
		return nil, r.handlePostgreSQLError(err, "find URL by short code")
	}

	return &url, nil
}

func (r *URLRepository) Update(ctx context.Context, shortCode string, patch domain.URLPatch) (*domain.URL, error) {
	query := `
		UPDATE urls
		SET title = COALESCE($2, title),
		    is_active = COALESCE($3, is_active),
		    updated_at = $4
		WHERE short_code = $1
		RETURNING ` + urlColumns

	var url domain.URL
	err := r.db.GetContext(ctx, &url, query, shortCode, patch.Title, patch.IsActive, time.Now().UTC())
	if err != nil {
		return nil, r.handlePostgreSQLError(err, "update URL")
	}

	slog.Debug("URL updated", "short_code", shortCode, "is_active", url.IsActive)
	return &url, nil
}

// Delete removes the record. Click events go with it through ON DELETE CASCADE.
func (r *URLRepository) Delete(ctx context.Context, shortCode string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM urls WHERE short_code = $1`, shortCode)
	if err != nil {
		return r.handlePostgreSQLError(err, "delete URL")
	}
	return r.expectRow(result, "delete URL")
}

func (r *URLRepository) ListByOwner(ctx context.Context, ownerID int64, offset, limit int) ([]*domain.URL, error) {
	query := `
		SELECT ` + urlColumns + `
		FROM urls
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
		OFFSET $2 LIMIT $3`

	urls := []*domain.URL{}
	if err := r.db.SelectContext(ctx, &urls, query, ownerID, clampOffset(offset), limitArg(limit)); err != nil {
		return nil, r.handlePostgreSQLError(err, "list URLs by owner")
	}
	return urls, nil
}

func (r *URLRepository) Exists(ctx context.Context, shortCode string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM urls WHERE short_code = $1)`

	if err := r.db.GetContext(ctx, &exists, query, shortCode); err != nil {
		return false, r.handlePostgreSQLError(err, "check URL existence")
	}

	return exists, nil
}

func (r *URLRepository) AppendClickEvent(ctx context.Context, shortCode string, meta domain.ClickMetadata, at time.Time) error {
	query := `
		INSERT INTO clicks (url_id, ip_address, user_agent, referrer, clicked_at)
		SELECT id, $2, $3, $4, $5 FROM urls WHERE short_code = $1`

	result, err := r.db.ExecContext(ctx, query, shortCode,
		nullable(meta.SourceIP), nullable(meta.UserAgent), nullable(meta.Referrer), at.UTC())
	if err != nil {
		return r.handlePostgreSQLError(err, "append click event")
	}
	return r.expectRow(result, "append click event")
}

func (r *URLRepository) CountEvents(ctx context.Context, shortCode string, since *time.Time) (int64, error) {
	query := `
		SELECT COUNT(c.id)
		FROM clicks c
		JOIN urls u ON u.id = c.url_id
		WHERE u.short_code = $1 AND ($2::timestamptz IS NULL OR c.clicked_at >= $2)`

	var n int64
	if err := r.db.GetContext(ctx, &n, query, shortCode, since); err != nil {
		return 0, r.handlePostgreSQLError(err, "count click events")
	}
	return n, nil
}

func (r *URLRepository) CountUniqueSources(ctx context.Context, shortCode string, since *time.Time) (int64, error) {
	query := `
		SELECT COUNT(DISTINCT c.ip_address)
		FROM clicks c
		JOIN urls u ON u.id = c.url_id
		WHERE u.short_code = $1 AND ($2::timestamptz IS NULL OR c.clicked_at >= $2)`

	var n int64
	if err := r.db.GetContext(ctx, &n, query, shortCode, since); err != nil {
		return 0, r.handlePostgreSQLError(err, "count unique sources")
	}
	return n, nil
}

func (r *URLRepository) ListClickEvents(ctx context.Context, shortCode string, offset, limit int) ([]*domain.ClickEvent, error) {
	query := `
		SELECT c.id, u.short_code,
		       COALESCE(c.ip_address, '') AS ip_address,
		       COALESCE(c.user_agent, '') AS user_agent,
		       COALESCE(c.referrer, '') AS referrer,
		       c.clicked_at
		FROM clicks c
		JOIN urls u ON u.id = c.url_id
		WHERE u.short_code = $1
		ORDER BY c.clicked_at DESC, c.id DESC
		OFFSET $2 LIMIT $3`

	events := []*domain.ClickEvent{}
	if err := r.db.SelectContext(ctx, &events, query, shortCode, clampOffset(offset), limitArg(limit)); err != nil {
		return nil, r.handlePostgreSQLError(err, "list click events")
	}
	return events, nil
}

type urlClicksRow struct {
	domain.URL
	EventCount int64 `db:"event_count"`
}

func (r *URLRepository) TopByOwner(ctx context.Context, ownerID int64, limit int) ([]domain.URLClicks, error) {
	query := `
		SELECT u.id, u.short_code, u.original_url, u.title, u.is_active, u.owner_id,
		       u.expires_at, u.created_at, u.updated_at, COUNT(c.id) AS event_count
		FROM urls u
		LEFT JOIN clicks c ON c.url_id = u.id
		WHERE u.owner_id = $1
		GROUP BY u.id
		ORDER BY event_count DESC, u.id ASC
		LIMIT $2`

	var rows []urlClicksRow
	if err := r.db.SelectContext(ctx, &rows, query, ownerID, limitArg(limit)); err != nil {
		return nil, r.handlePostgreSQLError(err, "top URLs by owner")
	}

	top := make([]domain.URLClicks, 0, len(rows))
	for i := range rows {
		url := rows[i].URL
		top = append(top, domain.URLClicks{URL: &url, EventCount: rows[i].EventCount})
	}
	return top, nil
}

func (r *URLRepository) expectRow(result sql.Result, operation string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return r.handlePostgreSQLError(err, operation)
	}
	if rowsAffected == 0 {
		return domain.ErrURLNotFound
	}
	return nil
}

// handlePostgreSQLError converts driver errors to domain errors. Anything that
// is not a well-known outcome becomes ErrStoreUnavailable.
func (r *URLRepository) handlePostgreSQLError(err error, operation string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrURLNotFound
	}

	code, constraint, message := "", "", ""
	var pqErr *pq.Error
	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &pqErr):
		code, constraint, message = string(pqErr.Code), pqErr.Constraint, pqErr.Message
	case errors.As(err, &pgErr):
		code, constraint, message = pgErr.Code, pgErr.ConstraintName, pgErr.Message
	}

	if code != "" {
		slog.Error("PostgreSQL error",
			"operation", operation,
			"code", code,
			"constraint", constraint,
			"message", message,
		)

		switch code {
		case "23505": // unique_violation
			return domain.ErrShortCodeExists
		case "23503": // foreign_key_violation
			return domain.ErrURLNotFound
		}
	}

	return fmt.Errorf("%w: %s: %v", domain.ErrStoreUnavailable, operation, err)
}

func (r *URLRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *URLRepository) HealthCheck(ctx context.Context) error {
	if r.db == nil {
		return errors.New("database connection is nil")
	}
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func clampOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}

// limitArg maps a non-positive limit to NULL, which PostgreSQL reads as no limit.
func limitArg(limit int) any {
	if limit <= 0 {
		return nil
	}
	return limit
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

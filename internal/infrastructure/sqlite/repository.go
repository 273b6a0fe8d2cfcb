package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"

	"github.com/sp3dr4/shortlink/internal/domain"
)

const urlColumns = `id, short_code, original_url, title, is_active, owner_id, expires_at, created_at, updated_at`

type URLRepository struct {
	db *sqlx.DB
}

func NewURLRepository(db *sqlx.DB) *URLRepository {
	return &URLRepository{db: db}
}

func (r *URLRepository) Create(ctx context.Context, url *domain.URL) (*domain.URL, error) {
	query := `
		INSERT INTO urls (short_code, original_url, title, is_active, owner_id, expires_at, created_at, updated_at)
		VALUES (:short_code, :original_url, :title, :is_active, :owner_id, :expires_at, :created_at, :updated_at)
	`

	row := *url
	row.CreatedAt = row.CreatedAt.UTC()
	row.UpdatedAt = row.UpdatedAt.UTC()
	if row.ExpiresAt != nil {
		expiresAt := row.ExpiresAt.UTC()
		row.ExpiresAt = &expiresAt
	}

	result, err := r.db.NamedExecContext(ctx, query, &row)
	if err != nil {
		return nil, mapError(err, "create URL")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, mapError(err, "create URL")
	}
	row.ID = id

	slog.Debug("URL created successfully", "short_code", row.ShortCode, "id", row.ID)
	return &row, nil
}

func (r *URLRepository) FindByShortCode(ctx context.Context, shortCode string) (*domain.URL, error) {
	var url domain.URL
	query := `SELECT ` + urlColumns + ` FROM urls WHERE short_code = ?`

	if err := r.db.GetContext(ctx, &url, query, shortCode); err != nil {
		return nil, mapError(err, "find URL by short code")
	}

	return &url, nil
}

func (r *URLRepository) Update(ctx context.Context, shortCode string, patch domain.URLPatch) (*domain.URL, error) {
	query := `
		UPDATE urls
		SET title = COALESCE(?, title),
		    is_active = COALESCE(?, is_active),
		    updated_at = ?
		WHERE short_code = ?`

	result, err := r.db.ExecContext(ctx, query, patch.Title, patch.IsActive, time.Now().UTC(), shortCode)
	if err != nil {
		return nil, mapError(err, "update URL")
	}
	if err := expectRow(result, "update URL"); err != nil {
		return nil, err
	}

	return r.FindByShortCode(ctx, shortCode)
}

// Delete removes the record and its click events in one transaction, so the
// cascade holds even when the connection was opened without foreign keys.
func (r *URLRepository) Delete(ctx context.Context, shortCode string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return mapError(err, "delete URL")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM clicks WHERE url_id IN (SELECT id FROM urls WHERE short_code = ?)`, shortCode); err != nil {
		return mapError(err, "delete click events")
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM urls WHERE short_code = ?`, shortCode)
	if err != nil {
		return mapError(err, "delete URL")
	}
	if err := expectRow(result, "delete URL"); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return mapError(err, "delete URL")
	}
	return nil
}

func (r *URLRepository) ListByOwner(ctx context.Context, ownerID int64, offset, limit int) ([]*domain.URL, error) {
	query := `
		SELECT ` + urlColumns + `
		FROM urls
		WHERE owner_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`

	urls := []*domain.URL{}
	if err := r.db.SelectContext(ctx, &urls, query, ownerID, limitArg(limit), clampOffset(offset)); err != nil {
		return nil, mapError(err, "list URLs by owner")
	}
	return urls, nil
}

func (r *URLRepository) Exists(ctx context.Context, shortCode string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM urls WHERE short_code = ?)`

	if err := r.db.GetContext(ctx, &exists, query, shortCode); err != nil {
		return false, mapError(err, "check URL existence")
	}

	return exists, nil
}

func (r *URLRepository) AppendClickEvent(ctx context.Context, shortCode string, meta domain.ClickMetadata, at time.Time) error {
	query := `
		INSERT INTO clicks (url_id, ip_address, user_agent, referrer, clicked_at)
		SELECT id, ?, ?, ?, ? FROM urls WHERE short_code = ?`

	result, err := r.db.ExecContext(ctx, query,
		meta.SourceIP, meta.UserAgent, meta.Referrer, at.UTC(), shortCode)
	if err != nil {
		return mapError(err, "append click event")
	}
	return expectRow(result, "append click event")
}

func (r *URLRepository) CountEvents(ctx context.Context, shortCode string, since *time.Time) (int64, error) {
	query := `
		SELECT COUNT(c.id)
		FROM clicks c
		JOIN urls u ON u.id = c.url_id
		WHERE u.short_code = ? AND (? IS NULL OR c.clicked_at >= ?)`

	var n int64
	s := sinceArg(since)
	if err := r.db.GetContext(ctx, &n, query, shortCode, s, s); err != nil {
		return 0, mapError(err, "count click events")
	}
	return n, nil
}

func (r *URLRepository) CountUniqueSources(ctx context.Context, shortCode string, since *time.Time) (int64, error) {
	query := `
		SELECT COUNT(DISTINCT NULLIF(c.ip_address, ''))
		FROM clicks c
		JOIN urls u ON u.id = c.url_id
		WHERE u.short_code = ? AND (? IS NULL OR c.clicked_at >= ?)`

	var n int64
	s := sinceArg(since)
	if err := r.db.GetContext(ctx, &n, query, shortCode, s, s); err != nil {
		return 0, mapError(err, "count unique sources")
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
		WHERE u.short_code = ?
		ORDER BY c.clicked_at DESC, c.id DESC
		LIMIT ? OFFSET ?`

	events := []*domain.ClickEvent{}
	if err := r.db.SelectContext(ctx, &events, query, shortCode, limitArg(limit), clampOffset(offset)); err != nil {
		return nil, mapError(err, "list click events")
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
		WHERE u.owner_id = ?
		GROUP BY u.id
		ORDER BY event_count DESC, u.id ASC
		LIMIT ?`

	var rows []urlClicksRow
	if err := r.db.SelectContext(ctx, &rows, query, ownerID, limitArg(limit)); err != nil {
		return nil, mapError(err, "top URLs by owner")
	}

	top := make([]domain.URLClicks, 0, len(rows))
	for i := range rows {
		url := rows[i].URL
		top = append(top, domain.URLClicks{URL: &url, EventCount: rows[i].EventCount})
	}
	return top, nil
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

func mapError(err error, operation string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrURLNotFound
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return domain.ErrShortCodeExists
		case sqlite3.ErrConstraintForeignKey:
			return domain.ErrURLNotFound
		}
		slog.Error("SQLite error", "operation", operation, "code", sqliteErr.Code, "message", sqliteErr.Error())
	}

	return fmt.Errorf("%w: %s: %v", domain.ErrStoreUnavailable, operation, err)
}

func expectRow(result sql.Result, operation string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return mapError(err, operation)
	}
	if rowsAffected == 0 {
		return domain.ErrURLNotFound
	}
	return nil
}

func clampOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}

// limitArg maps a non-positive limit to -1, which SQLite reads as no limit.
func limitArg(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

func sinceArg(since *time.Time) any {
	if since == nil {
		return nil
	}
	return since.UTC()
}

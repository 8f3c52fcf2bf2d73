package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Kosench/qlink/internal/database"
	apperrors "github.com/Kosench/qlink/internal/errors"
	"github.com/Kosench/qlink/internal/model"
)

var _ LinkRepository = (*SQLLinkRepository)(nil)

// SQLLinkRepository хранит ссылки в SQLite или PostgreSQL.
type SQLLinkRepository struct {
	db  *database.DB
	now func() time.Time
}

func NewSQLLinkRepository(db *database.DB) *SQLLinkRepository {
	return &SQLLinkRepository{
		db: db,
		now: func() time.Time {
			// PostgreSQL хранит микросекунды
			return time.Now().UTC().Truncate(time.Microsecond)
		},
	}
}

func (r *SQLLinkRepository) Create(ctx context.Context, link *model.Link) error {
	// Атомарная вставка: конфликт по short_code решает хранилище
	query := r.db.Rebind(`
	INSERT INTO links (short_code, manage_code, original_url, created_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT (short_code) DO NOTHING
	RETURNING id
	`)

	createdAt := r.now()
	err := r.db.QueryRowContext(
		ctx,
		query,
		link.ShortCode,
		link.ManageCode,
		link.OriginalURL,
		createdAt,
	).Scan(&link.ID)

	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.ErrShortCodeExists
	}

	if err != nil {
		return apperrors.NewStorageError("failed to create link", err)
	}

	link.CreatedAt = createdAt
	return nil
}

func (r *SQLLinkRepository) List(ctx context.Context) ([]model.LinkView, error) {
	// id растет в порядке создания, поэтому сортируем по нему
	query := `
	SELECT id, short_code, original_url, created_at
	FROM links
	ORDER BY id DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to list links", err)
	}
	defer rows.Close()

	links := make([]model.LinkView, 0)
	for rows.Next() {
		var (
			link      model.Link
			createdAt timestamp
		)
		if err := rows.Scan(&link.ID, &link.ShortCode, &link.OriginalURL, &createdAt); err != nil {
			return nil, apperrors.NewStorageError("failed to scan link", err)
		}
		link.CreatedAt = createdAt.Time
		links = append(links, link.View())
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("failed to list links", err)
	}

	return links, nil
}

func (r *SQLLinkRepository) GetByShortCode(ctx context.Context, shortCode string) (*model.Link, error) {
	query := r.db.Rebind(`
	SELECT id, short_code, manage_code, original_url, created_at
	FROM links
	WHERE short_code = ?
	`)

	var (
		link      model.Link
		createdAt timestamp
	)
	err := r.db.QueryRowContext(ctx, query, shortCode).Scan(
		&link.ID,
		&link.ShortCode,
		&link.ManageCode,
		&link.OriginalURL,
		&createdAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("link with short code '%s': %w", shortCode, apperrors.ErrLinkNotFound)
	}

	if err != nil {
		return nil, apperrors.NewStorageError("failed to get link", err)
	}

	link.CreatedAt = createdAt.Time
	return &link, nil
}

func (r *SQLLinkRepository) GetOriginalURL(ctx context.Context, shortCode string) (string, error) {
	query := r.db.Rebind(`SELECT original_url FROM links WHERE short_code = ?`)

	var originalURL string
	err := r.db.QueryRowContext(ctx, query, shortCode).Scan(&originalURL)

	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("link with short code '%s': %w", shortCode, apperrors.ErrLinkNotFound)
	}

	if err != nil {
		return "", apperrors.NewStorageError("failed to resolve link", err)
	}

	return originalURL, nil
}

func (r *SQLLinkRepository) UpdateOriginalURL(ctx context.Context, shortCode, newURL string) (bool, error) {
	query := r.db.Rebind(`
	UPDATE links
	SET original_url = ?
	WHERE short_code = ? AND original_url <> ?
	`)

	result, err := r.db.ExecContext(ctx, query, newURL, shortCode, newURL)
	if err != nil {
		return false, apperrors.NewStorageError("failed to update link", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.NewStorageError("failed to update link", err)
	}

	if affected > 0 {
		return true, nil
	}

	// Ноль строк: либо ссылки нет, либо URL уже такой
	exists, err := r.exists(ctx, shortCode)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, fmt.Errorf("link with short code '%s': %w", shortCode, apperrors.ErrLinkNotFound)
	}

	return false, nil
}

func (r *SQLLinkRepository) Delete(ctx context.Context, shortCode string) error {
	query := r.db.Rebind(`DELETE FROM links WHERE short_code = ?`)

	result, err := r.db.ExecContext(ctx, query, shortCode)
	if err != nil {
		return apperrors.NewStorageError("failed to delete link", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewStorageError("failed to delete link", err)
	}

	if affected == 0 {
		return fmt.Errorf("link with short code '%s': %w", shortCode, apperrors.ErrLinkNotFound)
	}

	return nil
}

func (r *SQLLinkRepository) exists(ctx context.Context, shortCode string) (bool, error) {
	query := r.db.Rebind(`SELECT EXISTS(SELECT 1 FROM links WHERE short_code = ?)`)

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, shortCode).Scan(&exists); err != nil {
		return false, apperrors.NewStorageError("failed to check short code existence", err)
	}

	return exists, nil
}

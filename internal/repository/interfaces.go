package repository

import (
	"context"

	"github.com/Kosench/qlink/internal/model"
)

// LinkRepository - хранилище ссылок. Уникальность short_code обеспечивается
// ограничением в самом хранилище.
type LinkRepository interface {
	// Create вставляет запись и заполняет ID и CreatedAt.
	// Возвращает ErrShortCodeExists, если код уже занят.
	Create(ctx context.Context, link *model.Link) error
	// List возвращает все ссылки, новые первыми.
	List(ctx context.Context) ([]model.LinkView, error)
	// GetByShortCode возвращает полную запись вместе с manage code.
	GetByShortCode(ctx context.Context, shortCode string) (*model.Link, error)
	GetOriginalURL(ctx context.Context, shortCode string) (string, error)
	// UpdateOriginalURL возвращает changed=false, если URL уже равен newURL.
	UpdateOriginalURL(ctx context.Context, shortCode, newURL string) (changed bool, err error)
	Delete(ctx context.Context, shortCode string) error
}

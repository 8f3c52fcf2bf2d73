package service

import (
	"context"

	apperrors "github.com/Kosench/qlink/internal/errors"
)

// Resolve возвращает адрес для редиректа. Без побочных эффектов.
func (s *LinkService) Resolve(ctx context.Context, shortCode string) (string, error) {
	if shortCode == "" {
		return "", apperrors.NewValidationError("short_code", "short code cannot be empty")
	}

	return s.linkRepo.GetOriginalURL(ctx, shortCode)
}

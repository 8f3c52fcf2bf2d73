package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	apperrors "github.com/Kosench/qlink/internal/errors"
	"github.com/Kosench/qlink/internal/model"
	"github.com/Kosench/qlink/internal/repository"
	"github.com/Kosench/qlink/internal/utils"
)

type Options struct {
	ShortCodeLength  int
	ManageCodeLength int
	// MaxRetries - сколько раз пробовать вставку при коллизии short_code.
	// 1 означает отказ при первой же коллизии.
	MaxRetries int
	// OpenDelete разрешает удаление без manage code.
	OpenDelete bool
}

func DefaultOptions() Options {
	return Options{
		ShortCodeLength:  utils.DefaultCodeLength,
		ManageCodeLength: utils.DefaultCodeLength,
		MaxRetries:       5,
	}
}

type LinkService struct {
	linkRepo repository.LinkRepository
	opts     Options
	logger   *slog.Logger
	generate func(length int) (string, error)
}

func NewLinkService(linkRepo repository.LinkRepository, opts Options, logger *slog.Logger) *LinkService {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 1
	}
	return &LinkService{
		linkRepo: linkRepo,
		opts:     opts,
		logger:   logger,
		generate: utils.GenerateCodeWithLength,
	}
}

// CreateLink создает ссылку. Manage code возвращается только здесь.
func (s *LinkService) CreateLink(ctx context.Context, originalURL string) (*model.CreateLinkResponse, error) {
	if err := utils.ValidateURL("url", originalURL); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= s.opts.MaxRetries; attempt++ {
		link, err := s.newLink(originalURL)
		if err != nil {
			return nil, err
		}

		err = s.linkRepo.Create(ctx, link)
		if err == nil {
			s.logger.InfoContext(ctx, "link created", "short_code", link.ShortCode, "id", link.ID, "attempt", attempt)
			return &model.CreateLinkResponse{
				ShortURL:   link.ShortCode,
				ManageCode: link.ManageCode,
			}, nil
		}

		if !errors.Is(err, apperrors.ErrShortCodeExists) {
			return nil, fmt.Errorf("failed to create link: %w", err)
		}

		s.logger.WarnContext(ctx, "short code collision", "short_code", link.ShortCode, "attempt", attempt)
		lastErr = err
	}

	return nil, fmt.Errorf("no free short code after %d attempts: %w", s.opts.MaxRetries, lastErr)
}

func (s *LinkService) newLink(originalURL string) (*model.Link, error) {
	shortCode, err := s.generate(s.opts.ShortCodeLength)
	if err != nil {
		return nil, apperrors.NewBusinessError(apperrors.CodeCodeGeneration, "failed to generate short code", err)
	}

	manageCode, err := s.generate(s.opts.ManageCodeLength)
	if err != nil {
		return nil, apperrors.NewBusinessError(apperrors.CodeCodeGeneration, "failed to generate manage code", err)
	}

	return &model.Link{
		ShortCode:   shortCode,
		ManageCode:  manageCode,
		OriginalURL: originalURL,
	}, nil
}

func (s *LinkService) ListLinks(ctx context.Context) ([]model.LinkView, error) {
	return s.linkRepo.List(ctx)
}

// UpdateLink меняет original_url, если manageCode совпадает с сохраненным.
// "Не найдено" и "неверный код" различаются намеренно.
func (s *LinkService) UpdateLink(ctx context.Context, shortCode, manageCode, newURL string) (model.UpdateResult, error) {
	if shortCode == "" {
		return model.UpdateResult{}, apperrors.NewValidationError("short_code", "short code cannot be empty")
	}

	if err := utils.ValidateURL("new_url", newURL); err != nil {
		return model.UpdateResult{}, err
	}

	if err := s.authorize(ctx, shortCode, manageCode); err != nil {
		return model.UpdateResult{}, err
	}

	changed, err := s.linkRepo.UpdateOriginalURL(ctx, shortCode, newURL)
	if err != nil {
		return model.UpdateResult{}, err
	}

	s.logger.InfoContext(ctx, "link updated", "short_code", shortCode, "changed", changed)
	return model.UpdateResult{Changed: changed}, nil
}

// DeleteLink удаляет ссылку. Без OpenDelete требуется manage code, как и
// для обновления.
func (s *LinkService) DeleteLink(ctx context.Context, shortCode, manageCode string) error {
	if shortCode == "" {
		return apperrors.NewValidationError("short_code", "short code cannot be empty")
	}

	if !s.opts.OpenDelete {
		if err := s.authorize(ctx, shortCode, manageCode); err != nil {
			return err
		}
	}

	if err := s.linkRepo.Delete(ctx, shortCode); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "link deleted", "short_code", shortCode)
	return nil
}

func (s *LinkService) authorize(ctx context.Context, shortCode, manageCode string) error {
	link, err := s.linkRepo.GetByShortCode(ctx, shortCode)
	if err != nil {
		return err
	}

	if !utils.ManageCodeMatches(link.ManageCode, manageCode) {
		s.logger.WarnContext(ctx, "manage code mismatch", "short_code", shortCode)
		return fmt.Errorf("link with short code '%s': %w", shortCode, apperrors.ErrUnauthorized)
	}

	return nil
}

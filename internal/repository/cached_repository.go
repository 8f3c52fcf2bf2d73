package repository

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/Kosench/qlink/internal/cache"
	"github.com/Kosench/qlink/internal/model"
)

var _ LinkRepository = (*CachedLinkRepository)(nil)

// CachedLinkRepository - репозиторий с read-through кэшем для разрешения
// ссылок. Ошибки кэша логируются и не прерывают операцию.
type CachedLinkRepository struct {
	LinkRepository
	cache  cache.Cache
	keys   *cache.KeyBuilder
	logger *slog.Logger

	// generation растет при каждой инвалидации. Заполнение кэша пропускается,
	// если за время чтения из БД поколение сменилось.
	mu         sync.RWMutex
	generation uint64
}

func NewCachedLinkRepository(repo LinkRepository, c cache.Cache, logger *slog.Logger) *CachedLinkRepository {
	return &CachedLinkRepository{
		LinkRepository: repo,
		cache:          c,
		keys:           cache.NewKeyBuilder(""),
		logger:         logger,
	}
}

func (r *CachedLinkRepository) Create(ctx context.Context, link *model.Link) error {
	gen := r.currentGeneration()

	if err := r.LinkRepository.Create(ctx, link); err != nil {
		return err
	}

	// Кэшируем созданную ссылку
	r.fill(ctx, gen, link.ShortCode, link.OriginalURL)
	return nil
}

func (r *CachedLinkRepository) GetOriginalURL(ctx context.Context, shortCode string) (string, error) {
	key := r.keys.Link(shortCode)

	originalURL, err := r.cache.GetString(ctx, key)
	if err == nil {
		return originalURL, nil
	}

	if !errors.Is(err, cache.ErrCacheMiss) {
		r.logger.WarnContext(ctx, "cache error", "short_code", shortCode, "error", err)
	}

	// Cache miss - идем в БД. Поколение фиксируем до чтения.
	gen := r.currentGeneration()

	originalURL, err = r.LinkRepository.GetOriginalURL(ctx, shortCode)
	if err != nil {
		return "", err
	}

	r.fill(ctx, gen, shortCode, originalURL)
	return originalURL, nil
}

func (r *CachedLinkRepository) UpdateOriginalURL(ctx context.Context, shortCode, newURL string) (bool, error) {
	changed, err := r.LinkRepository.UpdateOriginalURL(ctx, shortCode, newURL)
	if err != nil {
		return false, err
	}

	if changed {
		r.invalidate(ctx, shortCode)
	}

	return changed, nil
}

func (r *CachedLinkRepository) Delete(ctx context.Context, shortCode string) error {
	if err := r.LinkRepository.Delete(ctx, shortCode); err != nil {
		return err
	}

	r.invalidate(ctx, shortCode)
	return nil
}

func (r *CachedLinkRepository) currentGeneration() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.generation
}

// fill пишет значение в кэш, только если с момента gen не было инвалидаций.
// Проверка и запись идут под RLock, поэтому invalidate не может вклиниться
// между ними.
func (r *CachedLinkRepository) fill(ctx context.Context, gen uint64, shortCode, originalURL string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.generation != gen {
		r.logger.DebugContext(ctx, "skip stale cache fill", "short_code", shortCode)
		return
	}

	if err := r.cache.SetString(ctx, r.keys.Link(shortCode), originalURL); err != nil {
		r.logger.WarnContext(ctx, "failed to cache link", "short_code", shortCode, "error", err)
	}
}

// invalidate вызывается после коммита в БД
func (r *CachedLinkRepository) invalidate(ctx context.Context, shortCode string) {
	r.mu.Lock()
	r.generation++
	r.mu.Unlock()

	if err := r.cache.Delete(ctx, r.keys.Link(shortCode)); err != nil {
		r.logger.WarnContext(ctx, "failed to invalidate link cache", "short_code", shortCode, "error", err)
	}
}

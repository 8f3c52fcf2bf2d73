package cache

import (
	"context"
)

// Cache - кэш разрешения short_code -> original_url.
// Хранит только строки: manage code в кэш не попадает.
type Cache interface {
	GetString(ctx context.Context, key string) (string, error)
	SetString(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, keys ...string) error

	HealthCheck(ctx context.Context) error
	Close() error
	Name() string
}

// NullCache - заглушка для работы без кэша (Null Object Pattern)
type NullCache struct{}

var _ Cache = (*NullCache)(nil)

func NewNullCache() *NullCache {
	return &NullCache{}
}

func (n *NullCache) GetString(ctx context.Context, key string) (string, error) {
	return "", ErrCacheMiss
}

func (n *NullCache) SetString(ctx context.Context, key string, value string) error {
	return nil
}

func (n *NullCache) Delete(ctx context.Context, keys ...string) error {
	return nil
}

func (n *NullCache) HealthCheck(ctx context.Context) error {
	return nil
}

func (n *NullCache) Close() error {
	return nil
}

func (n *NullCache) Name() string {
	return "none"
}

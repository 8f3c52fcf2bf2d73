package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

var _ Cache = (*LRUCache)(nil)

// LRUCache - кэш в памяти процесса. Используется, когда Redis не настроен
// или недоступен.
type LRUCache struct {
	lru *expirable.LRU[string, string]
}

func NewLRUCache(size int, ttl time.Duration) *LRUCache {
	return &LRUCache{
		lru: expirable.NewLRU[string, string](size, nil, ttl),
	}
}

func (c *LRUCache) GetString(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", NewCacheError("get", key, ErrInvalidCacheKey)
	}

	value, ok := c.lru.Get(key)
	if !ok {
		return "", ErrCacheMiss
	}
	return value, nil
}

func (c *LRUCache) SetString(ctx context.Context, key string, value string) error {
	if key == "" {
		return NewCacheError("set", key, ErrInvalidCacheKey)
	}

	c.lru.Add(key, value)
	return nil
}

func (c *LRUCache) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		c.lru.Remove(key)
	}
	return nil
}

func (c *LRUCache) Len() int {
	return c.lru.Len()
}

func (c *LRUCache) HealthCheck(ctx context.Context) error {
	return nil
}

func (c *LRUCache) Close() error {
	c.lru.Purge()
	return nil
}

func (c *LRUCache) Name() string {
	return "memory"
}

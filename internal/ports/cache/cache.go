package cache

import (
	"context"
	"time"
)

// Cache интерфейс кэша (рассчитанные карты, lookup отпечатков)
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Close() error
}

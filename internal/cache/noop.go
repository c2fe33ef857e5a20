package cache

import (
	"context"
	"time"
)

// NoopCache — реализация TokenCache для конфигураций без Redis.
// Всегда отвечает промахом, так что вызывающий код проваливается
// в durable-хранилище; корректность от кэша не зависит.
type NoopCache struct{}

var _ TokenCache = NoopCache{}

// NewNoopCache возвращает кэш-заглушку.
func NewNoopCache() NoopCache { return NoopCache{} }

func (NoopCache) GetRefresh(context.Context, string) (*RefreshEntry, bool, error) {
	return nil, false, nil
}

func (NoopCache) SetRefresh(context.Context, string, *RefreshEntry, time.Duration) error {
	return nil
}

func (NoopCache) MarkRefreshRevoked(context.Context, string) error { return nil }

func (NoopCache) BlacklistAccessToken(context.Context, string, time.Time) error { return nil }

func (NoopCache) IsAccessTokenBlacklisted(context.Context, string) (bool, error) {
	return false, nil
}

func (NoopCache) Close() error { return nil }

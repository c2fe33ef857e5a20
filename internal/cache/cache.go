// cache реализует необязательный быстрый слой поверх durable-хранилища токенов:
// теневые записи refresh-токенов и чёрный список access-токенов.
//
// Кэш не является источником истины: промах означает переход к проверке в БД,
// его отсутствие (NoopCache) не влияет на корректность ротации и отзыва.
package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RefreshEntry описывает данные, которые мы храним по хэшу refresh-токена.
type RefreshEntry struct {
	UserID    uuid.UUID
	Revoked   bool
	ExpiresAt time.Time
}

// TokenCache — минимальный контракт кэша токенов.
type TokenCache interface {
	// GetRefresh возвращает теневую запись и признак её наличия в кэше.
	GetRefresh(ctx context.Context, hash string) (*RefreshEntry, bool, error)
	// SetRefresh сохраняет теневую запись с TTL (обычно ExpiresAt-now).
	SetRefresh(ctx context.Context, hash string, e *RefreshEntry, ttl time.Duration) error
	// MarkRefreshRevoked помечает ключ revoked=true, сохраняя остаточный TTL.
	MarkRefreshRevoked(ctx context.Context, hash string) error
	// BlacklistAccessToken помещает access-токен в чёрный список до expiresAt.
	BlacklistAccessToken(ctx context.Context, token string, expiresAt time.Time) error
	// IsAccessTokenBlacklisted проверяет наличие access-токена в чёрном списке.
	IsAccessTokenBlacklisted(ctx context.Context, token string) (bool, error)
	// Close закрывает клиент.
	Close() error
}

type redisCache struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisCache создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
// Если prefix пустой — используется "auth:".
func NewRedisCache(redisURL, prefix string) (TokenCache, error) {
	if prefix == "" {
		prefix = "auth:"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	return &redisCache{rdb: rdb, prefix: prefix}, nil
}

func (c *redisCache) refreshKey(hash string) string    { return c.prefix + "rt:" + hash }
func (c *redisCache) blacklistKey(token string) string { return c.prefix + "bl:" + token }

// Храним как Redis Hash с полями: uid, rev (0/1), exp (unix).
func (c *redisCache) GetRefresh(ctx context.Context, hash string) (*RefreshEntry, bool, error) {
	m, err := c.rdb.HGetAll(ctx, c.refreshKey(hash)).Result()
	if err != nil {
		return nil, false, err
	}

	if len(m) == 0 {
		return nil, false, nil
	}

	uid, err := uuid.Parse(m["uid"])
	if err != nil {
		return nil, false, err
	}
	rev := m["rev"] == "1"

	expUnix, err := strconv.ParseInt(m["exp"], 10, 64)
	if err != nil {
		return nil, false, err
	}

	return &RefreshEntry{
		UserID:    uid,
		Revoked:   rev,
		ExpiresAt: time.Unix(expUnix, 0).UTC(),
	}, true, nil
}

func (c *redisCache) SetRefresh(ctx context.Context, hash string, e *RefreshEntry, ttl time.Duration) error {
	kv := map[string]string{
		"uid": e.UserID.String(),
		"rev": boolTo01(e.Revoked),
		"exp": strconv.FormatInt(e.ExpiresAt.Unix(), 10),
	}

	pipe := c.rdb.TxPipeline()
	pipe.HSet(ctx, c.refreshKey(hash), kv)
	pipe.Expire(ctx, c.refreshKey(hash), ttl)

	_, err := pipe.Exec(ctx)
	return err
}

func (c *redisCache) MarkRefreshRevoked(ctx context.Context, hash string) error {
	return c.rdb.HSet(ctx, c.refreshKey(hash), "rev", "1").Err()
}

func (c *redisCache) BlacklistAccessToken(ctx context.Context, token string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		// Токен уже истёк — блэклист не нужен.
		return nil
	}

	return c.rdb.Set(ctx, c.blacklistKey(token), "1", ttl).Err()
}

func (c *redisCache) IsAccessTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	n, err := c.rdb.Exists(ctx, c.blacklistKey(token)).Result()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

func (c *redisCache) Close() error { return c.rdb.Close() }

func boolTo01(b bool) string {
	if b {
		return "1"
	}

	return "0"
}

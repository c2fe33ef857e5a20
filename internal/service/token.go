package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"taskmanager/internal/cache"
	"taskmanager/internal/models"
	"taskmanager/internal/pkg/log"
	"taskmanager/internal/storage"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// accessClaims — полезная нагрузка access-токена: subject и стандартные
// claims плюс тенант и роли, которым доверяют остальные компоненты.
type accessClaims struct {
	TenantID string   `json:"tid"`
	Roles    []string `json:"roles"`
	jwt.RegisteredClaims
}

// hashToken возвращает base64url(SHA-256) — в таком виде хранятся
// refresh-токены и одноразовые коды.
func hashToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// generateAccessToken подписывает HS256-токен с subject, тенантом и ролями.
func (s *Service) generateAccessToken(ctx context.Context, user *models.User, now time.Time) (string, error) {
	const op = "service.token.generateAccessToken"

	lg := log.From(ctx)

	claims := accessClaims{
		TenantID: user.TenantID,
		Roles:    user.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.Auth.AccessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.cfg.Auth.Issuer,
			Subject:   user.ID.String(),
			Audience:  jwt.ClaimStrings(s.cfg.Auth.Audience),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Auth.JWTSecret))
	if err != nil {
		lg.Error("access_token_sign_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// validateAccessToken строго проверяет access-токен (подпись, алгоритм,
// issuer, audience, срок) и возвращает личность вызывающего и момент истечения.
func (s *Service) validateAccessToken(tokenStr string) (Identity, time.Time, error) {
	const op = "service.token.validateAccessToken"

	token, err := jwt.ParseWithClaims(tokenStr, &accessClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, fmt.Errorf("%s: %w", op, ErrInvalidAccessToken)
			}

			return []byte(s.cfg.Auth.JWTSecret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(5*time.Second),
		jwt.WithIssuer(s.cfg.Auth.Issuer),
		jwt.WithAudience(s.cfg.Auth.Audience...),
	)
	if err != nil {
		return Identity{}, time.Time{}, fmt.Errorf("%s: %w", op, ErrInvalidAccessToken)
	}

	claims, ok := token.Claims.(*accessClaims)
	if !ok || !token.Valid {
		return Identity{}, time.Time{}, fmt.Errorf("%s: %w", op, ErrInvalidAccessToken)
	}

	ident, err := identityFromClaims(claims)
	if err != nil {
		return Identity{}, time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	return ident, claims.ExpiresAt.Time, nil
}

// parseExpiredAccessClaims извлекает claims из access-токена БЕЗ проверки
// срока действия, но С проверкой подписи, алгоритма, issuer и audience.
// Это единственный поддерживаемый способ восстановить личность из
// просроченного токена; используется только при ротации refresh-токена.
func (s *Service) parseExpiredAccessClaims(tokenStr string) (Identity, error) {
	const op = "service.token.parseExpiredAccessClaims"

	token, err := jwt.ParseWithClaims(tokenStr, &accessClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, fmt.Errorf("%s: %w", op, ErrInvalidAccessToken)
			}

			return []byte(s.cfg.Auth.JWTSecret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		// Срок и прочие claim-проверки отключаем и выполняем вручную ниже.
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return Identity{}, fmt.Errorf("%s: %w", op, ErrInvalidAccessToken)
	}

	claims, ok := token.Claims.(*accessClaims)
	if !ok || !token.Valid {
		return Identity{}, fmt.Errorf("%s: %w", op, ErrInvalidAccessToken)
	}

	if claims.Issuer != s.cfg.Auth.Issuer {
		return Identity{}, fmt.Errorf("%s: %w", op, ErrInvalidAccessToken)
	}

	if !audienceMatches(claims.Audience, s.cfg.Auth.Audience) {
		return Identity{}, fmt.Errorf("%s: %w", op, ErrInvalidAccessToken)
	}

	ident, err := identityFromClaims(claims)
	if err != nil {
		return Identity{}, fmt.Errorf("%s: %w", op, err)
	}

	return ident, nil
}

// identityFromClaims собирает Identity; отсутствие subject — признак
// синтаксически неполного токена.
func identityFromClaims(claims *accessClaims) (Identity, error) {
	if claims.Subject == "" {
		return Identity{}, ErrMalformedToken
	}

	uid, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Identity{}, ErrMalformedToken
	}

	return Identity{
		UserID:   uid,
		TenantID: claims.TenantID,
		Roles:    claims.Roles,
	}, nil
}

// audienceMatches проверяет, что хотя бы один ожидаемый audience
// присутствует в claims токена.
func audienceMatches(got jwt.ClaimStrings, want []string) bool {
	if len(want) == 0 {
		return true
	}

	for _, w := range want {
		for _, g := range got {
			if g == w {
				return true
			}
		}
	}

	return false
}

// generateRefreshToken создаёт новый refresh-токен: 64 случайных байта,
// в БД сохраняется только SHA-256 хэш. При коллизии хэша — повтор.
func (s *Service) generateRefreshToken(ctx context.Context, userID uuid.UUID) (string, error) {
	const (
		op          = "service.token.generateRefreshToken"
		maxAttempts = 5
	)

	lg := log.From(ctx)

	for attempt := 0; attempt < maxAttempts; attempt++ {
		b := make([]byte, 64)
		if _, err := rand.Read(b); err != nil {
			lg.Error("refresh_rand_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
			return "", fmt.Errorf("%s: %w", op, err)
		}
		plain := base64.RawURLEncoding.EncodeToString(b)
		hash := hashToken(plain)

		now := time.Now().UTC()
		token := &models.RefreshToken{
			TokenHash: hash,
			UserID:    userID,
			CreatedAt: now,
			ExpiresAt: now.Add(s.cfg.Auth.RefreshTokenTTL),
		}

		if err := s.storage.SaveRefreshToken(ctx, token); err != nil {
			if errors.Is(err, storage.ErrAlreadyExists) {
				// Редкая коллизия — пробуем сгенерировать заново.
				continue
			}

			lg.Error("save_refresh_token_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
			return "", fmt.Errorf("%s: %w", op, err)
		}

		// Теневая запись в кэше — best-effort, промах некритичен.
		if err := s.cache.SetRefresh(ctx, hash, &cache.RefreshEntry{
			UserID:    userID,
			ExpiresAt: token.ExpiresAt,
		}, s.cfg.Auth.RefreshTokenTTL); err != nil {
			lg.Warn("refresh_cache_set_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
		}

		return plain, nil
	}

	lg.Error("refresh_collision_exceeded",
		slog.String("op", op),
	)

	return "", fmt.Errorf("%s: %w", op, ErrRefreshTokenCollision)
}

// validateRefreshToken проверяет пригодность refresh-токена.
// Кэш служит быстрым отсечением заведомо мёртвых токенов; источником истины
// остаётся durable-хранилище, промах кэша означает переход к проверке в БД.
func (s *Service) validateRefreshToken(ctx context.Context, plain string) (*models.RefreshToken, error) {
	const op = "service.token.validateRefreshToken"

	lg := log.From(ctx)

	hash := hashToken(plain)
	now := time.Now().UTC()

	if entry, ok, err := s.cache.GetRefresh(ctx, hash); err != nil {
		lg.Warn("refresh_cache_get_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
	} else if ok && (entry.Revoked || !now.Before(entry.ExpiresAt)) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidRefreshToken)
	}

	token, err := s.storage.RefreshTokenByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("refresh_lookup_not_found",
				slog.String("op", op),
			)
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidRefreshToken)
		}

		lg.Error("refresh_lookup_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !token.Active(now) {
		lg.Warn("refresh_inactive",
			slog.String("op", op),
			slog.String("user_id", token.UserID.String()),
		)
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidRefreshToken)
	}

	return token, nil
}

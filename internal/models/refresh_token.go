package models

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken — данные refresh-токена для управления сессиями.
//
// Описание:
//   - В БД хранится только SHA-256 хэш токена, сам секрет знает только клиент;
//   - Токен пригоден к обмену, пока RevokedAt == nil и текущее время < ExpiresAt;
//   - Отзыв происходит ровно один раз — в момент обмена на новую пару (ротация).
type RefreshToken struct {
	ID        int64
	TokenHash string
	UserID    uuid.UUID
	CreatedAt time.Time
	ExpiresAt time.Time
	// RevokedAt — момент отзыва; nil для активного токена.
	RevokedAt *time.Time
}

// Active сообщает, пригоден ли токен к обмену на момент now.
func (t *RefreshToken) Active(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}

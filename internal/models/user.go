package models

import (
	"time"

	"github.com/google/uuid"
)

// User — пользователь системы.
//
// Инвариант: пользователь принадлежит ровно одному тенанту на всё время жизни;
// OTPHash и OTPExpiresAt либо оба nil, либо оба установлены.
type User struct {
	ID uuid.UUID
	// Email служит логином и уникален в пределах системы.
	Email        string
	PasswordHash string
	// TenantID — обязательная привязка к тенанту.
	TenantID string
	// Roles — список ролей, попадает в claims access-токена.
	Roles []string
	// OTPHash — SHA-256 хэш текущего одноразового кода (nil, если кода нет).
	OTPHash *string
	// OTPExpiresAt — срок действия кода (UTC).
	OTPExpiresAt *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

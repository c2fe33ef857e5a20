package storage

import (
	"context"
	"errors"
	"time"

	"taskmanager/internal/models"

	"github.com/google/uuid"
)

var (
	// ErrNotFound — запись не найдена (пользователь/тенант/токен/задача).
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (email/имя тенанта/refresh-token).
	ErrAlreadyExists = errors.New("already exists")
)

// UserStorage выполняет операции над пользователями.
type UserStorage interface {
	// SaveUser создает нового пользователя в БД.
	SaveUser(ctx context.Context, user *models.User) error
	// UserByEmail находит пользователя по email.
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	// UserByID находит пользователя по ID.
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// SetUserOTP записывает хэш одноразового кода и срок его действия.
	SetUserOTP(ctx context.Context, id uuid.UUID, otpHash string, expiresAt time.Time) error
	// ConsumeUserOTP атомарно сверяет и очищает одноразовый код.
	// Возвращает true, если хэш совпал и срок не истёк; код при этом очищается,
	// так что второй вызов с тем же кодом вернёт false.
	ConsumeUserOTP(ctx context.Context, id uuid.UUID, otpHash string, now time.Time) (bool, error)
}

// TenantStorage выполняет операции над тенантами.
type TenantStorage interface {
	// SaveTenant создает нового тенанта.
	SaveTenant(ctx context.Context, tenant *models.Tenant) error
	// TenantExists проверяет существование тенанта по ID.
	TenantExists(ctx context.Context, id string) (bool, error)
	// Tenants возвращает все тенанты.
	Tenants(ctx context.Context) ([]models.Tenant, error)
}

// RefreshTokenStorage выполняет операции над refresh-токенами.
type RefreshTokenStorage interface {
	// SaveRefreshToken сохраняет новый refresh-token в БД.
	SaveRefreshToken(ctx context.Context, token *models.RefreshToken) error
	// RefreshTokenByHash находит refresh-токен по его хэшу.
	RefreshTokenByHash(ctx context.Context, hash string) (*models.RefreshToken, error)
	// RevokeRefreshTokenIfActive пытается отозвать токен, если он ещё не отозван.
	// Ровно один из конкурентных вызовов для одного токена получает true.
	RevokeRefreshTokenIfActive(ctx context.Context, hash string, now time.Time) (bool, error)
	// DeleteExpiredTokens удаляет все просроченные токены.
	DeleteExpiredTokens(ctx context.Context, now time.Time) error
}

// TaskStorage выполняет операции над задачами.
// Каждая операция ограничена парой (tenantID, userID) вызывающего.
type TaskStorage interface {
	SaveTask(ctx context.Context, task *models.Task) error
	TaskByID(ctx context.Context, id uuid.UUID, userID uuid.UUID, tenantID string) (*models.Task, error)
	Tasks(ctx context.Context, tenantID string, userID uuid.UUID, filter models.TaskFilter) ([]models.Task, error)
	UpdateTask(ctx context.Context, task *models.Task) (*models.Task, error)
	DeleteTask(ctx context.Context, id uuid.UUID, userID uuid.UUID, tenantID string) error
	// SetTaskCompleted выставляет признак завершённости; false — задача не найдена.
	SetTaskCompleted(ctx context.Context, id uuid.UUID, userID uuid.UUID, tenantID string, completed bool) (bool, error)
}

// ChatStorage хранит историю чата с ассистентом.
type ChatStorage interface {
	SaveChatMessage(ctx context.Context, msg *models.ChatMessage) error
	// RecentChatMessages возвращает последние limit сообщений в хронологическом порядке.
	RecentChatMessages(ctx context.Context, tenantID string, userID uuid.UUID, limit int) ([]models.ChatMessage, error)
}

// DashboardStorage считает агрегаты по задачам тенанта.
type DashboardStorage interface {
	DashboardStats(ctx context.Context, tenantID string) (*models.DashboardStats, error)
}

// Storage задает контракт работы с БД.
type Storage interface {
	UserStorage
	TenantStorage
	RefreshTokenStorage
	TaskStorage
	ChatStorage
	DashboardStorage
	Close()
}

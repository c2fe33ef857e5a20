// service содержит бизнес-логику трекера задач: жизненный цикл
// аутентификации (регистрация, вход с OTP-подтверждением, выпуск и ротация
// токенов), операции над задачами/тенантами и чат с ассистентом.
//
// Основные аспекты:
//   - Экземпляр Service не хранит состояние запроса и безопасен для
//     конкурентного использования при потокобезопасном storage.Storage.
//   - Личность вызывающего всегда передаётся явно (Identity) — сервис
//     не читает её из какого-либо ambient-состояния.
//   - Ошибки возвращаются и далее маппятся транспортом на коды ответа
//     (см. комментарии к переменным ошибок ниже).
package service

import (
	"errors"
	"slices"

	"taskmanager/internal/cache"
	"taskmanager/internal/chat"
	"taskmanager/internal/config"
	"taskmanager/internal/email"
	"taskmanager/internal/storage"

	"github.com/google/uuid"
)

// Роли пользователей.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

var (
	// ErrInvalidTenant — тенант не существует или недоступен для регистрации.
	// Транспорт: code 1002 (HTTP 403).
	ErrInvalidTenant = errors.New("invalid tenant")

	// ErrUserExists — email уже занят другим пользователем.
	// Транспорт: code 1004 (HTTP 409).
	ErrUserExists = errors.New("user already exists")

	// ErrTenantExists — тенант с таким именем уже создан.
	// Транспорт: code 1004 (HTTP 409).
	ErrTenantExists = errors.New("tenant already exists")

	// ErrNotFound — пользователь/ресурс не найден.
	// Транспорт: code 1003 (HTTP 404).
	ErrNotFound = errors.New("not found")

	// ErrInvalidCredentials — пароль не совпал с хэшем.
	// Транспорт: code 1002 (HTTP 403).
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidOTP — одноразовый код отсутствует, не совпал или просрочен.
	// Транспорт: code 1002 (HTTP 403).
	ErrInvalidOTP = errors.New("invalid otp")

	// ErrInvalidAccessToken — подпись/issuer/audience access-токена не прошли проверку.
	// Транспорт: code 1007 (HTTP 401).
	ErrInvalidAccessToken = errors.New("invalid access token")

	// ErrInvalidRefreshToken — refresh-токен не найден, просрочен, отозван
	// или принадлежит другому пользователю. Транспорт: code 1007 (HTTP 401).
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	// ErrMalformedToken — токен синтаксически некорректен или в claims
	// отсутствует subject. Транспорт: code 1001 (HTTP 400).
	ErrMalformedToken = errors.New("malformed token")

	// ErrAccessDenied — у вызывающего нет нужной роли или он обращается
	// к чужому тенанту. Транспорт: code 1002 (HTTP 403).
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidEmail — email имеет некорректный формат.
	// Транспорт: code 1001 (HTTP 400).
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrWeakPassword — пароль не удовлетворяет политике сложности.
	// Транспорт: code 1005 (HTTP 422).
	ErrWeakPassword = errors.New("password is too weak")

	// ErrRefreshTokenCollision — исчерпаны попытки сгенерировать уникальный
	// refresh-токен. Транспорт: code 1006 (HTTP 500).
	ErrRefreshTokenCollision = errors.New("refresh token collision")
)

// Identity — разрешённая личность вызывающего. Заполняется транспортом
// из access-токена и передаётся в методы сервиса явным аргументом.
type Identity struct {
	UserID   uuid.UUID
	TenantID string
	Roles    []string
}

// HasRole сообщает, содержит ли личность роль role.
func (id Identity) HasRole(role string) bool {
	return slices.Contains(id.Roles, role)
}

// Service реализует бизнес-логику поверх хранилища, кэша токенов,
// почтового канала и LLM-клиента.
type Service struct {
	storage storage.Storage
	cache   cache.TokenCache
	sender  email.Sender
	chat    chat.Client
	cfg     config.Config
}

// New создаёт новый экземпляр Service. Кэш обязателен: при отсутствии
// Redis передаётся cache.NewNoopCache().
func New(st storage.Storage, tc cache.TokenCache, sender email.Sender, chatClient chat.Client, cfg config.Config) *Service {
	return &Service{
		storage: st,
		cache:   tc,
		sender:  sender,
		chat:    chatClient,
		cfg:     cfg,
	}
}

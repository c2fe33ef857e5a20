package models

import (
	"time"

	"github.com/google/uuid"
)

// Роли сообщений в истории чата.
const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatMessage — одно сообщение в истории чата пользователя с ассистентом.
type ChatMessage struct {
	ID        int64
	TenantID  string
	UserID    uuid.UUID
	Role      string
	Message   string
	CreatedAt time.Time
}

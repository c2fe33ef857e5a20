package postgres

import (
	"context"
	"fmt"

	"taskmanager/internal/models"

	"github.com/google/uuid"
)

// SaveChatMessage сохраняет сообщение в историю чата.
func (s *Storage) SaveChatMessage(ctx context.Context, msg *models.ChatMessage) error {
	const op = "storage.postgres.SaveChatMessage"

	query := `
		INSERT INTO chat_history(tenant_id, user_id, role, message, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := s.db.QueryRow(ctx, query,
		msg.TenantID,
		msg.UserID,
		msg.Role,
		msg.Message,
		msg.CreatedAt,
	).Scan(&msg.ID)

	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// RecentChatMessages возвращает последние limit сообщений в хронологическом порядке.
func (s *Storage) RecentChatMessages(ctx context.Context, tenantID string, userID uuid.UUID, limit int) ([]models.ChatMessage, error) {
	const op = "storage.postgres.RecentChatMessages"

	// Внутренний запрос отбирает последние limit записей,
	// внешний разворачивает их обратно в хронологию.
	query := `
		SELECT id, tenant_id, user_id, role, message, created_at
		FROM (
			SELECT id, tenant_id, user_id, role, message, created_at
			FROM chat_history
			WHERE tenant_id = $1 AND user_id = $2
			ORDER BY created_at DESC
			LIMIT $3
		) AS recent
		ORDER BY created_at
	`

	rows, err := s.db.Query(ctx, query, tenantID, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var messages []models.ChatMessage
	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.ID, &m.TenantID, &m.UserID, &m.Role, &m.Message, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		messages = append(messages, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return messages, nil
}

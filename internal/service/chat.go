package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"taskmanager/internal/models"
	"taskmanager/internal/pkg/log"
)

// ErrEmptyMessage — пустое сообщение чата.
// Транспорт: code 1001 (HTTP 400).
var ErrEmptyMessage = errors.New("empty message")

// Chat отвечает на сообщение пользователя с учётом его задач и последних
// сообщений диалога. История пополняется парой (вопрос, ответ) только
// после успешной генерации.
func (s *Service) Chat(ctx context.Context, ident Identity, message string) (string, error) {
	const op = "service.chat.Chat"

	lg := log.From(ctx)

	message = strings.TrimSpace(message)
	if message == "" {
		return "", fmt.Errorf("%s: %w", op, ErrEmptyMessage)
	}

	history, err := s.storage.RecentChatMessages(ctx, ident.TenantID, ident.UserID, s.cfg.Chat.HistoryLimit)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	tasks, err := s.storage.Tasks(ctx, ident.TenantID, ident.UserID, models.TaskFilter{Page: 1, PageSize: 100})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	prompt := buildChatPrompt(tasks, history, message)

	reply, err := s.chat.Generate(ctx, prompt)
	if err != nil {
		lg.Error("chat_generate_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return "", fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()
	exchange := []models.ChatMessage{
		{TenantID: ident.TenantID, UserID: ident.UserID, Role: models.ChatRoleUser, Message: message, CreatedAt: now},
		{TenantID: ident.TenantID, UserID: ident.UserID, Role: models.ChatRoleAssistant, Message: reply, CreatedAt: now},
	}

	for i := range exchange {
		if err := s.storage.SaveChatMessage(ctx, &exchange[i]); err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
	}

	lg.Info("chat_reply_generated",
		slog.String("op", op),
		slog.String("user_id", ident.UserID.String()),
	)

	return reply, nil
}

// buildChatPrompt собирает prompt: список задач пользователя, последние
// сообщения диалога и новый вопрос.
func buildChatPrompt(tasks []models.Task, history []models.ChatMessage, message string) string {
	var b strings.Builder

	b.WriteString("User Tasks:\n")
	for _, t := range tasks {
		status := "Pending"
		if t.IsCompleted {
			status = "Completed"
		}
		fmt.Fprintf(&b, "- %s - %s\n", t.Title, status)
	}

	b.WriteString("\nConversation:\n")
	for _, m := range history {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Message)
	}

	fmt.Fprintf(&b, "user: %s\n", message)
	b.WriteString("assistant:\n")

	return b.String()
}

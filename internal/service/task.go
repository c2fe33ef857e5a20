package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"taskmanager/internal/models"
	"taskmanager/internal/pkg/log"
	"taskmanager/internal/storage"

	"github.com/google/uuid"
)

// ErrInvalidTask — параметры задачи не прошли валидацию.
// Транспорт: code 1001 (HTTP 400).
var ErrInvalidTask = errors.New("invalid task")

// TaskInput — данные для создания/обновления задачи.
type TaskInput struct {
	Title       string
	Description string
	DueTime     time.Time
	Priority    models.TaskPriority
}

func (in TaskInput) validate() error {
	if in.Title == "" {
		return ErrInvalidTask
	}

	if in.Priority < models.PriorityLow || in.Priority > models.PriorityHigh {
		return ErrInvalidTask
	}

	return nil
}

// CreateTask создаёт задачу в тенанте вызывающего.
func (s *Service) CreateTask(ctx context.Context, ident Identity, in TaskInput) (*models.Task, error) {
	const op = "service.task.CreateTask"

	lg := log.From(ctx)

	if err := in.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()
	task := &models.Task{
		ID:          uuid.New(),
		Title:       in.Title,
		Description: in.Description,
		DueTime:     in.DueTime,
		Priority:    in.Priority,
		TenantID:    ident.TenantID,
		UserID:      ident.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.storage.SaveTask(ctx, task); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	lg.Info("task_created",
		slog.String("op", op),
		slog.String("task_id", task.ID.String()),
		slog.String("tenant_id", ident.TenantID),
	)

	return task, nil
}

// TaskByID возвращает задачу вызывающего по id.
func (s *Service) TaskByID(ctx context.Context, ident Identity, id uuid.UUID) (*models.Task, error) {
	const op = "service.task.TaskByID"

	task, err := s.storage.TaskByID(ctx, id, ident.UserID, ident.TenantID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return task, nil
}

// Tasks возвращает страницу задач вызывающего с фильтрацией и сортировкой.
func (s *Service) Tasks(ctx context.Context, ident Identity, filter models.TaskFilter) ([]models.Task, error) {
	const op = "service.task.Tasks"

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	tasks, err := s.storage.Tasks(ctx, ident.TenantID, ident.UserID, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return tasks, nil
}

// UpdateTask обновляет задачу вызывающего.
func (s *Service) UpdateTask(ctx context.Context, ident Identity, id uuid.UUID, in TaskInput) (*models.Task, error) {
	const op = "service.task.UpdateTask"

	if err := in.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	current, err := s.storage.TaskByID(ctx, id, ident.UserID, ident.TenantID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	current.Title = in.Title
	current.Description = in.Description
	current.DueTime = in.DueTime
	current.Priority = in.Priority
	current.UpdatedAt = time.Now().UTC()

	updated, err := s.storage.UpdateTask(ctx, current)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return updated, nil
}

// DeleteTask удаляет задачу вызывающего.
func (s *Service) DeleteTask(ctx context.Context, ident Identity, id uuid.UUID) error {
	const op = "service.task.DeleteTask"

	if err := s.storage.DeleteTask(ctx, id, ident.UserID, ident.TenantID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// SetTaskCompleted выставляет признак завершённости задачи вызывающего.
// Выборка строго ограничена парой (tenant, user) — задача чужого тенанта
// неотличима от несуществующей.
func (s *Service) SetTaskCompleted(ctx context.Context, ident Identity, id uuid.UUID, completed bool) error {
	const op = "service.task.SetTaskCompleted"

	lg := log.From(ctx)

	ok, err := s.storage.SetTaskCompleted(ctx, id, ident.UserID, ident.TenantID, completed)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	lg.Info("task_completion_set",
		slog.String("op", op),
		slog.String("task_id", id.String()),
		slog.Bool("completed", completed),
	)

	return nil
}

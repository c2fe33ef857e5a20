package postgres

import (
	"context"
	"errors"
	"fmt"

	"taskmanager/internal/models"
	"taskmanager/internal/storage"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// SaveTask создает новую задачу.
func (s *Storage) SaveTask(ctx context.Context, task *models.Task) error {
	const op = "storage.postgres.SaveTask"

	query := `
		INSERT INTO tasks(id, title, description, due_time, is_completed, priority, tenant_id, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := s.db.Exec(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		task.DueTime,
		task.IsCompleted,
		task.Priority,
		task.TenantID,
		task.UserID,
		task.CreatedAt,
		task.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == pgerrcode.UniqueViolation {
				return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
			}
			if pgErr.Code == pgerrcode.ForeignKeyViolation {
				return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
			}
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// TaskByID находит задачу по ID в пределах (tenantID, userID).
func (s *Storage) TaskByID(ctx context.Context, id uuid.UUID, userID uuid.UUID, tenantID string) (*models.Task, error) {
	const op = "storage.postgres.TaskByID"

	query := `
		SELECT id, title, description, due_time, is_completed, priority, tenant_id, user_id, created_at, updated_at
		FROM tasks
		WHERE id = $1 AND user_id = $2 AND tenant_id = $3
	`

	task, err := scanTask(s.db.QueryRow(ctx, query, id, userID, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return task, nil
}

// Tasks возвращает страницу задач пользователя с фильтрацией и сортировкой.
// И колонка фильтра, и колонка сортировки выбираются из белого списка —
// пользовательский ввод в текст запроса не попадает.
func (s *Storage) Tasks(ctx context.Context, tenantID string, userID uuid.UUID, filter models.TaskFilter) ([]models.Task, error) {
	const op = "storage.postgres.Tasks"

	query := `
		SELECT id, title, description, due_time, is_completed, priority, tenant_id, user_id, created_at, updated_at
		FROM tasks
		WHERE tenant_id = $1 AND user_id = $2
	`

	args := []any{tenantID, userID}

	if filter.FilterOn == "title" && filter.FilterQuery != "" {
		args = append(args, "%"+filter.FilterQuery+"%")
		query += fmt.Sprintf(" AND title ILIKE $%d", len(args))
	}

	orderCol := "created_at"
	switch filter.SortBy {
	case "title":
		orderCol = "title"
	case "priority":
		orderCol = "priority"
	case "due_time":
		orderCol = "due_time"
	}

	dir := "DESC"
	if filter.Ascending {
		dir = "ASC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s", orderCol, dir)

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 10
	}

	args = append(args, pageSize, (page-1)*pageSize)
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		tasks = append(tasks, *task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return tasks, nil
}

// UpdateTask обновляет задачу в пределах (tenantID, userID) владельца.
func (s *Storage) UpdateTask(ctx context.Context, task *models.Task) (*models.Task, error) {
	const op = "storage.postgres.UpdateTask"

	query := `
		UPDATE tasks
		SET title = $4, description = $5, due_time = $6, is_completed = $7, priority = $8, updated_at = now()
		WHERE id = $1 AND user_id = $2 AND tenant_id = $3
		RETURNING id, title, description, due_time, is_completed, priority, tenant_id, user_id, created_at, updated_at
	`

	updated, err := scanTask(s.db.QueryRow(ctx, query,
		task.ID,
		task.UserID,
		task.TenantID,
		task.Title,
		task.Description,
		task.DueTime,
		task.IsCompleted,
		task.Priority,
	))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return updated, nil
}

// DeleteTask удаляет задачу в пределах (tenantID, userID).
func (s *Storage) DeleteTask(ctx context.Context, id uuid.UUID, userID uuid.UUID, tenantID string) error {
	const op = "storage.postgres.DeleteTask"

	query := `
		DELETE FROM tasks
		WHERE id = $1 AND user_id = $2 AND tenant_id = $3
	`

	cmdTag, err := s.db.Exec(ctx, query, id, userID, tenantID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// SetTaskCompleted выставляет признак завершённости; false — задача не найдена.
func (s *Storage) SetTaskCompleted(ctx context.Context, id uuid.UUID, userID uuid.UUID, tenantID string, completed bool) (bool, error) {
	const op = "storage.postgres.SetTaskCompleted"

	query := `
		UPDATE tasks
		SET is_completed = $4, updated_at = now()
		WHERE id = $1 AND user_id = $2 AND tenant_id = $3
	`

	cmdTag, err := s.db.Exec(ctx, query, id, userID, tenantID, completed)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return cmdTag.RowsAffected() > 0, nil
}

func scanTask(row pgx.Row) (*models.Task, error) {
	var task models.Task
	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.DueTime,
		&task.IsCompleted,
		&task.Priority,
		&task.TenantID,
		&task.UserID,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &task, nil
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// TaskPriority — приоритет задачи.
type TaskPriority int

const (
	PriorityLow TaskPriority = iota
	PriorityMedium
	PriorityHigh
)

// Task — задача в трекере. Все запросы к задачам выполняются
// в пределах пары (TenantID, UserID).
type Task struct {
	ID          uuid.UUID
	Title       string
	Description string
	DueTime     time.Time
	IsCompleted bool
	Priority    TaskPriority
	TenantID    string
	UserID      uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TaskFilter — параметры выборки списка задач.
type TaskFilter struct {
	// FilterOn/FilterQuery — фильтрация (поддерживается поле "title").
	FilterOn    string
	FilterQuery string
	// SortBy — "title", "priority" или "due_time".
	SortBy    string
	Ascending bool
	Page      int
	PageSize  int
}

// DashboardStats — агрегаты по задачам тенанта.
type DashboardStats struct {
	TotalTasks     int64
	CompletedTasks int64
	PendingTasks   int64
}

package postgres

import (
	"context"
	"fmt"

	"taskmanager/internal/models"
)

// DashboardStats считает агрегаты по задачам тенанта одним запросом.
func (s *Storage) DashboardStats(ctx context.Context, tenantID string) (*models.DashboardStats, error) {
	const op = "storage.postgres.DashboardStats"

	query := `
		SELECT count(*), count(*) FILTER (WHERE is_completed)
		FROM tasks
		WHERE tenant_id = $1
	`

	var stats models.DashboardStats
	err := s.db.QueryRow(ctx, query, tenantID).Scan(&stats.TotalTasks, &stats.CompletedTasks)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	stats.PendingTasks = stats.TotalTasks - stats.CompletedTasks

	return &stats, nil
}

package service

import (
	"context"
	"fmt"

	"taskmanager/internal/models"
)

// DashboardStats возвращает агрегаты по задачам тенанта.
// Доступно только роли admin; агрегаты считаются по тенанту вызывающего.
func (s *Service) DashboardStats(ctx context.Context, ident Identity) (*models.DashboardStats, error) {
	const op = "service.dashboard.DashboardStats"

	if !ident.HasRole(RoleAdmin) {
		return nil, fmt.Errorf("%s: %w", op, ErrAccessDenied)
	}

	stats, err := s.storage.DashboardStats(ctx, ident.TenantID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return stats, nil
}

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

// CreateTenant создаёт новый тенант. Доступно только роли admin.
func (s *Service) CreateTenant(ctx context.Context, ident Identity, name string) (*models.Tenant, error) {
	const op = "service.tenant.CreateTenant"

	lg := log.From(ctx)

	if !ident.HasRole(RoleAdmin) {
		return nil, fmt.Errorf("%s: %w", op, ErrAccessDenied)
	}

	if name == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidTenant)
	}

	tenant := &models.Tenant{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.storage.SaveTenant(ctx, tenant); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, fmt.Errorf("%s: %w", op, ErrTenantExists)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	lg.Info("tenant_created",
		slog.String("op", op),
		slog.String("tenant_id", tenant.ID),
		slog.String("name", tenant.Name),
	)

	return tenant, nil
}

// Tenants возвращает список всех тенантов. Доступно только роли admin.
func (s *Service) Tenants(ctx context.Context, ident Identity) ([]models.Tenant, error) {
	const op = "service.tenant.Tenants"

	if !ident.HasRole(RoleAdmin) {
		return nil, fmt.Errorf("%s: %w", op, ErrAccessDenied)
	}

	tenants, err := s.storage.Tenants(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return tenants, nil
}

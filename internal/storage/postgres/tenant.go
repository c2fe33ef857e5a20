package postgres

import (
	"context"
	"errors"
	"fmt"

	"taskmanager/internal/models"
	"taskmanager/internal/storage"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// SaveTenant создает нового тенанта.
func (s *Storage) SaveTenant(ctx context.Context, tenant *models.Tenant) error {
	const op = "storage.postgres.SaveTenant"

	query := `
		INSERT INTO tenants(id, name, created_at)
		VALUES ($1, $2, $3)
	`

	_, err := s.db.Exec(ctx, query, tenant.ID, tenant.Name, tenant.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// TenantExists проверяет существование тенанта по ID.
func (s *Storage) TenantExists(ctx context.Context, id string) (bool, error) {
	const op = "storage.postgres.TenantExists"

	query := `SELECT EXISTS(SELECT 1 FROM tenants WHERE id = $1)`

	var exists bool
	if err := s.db.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return exists, nil
}

// Tenants возвращает все тенанты.
func (s *Storage) Tenants(ctx context.Context) ([]models.Tenant, error) {
	const op = "storage.postgres.Tenants"

	query := `
		SELECT id, name, created_at
		FROM tenants
		ORDER BY created_at
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var tenants []models.Tenant
	for rows.Next() {
		var t models.Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		tenants = append(tenants, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return tenants, nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskmanager/internal/models"
	"taskmanager/internal/storage"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// SaveUser создает нового пользователя в БД.
func (s *Storage) SaveUser(ctx context.Context, user *models.User) error {
	const op = "storage.postgres.SaveUser"

	query := `
		INSERT INTO users(id, email, password_hash, tenant_id, roles, otp_hash, otp_expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.db.Exec(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.TenantID,
		user.Roles,
		user.OTPHash,
		user.OTPExpiresAt,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == pgerrcode.UniqueViolation {
				return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
			}
			// Привязка к несуществующему тенанту.
			if pgErr.Code == pgerrcode.ForeignKeyViolation {
				return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
			}
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// UserByEmail находит пользователя по email.
func (s *Storage) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.postgres.UserByEmail"

	query := `
		SELECT id, email, password_hash, tenant_id, roles, otp_hash, otp_expires_at, created_at, updated_at
		FROM users
		WHERE email = $1
	`

	user, err := s.scanUser(s.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// UserByID находит пользователя по ID.
func (s *Storage) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	const op = "storage.postgres.UserByID"

	query := `
		SELECT id, email, password_hash, tenant_id, roles, otp_hash, otp_expires_at, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	user, err := s.scanUser(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// SetUserOTP записывает хэш одноразового кода и срок его действия.
func (s *Storage) SetUserOTP(ctx context.Context, id uuid.UUID, otpHash string, expiresAt time.Time) error {
	const op = "storage.postgres.SetUserOTP"

	query := `
		UPDATE users
		SET otp_hash = $2, otp_expires_at = $3, updated_at = now()
		WHERE id = $1
	`

	cmdTag, err := s.db.Exec(ctx, query, id, otpHash, expiresAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// ConsumeUserOTP атомарно сверяет и очищает одноразовый код.
// Условный UPDATE гарантирует, что из двух конкурентных проверок одного кода
// успешной окажется ровно одна.
func (s *Storage) ConsumeUserOTP(ctx context.Context, id uuid.UUID, otpHash string, now time.Time) (bool, error) {
	const op = "storage.postgres.ConsumeUserOTP"

	query := `
		UPDATE users
		SET otp_hash = NULL, otp_expires_at = NULL, updated_at = now()
		WHERE id = $1 AND otp_hash = $2 AND otp_expires_at > $3
		RETURNING id
	`

	var matched uuid.UUID
	err := s.db.QueryRow(ctx, query, id, otpHash, now).Scan(&matched)
	if err == nil {
		return true, nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}

	return false, fmt.Errorf("%s: %w", op, err)
}

func (s *Storage) scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.TenantID,
		&user.Roles,
		&user.OTPHash,
		&user.OTPExpiresAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &user, nil
}

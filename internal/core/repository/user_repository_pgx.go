package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hrgate/auth-gateway/internal/core/domain"
)

// PgxUserRepository implements domain.UserRepository using pgxpool.
type PgxUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PgxUserRepository.
func NewUserRepository(pool *pgxpool.Pool) *PgxUserRepository {
	return &PgxUserRepository{pool: pool}
}

// GetByUsername returns the user matching the given username.
// Returns (nil, nil) when no user is found.
func (r *PgxUserRepository) GetByUsername(ctx context.Context, username string) (*domain.UserRow, error) {
	query := `
		SELECT id, username, email, password_hash, is_superuser, is_active
		FROM users
		WHERE username = $1
	`

	var row domain.UserRow
	err := r.pool.QueryRow(ctx, query, username).Scan(
		&row.ID, &row.Username, &row.Email, &row.PasswordHash, &row.IsSuperuser, &row.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &row, nil
}

// GetByID returns the user with the given id.
// Returns (nil, nil) when no user is found.
func (r *PgxUserRepository) GetByID(ctx context.Context, id int) (*domain.UserRow, error) {
	query := `
		SELECT id, username, email, password_hash, is_superuser, is_active
		FROM users
		WHERE id = $1
	`

	var row domain.UserRow
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&row.ID, &row.Username, &row.Email, &row.PasswordHash, &row.IsSuperuser, &row.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &row, nil
}

// UpdatePasswordHash overwrites the stored credential hash for the user.
func (r *PgxUserRepository) UpdatePasswordHash(ctx context.Context, id int, passwordHash string) error {
	query := `UPDATE users SET password_hash = $2 WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, passwordHash)
	return err
}

// UpdateLastLogin sets the last_login timestamp to now for the given user.
func (r *PgxUserRepository) UpdateLastLogin(ctx context.Context, id int) error {
	query := `UPDATE users SET last_login = CURRENT_TIMESTAMP WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

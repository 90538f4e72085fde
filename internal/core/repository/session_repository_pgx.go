package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hrgate/auth-gateway/internal/core/domain"
)

// PgxSessionRepository implements domain.SessionRepository using pgxpool.
type PgxSessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new PgxSessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *PgxSessionRepository {
	return &PgxSessionRepository{pool: pool}
}

// Create inserts a new session row.
func (r *PgxSessionRepository) Create(ctx context.Context, sessionKey string, payload []byte, expiresAt time.Time) error {
	query := `INSERT INTO sessions (session_key, payload, expires_at) VALUES ($1, $2, $3)`
	_, err := r.pool.Exec(ctx, query, sessionKey, payload, expiresAt)
	return err
}

// GetByKey looks up a session row by its opaque key.
// Returns (nil, nil) when the key does not match any session.
func (r *PgxSessionRepository) GetByKey(ctx context.Context, sessionKey string) (*domain.SessionRow, error) {
	query := `
		SELECT session_key, payload, created_at, expires_at
		FROM sessions
		WHERE session_key = $1
	`

	var row domain.SessionRow
	err := r.pool.QueryRow(ctx, query, sessionKey).Scan(
		&row.SessionKey, &row.Payload, &row.CreatedAt, &row.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &row, nil
}

// Delete removes the session row. Deleting an absent key is not an error.
func (r *PgxSessionRepository) Delete(ctx context.Context, sessionKey string) error {
	query := `DELETE FROM sessions WHERE session_key = $1`
	_, err := r.pool.Exec(ctx, query, sessionKey)
	return err
}

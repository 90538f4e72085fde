package domain

import "context"

// UserRow represents a principal record returned from the database.
// It includes the password hash so the Logic layer can verify credentials.
type UserRow struct {
	ID           int
	Username     string
	Email        string
	PasswordHash string
	IsSuperuser  bool
	IsActive     bool
}

// UserRepository defines the data-access contract for principal operations.
// Implementations live in internal/core/repository (Core layer).
// The Logic layer depends on this interface only — never on SQL or pgx directly.
type UserRepository interface {
	// GetByUsername returns the user matching the given username.
	// Returns (nil, nil) when no user is found.
	GetByUsername(ctx context.Context, username string) (*UserRow, error)

	// GetByID returns the user with the given id.
	// Returns (nil, nil) when no user is found.
	GetByID(ctx context.Context, id int) (*UserRow, error)

	// UpdatePasswordHash overwrites the stored credential hash for the user.
	UpdatePasswordHash(ctx context.Context, id int, passwordHash string) error

	// UpdateLastLogin sets the last_login timestamp to now for the given user.
	UpdateLastLogin(ctx context.Context, id int) error
}

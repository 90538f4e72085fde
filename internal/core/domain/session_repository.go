package domain

import (
	"context"
	"time"
)

// SessionRow represents a persisted session record. Payload is the raw
// JSON session payload as stored; decoding it is the session adapter's job.
type SessionRow struct {
	SessionKey string
	Payload    []byte
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// SessionRepository defines the data-access contract for session rows.
// Implementations live in internal/core/repository (Core layer).
// Operations are atomic per session key; no cross-session transaction exists.
type SessionRepository interface {
	// Create inserts a new session row.
	Create(ctx context.Context, sessionKey string, payload []byte, expiresAt time.Time) error

	// GetByKey looks up a session row by its opaque key.
	// Returns (nil, nil) when the key does not match any session.
	GetByKey(ctx context.Context, sessionKey string) (*SessionRow, error)

	// Delete removes the session row. Deleting an absent key is not an error.
	Delete(ctx context.Context, sessionKey string) error
}

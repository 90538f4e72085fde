// Package session maps opaque session keys to authenticated principals.
//
// A session row stores an arbitrary JSON payload; the only attribute this
// service requires is auth_user_id, the internal identifier of the
// authenticated principal.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hrgate/auth-gateway/internal/core/domain"
)

// ErrNotFound is returned by Resolve when the session key is absent,
// expired, or its payload cannot be decoded.
var ErrNotFound = errors.New("session not found")

type payload struct {
	AuthUserID int `json:"auth_user_id"`
}

// Store is the session-store adapter over the persistent session backend.
// One session belongs to exactly one principal; a principal may hold any
// number of concurrent sessions.
type Store struct {
	sessions domain.SessionRepository
	ttl      time.Duration
}

// NewStore creates a Store with the given repository and session lifetime.
func NewStore(sessions domain.SessionRepository, ttl time.Duration) *Store {
	return &Store{sessions: sessions, ttl: ttl}
}

// Create allocates a new opaque session key for the principal and persists
// the association. Returns the key.
func (s *Store) Create(ctx context.Context, userID int) (string, error) {
	key, err := GenerateKey()
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(payload{AuthUserID: userID})
	if err != nil {
		return "", fmt.Errorf("session: marshal payload: %w", err)
	}

	if err := s.sessions.Create(ctx, key, data, time.Now().Add(s.ttl)); err != nil {
		return "", fmt.Errorf("session: persist: %w", err)
	}

	return key, nil
}

// Resolve decodes the session payload for the given key and returns the
// principal identifier. Absent, expired, and malformed sessions all
// resolve to ErrNotFound.
func (s *Store) Resolve(ctx context.Context, sessionKey string) (int, error) {
	row, err := s.sessions.GetByKey(ctx, sessionKey)
	if err != nil {
		return 0, fmt.Errorf("session: lookup: %w", err)
	}
	if row == nil {
		return 0, ErrNotFound
	}
	if !row.ExpiresAt.IsZero() && time.Now().After(row.ExpiresAt) {
		return 0, ErrNotFound
	}

	var p payload
	if err := json.Unmarshal(row.Payload, &p); err != nil || p.AuthUserID == 0 {
		return 0, ErrNotFound
	}

	return p.AuthUserID, nil
}

// Destroy deletes the session row. Destroying an absent session is not an
// error at this layer.
func (s *Store) Destroy(ctx context.Context, sessionKey string) error {
	if err := s.sessions.Delete(ctx, sessionKey); err != nil {
		return fmt.Errorf("session: delete: %w", err)
	}
	return nil
}

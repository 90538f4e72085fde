package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hrgate/auth-gateway/internal/core/domain"
)

type memSessionRepo struct {
	mu sync.Mutex
	m  map[string]*domain.SessionRow
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{m: map[string]*domain.SessionRow{}}
}

func (r *memSessionRepo) Create(ctx context.Context, sessionKey string, payload []byte, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[sessionKey] = &domain.SessionRow{
		SessionKey: sessionKey,
		Payload:    payload,
		CreatedAt:  time.Now(),
		ExpiresAt:  expiresAt,
	}
	return nil
}

func (r *memSessionRepo) GetByKey(ctx context.Context, sessionKey string) (*domain.SessionRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.m[sessionKey], nil
}

func (r *memSessionRepo) Delete(ctx context.Context, sessionKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.m, sessionKey)
	return nil
}

func TestStore_CreateResolveRoundTrip(t *testing.T) {
	repo := newMemSessionRepo()
	store := NewStore(repo, time.Hour)
	ctx := context.Background()

	key, err := store.Create(ctx, 42)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if key == "" {
		t.Fatal("Create returned empty key")
	}

	uid, err := store.Resolve(ctx, key)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if uid != 42 {
		t.Errorf("Resolve: want 42, got %d", uid)
	}
}

func TestStore_KeysAreUnique(t *testing.T) {
	repo := newMemSessionRepo()
	store := NewStore(repo, time.Hour)
	ctx := context.Background()

	k1, _ := store.Create(ctx, 1)
	k2, _ := store.Create(ctx, 1)
	if k1 == k2 {
		t.Fatal("two sessions for the same principal must get distinct keys")
	}
}

func TestStore_ResolveUnknownKey(t *testing.T) {
	store := NewStore(newMemSessionRepo(), time.Hour)

	if _, err := store.Resolve(context.Background(), "no-such-key"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Resolve unknown key: want ErrNotFound, got %v", err)
	}
}

func TestStore_ResolveExpiredSession(t *testing.T) {
	repo := newMemSessionRepo()
	store := NewStore(repo, -time.Minute)
	ctx := context.Background()

	key, err := store.Create(ctx, 5)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := store.Resolve(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Resolve expired session: want ErrNotFound, got %v", err)
	}
}

func TestStore_ResolveMalformedPayload(t *testing.T) {
	repo := newMemSessionRepo()
	store := NewStore(repo, time.Hour)
	ctx := context.Background()

	repo.Create(ctx, "bad", []byte("not json"), time.Now().Add(time.Hour))
	if _, err := store.Resolve(ctx, "bad"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Resolve malformed payload: want ErrNotFound, got %v", err)
	}

	repo.Create(ctx, "empty", []byte(`{}`), time.Now().Add(time.Hour))
	if _, err := store.Resolve(ctx, "empty"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Resolve payload without auth_user_id: want ErrNotFound, got %v", err)
	}
}

func TestStore_DestroyIsIdempotent(t *testing.T) {
	repo := newMemSessionRepo()
	store := NewStore(repo, time.Hour)
	ctx := context.Background()

	key, _ := store.Create(ctx, 9)
	if err := store.Destroy(ctx, key); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if err := store.Destroy(ctx, key); err != nil {
		t.Fatalf("Destroy absent session should not error, got %v", err)
	}
	if _, err := store.Resolve(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Resolve after Destroy: want ErrNotFound, got %v", err)
	}
}

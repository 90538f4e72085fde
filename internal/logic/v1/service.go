package v1

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"github.com/hrgate/auth-gateway/internal/core/domain"
	"github.com/hrgate/auth-gateway/internal/fetchcache"
	"github.com/hrgate/auth-gateway/internal/session"
	"github.com/hrgate/auth-gateway/internal/token"
	"github.com/hrgate/auth-gateway/middleware"
)

// hrServiceName labels HR-service cache entries and metrics.
const hrServiceName = "hr"

// hrUnavailableDetail is the placeholder enrichment object returned when
// the HR service produced no data, cached or live.
var hrUnavailableDetail = map[string]string{
	"detail": "HR service unreachable or failed after retries",
}

// Fetcher is the fetch-with-cache dependency used for login enrichment.
// Implemented by *fetchcache.Cache.
type Fetcher interface {
	Fetch(ctx context.Context, req fetchcache.Request) json.RawMessage
}

// HRSettings configures the downstream HR enrichment fetch.
type HRSettings struct {
	BaseURL    string
	FreshTTL   time.Duration
	MaxRetries int
}

// AuthService implements the authentication session lifecycle: login,
// logout, verify-session, and change-password. It depends on repository
// interfaces, the session store, the token signer, and the fetch cache
// (all injected via constructor) and MUST NOT access the database or SQL
// directly.
type AuthService struct {
	users      domain.UserRepository
	sessions   *session.Store
	signer     *token.Signer
	fetcher    Fetcher
	hr         HRSettings
	bcryptCost int
}

// NewAuthService creates a new AuthService with the given dependencies.
func NewAuthService(
	users domain.UserRepository,
	sessions *session.Store,
	signer *token.Signer,
	fetcher Fetcher,
	hr HRSettings,
	bcryptCost int,
) *AuthService {
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		users:      users,
		sessions:   sessions,
		signer:     signer,
		fetcher:    fetcher,
		hr:         hr,
		bcryptCost: bcryptCost,
	}
}

// Login authenticates the credentials, creates a server-side session,
// mints an internal token, and enriches the response with HR employee
// data for non-superusers. Authentication failures leave no session
// side effects; HR failures degrade only the enrichment payload.
func (s *AuthService) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResult, error) {
	ctx, span := middleware.StartSpan(ctx, "auth.login", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("username", req.Username),
	))
	defer span.End()

	row, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("query user %q: %w", req.Username, err)
	}
	if row == nil {
		span.SetAttributes(attribute.Bool("auth.success", false))
		span.AddEvent("authentication.failed")
		loginsTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, fmt.Errorf("authenticate user %q: %w", req.Username, ErrUserNotFound)
	}
	if !row.IsActive {
		span.SetAttributes(attribute.Bool("auth.success", false))
		span.AddEvent("authentication.failed")
		loginsTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, fmt.Errorf("authenticate user %q: %w", req.Username, ErrInvalidCredentials)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(row.PasswordHash), []byte(req.Password)); err != nil {
		span.SetAttributes(attribute.Bool("auth.success", false))
		span.AddEvent("authentication.failed")
		loginsTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, fmt.Errorf("authenticate user %q: %w", req.Username, ErrInvalidCredentials)
	}

	// Update last_login timestamp (best-effort, don't fail login)
	if updateErr := s.users.UpdateLastLogin(ctx, row.ID); updateErr != nil {
		span.RecordError(fmt.Errorf("update last_login: %w", updateErr))
	}

	sessionKey, err := s.sessions.Create(ctx, row.ID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("create session: %w", err)
	}

	internalToken, err := s.signer.Sign(row.ID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("sign internal token: %w", err)
	}

	var employeeData any
	if !row.IsSuperuser {
		employeeData = s.fetchEmployee(ctx, row.ID, internalToken)
	}

	result := &domain.LoginResult{
		SessionID:     sessionKey,
		InternalToken: internalToken,
		UserData:      serializeUser(row, row.IsSuperuser),
		EmployeeData:  employeeData,
	}

	span.SetAttributes(
		attribute.String("user.id", strconv.Itoa(row.ID)),
		attribute.Bool("auth.success", true),
	)
	span.AddEvent("user.authenticated")
	loginsTotal.WithLabelValues("success").Inc()

	return result, nil
}

// Logout destroys the session. Destroying an absent session is not an
// error; the operation is idempotent.
func (s *AuthService) Logout(ctx context.Context, sessionKey string) error {
	ctx, span := middleware.StartSpan(ctx, "auth.logout", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	if sessionKey == "" {
		return nil
	}
	if err := s.sessions.Destroy(ctx, sessionKey); err != nil {
		span.RecordError(err)
		return fmt.Errorf("destroy session: %w", err)
	}
	return nil
}

// VerifySession resolves the session key to its principal and mints a
// fresh light internal token.
func (s *AuthService) VerifySession(ctx context.Context, sessionKey string) (*domain.VerifyResult, error) {
	ctx, span := middleware.StartSpan(ctx, "auth.verify_session", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	userID, err := s.sessions.Resolve(ctx, sessionKey)
	if err != nil {
		span.SetAttributes(attribute.Bool("session.valid", false))
		return nil, fmt.Errorf("resolve session: %w", ErrSessionNotFound)
	}

	row, err := s.users.GetByID(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("query user %d: %w", userID, err)
	}
	if row == nil {
		span.SetAttributes(attribute.Bool("session.valid", false))
		return nil, fmt.Errorf("lookup session principal %d: %w", userID, ErrSessionInvalid)
	}

	internalToken, err := s.signer.SignLight(row.ID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("sign internal token: %w", err)
	}

	span.SetAttributes(
		attribute.String("user.id", strconv.Itoa(row.ID)),
		attribute.Bool("session.valid", true),
	)

	return &domain.VerifyResult{
		Valid:         true,
		UserID:        row.ID,
		InternalToken: internalToken,
	}, nil
}

// ResolveSession returns the principal identifier bound to the session
// key, or ErrSessionNotFound. Used by handlers that need an
// authenticated caller without minting a token.
func (s *AuthService) ResolveSession(ctx context.Context, sessionKey string) (int, error) {
	userID, err := s.sessions.Resolve(ctx, sessionKey)
	if err != nil {
		return 0, fmt.Errorf("resolve session: %w", ErrSessionNotFound)
	}
	return userID, nil
}

// ChangePassword verifies the old credential and overwrites the stored
// hash with a hash of the NEW value.
func (s *AuthService) ChangePassword(ctx context.Context, userID int, oldPassword, newPassword string) error {
	ctx, span := middleware.StartSpan(ctx, "auth.change_password", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("user.id", strconv.Itoa(userID)),
	))
	defer span.End()

	if oldPassword == "" || newPassword == "" {
		return ErrMissingPasswordFields
	}

	row, err := s.users.GetByID(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("query user %d: %w", userID, err)
	}
	if row == nil {
		return fmt.Errorf("change password for user %d: %w", userID, ErrUserNotFound)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(row.PasswordHash), []byte(oldPassword)); err != nil {
		span.AddEvent("old_password.mismatch")
		return fmt.Errorf("change password for user %d: %w", userID, ErrOldPasswordIncorrect)
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("hash new password: %w", err)
	}

	if err := s.users.UpdatePasswordHash(ctx, row.ID, string(newHash)); err != nil {
		span.RecordError(err)
		return fmt.Errorf("store new password hash: %w", err)
	}

	span.AddEvent("password.changed")
	return nil
}

// fetchEmployee runs the cached HR lookup and normalizes the result:
// first element of the results list, nil when the list is empty, and a
// placeholder detail object when the fetch produced no data at all.
func (s *AuthService) fetchEmployee(ctx context.Context, userID int, internalToken string) any {
	endpoint := fmt.Sprintf("%s/employee/?user_id=%d&exclude=parent,children", s.hr.BaseURL, userID)

	header := http.Header{}
	header.Set("Authorization", "Bearer "+internalToken)

	raw := s.fetcher.Fetch(ctx, fetchcache.Request{
		Service:    hrServiceName,
		Endpoint:   endpoint,
		KeySuffix:  strconv.Itoa(userID),
		FreshTTL:   s.hr.FreshTTL,
		MaxRetries: s.hr.MaxRetries,
		AllowStale: true,
		Header:     header,
	})
	if raw == nil {
		return hrUnavailableDetail
	}

	var body struct {
		Results []json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || len(body.Results) == 0 {
		return nil
	}
	return body.Results[0]
}

func serializeUser(row *domain.UserRow, includeHash bool) domain.UserData {
	u := domain.UserData{
		ID:          row.ID,
		Username:    row.Username,
		Email:       row.Email,
		IsSuperuser: row.IsSuperuser,
	}
	if includeHash {
		u.Password = row.PasswordHash
	}
	return u
}

package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/hrgate/auth-gateway/internal/core/domain"
	logicv1 "github.com/hrgate/auth-gateway/internal/logic/v1"
	"github.com/hrgate/auth-gateway/middleware"
)

// Handler groups HTTP handlers for the auth API v1.
// Dependencies are injected via the constructor — no global state.
type Handler struct {
	auth *logicv1.AuthService
}

// NewHandler creates a new Handler with the given AuthService.
func NewHandler(auth *logicv1.AuthService) *Handler {
	return &Handler{auth: auth}
}

// RegisterRoutes registers all auth API v1 routes on the given router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth/login", h.Login)
	rg.POST("/auth/logout", h.Logout)
	rg.POST("/auth/verify-session", h.VerifySession)
	rg.POST("/auth/change-password", h.ChangePassword)
}

// Login handles HTTP request for user login.
// POST /api/v1/auth/login {username, password}
func (h *Handler) Login(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	logger := zerolog.Ctx(ctx)

	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.SetAttributes(attribute.Bool("request.valid", false))
		span.RecordError(err)
		logger.Error().Err(err).Msg("Invalid request")
		c.JSON(http.StatusBadRequest, gin.H{"detail": flattenBindingError(err)})
		return
	}

	span.SetAttributes(attribute.Bool("request.valid", true))

	result, err := h.auth.Login(ctx, req)
	if err != nil {
		span.RecordError(err)
		logger.Warn().Err(err).Msg("Login failed")

		switch {
		case errors.Is(err, logicv1.ErrInvalidCredentials),
			// Don't reveal that the user doesn't exist
			errors.Is(err, logicv1.ErrUserNotFound):
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "Invalid credentials"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
		}
		return
	}

	setSessionCookie(c, result.SessionID)

	logger.Info().Int("user_id", result.UserData.ID).Msg("Login successful")
	c.JSON(http.StatusOK, result)
}

// Logout handles HTTP request for logout. Always succeeds: the session
// named by the cookie (if any) is destroyed and the cookie cleared.
// POST /api/v1/auth/logout
func (h *Handler) Logout(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	logger := zerolog.Ctx(ctx)

	sessionKey, _ := c.Cookie(SessionCookieName)
	if err := h.auth.Logout(ctx, sessionKey); err != nil {
		// Logout is idempotent towards the client; log and move on.
		span.RecordError(err)
		logger.Warn().Err(err).Msg("Session destroy failed during logout")
	}

	clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"detail": "Logged out"})
}

// VerifySession handles HTTP request to re-check session validity. The
// session key is read from the cookie only, never from the body.
// POST /api/v1/auth/verify-session
func (h *Handler) VerifySession(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	logger := zerolog.Ctx(ctx)

	sessionKey, err := c.Cookie(SessionCookieName)
	if err != nil || sessionKey == "" {
		span.SetAttributes(attribute.Bool("session.present", false))
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Missing sessionid"})
		return
	}

	result, err := h.auth.VerifySession(ctx, sessionKey)
	if err != nil {
		span.RecordError(err)
		logger.Warn().Err(err).Msg("Session verification failed")

		switch {
		case errors.Is(err, logicv1.ErrSessionNotFound),
			errors.Is(err, logicv1.ErrSessionInvalid):
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "Invalid session"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
		}
		return
	}

	logger.Info().Int("user_id", result.UserID).Msg("Session verified")
	c.JSON(http.StatusOK, result)
}

// ChangePassword handles HTTP request to change the caller's password.
// Requires an authenticated session cookie.
// POST /api/v1/auth/change-password {old_password, new_password}
func (h *Handler) ChangePassword(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	logger := zerolog.Ctx(ctx)

	sessionKey, err := c.Cookie(SessionCookieName)
	if err != nil || sessionKey == "" {
		span.SetAttributes(attribute.Bool("session.present", false))
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Missing sessionid"})
		return
	}

	userID, err := h.auth.ResolveSession(ctx, sessionKey)
	if err != nil {
		span.RecordError(err)
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Invalid session"})
		return
	}

	var req domain.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.SetAttributes(attribute.Bool("request.valid", false))
		c.JSON(http.StatusBadRequest, gin.H{"detail": flattenBindingError(err)})
		return
	}

	if err := h.auth.ChangePassword(ctx, userID, req.OldPassword, req.NewPassword); err != nil {
		span.RecordError(err)
		logger.Warn().Err(err).Int("user_id", userID).Msg("Password change failed")

		switch {
		case errors.Is(err, logicv1.ErrMissingPasswordFields):
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Both old_password and new_password are required."})
		case errors.Is(err, logicv1.ErrOldPasswordIncorrect):
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Old password is incorrect."})
		case errors.Is(err, logicv1.ErrUserNotFound):
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "Invalid session"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
		}
		return
	}

	logger.Info().Int("user_id", userID).Msg("Password updated")
	c.JSON(http.StatusOK, gin.H{"detail": "Password updated successfully."})
}

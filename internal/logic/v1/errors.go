// Package v1 provides authentication session business logic for API version 1.
//
// Error Handling:
// This package defines sentinel errors that represent common authentication
// failures. These errors should be wrapped with context using
// fmt.Errorf("%w") when returned from business logic methods.
//
// Example Usage:
//
//	if user == nil {
//	    return nil, fmt.Errorf("authenticate user %q: %w", username, ErrUserNotFound)
//	}
//
// Error Checking (in handlers):
//
//	switch {
//	case errors.Is(err, logicv1.ErrInvalidCredentials):
//	    c.JSON(http.StatusUnauthorized, gin.H{"detail": "Invalid credentials"})
//	case errors.Is(err, logicv1.ErrSessionNotFound):
//	    c.JSON(http.StatusUnauthorized, gin.H{"detail": "Invalid session"})
//	default:
//	    c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
//	}
//
// Downstream (HR) unavailability is deliberately absent from this taxonomy:
// it is absorbed into the login response as a placeholder payload and never
// surfaces as an HTTP error.
package v1

import "errors"

// Sentinel errors for authentication session operations.
// These errors should be wrapped with context using fmt.Errorf("%w") when returned.
var (
	// ErrInvalidCredentials indicates the provided credentials are incorrect
	// or the account is inactive.
	// HTTP Status: 401 Unauthorized
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserNotFound indicates the user does not exist in the system.
	// HTTP Status: 401 Unauthorized (don't reveal user existence)
	ErrUserNotFound = errors.New("user not found")

	// ErrSessionNotFound indicates the session key does not resolve to a
	// live session.
	// HTTP Status: 401 Unauthorized
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionInvalid indicates the session resolved but its principal
	// no longer exists or is unusable.
	// HTTP Status: 401 Unauthorized
	ErrSessionInvalid = errors.New("session invalid")

	// ErrMissingPasswordFields indicates old_password or new_password was
	// absent from a change-password call.
	// HTTP Status: 400 Bad Request
	ErrMissingPasswordFields = errors.New("both old_password and new_password are required")

	// ErrOldPasswordIncorrect indicates the supplied old password does not
	// match the stored credential hash.
	// HTTP Status: 400 Bad Request
	ErrOldPasswordIncorrect = errors.New("old password is incorrect")
)

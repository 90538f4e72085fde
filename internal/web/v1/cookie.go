package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SessionCookieName is the cookie carrying the opaque session key.
const SessionCookieName = "sessionid"

// setSessionCookie issues the session cookie: HttpOnly, SameSite=Lax,
// scoped to the whole site. The cookie is a session cookie; server-side
// expiry governs its real lifetime.
func setSessionCookie(c *gin.Context, sessionKey string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sessionKey,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie removes the session cookie from the client.
func clearSessionCookie(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

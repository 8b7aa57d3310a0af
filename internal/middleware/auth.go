package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ayoub195/safisaana/internal/service"
)

// SessionCookie is the cookie the session token rides in.
const SessionCookie = "session"

const claimsKey = "session_claims"

// RequireSession guards admin routes. The token is read from the session
// cookie, falling back to a bearer Authorization header.
func RequireSession(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		claims, err := auth.VerifySession(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired session"})
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// SessionClaims returns the verified claims set by RequireSession, or nil.
func SessionClaims(c *gin.Context) *service.SessionClaims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*service.SessionClaims)
	return claims
}

func sessionToken(c *gin.Context) string {
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		return cookie
	}
	auth := c.GetHeader("Authorization")
	parts := strings.Fields(auth)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	return ""
}

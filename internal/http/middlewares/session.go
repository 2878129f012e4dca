package middlewares

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// TokenFromRequest recovers the session token from an inbound request.
// The session cookie wins; an Authorization bearer header is the fallback
// for API clients that don't carry cookies. No side effects.
func TokenFromRequest(c *gin.Context, cookieName string) string {
	if raw, err := c.Cookie(cookieName); err == nil && raw != "" {
		return raw
	}

	authHeader := c.GetHeader("Authorization")

	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}

	return ""
}

package middlewares

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/bloghub/internal/auth"
	"github.com/geocoder89/bloghub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// Keep these interfaces small so tests can fake them easily.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

type UserLoader interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

var ErrUnauthenticated = errors.New("unauthenticated")

// AuthMiddleware is the authorization guard: it resolves an inbound
// request to a live user record or fails unauthenticated.
type AuthMiddleware struct {
	jwt    TokenVerifier
	users  UserLoader
	cookie string
}

func NewAuthMiddleware(jwt TokenVerifier, users UserLoader, cookieName string) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt, users: users, cookie: cookieName}
}

// CurrentUser extracts the session token, verifies it and loads the user
// it references. A token pointing at a deleted user fails the same way as
// a missing or invalid token.
func (m *AuthMiddleware) CurrentUser(c *gin.Context) (user.User, error) {
	raw := TokenFromRequest(c, m.cookie)

	if raw == "" {
		return user.User{}, ErrUnauthenticated
	}

	claims, err := m.jwt.Verify(raw)

	if err != nil {
		return user.User{}, ErrUnauthenticated
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	u, err := m.users.GetByID(ctx, claims.Subject)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, ErrUnauthenticated
		}
		return user.User{}, err
	}

	return u, nil
}

// RequireAuth aborts with 401 unless the request carries a valid session
// for an existing user. The resolved user is stashed on the context.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := m.CurrentUser(c)

		if err != nil {
			if errors.Is(err, ErrUnauthenticated) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": gin.H{
						"code":    "unauthorized",
						"message": "Not authenticated",
					},
				})
				return
			}

			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": gin.H{
					"code":    "internal_error",
					"message": "Could not resolve session",
				},
			})
			return
		}

		SetUser(c, u)

		c.Next()
	}
}

// SetUser stashes the authenticated user on the gin context. Exported so
// handler tests can simulate an authenticated request without a real token.
func SetUser(c *gin.Context, u user.User) {
	c.Set(ctxUserKey, u)
}

func UserFromContext(c *gin.Context) (user.User, bool) {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return user.User{}, false
	}
	u, ok := v.(user.User)
	return u, ok
}

package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/bloghub/internal/config"
	"github.com/geocoder89/bloghub/internal/domain/user"
	"github.com/geocoder89/bloghub/internal/http/middlewares"
	"github.com/geocoder89/bloghub/internal/observability"
	"github.com/geocoder89/bloghub/internal/security"
	"github.com/gin-gonic/gin"
)

type UserReader interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

type TokenIssuer interface {
	Issue(userID string, role user.Role) (string, time.Time, error)
}

type AuthHandler struct {
	users   UserReader
	jwt     TokenIssuer
	cfg     config.Config
	metrics *observability.Prom
}

func NewAuthHandler(users UserReader, jwt TokenIssuer, cfg config.Config, metrics *observability.Prom) *AuthHandler {
	return &AuthHandler{
		users:   users,
		jwt:     jwt,
		cfg:     cfg,
		metrics: metrics,
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login checks credentials and plants the session cookie. The response
// body is the user representation the front-end keys its UI off.
func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// short timeout for DB lookup
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	foundUser, err := h.users.GetByEmail(cctx, req.Email)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			h.metrics.ObserveAuth("login", "rejected")
			RespondUnauthorized(ctx, "invalid_credentials", "Invalid credentials")
			return
		}

		RespondInternal(ctx, "Could not log in")
		return
	}

	err = security.CheckPassword(foundUser.PasswordHash, req.Password)

	if err != nil {
		h.metrics.ObserveAuth("login", "rejected")
		RespondUnauthorized(ctx, "invalid_credentials", "Invalid credentials")
		return
	}

	token, expiresAt, err := h.jwt.Issue(foundUser.ID, foundUser.Role)

	if err != nil {
		RespondInternal(ctx, "Could not create session")
		return
	}

	h.setSessionCookie(ctx, token, expiresAt)
	h.metrics.ObserveAuth("login", "ok")

	ctx.JSON(http.StatusOK, foundUser)
}

// Logout clears the cookie; the token itself simply ages out.
func (h *AuthHandler) Logout(ctx *gin.Context) {
	h.clearSessionCookie(ctx)

	ctx.JSON(http.StatusOK, gin.H{"detail": "Logged out"})
}

// Me runs behind RequireAuth and echoes the resolved user.
func (h *AuthHandler) Me(ctx *gin.Context) {
	u, ok := middlewares.UserFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Not authenticated")
		return
	}

	ctx.JSON(http.StatusOK, u)
}

func (h *AuthHandler) setSessionCookie(ctx *gin.Context, token string, expiresAt time.Time) {
	secure := h.cfg.Env == "prod"

	maxAge := int(time.Until(expiresAt).Seconds())

	ctx.SetSameSite(http.SameSiteLaxMode)

	ctx.SetCookie(
		h.cfg.SessionCookieName,
		token,
		maxAge,
		"/",
		"",
		secure,
		true, // HttpOnly.
	)
}

func (h *AuthHandler) clearSessionCookie(ctx *gin.Context) {
	secure := h.cfg.Env == "prod"
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(
		h.cfg.SessionCookieName,
		"",
		-1,
		"/",
		"",
		secure,
		true,
	)
}

package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/bloghub/internal/cache"
	"github.com/geocoder89/bloghub/internal/domain/user"
	"github.com/geocoder89/bloghub/internal/http/middlewares"
	"github.com/geocoder89/bloghub/internal/repo/postgres"
	"github.com/geocoder89/bloghub/internal/security"
	"github.com/geocoder89/bloghub/internal/utils"
	"github.com/gin-gonic/gin"
)

type UsersStore interface {
	Create(ctx context.Context, email, name, passwordHash string, role user.Role) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	List(ctx context.Context) ([]user.User, error)
	Count(ctx context.Context) (int, error)
	Update(ctx context.Context, id string, fields postgres.UpdateUserFields) (user.User, error)
	Delete(ctx context.Context, id string) error
}

// CurrentUserResolver lets the create handler authenticate lazily: the
// route is public so the first account can ever be created, and the guard
// only kicks in once users exist.
type CurrentUserResolver interface {
	CurrentUser(c *gin.Context) (user.User, error)
}

type UsersHandler struct {
	repo      UsersStore
	guard     CurrentUserResolver
	postCache *cache.Cache
}

func NewUsersHandler(repo UsersStore, guard CurrentUserResolver, postCache *cache.Cache) *UsersHandler {
	return &UsersHandler{repo: repo, guard: guard, postCache: postCache}
}

type CreateUserRequest struct {
	Email    string    `json:"email" binding:"required,email"`
	Name     string    `json:"name" binding:"required,max=255"`
	Password string    `json:"password" binding:"required,min=8"`
	Role     user.Role `json:"role" binding:"omitempty,oneof=admin user"`
}

type UpdateUserRequest struct {
	Name     *string    `json:"name" binding:"omitempty,max=255"`
	Password *string    `json:"password" binding:"omitempty,min=8"`
	Role     *user.Role `json:"role" binding:"omitempty,oneof=admin user"`
}

func (h *UsersHandler) CreateUser(ctx *gin.Context) {
	var req CreateUserRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	// duplicate check comes before the auth check, matching the bootstrap
	// probe behavior: an existing email answers 400, never 401
	_, err := h.repo.GetByEmail(cctx, req.Email)

	if err == nil {
		RespondBadRequest(ctx, "email_taken", "Email already registered", nil)
		return
	}

	if !errors.Is(err, user.ErrNotFound) {
		RespondInternal(ctx, "Could not create user")
		return
	}

	count, err := h.repo.Count(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not create user")
		return
	}

	// bootstrap: the very first user is created without authentication,
	// any role allowed; after that only admins create users
	if count > 0 {
		actor, err := h.guard.CurrentUser(ctx)

		if err != nil {
			RespondUnauthorized(ctx, "unauthorized", "Admin required")
			return
		}

		if !actor.IsAdmin() {
			RespondForbidden(ctx, "Admin required")
			return
		}
	}

	role := req.Role

	if role == "" {
		role = user.RoleUser
	}

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, "Could not create user")
		return
	}

	u, err := h.repo.Create(cctx, req.Email, req.Name, hash, role)

	if err != nil {
		if errors.Is(err, postgres.ErrEmailTaken) {
			RespondBadRequest(ctx, "email_taken", "Email already registered", nil)
			return
		}

		RespondInternal(ctx, "Could not create user")
		return
	}

	ctx.JSON(http.StatusCreated, u)
}

func (h *UsersHandler) ListUsers(ctx *gin.Context) {
	users, err := h.repo.List(ctx.Request.Context())

	if err != nil {
		RespondInternal(ctx, "Could not list users")
		return
	}

	ctx.JSON(http.StatusOK, users)
}

func (h *UsersHandler) GetUser(ctx *gin.Context) {
	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondNotFound(ctx, "User not found")
		return
	}

	u, err := h.repo.GetByID(ctx.Request.Context(), id)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}
		RespondInternal(ctx, "Could not fetch user")
		return
	}

	ctx.JSON(http.StatusOK, u)
}

func (h *UsersHandler) UpdateUser(ctx *gin.Context) {
	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondNotFound(ctx, "User not found")
		return
	}

	var req UpdateUserRequest

	if !BindJSON(ctx, &req) {
		return
	}

	actor, ok := middlewares.UserFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Not authenticated")
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	target, err := h.repo.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}
		RespondInternal(ctx, "Could not update user")
		return
	}

	// users update themselves, admins update anyone
	if !actor.CanModify(&target.ID) {
		RespondForbidden(ctx, "Not authorized to update this user")
		return
	}

	fields := postgres.UpdateUserFields{
		Name: req.Name,
		Role: req.Role,
	}

	if req.Password != nil {
		hash, err := security.HashPassword(*req.Password)

		if err != nil {
			RespondInternal(ctx, "Could not update user")
			return
		}

		fields.PasswordHash = &hash
	}

	updated, err := h.repo.Update(cctx, id, fields)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}
		RespondInternal(ctx, "Could not update user")
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

// DeleteUser runs behind RequireAuth + RequireAdmin. Deleting a user
// cascades to their posts and comments in the store.
func (h *UsersHandler) DeleteUser(ctx *gin.Context) {
	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondNotFound(ctx, "User not found")
		return
	}

	actor, ok := middlewares.UserFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Not authenticated")
		return
	}

	// admin role alone does not permit self-deletion
	if actor.ID == id {
		RespondBadRequest(ctx, "self_delete", "Cannot delete your own account", nil)
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	err := h.repo.Delete(cctx, id)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}
		RespondInternal(ctx, "Could not delete user")
		return
	}

	// the cascade may have removed posts the listing cache still holds
	if h.postCache != nil {
		h.postCache.Clear()
	}

	ctx.Status(http.StatusNoContent)
}

package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/bloghub/internal/cache"
	"github.com/geocoder89/bloghub/internal/domain/post"
	"github.com/geocoder89/bloghub/internal/http/middlewares"
	"github.com/geocoder89/bloghub/internal/utils"
	"github.com/gin-gonic/gin"
)

type PostsStore interface {
	Create(ctx context.Context, req post.CreatePostRequest, ownerID string) (post.Post, error)
	GetByID(ctx context.Context, id string) (post.Post, error)
	List(ctx context.Context) ([]post.Post, error)
	Update(ctx context.Context, id string, req post.UpdatePostRequest) (post.Post, error)
	Delete(ctx context.Context, id string) error
}

const postListCacheKey = "posts:list"

type PostsHandler struct {
	repo      PostsStore
	listCache *cache.Cache
}

func NewPostsHandler(repo PostsStore, listCache *cache.Cache) *PostsHandler {
	return &PostsHandler{repo: repo, listCache: listCache}
}

func (h *PostsHandler) CreatePost(ctx *gin.Context) {
	var req post.CreatePostRequest

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

	// owner always comes from the session, never the payload
	p, err := h.repo.Create(cctx, req, actor.ID)

	if err != nil {
		RespondInternal(ctx, "Could not create post")
		return
	}

	h.invalidateList()

	ctx.JSON(http.StatusCreated, p)
}

func (h *PostsHandler) ListPosts(ctx *gin.Context) {
	if h.listCache != nil {
		if cached, ok := h.listCache.Get(postListCacheKey); ok {
			if posts, ok := cached.([]post.Post); ok {
				RespondJSONWithETag(ctx, http.StatusOK, posts)
				return
			}
		}
	}

	posts, err := h.repo.List(ctx.Request.Context())

	if err != nil {
		RespondInternal(ctx, "Could not list posts")
		return
	}

	if h.listCache != nil {
		h.listCache.Set(postListCacheKey, posts)
	}

	RespondJSONWithETag(ctx, http.StatusOK, posts)
}

func (h *PostsHandler) GetPost(ctx *gin.Context) {
	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondNotFound(ctx, "Post not found")
		return
	}

	p, err := h.repo.GetByID(ctx.Request.Context(), id)

	if err != nil {
		if errors.Is(err, post.ErrNotFound) {
			RespondNotFound(ctx, "Post not found")
			return
		}
		RespondInternal(ctx, "Could not fetch post")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, p)
}

func (h *PostsHandler) UpdatePost(ctx *gin.Context) {
	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondNotFound(ctx, "Post not found")
		return
	}

	var req post.UpdatePostRequest

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
		if errors.Is(err, post.ErrNotFound) {
			RespondNotFound(ctx, "Post not found")
			return
		}
		RespondInternal(ctx, "Could not update post")
		return
	}

	if !actor.CanModify(target.OwnerID) {
		RespondForbidden(ctx, "Not authorized to update this post")
		return
	}

	updated, err := h.repo.Update(cctx, id, req)

	if err != nil {
		if errors.Is(err, post.ErrNotFound) {
			RespondNotFound(ctx, "Post not found")
			return
		}
		RespondInternal(ctx, "Could not update post")
		return
	}

	h.invalidateList()

	ctx.JSON(http.StatusOK, updated)
}

func (h *PostsHandler) DeletePost(ctx *gin.Context) {
	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondNotFound(ctx, "Post not found")
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
		if errors.Is(err, post.ErrNotFound) {
			RespondNotFound(ctx, "Post not found")
			return
		}
		RespondInternal(ctx, "Could not delete post")
		return
	}

	if !actor.CanModify(target.OwnerID) {
		RespondForbidden(ctx, "Not authorized to delete this post")
		return
	}

	err = h.repo.Delete(cctx, id)

	if err != nil {
		if errors.Is(err, post.ErrNotFound) {
			RespondNotFound(ctx, "Post not found")
			return
		}
		RespondInternal(ctx, "Could not delete post")
		return
	}

	h.invalidateList()

	ctx.Status(http.StatusNoContent)
}

func (h *PostsHandler) invalidateList() {
	if h.listCache != nil {
		h.listCache.Delete(postListCacheKey)
	}
}

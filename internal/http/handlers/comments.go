package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/bloghub/internal/domain/comment"
	"github.com/geocoder89/bloghub/internal/domain/post"
	"github.com/geocoder89/bloghub/internal/http/middlewares"
	"github.com/geocoder89/bloghub/internal/utils"
	"github.com/gin-gonic/gin"
)

type CommentsStore interface {
	Create(ctx context.Context, content, postID, userID string) (comment.Comment, error)
	GetByID(ctx context.Context, id string) (comment.Comment, error)
	ListByPost(ctx context.Context, postID string) ([]comment.WithAuthor, error)
	AuthorName(ctx context.Context, userID *string) (*string, error)
	Update(ctx context.Context, id string, req comment.UpdateCommentRequest) (comment.Comment, error)
	Delete(ctx context.Context, id string) error
}

type PostChecker interface {
	GetByID(ctx context.Context, id string) (post.Post, error)
}

type CommentsHandler struct {
	repo  CommentsStore
	posts PostChecker
}

func NewCommentsHandler(repo CommentsStore, posts PostChecker) *CommentsHandler {
	return &CommentsHandler{repo: repo, posts: posts}
}

func (h *CommentsHandler) CreateComment(ctx *gin.Context) {
	var req comment.CreateCommentRequest

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

	// the referenced post must exist
	_, err := h.posts.GetByID(cctx, req.PostID)

	if err != nil {
		if errors.Is(err, post.ErrNotFound) {
			RespondNotFound(ctx, "Post not found. Cannot create comment.")
			return
		}
		RespondInternal(ctx, "Could not create comment")
		return
	}

	c, err := h.repo.Create(cctx, req.Content, req.PostID, actor.ID)

	if err != nil {
		RespondInternal(ctx, "Could not create comment")
		return
	}

	name := actor.Name

	ctx.JSON(http.StatusCreated, comment.Denormalize(c, &name))
}

func (h *CommentsHandler) ListCommentsForPost(ctx *gin.Context) {
	postID := ctx.Param("post_id")

	if !utils.IsUUID(postID) {
		RespondJSONWithETag(ctx, http.StatusOK, []comment.WithAuthor{})
		return
	}

	comments, err := h.repo.ListByPost(ctx.Request.Context(), postID)

	if err != nil {
		RespondInternal(ctx, "Could not list comments")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, comments)
}

func (h *CommentsHandler) UpdateComment(ctx *gin.Context) {
	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondNotFound(ctx, "Comment not found")
		return
	}

	var req comment.UpdateCommentRequest

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
		if errors.Is(err, comment.ErrNotFound) {
			RespondNotFound(ctx, "Comment not found")
			return
		}
		RespondInternal(ctx, "Could not update comment")
		return
	}

	// only the author or an admin can edit
	if !actor.CanModify(target.UserID) {
		RespondForbidden(ctx, "Not authorized")
		return
	}

	updated, err := h.repo.Update(cctx, id, req)

	if err != nil {
		if errors.Is(err, comment.ErrNotFound) {
			RespondNotFound(ctx, "Comment not found")
			return
		}
		RespondInternal(ctx, "Could not update comment")
		return
	}

	authorName, err := h.repo.AuthorName(cctx, updated.UserID)

	if err != nil {
		RespondInternal(ctx, "Could not update comment")
		return
	}

	ctx.JSON(http.StatusOK, comment.Denormalize(updated, authorName))
}

func (h *CommentsHandler) DeleteComment(ctx *gin.Context) {
	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondNotFound(ctx, "Comment not found")
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
		if errors.Is(err, comment.ErrNotFound) {
			RespondNotFound(ctx, "Comment not found")
			return
		}
		RespondInternal(ctx, "Could not delete comment")
		return
	}

	if !actor.CanModify(target.UserID) {
		RespondForbidden(ctx, "Not authorized to delete this comment")
		return
	}

	err = h.repo.Delete(cctx, id)

	if err != nil {
		if errors.Is(err, comment.ErrNotFound) {
			RespondNotFound(ctx, "Comment not found")
			return
		}
		RespondInternal(ctx, "Could not delete comment")
		return
	}

	ctx.Status(http.StatusNoContent)
}

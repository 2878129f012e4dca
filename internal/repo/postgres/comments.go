package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/bloghub/internal/domain/comment"
	"github.com/geocoder89/bloghub/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CommentsRepo struct {
	pool    *pgxpool.Pool
	metrics *observability.Prom
}

func NewCommentsRepo(pool *pgxpool.Pool, metrics *observability.Prom) *CommentsRepo {
	return &CommentsRepo{pool: pool, metrics: metrics}
}

const commentColumns = `id, content, post_id, user_id, created_at`

func scanComment(row pgx.Row) (comment.Comment, error) {
	var c comment.Comment

	err := row.Scan(
		&c.ID,
		&c.Content,
		&c.PostID,
		&c.UserID,
		&c.CreatedAt,
	)

	return c, err
}

func (r *CommentsRepo) Create(ctx context.Context, content, postID, userID string) (comment.Comment, error) {
	c := comment.Comment{
		ID:        uuid.NewString(),
		Content:   content,
		PostID:    postID,
		UserID:    &userID,
		CreatedAt: time.Now().UTC(),
	}

	err := r.metrics.ObserveDB("comments.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO comments (id, content, post_id, user_id, created_at)
			VALUES ($1, $2, $3, $4, $5)`,
			c.ID, c.Content, c.PostID, c.UserID, c.CreatedAt,
		)
		return err
	})

	if err != nil {
		return comment.Comment{}, err
	}

	return c, nil
}

func (r *CommentsRepo) GetByID(ctx context.Context, id string) (comment.Comment, error) {
	var c comment.Comment

	err := r.metrics.ObserveDB("comments.get_by_id", func() error {
		var err error
		c, err = scanComment(r.pool.QueryRow(ctx,
			`SELECT `+commentColumns+` FROM comments WHERE id = $1`, id))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return comment.Comment{}, comment.ErrNotFound
		}
		return comment.Comment{}, err
	}

	return c, nil
}

// ListByPost returns a post's comments newest-first, joined with the
// author's display name so the listing can carry denormalized author
// fields. A LEFT JOIN keeps comments whose author row is gone.
func (r *CommentsRepo) ListByPost(ctx context.Context, postID string) ([]comment.WithAuthor, error) {
	out := make([]comment.WithAuthor, 0)

	err := r.metrics.ObserveDB("comments.list_by_post", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT c.id, c.content, c.post_id, c.user_id, c.created_at, u.name
			FROM comments c
			LEFT JOIN users u ON u.id = c.user_id
			WHERE c.post_id = $1
			ORDER BY c.created_at DESC, c.id ASC`,
			postID,
		)

		if err != nil {
			return err
		}

		defer rows.Close()

		for rows.Next() {
			var c comment.Comment
			var authorName *string

			err = rows.Scan(&c.ID, &c.Content, &c.PostID, &c.UserID, &c.CreatedAt, &authorName)

			if err != nil {
				return err
			}

			out = append(out, comment.Denormalize(c, authorName))
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}

// AuthorName resolves the display name behind a comment's user id. nil id
// or a deleted author yields nil.
func (r *CommentsRepo) AuthorName(ctx context.Context, userID *string) (*string, error) {
	if userID == nil {
		return nil, nil
	}

	var name string

	err := r.metrics.ObserveDB("comments.author_name", func() error {
		return r.pool.QueryRow(ctx, `SELECT name FROM users WHERE id = $1`, *userID).Scan(&name)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &name, nil
}

func (r *CommentsRepo) Update(ctx context.Context, id string, req comment.UpdateCommentRequest) (comment.Comment, error) {
	var c comment.Comment

	err := r.metrics.ObserveDB("comments.update", func() error {
		var err error
		c, err = scanComment(r.pool.QueryRow(ctx,
			`UPDATE comments
				SET content = COALESCE($2, content)
			WHERE id = $1
			RETURNING `+commentColumns,
			id,
			req.Content,
		))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return comment.Comment{}, comment.ErrNotFound
		}
		return comment.Comment{}, err
	}

	return c, nil
}

func (r *CommentsRepo) Delete(ctx context.Context, id string) error {
	return r.metrics.ObserveDB("comments.delete", func() error {
		res, err := r.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)

		if err != nil {
			return err
		}

		if res.RowsAffected() == 0 {
			return comment.ErrNotFound
		}

		return nil
	})
}

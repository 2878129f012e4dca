package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/bloghub/internal/domain/post"
	"github.com/geocoder89/bloghub/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostsRepo struct {
	pool    *pgxpool.Pool
	metrics *observability.Prom
}

func NewPostsRepo(pool *pgxpool.Pool, metrics *observability.Prom) *PostsRepo {
	return &PostsRepo{pool: pool, metrics: metrics}
}

const postColumns = `id, title, content, owner_id, created_at`

func scanPost(row pgx.Row) (post.Post, error) {
	var p post.Post

	err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Content,
		&p.OwnerID,
		&p.CreatedAt,
	)

	return p, err
}

func (r *PostsRepo) Create(ctx context.Context, req post.CreatePostRequest, ownerID string) (post.Post, error) {
	p := post.Post{
		ID:        uuid.NewString(),
		Title:     req.Title,
		Content:   req.Content,
		OwnerID:   &ownerID,
		CreatedAt: time.Now().UTC(),
	}

	err := r.metrics.ObserveDB("posts.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO posts (id, title, content, owner_id, created_at)
			VALUES ($1, $2, $3, $4, $5)`,
			p.ID, p.Title, p.Content, p.OwnerID, p.CreatedAt,
		)
		return err
	})

	if err != nil {
		return post.Post{}, err
	}

	return p, nil
}

func (r *PostsRepo) GetByID(ctx context.Context, id string) (post.Post, error) {
	var p post.Post

	err := r.metrics.ObserveDB("posts.get_by_id", func() error {
		var err error
		p, err = scanPost(r.pool.QueryRow(ctx,
			`SELECT `+postColumns+` FROM posts WHERE id = $1`, id))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return post.Post{}, post.ErrNotFound
		}
		return post.Post{}, err
	}

	return p, nil
}

func (r *PostsRepo) List(ctx context.Context) ([]post.Post, error) {
	out := make([]post.Post, 0)

	err := r.metrics.ObserveDB("posts.list", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT `+postColumns+` FROM posts ORDER BY created_at DESC, id ASC`)

		if err != nil {
			return err
		}

		defer rows.Close()

		for rows.Next() {
			p, err := scanPost(rows)

			if err != nil {
				return err
			}

			out = append(out, p)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}

func (r *PostsRepo) Update(ctx context.Context, id string, req post.UpdatePostRequest) (post.Post, error) {
	var p post.Post

	err := r.metrics.ObserveDB("posts.update", func() error {
		var err error
		p, err = scanPost(r.pool.QueryRow(ctx,
			`UPDATE posts
				SET title = COALESCE($2, title),
						content = COALESCE($3, content)
			WHERE id = $1
			RETURNING `+postColumns,
			id,
			req.Title,
			req.Content,
		))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return post.Post{}, post.ErrNotFound
		}
		return post.Post{}, err
	}

	return p, nil
}

// Delete removes a post and its comments in one transaction; the cascade
// is an application-level invariant rather than a schema concern.
func (r *PostsRepo) Delete(ctx context.Context, id string) error {
	return r.metrics.ObserveDB("posts.delete", func() error {
		tx, err := r.pool.Begin(ctx)

		if err != nil {
			return err
		}

		defer func() { _ = tx.Rollback(ctx) }()

		_, err = tx.Exec(ctx, `DELETE FROM comments WHERE post_id = $1`, id)

		if err != nil {
			return err
		}

		res, err := tx.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)

		if err != nil {
			return err
		}

		if res.RowsAffected() == 0 {
			return post.ErrNotFound
		}

		return tx.Commit(ctx)
	})
}

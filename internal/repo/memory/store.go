package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/geocoder89/bloghub/internal/domain/comment"
	"github.com/geocoder89/bloghub/internal/domain/post"
	"github.com/geocoder89/bloghub/internal/domain/user"
	"github.com/geocoder89/bloghub/internal/repo/postgres"
	"github.com/google/uuid"
)

// Store holds map-backed repos for users, posts and comments over one shared
// data set. The repos mirror the Postgres repos' observable behavior,
// including the delete cascades, so handler-level scenarios can run without
// a database.
type Store struct {
	Users    *UsersRepo
	Posts    *PostsRepo
	Comments *CommentsRepo
}

func NewStore() *Store {
	d := &data{
		users:    make(map[string]user.User),
		posts:    make(map[string]post.Post),
		comments: make(map[string]comment.Comment),
		order:    make(map[string]int),
	}

	return &Store{
		Users:    &UsersRepo{d: d},
		Posts:    &PostsRepo{d: d},
		Comments: &CommentsRepo{d: d},
	}
}

type data struct {
	mu       sync.RWMutex
	users    map[string]user.User
	posts    map[string]post.Post
	comments map[string]comment.Comment

	// insertion order, used as a tiebreak for newest-first listings when
	// timestamps collide
	order   map[string]int
	nextSeq int
}

func (d *data) track(id string) {
	d.nextSeq++
	d.order[id] = d.nextSeq
}

func (d *data) authorNameLocked(userID *string) *string {
	if userID == nil {
		return nil
	}

	u, ok := d.users[*userID]

	if !ok {
		return nil
	}

	return &u.Name
}

type UsersRepo struct {
	d *data
}

func (r *UsersRepo) Create(ctx context.Context, email, name, passwordHash string, role user.Role) (user.User, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	for _, u := range r.d.users {
		if u.Email == email {
			return user.User{}, postgres.ErrEmailTaken
		}
	}

	u := user.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    time.Now(),
	}

	r.d.users[u.ID] = u
	r.d.track(u.ID)

	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	u, ok := r.d.users[id]

	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	for _, u := range r.d.users {
		if u.Email == email {
			return u, nil
		}
	}

	return user.User{}, user.ErrNotFound
}

func (r *UsersRepo) List(ctx context.Context) ([]user.User, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	out := make([]user.User, 0, len(r.d.users))

	for _, u := range r.d.users {
		out = append(out, u)
	}

	sort.Slice(out, func(i, j int) bool {
		return r.d.order[out[i].ID] < r.d.order[out[j].ID]
	})

	return out, nil
}

func (r *UsersRepo) Count(ctx context.Context) (int, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	return len(r.d.users), nil
}

func (r *UsersRepo) Update(ctx context.Context, id string, fields postgres.UpdateUserFields) (user.User, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	u, ok := r.d.users[id]

	if !ok {
		return user.User{}, user.ErrNotFound
	}

	if fields.Name != nil {
		u.Name = *fields.Name
	}

	if fields.PasswordHash != nil {
		u.PasswordHash = *fields.PasswordHash
	}

	if fields.Role != nil {
		u.Role = *fields.Role
	}

	r.d.users[id] = u

	return u, nil
}

// Delete removes a user with the same cascade the SQL transaction runs:
// their authored comments, then comments on their posts, then their posts,
// then the user row itself.
func (r *UsersRepo) Delete(ctx context.Context, id string) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	if _, ok := r.d.users[id]; !ok {
		return user.ErrNotFound
	}

	for cid, c := range r.d.comments {
		if c.UserID != nil && *c.UserID == id {
			delete(r.d.comments, cid)
		}
	}

	for cid, c := range r.d.comments {
		p, ok := r.d.posts[c.PostID]

		if ok && p.OwnerID != nil && *p.OwnerID == id {
			delete(r.d.comments, cid)
		}
	}

	for pid, p := range r.d.posts {
		if p.OwnerID != nil && *p.OwnerID == id {
			delete(r.d.posts, pid)
		}
	}

	delete(r.d.users, id)

	return nil
}

type PostsRepo struct {
	d *data
}

func (r *PostsRepo) Create(ctx context.Context, req post.CreatePostRequest, ownerID string) (post.Post, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	owner := ownerID

	p := post.Post{
		ID:        uuid.NewString(),
		Title:     req.Title,
		Content:   req.Content,
		OwnerID:   &owner,
		CreatedAt: time.Now(),
	}

	r.d.posts[p.ID] = p
	r.d.track(p.ID)

	return p, nil
}

func (r *PostsRepo) GetByID(ctx context.Context, id string) (post.Post, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	p, ok := r.d.posts[id]

	if !ok {
		return post.Post{}, post.ErrNotFound
	}

	return p, nil
}

func (r *PostsRepo) List(ctx context.Context) ([]post.Post, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	out := make([]post.Post, 0, len(r.d.posts))

	for _, p := range r.d.posts {
		out = append(out, p)
	}

	// newest first
	sort.Slice(out, func(i, j int) bool {
		return r.d.order[out[i].ID] > r.d.order[out[j].ID]
	})

	return out, nil
}

func (r *PostsRepo) Update(ctx context.Context, id string, req post.UpdatePostRequest) (post.Post, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	p, ok := r.d.posts[id]

	if !ok {
		return post.Post{}, post.ErrNotFound
	}

	if req.Title != nil {
		p.Title = *req.Title
	}

	if req.Content != nil {
		p.Content = *req.Content
	}

	r.d.posts[id] = p

	return p, nil
}

// Delete removes the post's comments first, matching the SQL cascade.
func (r *PostsRepo) Delete(ctx context.Context, id string) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	if _, ok := r.d.posts[id]; !ok {
		return post.ErrNotFound
	}

	for cid, c := range r.d.comments {
		if c.PostID == id {
			delete(r.d.comments, cid)
		}
	}

	delete(r.d.posts, id)

	return nil
}

type CommentsRepo struct {
	d *data
}

func (r *CommentsRepo) Create(ctx context.Context, content, postID, userID string) (comment.Comment, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	author := userID

	c := comment.Comment{
		ID:        uuid.NewString(),
		Content:   content,
		PostID:    postID,
		UserID:    &author,
		CreatedAt: time.Now(),
	}

	r.d.comments[c.ID] = c
	r.d.track(c.ID)

	return c, nil
}

func (r *CommentsRepo) GetByID(ctx context.Context, id string) (comment.Comment, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	c, ok := r.d.comments[id]

	if !ok {
		return comment.Comment{}, comment.ErrNotFound
	}

	return c, nil
}

func (r *CommentsRepo) ListByPost(ctx context.Context, postID string) ([]comment.WithAuthor, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	out := make([]comment.WithAuthor, 0)

	for _, c := range r.d.comments {
		if c.PostID != postID {
			continue
		}

		out = append(out, comment.Denormalize(c, r.d.authorNameLocked(c.UserID)))
	}

	// newest first
	sort.Slice(out, func(i, j int) bool {
		return r.d.order[out[i].ID] > r.d.order[out[j].ID]
	})

	return out, nil
}

func (r *CommentsRepo) AuthorName(ctx context.Context, userID *string) (*string, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	return r.d.authorNameLocked(userID), nil
}

func (r *CommentsRepo) Update(ctx context.Context, id string, req comment.UpdateCommentRequest) (comment.Comment, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	c, ok := r.d.comments[id]

	if !ok {
		return comment.Comment{}, comment.ErrNotFound
	}

	if req.Content != nil {
		c.Content = *req.Content
	}

	r.d.comments[id] = c

	return c, nil
}

func (r *CommentsRepo) Delete(ctx context.Context, id string) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	if _, ok := r.d.comments[id]; !ok {
		return comment.ErrNotFound
	}

	delete(r.d.comments, id)

	return nil
}

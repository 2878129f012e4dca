package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/geocoder89/bloghub/internal/cache"
	"github.com/geocoder89/bloghub/internal/domain/post"
	"github.com/geocoder89/bloghub/internal/domain/user"
	"github.com/geocoder89/bloghub/internal/http/handlers"
)

// Fake implementation of the handlers.PostsStore interface

type fakePostsRepo struct {
	createFn func(ctx context.Context, req post.CreatePostRequest, ownerID string) (post.Post, error)
	getFn    func(ctx context.Context, id string) (post.Post, error)
	listFn   func(ctx context.Context) ([]post.Post, error)
	updateFn func(ctx context.Context, id string, req post.UpdatePostRequest) (post.Post, error)
	deleteFn func(ctx context.Context, id string) error
}

func (f *fakePostsRepo) Create(ctx context.Context, req post.CreatePostRequest, ownerID string) (post.Post, error) {
	if f.createFn != nil {
		return f.createFn(ctx, req, ownerID)
	}
	return post.Post{}, nil
}

func (f *fakePostsRepo) GetByID(ctx context.Context, id string) (post.Post, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return post.Post{}, post.ErrNotFound
}

func (f *fakePostsRepo) List(ctx context.Context) ([]post.Post, error) {
	if f.listFn != nil {
		return f.listFn(ctx)
	}
	return []post.Post{}, nil
}

func (f *fakePostsRepo) Update(ctx context.Context, id string, req post.UpdatePostRequest) (post.Post, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, id, req)
	}
	return post.Post{}, post.ErrNotFound
}

func (f *fakePostsRepo) Delete(ctx context.Context, id string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	return post.ErrNotFound
}

func TestCreatePost(t *testing.T) {
	alice := user.User{ID: newUUID(), Role: user.RoleUser}

	t.Run("owner comes from the session", func(t *testing.T) {
		var gotOwner string

		repo := &fakePostsRepo{
			createFn: func(ctx context.Context, req post.CreatePostRequest, ownerID string) (post.Post, error) {
				gotOwner = ownerID
				return post.Post{ID: newUUID(), Title: req.Title, Content: req.Content, OwnerID: &ownerID}, nil
			},
		}

		h := handlers.NewPostsHandler(repo, nil)
		r := setupRouter(http.MethodPost, "/posts", authAs(alice), h.CreatePost)

		w := doJSON(r, http.MethodPost, "/posts", `{"title":"Hello","content":"First post"}`)

		if w.Code != http.StatusCreated {
			t.Fatalf("status = %d (body=%s)", w.Code, w.Body.String())
		}

		if gotOwner != alice.ID {
			t.Errorf("owner = %q, want %q", gotOwner, alice.ID)
		}
	})

	t.Run("missing title rejected", func(t *testing.T) {
		h := handlers.NewPostsHandler(&fakePostsRepo{}, nil)
		r := setupRouter(http.MethodPost, "/posts", authAs(alice), h.CreatePost)

		w := doJSON(r, http.MethodPost, "/posts", `{"content":"no title"}`)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", w.Code)
		}
	})

	t.Run("unauthenticated context rejected", func(t *testing.T) {
		h := handlers.NewPostsHandler(&fakePostsRepo{}, nil)
		r := setupRouter(http.MethodPost, "/posts", h.CreatePost)

		w := doJSON(r, http.MethodPost, "/posts", `{"title":"x","content":"y"}`)

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", w.Code)
		}
	})
}

func TestUpdateAndDeletePostAuthorization(t *testing.T) {
	ownerID := newUUID()
	owner := user.User{ID: ownerID, Role: user.RoleUser}
	admin := user.User{ID: newUUID(), Role: user.RoleAdmin}
	stranger := user.User{ID: newUUID(), Role: user.RoleUser}

	postID := newUUID()
	target := post.Post{ID: postID, Title: "T", Content: "C", OwnerID: &ownerID}

	repoFor := func() *fakePostsRepo {
		return &fakePostsRepo{
			getFn: func(ctx context.Context, id string) (post.Post, error) {
				if id == postID {
					return target, nil
				}
				return post.Post{}, post.ErrNotFound
			},
			updateFn: func(ctx context.Context, id string, req post.UpdatePostRequest) (post.Post, error) {
				return target, nil
			},
			deleteFn: func(ctx context.Context, id string) error {
				return nil
			},
		}
	}

	tests := []struct {
		name           string
		actor          user.User
		wantUpdateCode int
		wantDeleteCode int
	}{
		{name: "owner", actor: owner, wantUpdateCode: http.StatusOK, wantDeleteCode: http.StatusNoContent},
		{name: "admin", actor: admin, wantUpdateCode: http.StatusOK, wantDeleteCode: http.StatusNoContent},
		{name: "stranger", actor: stranger, wantUpdateCode: http.StatusForbidden, wantDeleteCode: http.StatusForbidden},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := handlers.NewPostsHandler(repoFor(), nil)

			r := setupRouter(http.MethodPut, "/posts/:id", authAs(tc.actor), h.UpdatePost)
			w := doJSON(r, http.MethodPut, "/posts/"+postID, `{"title":"New"}`)

			if w.Code != tc.wantUpdateCode {
				t.Errorf("update status = %d, want %d", w.Code, tc.wantUpdateCode)
			}

			r = setupRouter(http.MethodDelete, "/posts/:id", authAs(tc.actor), h.DeletePost)
			w = doJSON(r, http.MethodDelete, "/posts/"+postID, "")

			if w.Code != tc.wantDeleteCode {
				t.Errorf("delete status = %d, want %d", w.Code, tc.wantDeleteCode)
			}
		})
	}

	t.Run("unknown post is 404", func(t *testing.T) {
		h := handlers.NewPostsHandler(repoFor(), nil)
		r := setupRouter(http.MethodPut, "/posts/:id", authAs(admin), h.UpdatePost)

		w := doJSON(r, http.MethodPut, "/posts/"+newUUID(), `{"title":"New"}`)

		if w.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", w.Code)
		}
	})

	t.Run("malformed id is 404", func(t *testing.T) {
		h := handlers.NewPostsHandler(repoFor(), nil)
		r := setupRouter(http.MethodDelete, "/posts/:id", authAs(admin), h.DeletePost)

		w := doJSON(r, http.MethodDelete, "/posts/not-a-uuid", "")

		if w.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", w.Code)
		}
	})
}

func TestListPostsUsesCache(t *testing.T) {
	calls := 0

	repo := &fakePostsRepo{
		listFn: func(ctx context.Context) ([]post.Post, error) {
			calls++
			return []post.Post{{ID: newUUID(), Title: "cached", Content: "body"}}, nil
		},
	}

	listCache := cache.New(time.Minute)
	h := handlers.NewPostsHandler(repo, listCache)
	r := setupRouter(http.MethodGet, "/posts", h.ListPosts)

	for i := 0; i < 3; i++ {
		w := doJSON(r, http.MethodGet, "/posts", "")

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
	}

	if calls != 1 {
		t.Errorf("store hit %d times, want 1", calls)
	}

	// mutations drop the cached listing
	createRouter := setupRouter(http.MethodPost, "/posts", authAs(user.User{ID: newUUID(), Role: user.RoleUser}), h.CreatePost)
	repo.createFn = func(ctx context.Context, req post.CreatePostRequest, ownerID string) (post.Post, error) {
		return post.Post{ID: newUUID()}, nil
	}

	if w := doJSON(createRouter, http.MethodPost, "/posts", `{"title":"t","content":"c"}`); w.Code != http.StatusCreated {
		t.Fatalf("create status = %d", w.Code)
	}

	if w := doJSON(r, http.MethodGet, "/posts", ""); w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	if calls != 2 {
		t.Errorf("store hit %d times after invalidation, want 2", calls)
	}
}

func TestGetPostETag(t *testing.T) {
	postID := newUUID()
	p := post.Post{ID: postID, Title: "T", Content: "C"}

	repo := &fakePostsRepo{
		getFn: func(ctx context.Context, id string) (post.Post, error) {
			return p, nil
		},
	}

	h := handlers.NewPostsHandler(repo, nil)
	r := setupRouter(http.MethodGet, "/posts/:id", h.GetPost)

	w := doJSON(r, http.MethodGet, "/posts/"+postID, "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	etag := w.Header().Get("ETag")

	if etag == "" {
		t.Fatal("missing ETag")
	}

	req, _ := http.NewRequest(http.MethodGet, "/posts/"+postID, nil)
	req.Header.Set("If-None-Match", etag)

	w2 := doRequest(r, req)

	if w2.Code != http.StatusNotModified {
		t.Errorf("revalidation status = %d, want 304", w2.Code)
	}

	var got post.Post
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if got.ID != postID {
		t.Errorf("id = %q, want %q", got.ID, postID)
	}
}

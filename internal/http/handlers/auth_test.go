package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/geocoder89/bloghub/internal/auth"
	"github.com/geocoder89/bloghub/internal/config"
	"github.com/geocoder89/bloghub/internal/domain/user"
	"github.com/geocoder89/bloghub/internal/http/handlers"
	"github.com/geocoder89/bloghub/internal/security"
)

func testConfig() config.Config {
	return config.Config{
		Env:               "test",
		JWTSecret:         "test-secret-key",
		JWTAlgorithm:      "HS256",
		SessionCookieName: "session",
		SessionTTLMinutes: 60,
	}
}

func newAuthHandler(t *testing.T, users handlers.UserReader) *handlers.AuthHandler {
	t.Helper()

	cfg := testConfig()
	jwt := auth.NewManager(cfg.JWTSecret, cfg.SessionTTL())

	return handlers.NewAuthHandler(users, jwt, cfg, nil)
}

func sessionCookie(w interface{ Result() *http.Response }, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestLogin(t *testing.T) {
	hash, err := security.HashPassword("hunter2secret")

	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	alice := user.User{
		ID:           newUUID(),
		Email:        "alice@example.com",
		Name:         "Alice",
		PasswordHash: hash,
		Role:         user.RoleUser,
		CreatedAt:    time.Now().UTC(),
	}

	users := &fakeUsersRepo{
		getByEmailFn: func(ctx context.Context, email string) (user.User, error) {
			if email == alice.Email {
				return alice, nil
			}
			return user.User{}, user.ErrNotFound
		},
	}

	tests := []struct {
		name           string
		body           string
		wantStatusCode int
		wantCookie     bool
	}{
		{
			name:           "success",
			body:           `{"email":"alice@example.com","password":"hunter2secret"}`,
			wantStatusCode: http.StatusOK,
			wantCookie:     true,
		},
		{
			name:           "wrong password",
			body:           `{"email":"alice@example.com","password":"nope-nope-nope"}`,
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "unknown email",
			body:           `{"email":"bob@example.com","password":"hunter2secret"}`,
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "malformed email",
			body:           `{"email":"not-an-email","password":"hunter2secret"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "missing password",
			body:           `{"email":"alice@example.com"}`,
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newAuthHandler(t, users)
			r := setupRouter(http.MethodPost, "/auth/login", h.Login)

			w := doJSON(r, http.MethodPost, "/auth/login", tc.body)

			if w.Code != tc.wantStatusCode {
				t.Fatalf("status = %d, want %d (body=%s)", w.Code, tc.wantStatusCode, w.Body.String())
			}

			cookie := sessionCookie(w, "session")

			if !tc.wantCookie {
				if cookie != nil && cookie.Value != "" {
					t.Errorf("unexpected session cookie on failure: %v", cookie)
				}
				return
			}

			if cookie == nil || cookie.Value == "" {
				t.Fatal("expected a session cookie")
			}

			if !cookie.HttpOnly {
				t.Error("session cookie must be HttpOnly")
			}

			if cookie.Path != "/" {
				t.Errorf("cookie path = %q, want /", cookie.Path)
			}

			if cookie.SameSite != http.SameSiteLaxMode {
				t.Errorf("cookie SameSite = %v, want Lax", cookie.SameSite)
			}

			if cookie.MaxAge < 3500 || cookie.MaxAge > 3600 {
				t.Errorf("cookie MaxAge = %d, want about 3600", cookie.MaxAge)
			}

			// the minted token must verify and reference the user
			m := auth.NewManager("test-secret-key", time.Hour)
			claims, err := m.Verify(cookie.Value)

			if err != nil {
				t.Fatalf("cookie does not hold a valid token: %v", err)
			}

			if claims.Subject != alice.ID || claims.Role != user.RoleUser {
				t.Errorf("claims = %q/%q, want %q/user", claims.Subject, claims.Role, alice.ID)
			}

			// the body carries the user representation, without the hash
			var got map[string]any
			if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
				t.Fatalf("unmarshal body: %v", err)
			}

			if got["id"] != alice.ID || got["email"] != alice.Email {
				t.Errorf("body = %v", got)
			}

			if _, leaked := got["password_hash"]; leaked {
				t.Error("response leaked the password hash")
			}
		})
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	h := newAuthHandler(t, &fakeUsersRepo{})
	r := setupRouter(http.MethodPost, "/auth/logout", h.Logout)

	w := doJSON(r, http.MethodPost, "/auth/logout", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	cookie := sessionCookie(w, "session")

	if cookie == nil {
		t.Fatal("expected a Set-Cookie clearing the session")
	}

	if cookie.Value != "" || cookie.MaxAge >= 0 {
		t.Errorf("cookie not cleared: value=%q maxAge=%d", cookie.Value, cookie.MaxAge)
	}
}

func TestMe(t *testing.T) {
	alice := user.User{ID: newUUID(), Email: "alice@example.com", Name: "Alice", Role: user.RoleAdmin}

	h := newAuthHandler(t, &fakeUsersRepo{})

	t.Run("authenticated", func(t *testing.T) {
		r := setupRouter(http.MethodGet, "/auth/me", authAs(alice), h.Me)

		w := doJSON(r, http.MethodGet, "/auth/me", "")

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}

		var got user.User
		if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}

		if got.ID != alice.ID || got.Role != user.RoleAdmin {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("no identity", func(t *testing.T) {
		r := setupRouter(http.MethodGet, "/auth/me", h.Me)

		w := doJSON(r, http.MethodGet, "/auth/me", "")

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", w.Code)
		}
	})
}

package http_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apihttp "github.com/geocoder89/bloghub/internal/http"

	"github.com/geocoder89/bloghub/internal/config"
	"github.com/geocoder89/bloghub/internal/observability"
)

// newTestRouter builds the real router without a database or Redis. Routes
// that need storage are still registered; tests here only hit paths that
// fail before touching a repository.
func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	cfg := config.Config{
		Env:               "test",
		JWTSecret:         "router-test-secret",
		JWTAlgorithm:      "HS256",
		SessionCookieName: "session",
		SessionTTLMinutes: 60,
		LoginRateLimit:    100,
		LoginRateWindow:   60,
	}

	return apihttp.NewRouter(apihttp.Deps{
		Log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Cfg:     cfg,
		Metrics: observability.NewProm(),
	})
}

func TestRouterHealthAndBanner(t *testing.T) {
	router := newTestRouter(t)

	cases := []struct {
		path       string
		wantStatus int
		wantBody   string
	}{
		{"/healthz", http.StatusOK, `"ok"`},
		{"/readyz", http.StatusOK, `"ready"`},
		{"/", http.StatusOK, "Blog API is running"},
		{"/metrics", http.StatusOK, "bloghub_http_requests"},
	}

	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.path, nil))

			if w.Code != tc.wantStatus {
				t.Fatalf("GET %s = %d, want %d", tc.path, w.Code, tc.wantStatus)
			}

			if !strings.Contains(w.Body.String(), tc.wantBody) {
				t.Errorf("GET %s body = %q, want it to contain %q", tc.path, w.Body.String(), tc.wantBody)
			}
		})
	}
}

func TestRouterMutationsRequireAuth(t *testing.T) {
	router := newTestRouter(t)

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/auth/me"},
		{http.MethodPost, "/posts"},
		{http.MethodPut, "/posts/abc"},
		{http.MethodDelete, "/posts/abc"},
		{http.MethodPost, "/comments"},
		{http.MethodPut, "/comments/abc"},
		{http.MethodDelete, "/comments/abc"},
		{http.MethodPut, "/users/abc"},
		{http.MethodDelete, "/users/abc"},
	}

	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			var body io.Reader
			if tc.method != http.MethodGet && tc.method != http.MethodDelete {
				body = strings.NewReader(`{}`)
			}

			req := httptest.NewRequest(tc.method, tc.path, body)
			if body != nil {
				req.Header.Set("Content-Type", "application/json")
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("%s %s = %d, want 401", tc.method, tc.path, w.Code)
			}
		})
	}
}

func TestRouterRequiresJSONContentType(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader("name=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status = %d, want 415", w.Code)
	}
}

func TestRouterSecurityHeaders(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}

	if got := w.Header().Get("X-Request-Id"); got == "" {
		t.Error("X-Request-Id header missing")
	}
}

package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/tombers/tombers/internal/middleware"
	"github.com/tombers/tombers/internal/password"
	"github.com/tombers/tombers/internal/repo"
	"github.com/tombers/tombers/internal/service"
	"github.com/tombers/tombers/internal/session"
)

// requestWithChiURLParams returns a request with chi route context and URL params set.
func requestWithChiURLParams(method, path string, body []byte, params map[string]string) *http.Request {
	var r *http.Request
	if body != nil {
		r = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	return r
}

// withSession attaches a session for userID as RequireSession would.
func withSession(r *http.Request, userID int) *http.Request {
	return r.WithContext(middleware.WithSession(r.Context(), session.Session{ID: "test", UserID: userID}))
}

type testEnv struct {
	users    *repo.JSONUserRepo
	projects *repo.JSONProjectRepo
	sessions *session.Manager
	auth     *AuthHandler
	profile  *ProfileHandler
	project  *ProjectHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	users := repo.NewJSONUserRepo(filepath.Join(dir, "users.json"))
	if err := users.Init(); err != nil {
		t.Fatalf("init users: %v", err)
	}
	projects := repo.NewJSONProjectRepo(filepath.Join(dir, "projects.json"))
	if err := projects.Init(); err != nil {
		t.Fatalf("init projects: %v", err)
	}
	log := zap.NewNop()
	sessions := session.NewManager(session.NewMemoryStore(), []byte("test-secret"), 0)
	return &testEnv{
		users:    users,
		projects: projects,
		sessions: sessions,
		auth: &AuthHandler{
			Auth: service.NewAuthService(users, &password.Hasher{Cost: bcrypt.MinCost}, sessions, log),
		},
		profile: &ProfileHandler{Profiles: service.NewProfileService(users, log)},
		project: &ProjectHandler{Projects: service.NewProjectService(projects, users, log)},
	}
}

func sessionCookie(rr *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	return nil
}

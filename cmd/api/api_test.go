package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/tombers/tombers/internal/config"
	"github.com/tombers/tombers/internal/password"
	"github.com/tombers/tombers/internal/repo"
	"github.com/tombers/tombers/internal/scheduler"
	"github.com/tombers/tombers/internal/session"
)

func newTestApp(t *testing.T) *app {
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
	return &app{
		cfg: &config.Config{
			Env:           "dev",
			DataDir:       dir,
			StorageDriver: "json",
			SessionStore:  "memory",
			SessionSecret: "test-secret",
			MaxBodyBytes:  1 << 20,
		},
		log:      zap.NewNop(),
		users:    users,
		projects: projects,
		sessions: session.NewManager(session.NewMemoryStore(), []byte("test-secret"), 0),
		hasher:   &password.Hasher{Cost: bcrypt.MinCost},
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	h, err := newRouter(newTestApp(t))
	if err != nil {
		t.Fatalf("newRouter: %v", err)
	}
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func newClient(t *testing.T, followRedirects bool) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	c := &http.Client{Jar: jar}
	if !followRedirects {
		c.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
	}
	return c
}

func do(t *testing.T, c *http.Client, method, url, body string) (int, string) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, rd)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(b)
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return u
}

const registerAlice = `{"firstName":"Alice","lastName":"Liddell","email":"alice@example.com","username":"alice","password":"wonder"}`

// TestAPI_ProjectLifecycle registers a user, then creates, reads and deletes
// a project with the session cookie the server handed out.
func TestAPI_ProjectLifecycle(t *testing.T) {
	srv := newTestServer(t)
	c := newClient(t, true)

	status, body := do(t, c, "POST", srv.URL+"/api/register", registerAlice)
	if status != http.StatusCreated {
		t.Fatalf("register status: got %d, want 201 (%s)", status, body)
	}

	status, body = do(t, c, "POST", srv.URL+"/api/projects", `{"title":"X"}`)
	if status != http.StatusCreated {
		t.Fatalf("create status: got %d, want 201 (%s)", status, body)
	}
	var created struct {
		ID        int    `json:"id"`
		Title     string `json:"title"`
		CreatedAt string `json:"created_at"`
	}
	if err := json.Unmarshal([]byte(body), &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}
	if created.ID != 1 || created.Title != "X" || created.CreatedAt == "" {
		t.Fatalf("created: %+v", created)
	}

	status, body = do(t, c, "GET", srv.URL+"/api/projects/1", "")
	if status != http.StatusOK || !strings.Contains(body, `"title":"X"`) {
		t.Fatalf("get: %d %s", status, body)
	}

	status, body = do(t, c, "DELETE", srv.URL+"/api/projects/1", "")
	if status != http.StatusOK || !strings.Contains(body, `"project deleted"`) {
		t.Fatalf("delete: %d %s", status, body)
	}

	status, _ = do(t, c, "GET", srv.URL+"/api/projects/1", "")
	if status != http.StatusNotFound {
		t.Fatalf("get after delete: got %d, want 404", status)
	}
}

// TestAPI_InterestFlow has alice like a project and then accepts her as a
// member, all through the session cookie.
func TestAPI_InterestFlow(t *testing.T) {
	srv := newTestServer(t)
	c := newClient(t, true)

	status, body := do(t, c, "POST", srv.URL+"/api/register", registerAlice)
	if status != http.StatusCreated {
		t.Fatalf("register status: got %d, want 201 (%s)", status, body)
	}
	status, body = do(t, c, "POST", srv.URL+"/api/projects", `{"title":"X"}`)
	if status != http.StatusCreated {
		t.Fatalf("create status: got %d, want 201 (%s)", status, body)
	}

	status, body = do(t, c, "POST", srv.URL+"/api/projects/1/like", "")
	if status != http.StatusOK || !strings.Contains(body, `"like_ids":[1]`) {
		t.Fatalf("like: %d %s", status, body)
	}

	status, body = do(t, c, "GET", srv.URL+"/api/projects/1/interested", "")
	if status != http.StatusOK || !strings.Contains(body, `"totalInterested":1`) || !strings.Contains(body, `"username":"alice"`) {
		t.Fatalf("interested: %d %s", status, body)
	}

	status, body = do(t, c, "POST", srv.URL+"/api/projects/1/manage-interested", `{"userId":1,"action":"ACCEPT"}`)
	if status != http.StatusOK || !strings.Contains(body, `"member_ids":[1]`) || !strings.Contains(body, `"like_ids":[]`) {
		t.Fatalf("accept: %d %s", status, body)
	}

	status, body = do(t, c, "POST", srv.URL+"/api/projects/1/like", "")
	if status != http.StatusBadRequest {
		t.Fatalf("member like: got %d, want 400 (%s)", status, body)
	}
}

func TestAPI_ProtectedRoutesRequireSession(t *testing.T) {
	srv := newTestServer(t)
	c := newClient(t, false)

	cases := []struct{ method, path string }{
		{"GET", "/api/projects"},
		{"POST", "/api/projects"},
		{"GET", "/api/projects/search?q=x"},
		{"GET", "/api/projects/active"},
		{"GET", "/api/projects/incomplete"},
		{"GET", "/api/projects/1"},
		{"PUT", "/api/projects/1"},
		{"DELETE", "/api/projects/1"},
		{"POST", "/api/projects/1/like"},
		{"POST", "/api/projects/1/dislike"},
		{"GET", "/api/projects/1/interested"},
		{"POST", "/api/projects/1/manage-interested"},
		{"GET", "/api/user/profile"},
		{"PUT", "/api/user/profile"},
		{"GET", "/api/users/search?q=a"},
		{"GET", "/api/users/available"},
	}
	for _, tc := range cases {
		status, body := do(t, c, tc.method, srv.URL+tc.path, "")
		if status != http.StatusUnauthorized {
			t.Errorf("%s %s: got %d, want 401", tc.method, tc.path, status)
		}
		if !strings.Contains(body, "not authenticated") {
			t.Errorf("%s %s: body %q", tc.method, tc.path, body)
		}
	}
}

func TestAPI_LogoutInvalidatesSession(t *testing.T) {
	srv := newTestServer(t)
	c := newClient(t, true)

	if status, body := do(t, c, "POST", srv.URL+"/api/register", registerAlice); status != http.StatusCreated {
		t.Fatalf("register: %d %s", status, body)
	}
	var token string
	for _, ck := range c.Jar.Cookies(mustURL(t, srv.URL)) {
		if ck.Name == session.CookieName {
			token = ck.Value
		}
	}
	if token == "" {
		t.Fatal("no session cookie after register")
	}

	if status, _ := do(t, c, "POST", srv.URL+"/api/logout", ""); status != http.StatusOK {
		t.Fatalf("logout: got %d", status)
	}

	// The old token is rejected even when replayed explicitly.
	req, _ := http.NewRequest("GET", srv.URL+"/api/user/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("profile request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("profile after logout: got %d, want 401", resp.StatusCode)
	}
}

func TestAPI_LoginAndProfile(t *testing.T) {
	srv := newTestServer(t)
	if status, _ := do(t, newClient(t, true), "POST", srv.URL+"/api/register", registerAlice); status != http.StatusCreated {
		t.Fatalf("register: %d", status)
	}

	c := newClient(t, true)
	status, body := do(t, c, "POST", srv.URL+"/api/login", `{"email":"ALICE@example.com","password":"wonder"}`)
	if status != http.StatusOK || !strings.Contains(body, `"username":"alice"`) {
		t.Fatalf("login: %d %s", status, body)
	}

	status, body = do(t, c, "PUT", srv.URL+"/api/user/profile", `{"bio":"down the hole","email":"evil@example.com"}`)
	if status != http.StatusOK {
		t.Fatalf("update profile: %d %s", status, body)
	}
	status, body = do(t, c, "GET", srv.URL+"/api/user/profile", "")
	if status != http.StatusOK || !strings.Contains(body, "down the hole") || !strings.Contains(body, "alice@example.com") {
		t.Fatalf("profile: %d %s", status, body)
	}
	if strings.Contains(body, "password") {
		t.Fatalf("profile leaks password: %s", body)
	}

	status, _ = do(t, newClient(t, true), "POST", srv.URL+"/api/login", `{"email":"alice@example.com","password":"nope"}`)
	if status != http.StatusUnauthorized {
		t.Fatalf("bad password: got %d, want 401", status)
	}
}

func TestAPI_Pages(t *testing.T) {
	srv := newTestServer(t)
	c := newClient(t, false)

	status, body := do(t, c, "GET", srv.URL+"/", "")
	if status != http.StatusOK || !strings.Contains(body, "<form") {
		t.Fatalf("index: %d", status)
	}

	for _, path := range []string{"/feed", "/bio"} {
		req, _ := http.NewRequest("GET", srv.URL+path, nil)
		resp, err := c.Do(req)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/" {
			t.Fatalf("GET %s without session: %d -> %q", path, resp.StatusCode, resp.Header.Get("Location"))
		}
	}

	if status, _ := do(t, c, "POST", srv.URL+"/api/register", registerAlice); status != http.StatusCreated {
		t.Fatalf("register: %d", status)
	}
	status, body = do(t, c, "GET", srv.URL+"/feed", "")
	if status != http.StatusOK || !strings.Contains(body, "alice") {
		t.Fatalf("feed: %d", status)
	}
}

func TestAPI_HealthReadyMetrics(t *testing.T) {
	srv := newTestServer(t)
	c := newClient(t, false)

	if status, body := do(t, c, "GET", srv.URL+"/health", ""); status != http.StatusOK || body != "ok" {
		t.Fatalf("health: %d %q", status, body)
	}
	if status, body := do(t, c, "GET", srv.URL+"/ready", ""); status != http.StatusOK || !strings.Contains(body, "ready") {
		t.Fatalf("ready: %d %q", status, body)
	}
	if status, body := do(t, c, "GET", srv.URL+"/metrics", ""); status != http.StatusOK || !strings.Contains(body, "http_requests_total") {
		t.Fatalf("metrics: %d", status)
	}
}

func TestScheduleJobs_SweepsMemorySessions(t *testing.T) {
	a := newTestApp(t)
	s := scheduler.New(zap.NewNop())
	if err := a.scheduleJobs(s); err != nil {
		t.Fatalf("scheduleJobs without memory store: %v", err)
	}
	if len(s.Jobs()) != 0 {
		t.Fatalf("jobs: %v", s.Jobs())
	}

	a.memSessions = session.NewMemoryStore()
	if err := a.scheduleJobs(s); err != nil {
		t.Fatalf("scheduleJobs: %v", err)
	}
	if jobs := s.Jobs(); len(jobs) != 1 || jobs[0] != "session-sweep" {
		t.Fatalf("jobs: %v", jobs)
	}
}

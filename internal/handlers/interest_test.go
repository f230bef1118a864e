package handlers

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/tombers/tombers/internal/models"
	"github.com/tombers/tombers/internal/service"
)

func registerUser(t *testing.T, env *testEnv, body string) models.UserSummary {
	t.Helper()
	rr := httptest.NewRecorder()
	env.auth.Register(rr, httptest.NewRequest("POST", "/api/register", strings.NewReader(body)))
	if rr.Code != http.StatusCreated {
		t.Fatalf("Register status: got %d (%s)", rr.Code, rr.Body.String())
	}
	var u models.UserSummary
	if err := json.NewDecoder(rr.Body).Decode(&u); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return u
}

func TestProjectHandler_LikeThenInterested(t *testing.T) {
	env := newTestEnv(t)
	alice := registerUser(t, env, aliceBody)
	createProject(t, env, `{"title":"Atlas"}`)
	params := map[string]string{"id": "1"}

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		env.project.LikeProject(rr, withSession(requestWithChiURLParams("POST", "/api/projects/1/like", nil, params), alice.ID))
		if rr.Code != http.StatusOK {
			t.Fatalf("LikeProject status: got %d (%s)", rr.Code, rr.Body.String())
		}
	}

	rr := httptest.NewRecorder()
	env.project.InterestedUsers(rr, requestWithChiURLParams("GET", "/api/projects/1/interested", nil, params))
	if rr.Code != http.StatusOK {
		t.Fatalf("InterestedUsers status: got %d", rr.Code)
	}
	var out service.InterestedUsers
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.ProjectTitle != "Atlas" || out.TotalInterested != 1 || out.InterestedUsers[0].Username != "alice" {
		t.Errorf("unexpected interested list: %+v", out)
	}
	if strings.Contains(rr.Body.String(), "password") {
		t.Errorf("interested list leaks password: %s", rr.Body.String())
	}
}

func TestProjectHandler_ManageInterested(t *testing.T) {
	env := newTestEnv(t)
	alice := registerUser(t, env, aliceBody)
	createProject(t, env, `{"title":"Atlas"}`)
	params := map[string]string{"id": "1"}

	rr := httptest.NewRecorder()
	env.project.LikeProject(rr, withSession(requestWithChiURLParams("POST", "/api/projects/1/like", nil, params), alice.ID))

	body := []byte(`{"userId":` + strconv.Itoa(alice.ID) + `,"action":"ACCEPT"}`)
	rr = httptest.NewRecorder()
	env.project.ManageInterested(rr, requestWithChiURLParams("POST", "/api/projects/1/manage-interested", body, params))
	if rr.Code != http.StatusOK {
		t.Fatalf("ManageInterested status: got %d (%s)", rr.Code, rr.Body.String())
	}
	var p models.Project
	if err := json.NewDecoder(rr.Body).Decode(&p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(p.MemberIDs) != 1 || p.MemberIDs[0] != alice.ID || len(p.LikeIDs) != 0 {
		t.Errorf("unexpected members/likes: %v %v", p.MemberIDs, p.LikeIDs)
	}

	// A second decision for the same user has nothing to act on.
	rr = httptest.NewRecorder()
	env.project.ManageInterested(rr, requestWithChiURLParams("POST", "/api/projects/1/manage-interested", body, params))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("repeat decision: got %d, want 400", rr.Code)
	}

	rr = httptest.NewRecorder()
	env.project.ManageInterested(rr, requestWithChiURLParams("POST", "/api/projects/1/manage-interested",
		[]byte(`{"userId":1,"action":"MAYBE"}`), params))
	if rr.Code != http.StatusBadRequest || !strings.Contains(rr.Body.String(), `"action"`) {
		t.Errorf("bad action: got %d %s", rr.Code, rr.Body.String())
	}
}

func TestProjectHandler_InterestUnknownProject(t *testing.T) {
	env := newTestEnv(t)
	params := map[string]string{"id": "9"}

	rr := httptest.NewRecorder()
	env.project.LikeProject(rr, withSession(requestWithChiURLParams("POST", "/api/projects/9/like", nil, params), 1))
	if rr.Code != http.StatusNotFound {
		t.Errorf("like: got %d, want 404", rr.Code)
	}
	rr = httptest.NewRecorder()
	env.project.InterestedUsers(rr, requestWithChiURLParams("GET", "/api/projects/9/interested", nil, params))
	if rr.Code != http.StatusNotFound {
		t.Errorf("interested: got %d, want 404", rr.Code)
	}
}

func TestProjectHandler_LikeRequiresSession(t *testing.T) {
	env := newTestEnv(t)
	rr := httptest.NewRecorder()
	env.project.LikeProject(rr, requestWithChiURLParams("POST", "/api/projects/1/like", nil, map[string]string{"id": "1"}))
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("got %d, want 401", rr.Code)
	}
}

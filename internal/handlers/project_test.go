package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tombers/tombers/internal/models"
)

func createProject(t *testing.T, env *testEnv, body string) models.Project {
	t.Helper()
	rr := httptest.NewRecorder()
	env.project.CreateProject(rr, withSession(requestWithChiURLParams("POST", "/api/projects", []byte(body), nil), 1))
	if rr.Code != http.StatusCreated {
		t.Fatalf("CreateProject status: got %d, want 201 (%s)", rr.Code, rr.Body.String())
	}
	var p models.Project
	if err := json.NewDecoder(rr.Body).Decode(&p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return p
}

func TestProjectHandler_CreateProject(t *testing.T) {
	env := newTestEnv(t)
	p := createProject(t, env, `{"title":"Atlas","technologies":["Go",{"name":"Postgres","icon":"pg.svg"}],"skills_needed":"go, sql","progress":30,"status":"ACTIVE"}`)

	if p.ID != 1 || p.Title != "Atlas" {
		t.Errorf("unexpected project: %+v", p)
	}
	if len(p.Technologies) != 2 || p.Technologies[0].Name != "Go" || p.Technologies[1].Icon != "pg.svg" {
		t.Errorf("unexpected technologies: %+v", p.Technologies)
	}
	if len(p.SkillsNeeded) != 2 || p.SkillsNeeded[1] != "sql" {
		t.Errorf("unexpected skills: %v", p.SkillsNeeded)
	}
	if p.CreatedAt.IsZero() {
		t.Error("created_at not set")
	}
}

func TestProjectHandler_CreateProject_BadRequest(t *testing.T) {
	env := newTestEnv(t)
	for _, body := range []string{`{`, `{"description":"no title"}`, `{"title":"X","progress":150}`} {
		rr := httptest.NewRecorder()
		env.project.CreateProject(rr, requestWithChiURLParams("POST", "/api/projects", []byte(body), nil))
		if rr.Code != http.StatusBadRequest {
			t.Errorf("body %s: got %d, want 400", body, rr.Code)
		}
	}
}

func TestProjectHandler_GetProject(t *testing.T) {
	env := newTestEnv(t)
	created := createProject(t, env, `{"title":"X"}`)

	rr := httptest.NewRecorder()
	env.project.GetProject(rr, requestWithChiURLParams("GET", "/api/projects/1", nil, map[string]string{"id": "1"}))
	if rr.Code != http.StatusOK {
		t.Fatalf("GetProject status: got %d, want 200", rr.Code)
	}
	var got models.Project
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != created.ID || got.CreatedAt.String() != created.CreatedAt.String() {
		t.Errorf("unexpected project: %+v", got)
	}
}

func TestProjectHandler_GetProject_NotFound(t *testing.T) {
	env := newTestEnv(t)
	rr := httptest.NewRecorder()
	env.project.GetProject(rr, requestWithChiURLParams("GET", "/api/projects/999", nil, map[string]string{"id": "999"}))
	if rr.Code != http.StatusNotFound {
		t.Errorf("GetProject status: got %d, want 404", rr.Code)
	}
}

func TestProjectHandler_GetProject_InvalidID(t *testing.T) {
	env := newTestEnv(t)
	rr := httptest.NewRecorder()
	env.project.GetProject(rr, requestWithChiURLParams("GET", "/api/projects/abc", nil, map[string]string{"id": "abc"}))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("GetProject status: got %d, want 400", rr.Code)
	}
}

func TestProjectHandler_UpdateProject(t *testing.T) {
	env := newTestEnv(t)
	createProject(t, env, `{"title":"Atlas","description":"maps"}`)

	rr := httptest.NewRecorder()
	req := requestWithChiURLParams("PUT", "/api/projects/1", []byte(`{"description":"better","id":77}`), map[string]string{"id": "1"})
	env.project.UpdateProject(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("UpdateProject status: got %d, want 200 (%s)", rr.Code, rr.Body.String())
	}
	var p models.Project
	if err := json.NewDecoder(rr.Body).Decode(&p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.ID != 1 || p.Title != "Atlas" || p.Description != "better" {
		t.Errorf("unexpected project: %+v", p)
	}

	rr = httptest.NewRecorder()
	env.project.UpdateProject(rr, requestWithChiURLParams("PUT", "/api/projects/5", []byte(`{"title":"x"}`), map[string]string{"id": "5"}))
	if rr.Code != http.StatusNotFound {
		t.Errorf("UpdateProject missing: got %d, want 404", rr.Code)
	}
}

func TestProjectHandler_DeleteProject(t *testing.T) {
	env := newTestEnv(t)
	createProject(t, env, `{"title":"Gone"}`)

	rr := httptest.NewRecorder()
	env.project.DeleteProject(rr, requestWithChiURLParams("DELETE", "/api/projects/1", nil, map[string]string{"id": "1"}))
	if rr.Code != http.StatusOK {
		t.Fatalf("DeleteProject status: got %d, want 200", rr.Code)
	}
	var out struct {
		Message string         `json:"message"`
		Project models.Project `json:"project"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Message == "" || out.Project.Title != "Gone" {
		t.Errorf("unexpected body: %+v", out)
	}

	rr = httptest.NewRecorder()
	env.project.DeleteProject(rr, requestWithChiURLParams("DELETE", "/api/projects/1", nil, map[string]string{"id": "1"}))
	if rr.Code != http.StatusNotFound {
		t.Errorf("second delete: got %d, want 404", rr.Code)
	}
}

func TestProjectHandler_ListAndSearch(t *testing.T) {
	env := newTestEnv(t)
	createProject(t, env, `{"title":"Python tutor"}`)
	createProject(t, env, `{"title":"Data","skills_needed":["Python"],"status":"ACTIVE","progress":50}`)
	createProject(t, env, `{"title":"Other","status":"COMPLETED","progress":100}`)

	decode := func(rr *httptest.ResponseRecorder) []models.Project {
		t.Helper()
		if rr.Code != http.StatusOK {
			t.Fatalf("status: got %d, want 200", rr.Code)
		}
		var list []models.Project
		if err := json.NewDecoder(rr.Body).Decode(&list); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return list
	}

	rr := httptest.NewRecorder()
	env.project.ListProjects(rr, httptest.NewRequest("GET", "/api/projects", nil))
	if list := decode(rr); len(list) != 3 {
		t.Errorf("ListProjects: got %d projects, want 3", len(list))
	}

	rr = httptest.NewRecorder()
	env.project.SearchProjects(rr, httptest.NewRequest("GET", "/api/projects/search?q=PYTHON", nil))
	if list := decode(rr); len(list) != 2 || list[0].Title != "Python tutor" || list[1].Title != "Data" {
		t.Errorf("SearchProjects: unexpected result %+v", list)
	}

	rr = httptest.NewRecorder()
	env.project.ActiveProjects(rr, httptest.NewRequest("GET", "/api/projects/active", nil))
	if list := decode(rr); len(list) != 1 || list[0].Title != "Data" {
		t.Errorf("ActiveProjects: unexpected result %+v", list)
	}

	rr = httptest.NewRecorder()
	env.project.IncompleteProjects(rr, httptest.NewRequest("GET", "/api/projects/incomplete", nil))
	if list := decode(rr); len(list) != 1 || list[0].Title != "Data" {
		t.Errorf("IncompleteProjects: unexpected result %+v", list)
	}
}

func TestProjectHandler_ListProjects_Empty(t *testing.T) {
	env := newTestEnv(t)
	rr := httptest.NewRecorder()
	env.project.ListProjects(rr, httptest.NewRequest("GET", "/api/projects", nil))
	if got := rr.Body.String(); got != "[]\n" {
		t.Errorf("empty list body: got %q, want []", got)
	}
}

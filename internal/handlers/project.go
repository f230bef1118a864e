package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tombers/tombers/internal/models"
	"github.com/tombers/tombers/internal/service"
)

// ==========================
// Project Handler
// ==========================
type ProjectHandler struct {
	Projects *service.ProjectService
}

// projectID parses the {id} URL parameter, writing a 400 when it is not a
// positive integer.
func projectID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		JSONError(w, "invalid project id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// ==========================
// List Projects
// ==========================
func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, r, h.Projects.List)
}

// ==========================
// Search Projects (?q=)
// ==========================
func (h *ProjectHandler) SearchProjects(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	h.writeList(w, r, func(ctx context.Context) ([]models.Project, error) {
		return h.Projects.Search(ctx, q)
	})
}

// ==========================
// Active / Incomplete Projects
// ==========================
func (h *ProjectHandler) ActiveProjects(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, r, h.Projects.Active)
}

func (h *ProjectHandler) IncompleteProjects(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, r, h.Projects.Incomplete)
}

func (h *ProjectHandler) writeList(w http.ResponseWriter, r *http.Request, list func(context.Context) ([]models.Project, error)) {
	projects, err := list(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

// ==========================
// Get Project
// ==========================
func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(w, r)
	if !ok {
		return
	}
	p, err := h.Projects.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ==========================
// Create Project
// ==========================
func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var input models.ProjectPatch
	if !decodeJSON(w, r, &input) {
		return
	}
	p, err := h.Projects.Create(r.Context(), input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// ==========================
// Update Project
// ==========================
func (h *ProjectHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(w, r)
	if !ok {
		return
	}
	var patch models.ProjectPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	p, err := h.Projects.Update(r.Context(), id, patch)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ==========================
// Delete Project
// ==========================
func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(w, r)
	if !ok {
		return
	}
	p, err := h.Projects.Delete(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Message string         `json:"message"`
		Project models.Project `json:"project"`
	}{Message: "project deleted", Project: p})
}

package handlers

import (
	"context"
	"net/http"

	"github.com/tombers/tombers/internal/middleware"
	"github.com/tombers/tombers/internal/models"
	"github.com/tombers/tombers/internal/service"
)

// ==========================
// Like / Dislike
// ==========================
func (h *ProjectHandler) LikeProject(w http.ResponseWriter, r *http.Request) {
	h.react(w, r, h.Projects.Like)
}

func (h *ProjectHandler) DislikeProject(w http.ResponseWriter, r *http.Request) {
	h.react(w, r, h.Projects.Dislike)
}

// react applies the session user's like or dislike to the {id} project.
func (h *ProjectHandler) react(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, projectID, userID int) (models.Project, error)) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		JSONError(w, service.MsgNotAuthenticated, http.StatusUnauthorized)
		return
	}
	id, ok := projectID(w, r)
	if !ok {
		return
	}
	p, err := fn(r.Context(), id, sess.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ==========================
// Interested users
// ==========================
func (h *ProjectHandler) InterestedUsers(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(w, r)
	if !ok {
		return
	}
	out, err := h.Projects.Interested(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// ManageInterested accepts {"userId": n, "action": "ACCEPT"|"REJECT"}.
func (h *ProjectHandler) ManageInterested(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(w, r)
	if !ok {
		return
	}
	var d service.InterestDecision
	if !decodeJSON(w, r, &d) {
		return
	}
	p, err := h.Projects.ManageInterested(r.Context(), id, d)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

package handlers

import (
	"net/http"

	"github.com/tombers/tombers/internal/middleware"
	"github.com/tombers/tombers/internal/models"
	"github.com/tombers/tombers/internal/service"
)

// ==========================
// Profile Handler
// ==========================
type ProfileHandler struct {
	Profiles *service.ProfileService
}

// ==========================
// Get own profile
// ==========================
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		JSONError(w, service.MsgNotAuthenticated, http.StatusUnauthorized)
		return
	}
	u, err := h.Profiles.Get(r.Context(), sess.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// ==========================
// Update own profile
// ==========================

// UpdateProfile applies the allow-listed fields of the body; any other key
// (password, email, status, id...) is ignored by the decoder.
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		JSONError(w, service.MsgNotAuthenticated, http.StatusUnauthorized)
		return
	}
	var patch models.ProfilePatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	u, err := h.Profiles.Update(r.Context(), sess.UserID, patch)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// ==========================
// Search users (?q=)
// ==========================
func (h *ProfileHandler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Profiles.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// ==========================
// Available users
// ==========================
func (h *ProfileHandler) AvailableUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Profiles.Available(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

package handlers

import (
	"net/http"
	"time"

	"github.com/tombers/tombers/internal/service"
	"github.com/tombers/tombers/internal/session"
)

// ==========================
// Auth Handler
// ==========================
type AuthHandler struct {
	Auth *service.AuthService
	// CookieTTL and SecureCookie configure the session cookie.
	CookieTTL    time.Duration
	SecureCookie bool
}

// ==========================
// Register
// ==========================
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input service.RegisterInput
	if !decodeJSON(w, r, &input) {
		return
	}

	res, err := h.Auth.Register(r.Context(), input)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	session.SetCookie(w, res.Token, h.CookieTTL, h.SecureCookie)
	writeJSON(w, http.StatusCreated, res.User)
}

// ==========================
// Login
// ==========================
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input service.LoginInput
	if !decodeJSON(w, r, &input) {
		return
	}

	res, err := h.Auth.Login(r.Context(), input)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	session.SetCookie(w, res.Token, h.CookieTTL, h.SecureCookie)
	writeJSON(w, http.StatusOK, res.User)
}

// ==========================
// Logout (always succeeds)
// ==========================
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Auth.Logout(r.Context(), session.TokenFromRequest(r)); err != nil {
		writeServiceError(w, err)
		return
	}
	session.ClearCookie(w, h.SecureCookie)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

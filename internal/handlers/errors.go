package handlers

import (
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/tombers/tombers/internal/service"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrMessageInternal is the generic message for 500 responses. Do not expose internal details to clients.
const ErrMessageInternal = "internal server error"

// writeJSON writes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// JSONError sends a JSON error response with a single "error" field.
func JSONError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}

// JSONValidationError sends a JSON error response with "error" and optional "fields" for field-level details.
func JSONValidationError(w http.ResponseWriter, message string, fields map[string]string, status int) {
	out := map[string]interface{}{"error": message}
	if len(fields) > 0 {
		out["fields"] = fields
	}
	writeJSON(w, status, out)
}

// statusFor maps a service error kind to its HTTP status.
func statusFor(kind service.Kind) int {
	switch kind {
	case service.KindValidation, service.KindConflict:
		return http.StatusBadRequest
	case service.KindAuth:
		return http.StatusUnauthorized
	case service.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError renders err as a JSON error. Anything that is not a
// service error is reported as an internal error without details.
func writeServiceError(w http.ResponseWriter, err error) {
	var svcErr *service.Error
	if !errors.As(err, &svcErr) {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	status := statusFor(svcErr.Kind)
	if status == http.StatusInternalServerError {
		JSONError(w, ErrMessageInternal, status)
		return
	}
	JSONValidationError(w, svcErr.Message, svcErr.Fields, status)
}

// decodeJSON reads the request body into dst. On failure it writes the
// error response and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		JSONError(w, "request body too large", http.StatusRequestEntityTooLarge)
		return false
	}
	JSONError(w, "invalid JSON", http.StatusBadRequest)
	return false
}

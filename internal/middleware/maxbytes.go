package middleware

import (
	"net/http"
)

// DefaultMaxBodyBytes is the request body limit when none is configured (1 MiB).
const DefaultMaxBodyBytes = 1 << 20

// MaxBytes caps request bodies at maxBytes. Requests that declare a larger
// Content-Length are refused with 413 up front; bodies that turn out larger
// fail while being decoded.
func MaxBytes(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				w.Write([]byte(`{"error":"request body too large"}`))
				return
			}
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}

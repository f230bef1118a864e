package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Pinger is anything /ready should check, typically a repository.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health always answers 200 "ok" while the process is serving.
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// Ready answers 200 when every check succeeds within two seconds, 503
// otherwise.
func Ready(log *zap.Logger, checks map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		failed := map[string]string{}
		for name, c := range checks {
			if err := c.Ping(ctx); err != nil {
				log.Warn("readiness check failed", zap.String("check", name), zap.Error(err))
				failed[name] = "unavailable"
			}
		}
		if len(failed) > 0 {
			JSONValidationError(w, "not ready", failed, http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

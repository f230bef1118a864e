package middleware

import (
	"context"
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/tombers/tombers/internal/session"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type key string

const sessionKey key = "session"

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s session.Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// GetSession returns the session stored by RequireSession or PageSession.
func GetSession(ctx context.Context) (session.Session, bool) {
	s, ok := ctx.Value(sessionKey).(session.Session)
	return s, ok
}

// resolve looks up the session behind the request's cookie or bearer token.
func resolve(r *http.Request, mgr *session.Manager, log *zap.Logger) (session.Session, bool) {
	token := session.TokenFromRequest(r)
	if token == "" {
		return session.Session{}, false
	}
	s, err := mgr.Resolve(r.Context(), token)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) && !errors.Is(err, session.ErrInvalidToken) {
			log.Warn("resolve session", zap.Error(err))
		}
		return session.Session{}, false
	}
	return s, true
}

// RequireSession rejects requests without a live session with 401 JSON.
func RequireSession(mgr *session.Manager, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, ok := resolve(r, mgr, log)
			if !ok {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"error": "not authenticated"})
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
		})
	}
}

// PageSession is RequireSession for browser pages: requests without a
// session are redirected to loginPath.
func PageSession(mgr *session.Manager, log *zap.Logger, loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, ok := resolve(r, mgr, log)
			if !ok {
				http.Redirect(w, r, loginPath, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
		})
	}
}

// OptionalSession attaches the session when there is one and never blocks.
func OptionalSession(mgr *session.Manager, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if s, ok := resolve(r, mgr, log); ok {
				r = r.WithContext(WithSession(r.Context(), s))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Package session maps an opaque, signed token to a logged-in user.
//
// The token is an HS256 JWT whose only identifying claim is a random
// session id (jti). The session record itself lives in a Store, which stays
// authoritative: ending a session removes it from the store and every token
// that pointed at it stops resolving.
package session

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	// ErrNotFound is returned by a Store when no live session has the id.
	ErrNotFound = errors.New("session not found")
	// ErrInvalidToken is returned when a token is malformed or badly signed.
	ErrInvalidToken = errors.New("invalid session token")
)

// Session is the server-side state bound to a token.
type Session struct {
	ID        string    `json:"id"`
	UserID    int       `json:"user_id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists sessions by id. A ttl of zero means no expiry.
type Store interface {
	Put(ctx context.Context, s Session, ttl time.Duration) error
	Get(ctx context.Context, id string) (Session, error)
	Delete(ctx context.Context, id string) error
}

// Manager issues and resolves session tokens.
type Manager struct {
	store  Store
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewManager returns a Manager signing tokens with secret. ttl bounds the
// lifetime of new sessions; zero disables expiry.
func NewManager(store Store, secret []byte, ttl time.Duration) *Manager {
	return &Manager{store: store, secret: secret, ttl: ttl, now: time.Now}
}

// TTL is the configured session lifetime (zero when sessions never expire).
func (m *Manager) TTL() time.Duration { return m.ttl }

// Start creates a session for the user and returns its token.
func (m *Manager) Start(ctx context.Context, userID int, username string) (string, Session, error) {
	now := m.now().UTC()
	s := Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Username:  username,
		CreatedAt: now.Truncate(time.Second),
	}
	if err := m.store.Put(ctx, s, m.ttl); err != nil {
		return "", Session{}, errors.Wrap(err, "store session")
	}

	claims := jwt.RegisteredClaims{
		ID:       s.ID,
		IssuedAt: jwt.NewNumericDate(now),
	}
	if m.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(m.ttl))
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		_ = m.store.Delete(ctx, s.ID)
		return "", Session{}, errors.Wrap(err, "sign session token")
	}
	return token, s, nil
}

// Resolve returns the live session behind token.
func (m *Manager) Resolve(ctx context.Context, token string) (Session, error) {
	id, err := m.sessionID(token)
	if err != nil {
		return Session{}, err
	}
	return m.store.Get(ctx, id)
}

// End removes the session behind token. Unknown or invalid tokens are not
// an error.
func (m *Manager) End(ctx context.Context, token string) error {
	id, err := m.sessionID(token)
	if err != nil {
		return nil
	}
	if err := m.store.Delete(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
		return errors.Wrap(err, "delete session")
	}
	return nil
}

func (m *Manager) sessionID(token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (interface{}, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.ID == "" {
		return "", ErrInvalidToken
	}
	return claims.ID, nil
}

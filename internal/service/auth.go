// Package service holds the application logic behind the HTTP handlers:
// registration and login, profiles, and projects. Every method returns
// either a result or an *Error whose Kind decides the response status.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/tombers/tombers/internal/metrics"
	"github.com/tombers/tombers/internal/models"
	"github.com/tombers/tombers/internal/password"
	"github.com/tombers/tombers/internal/repo"
	"github.com/tombers/tombers/internal/session"
)

// RegisterInput is the registration body. Optional profile fields may be
// supplied alongside the required ones.
type RegisterInput struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Username  string `json:"username" validate:"required"`
	Password  string `json:"password" validate:"required"`

	models.ProfilePatch
}

func (in *RegisterInput) trim() {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	// The password is kept verbatim; blank counts as missing.
	if strings.TrimSpace(in.Password) == "" {
		in.Password = ""
	}
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	User    models.UserSummary
	Token   string
	Session session.Session
}

type AuthService struct {
	users    repo.UserRepository
	hasher   *password.Hasher
	sessions *session.Manager
	log      *zap.Logger
	validate *validator.Validate
	now      func() time.Time
}

func NewAuthService(users repo.UserRepository, hasher *password.Hasher, sessions *session.Manager, log *zap.Logger) *AuthService {
	return &AuthService{
		users:    users,
		hasher:   hasher,
		sessions: sessions,
		log:      log,
		validate: newValidator(),
		now:      time.Now,
	}
}

// ==========================
// Register
// ==========================
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	in.trim()
	if err := s.validate.Struct(in); err != nil {
		metrics.IncAuthEvent("register", "invalid")
		return AuthResult{}, validationError(MsgMissingFields, fieldErrors(err))
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		s.log.Error("hash password", zap.Error(err))
		return AuthResult{}, storageError(err)
	}

	now := s.now().UTC().Truncate(time.Second)
	u := models.User{
		Skills:         models.StringList{},
		Certifications: models.StringList{},
		Interests:      models.StringList{},
	}
	in.ProfilePatch.Apply(&u)
	u.FirstName = in.FirstName
	u.LastName = in.LastName
	u.Email = in.Email
	u.Username = in.Username
	u.PasswordHash = digest
	u.Status = models.StatusAvailable
	u.CreatedAt = now
	u.UpdatedAt = now

	created, err := s.users.Create(ctx, u)
	switch {
	case errors.Is(err, repo.ErrEmailTaken):
		metrics.IncAuthEvent("register", "conflict")
		return AuthResult{}, conflictError(MsgEmailRegistered)
	case errors.Is(err, repo.ErrUsernameTaken):
		metrics.IncAuthEvent("register", "conflict")
		return AuthResult{}, conflictError(MsgUsernameTaken)
	case err != nil:
		s.log.Error("create user", zap.String("username", u.Username), zap.Error(err))
		return AuthResult{}, storageError(err)
	}

	result, err := s.startSession(ctx, created)
	if err != nil {
		return AuthResult{}, err
	}
	metrics.IncAuthEvent("register", "success")
	s.log.Info("user registered", zap.Int("user_id", created.ID), zap.String("username", created.Username))
	return result, nil
}

// ==========================
// Login
// ==========================
func (s *AuthService) Login(ctx context.Context, in LoginInput) (AuthResult, error) {
	in.Email = strings.TrimSpace(in.Email)
	if strings.TrimSpace(in.Password) == "" {
		in.Password = ""
	}
	if err := s.validate.Struct(in); err != nil {
		metrics.IncAuthEvent("login", "invalid")
		return AuthResult{}, validationError(MsgMissingFields, fieldErrors(err))
	}

	u, err := s.users.GetByEmail(ctx, in.Email)
	if errors.Is(err, repo.ErrNotFound) {
		metrics.IncAuthEvent("login", "failure")
		return AuthResult{}, authError(MsgIncorrectCreds)
	}
	if err != nil {
		s.log.Error("load user", zap.Error(err))
		return AuthResult{}, storageError(err)
	}
	if !s.hasher.Verify(in.Password, u.PasswordHash) {
		metrics.IncAuthEvent("login", "failure")
		return AuthResult{}, authError(MsgIncorrectCreds)
	}

	if s.hasher.NeedsRehash(u.PasswordHash) {
		s.upgradeDigest(ctx, u.ID, in.Password)
	}

	result, err := s.startSession(ctx, u)
	if err != nil {
		return AuthResult{}, err
	}
	metrics.IncAuthEvent("login", "success")
	return result, nil
}

// upgradeDigest replaces a legacy digest after a successful login. Failure
// only costs the upgrade, not the login.
func (s *AuthService) upgradeDigest(ctx context.Context, userID int, plaintext string) {
	digest, err := s.hasher.Hash(plaintext)
	if err != nil {
		s.log.Warn("rehash password", zap.Int("user_id", userID), zap.Error(err))
		return
	}
	_, err = s.users.Update(ctx, userID, func(u *models.User) error {
		u.PasswordHash = digest
		return nil
	})
	if err != nil {
		s.log.Warn("store upgraded digest", zap.Int("user_id", userID), zap.Error(err))
	}
}

// ==========================
// Logout
// ==========================
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if err := s.sessions.End(ctx, token); err != nil {
		s.log.Error("end session", zap.Error(err))
		return storageError(err)
	}
	metrics.IncAuthEvent("logout", "success")
	return nil
}

func (s *AuthService) startSession(ctx context.Context, u models.User) (AuthResult, error) {
	token, sess, err := s.sessions.Start(ctx, u.ID, u.Username)
	if err != nil {
		s.log.Error("start session", zap.Int("user_id", u.ID), zap.Error(err))
		return AuthResult{}, storageError(err)
	}
	return AuthResult{User: u.Summary(), Token: token, Session: sess}, nil
}

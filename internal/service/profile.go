package service

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/tombers/tombers/internal/models"
	"github.com/tombers/tombers/internal/repo"
)

type ProfileService struct {
	users repo.UserRepository
	log   *zap.Logger
	now   func() time.Time
}

func NewProfileService(users repo.UserRepository, log *zap.Logger) *ProfileService {
	return &ProfileService{users: users, log: log, now: time.Now}
}

// Get returns the user behind a session. A session whose user no longer
// exists is treated as unauthenticated.
func (s *ProfileService) Get(ctx context.Context, userID int) (models.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return models.User{}, authError(MsgNotAuthenticated)
	}
	if err != nil {
		s.log.Error("load profile", zap.Int("user_id", userID), zap.Error(err))
		return models.User{}, storageError(err)
	}
	return u, nil
}

// Update applies the allow-listed fields of patch to the user's record.
func (s *ProfileService) Update(ctx context.Context, userID int, patch models.ProfilePatch) (models.User, error) {
	if patch.Age != nil && *patch.Age < 0 {
		return models.User{}, validationError("invalid profile data", map[string]string{"age": "must be at least 0"})
	}
	u, err := s.users.Update(ctx, userID, func(u *models.User) error {
		patch.Apply(u)
		u.UpdatedAt = s.now().UTC().Truncate(time.Second)
		return nil
	})
	if errors.Is(err, repo.ErrNotFound) {
		return models.User{}, authError(MsgNotAuthenticated)
	}
	if err != nil {
		s.log.Error("update profile", zap.Int("user_id", userID), zap.Error(err))
		return models.User{}, storageError(err)
	}
	return u, nil
}

// Search matches q case-insensitively against first name, last name,
// specialization and skills. An empty query returns every user.
func (s *ProfileService) Search(ctx context.Context, q string) ([]models.User, error) {
	users, err := s.list(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(q))
	if needle == "" {
		return users, nil
	}
	out := []models.User{}
	for _, u := range users {
		if userMatches(u, needle) {
			out = append(out, u)
		}
	}
	return out, nil
}

func userMatches(u models.User, needle string) bool {
	for _, field := range []string{u.FirstName, u.LastName, u.Specialization} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return anyContains(u.Skills, needle)
}

// Available lists users whose status is "Disponible".
func (s *ProfileService) Available(ctx context.Context) ([]models.User, error) {
	users, err := s.list(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.User{}
	for _, u := range users {
		if u.Status == models.StatusAvailable {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *ProfileService) list(ctx context.Context) ([]models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		s.log.Error("list users", zap.Error(err))
		return nil, storageError(err)
	}
	return users, nil
}

func anyContains(values []string, needle string) bool {
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), needle) {
			return true
		}
	}
	return false
}

package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/tombers/tombers/internal/password"
	"github.com/tombers/tombers/internal/repo"
	"github.com/tombers/tombers/internal/session"
)

type fixture struct {
	users    *repo.JSONUserRepo
	projects *repo.JSONProjectRepo
	sessions *session.Manager
	auth     *AuthService
	profiles *ProfileService
	project  *ProjectService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	users := repo.NewJSONUserRepo(filepath.Join(dir, "users.json"))
	require.NoError(t, users.Init())
	projects := repo.NewJSONProjectRepo(filepath.Join(dir, "projects.json"))
	require.NoError(t, projects.Init())

	log := zap.NewNop()
	sessions := session.NewManager(session.NewMemoryStore(), []byte("test-secret"), 0)
	return &fixture{
		users:    users,
		projects: projects,
		sessions: sessions,
		auth:     NewAuthService(users, &password.Hasher{Cost: bcrypt.MinCost}, sessions, log),
		profiles: NewProfileService(users, log),
		project:  NewProjectService(projects, users, log),
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func requireKind(t *testing.T, err error, kind Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, KindOf(err), "error: %v", err)
}

func (f *fixture) register(t *testing.T, username, email string) AuthResult {
	t.Helper()
	res, err := f.auth.Register(context.Background(), RegisterInput{
		FirstName: "First",
		LastName:  "Last",
		Email:     email,
		Username:  username,
		Password:  "s3cret",
	})
	require.NoError(t, err)
	return res
}

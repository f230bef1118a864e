package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombers/tombers/internal/models"
)

func TestProfile_GetUnknownUserIsAuthError(t *testing.T) {
	f := newFixture(t)
	_, err := f.profiles.Get(context.Background(), 42)
	requireKind(t, err, KindAuth)
}

func TestProfile_UpdateAppliesAllowListOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.register(t, "alice", "alice@example.com")
	before, err := f.users.GetByID(ctx, res.User.ID)
	require.NoError(t, err)

	later := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	f.profiles.now = fixedClock(later)

	bio := "Backend dev"
	skills := models.SplitTags("go, postgres")
	age := 30
	u, err := f.profiles.Update(ctx, res.User.ID, models.ProfilePatch{Bio: &bio, Skills: &skills, Age: &age})
	require.NoError(t, err)

	assert.Equal(t, "Backend dev", u.Bio)
	assert.Equal(t, models.StringList{"go", "postgres"}, u.Skills)
	require.NotNil(t, u.Age)
	assert.Equal(t, 30, *u.Age)
	assert.Equal(t, later, u.UpdatedAt)

	assert.Equal(t, before.Email, u.Email)
	assert.Equal(t, before.Status, u.Status)
	assert.Equal(t, before.PasswordHash, u.PasswordHash)
	assert.Equal(t, before.CreatedAt, u.CreatedAt)
	assert.Equal(t, "First", u.FirstName)
}

func TestProfile_UpdateRejectsNegativeAge(t *testing.T) {
	f := newFixture(t)
	res := f.register(t, "alice", "alice@example.com")
	age := -1
	_, err := f.profiles.Update(context.Background(), res.User.ID, models.ProfilePatch{Age: &age})
	requireKind(t, err, KindValidation)
}

func TestProfile_SearchAndAvailable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "alice", "alice@example.com")
	b := f.register(t, "bob", "bob@example.com")

	spec := "Data Engineering"
	_, err := f.profiles.Update(ctx, a.User.ID, models.ProfilePatch{Specialization: &spec})
	require.NoError(t, err)
	skills := models.StringList{"Rust"}
	_, err = f.profiles.Update(ctx, b.User.ID, models.ProfilePatch{Skills: &skills})
	require.NoError(t, err)

	got, err := f.profiles.Search(ctx, "data")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "alice", got[0].Username)

	got, err = f.profiles.Search(ctx, "rust")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "bob", got[0].Username)

	got, err = f.profiles.Search(ctx, "")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = f.users.Update(ctx, b.User.ID, func(u *models.User) error {
		u.Status = "Ocupado"
		return nil
	})
	require.NoError(t, err)
	got, err = f.profiles.Available(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "alice", got[0].Username)
}

package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombers/tombers/internal/models"
)

func TestRegister_ReturnsSummaryAndSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res := f.register(t, "alice", "alice@example.com")
	assert.Equal(t, 1, res.User.ID)
	assert.Equal(t, "alice", res.User.Username)
	assert.NotEmpty(t, res.Token)

	sess, err := f.sessions.Resolve(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, 1, sess.UserID)

	stored, err := f.users.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAvailable, stored.Status)
	assert.NotEqual(t, "s3cret", stored.PasswordHash)
	assert.NotNil(t, stored.Skills)
	assert.False(t, stored.CreatedAt.IsZero())
}

func TestRegister_TrimsAndRequiresFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Register(ctx, RegisterInput{
		FirstName: "  ",
		LastName:  "Last",
		Email:     "a@example.com",
		Username:  "alice",
		Password:  "pw",
	})
	requireKind(t, err, KindValidation)
	var svcErr *Error
	require.ErrorAs(t, err, &svcErr)
	assert.Contains(t, svcErr.Fields, "firstName")

	_, err = f.auth.Register(ctx, RegisterInput{FirstName: "A", LastName: "B", Email: "a@example.com", Username: "alice", Password: "   "})
	requireKind(t, err, KindValidation)

	_, err = f.auth.Register(ctx, RegisterInput{FirstName: "A", LastName: "B", Email: "not-an-email", Username: "alice", Password: "pw"})
	requireKind(t, err, KindValidation)
}

func TestRegister_Conflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice", "alice@example.com")

	_, err := f.auth.Register(ctx, RegisterInput{FirstName: "A", LastName: "B", Email: "ALICE@example.com", Username: "other", Password: "pw"})
	requireKind(t, err, KindConflict)
	assert.Contains(t, err.Error(), MsgEmailRegistered)

	_, err = f.auth.Register(ctx, RegisterInput{FirstName: "A", LastName: "B", Email: "new@example.com", Username: "alice", Password: "pw"})
	requireKind(t, err, KindConflict)
	assert.Contains(t, err.Error(), MsgUsernameTaken)
}

func TestRegister_OptionalProfileFields(t *testing.T) {
	f := newFixture(t)
	skills := models.SplitTags("go, sql ,")
	bio := "hello"
	res, err := f.auth.Register(context.Background(), RegisterInput{
		FirstName:    "A",
		LastName:     "B",
		Email:        "a@example.com",
		Username:     "alice",
		Password:     "pw",
		ProfilePatch: models.ProfilePatch{Skills: &skills, Bio: &bio},
	})
	require.NoError(t, err)

	u, err := f.profiles.Get(context.Background(), res.User.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StringList{"go", "sql"}, u.Skills)
	assert.Equal(t, "hello", u.Bio)
	assert.Equal(t, "A", u.FirstName)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice", "alice@example.com")

	res, err := f.auth.Login(ctx, LoginInput{Email: "Alice@Example.com", Password: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, "alice", res.User.Username)

	_, err = f.auth.Login(ctx, LoginInput{Email: "alice@example.com", Password: "wrong"})
	requireKind(t, err, KindAuth)
	wrongPassword := err.Error()

	_, err = f.auth.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "s3cret"})
	requireKind(t, err, KindAuth)
	assert.Equal(t, wrongPassword, err.Error())

	_, err = f.auth.Login(ctx, LoginInput{Email: "alice@example.com"})
	requireKind(t, err, KindValidation)
}

func TestLogin_LegacyDigestIsUpgraded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sum := sha256.Sum256([]byte("legacy-pw"))
	_, err := f.users.Create(ctx, models.User{
		Username:     "old",
		Email:        "old@example.com",
		PasswordHash: hex.EncodeToString(sum[:]),
	})
	require.NoError(t, err)

	_, err = f.auth.Login(ctx, LoginInput{Email: "old@example.com", Password: "legacy-pw"})
	require.NoError(t, err)

	u, err := f.users.GetByEmail(ctx, "old@example.com")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u.PasswordHash, "$2"), "digest not upgraded: %s", u.PasswordHash)

	_, err = f.auth.Login(ctx, LoginInput{Email: "old@example.com", Password: "legacy-pw"})
	require.NoError(t, err)
}

func TestLogout_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.register(t, "alice", "alice@example.com")

	require.NoError(t, f.auth.Logout(ctx, res.Token))
	require.NoError(t, f.auth.Logout(ctx, res.Token))
	require.NoError(t, f.auth.Logout(ctx, ""))

	_, err := f.sessions.Resolve(ctx, res.Token)
	assert.Error(t, err)
}

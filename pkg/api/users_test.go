package api

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webook-dev/webook-client/pkg/client"
	"github.com/webook-dev/webook-client/pkg/storage"
)

func TestUsers_Login(t *testing.T) {
	env := newTestEnv(t)
	uid := env.fake.AddUser("alice@example.com", password, "alice")
	alice := env.anonymous(t)

	user, err := alice.svc.Users.Login(context.Background(), "alice@example.com", password)
	require.NoError(t, err)

	assert.Equal(t, uid, user.ID)
	assert.Equal(t, "alice", user.Nickname)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.True(t, alice.client.Session().LoggedIn())
	assert.NotEmpty(t, alice.client.Session().RefreshToken())

	stored, err := alice.svc.Users.Current()
	require.NoError(t, err)
	assert.Equal(t, user, stored)
	assert.Empty(t, alice.notes.History())
}

func TestUsers_LoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.fake.AddUser("alice@example.com", password, "alice")
	alice := env.anonymous(t)

	_, err := alice.svc.Users.Login(context.Background(), "alice@example.com", "wrong")

	require.Error(t, err)
	assert.True(t, client.IsKind(err, client.KindEnvelope))
	assert.False(t, alice.client.Session().LoggedIn())
	assert.Len(t, alice.notes.History(), 1)
}

func TestUsers_SignupThenLogin(t *testing.T) {
	env := newTestEnv(t)
	u := env.anonymous(t)
	ctx := context.Background()

	require.NoError(t, u.svc.Users.Signup(ctx, "bob@example.com", password))
	user, err := u.svc.Users.Login(ctx, "bob@example.com", password)
	require.NoError(t, err)
	assert.NotZero(t, user.ID)

	err = u.svc.Users.Signup(ctx, "bob@example.com", password)
	assert.True(t, client.IsKind(err, client.KindEnvelope))
}

func TestUsers_LoginSMS(t *testing.T) {
	env := newTestEnv(t)
	u := env.anonymous(t)
	ctx := context.Background()

	require.NoError(t, u.svc.Users.SendSMSCode(ctx, "13800000000"))
	code := env.fake.Code("login", "13800000000")
	require.NotEmpty(t, code)

	user, err := u.svc.Users.LoginSMS(ctx, "13800000000", code)
	require.NoError(t, err)
	assert.Equal(t, "13800000000", user.Phone)
	assert.True(t, u.client.Session().LoggedIn())
}

func TestUsers_UpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	alice := env.login(t, "alice@example.com", "alice")
	ctx := context.Background()

	require.NoError(t, alice.svc.Users.UpdateProfile(ctx, ProfileUpdate{Nickname: "Alice", AboutMe: "writes Go"}))

	profile, err := alice.svc.Users.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Alice", profile.Nickname)
	assert.Equal(t, "writes Go", profile.AboutMe)

	stored, err := alice.svc.Users.Current()
	require.NoError(t, err)
	assert.Equal(t, "Alice", stored.Nickname)
	assert.Equal(t, alice.id, stored.ID)
}

func TestUsers_Logout(t *testing.T) {
	env := newTestEnv(t)
	alice := env.login(t, "alice@example.com", "alice")

	require.NoError(t, alice.svc.Users.Logout(context.Background()))

	assert.False(t, alice.client.Session().LoggedIn())
	_, err := alice.svc.Users.Current()
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUsers_ExpiredTokenRefreshesTransparently(t *testing.T) {
	env := newTestEnv(t)
	alice := env.login(t, "alice@example.com", "alice")
	before := alice.client.Session().AccessToken()

	env.fake.ExpireAccessTokens()
	profile, err := alice.svc.Users.Profile(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "alice", profile.Nickname)
	assert.Equal(t, 1, env.fake.RefreshCalls())
	assert.NotEqual(t, before, alice.client.Session().AccessToken())
	assert.Empty(t, alice.notes.History())
}

func TestUsers_RevokedRefreshTokenEndsSession(t *testing.T) {
	env := newTestEnv(t)
	alice := env.login(t, "alice@example.com", "alice")

	env.fake.ExpireAccessTokens()
	env.fake.RevokeRefreshTokens()
	_, err := alice.svc.Users.Profile(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, client.ErrSessionExpired))
	assert.False(t, alice.client.Session().LoggedIn())
	_, err = alice.svc.Users.Current()
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Len(t, alice.notes.History(), 1)
}

func TestUsers_ExplicitRefresh(t *testing.T) {
	env := newTestEnv(t)
	alice := env.login(t, "alice@example.com", "alice")
	before := alice.client.Session().Pair()

	require.NoError(t, alice.svc.Users.RefreshToken(context.Background()))

	after := alice.client.Session().Pair()
	assert.NotEqual(t, before.AccessToken, after.AccessToken)
	assert.NotEqual(t, before.RefreshToken, after.RefreshToken)
}

func TestUsers_UploadAvatar(t *testing.T) {
	env := newTestEnv(t)
	alice := env.login(t, "alice@example.com", "alice")

	link, err := alice.svc.Users.UploadAvatar(context.Background(), "me.png", []byte("png"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link, "/static/avatars/"), link)
	assert.True(t, strings.HasSuffix(link, ".png"), link)

	_, err = alice.svc.Users.UploadAvatar(context.Background(), "me.exe", []byte("exe"))
	assert.True(t, client.IsKind(err, client.KindHTTP))
}

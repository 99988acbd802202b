package api

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/webook-dev/webook-client/internal/fakeapi"
	"github.com/webook-dev/webook-client/pkg/client"
	"github.com/webook-dev/webook-client/pkg/notification"
	"github.com/webook-dev/webook-client/pkg/session"
	"github.com/webook-dev/webook-client/pkg/storage"
)

const password = "hello#world123"

type testEnv struct {
	fake   *fakeapi.Server
	server *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	fake := fakeapi.New()
	server := httptest.NewServer(fake.Handler())
	t.Cleanup(server.Close)
	return &testEnv{fake: fake, server: server}
}

type testUser struct {
	svc    *Service
	client *client.Client
	notes  *notification.Recorder
	id     int64
}

// anonymous returns a service without credentials
func (e *testEnv) anonymous(t *testing.T) *testUser {
	t.Helper()
	sess, err := session.NewManager(storage.NewMemoryStore())
	require.NoError(t, err)

	notes := notification.NewRecorder()
	c := client.NewClient(&client.Config{APIBase: e.server.URL + fakeapi.Prefix}, sess, client.WithNotifier(notes))
	return &testUser{svc: New(c), client: c, notes: notes}
}

// login registers email and returns a logged in service for it
func (e *testEnv) login(t *testing.T, email, nickname string) *testUser {
	t.Helper()
	e.fake.AddUser(email, password, nickname)

	u := e.anonymous(t)
	user, err := u.svc.Users.Login(context.Background(), email, password)
	require.NoError(t, err)
	u.id = user.ID
	return u
}

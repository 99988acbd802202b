package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/webook-dev/webook-client/pkg/notification"
	"github.com/webook-dev/webook-client/pkg/session"
	"github.com/webook-dev/webook-client/pkg/storage"
)

// countingStore counts deletions of the access token key
type countingStore struct {
	*storage.MemoryStore
	mu     sync.Mutex
	clears int
}

func (s *countingStore) Delete(key string) error {
	if key == storage.KeyAccessToken {
		s.mu.Lock()
		s.clears++
		s.mu.Unlock()
	}
	return s.MemoryStore.Delete(key)
}

func (s *countingStore) Clears() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clears
}

type harness struct {
	client *Client
	store  *countingStore
	notes  *notification.Recorder

	mu     sync.Mutex
	logins []string
}

func (h *harness) navigations() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.logins))
	copy(out, h.logins)
	return out
}

func newHarness(t *testing.T, server *httptest.Server, pair session.Pair) *harness {
	t.Helper()

	h := &harness{
		store: &countingStore{MemoryStore: storage.NewMemoryStore()},
		notes: notification.NewRecorder(),
	}
	if pair.AccessToken != "" {
		require.NoError(t, h.store.Set(storage.KeyAccessToken, pair.AccessToken))
	}
	if pair.RefreshToken != "" {
		require.NoError(t, h.store.Set(storage.KeyRefreshToken, pair.RefreshToken))
	}
	sess, err := session.NewManager(h.store)
	require.NoError(t, err)

	h.client = NewClient(&Config{APIBase: server.URL}, sess,
		WithNotifier(h.notes),
		WithNavigator(NavigatorFunc(func(returnPath string) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.logins = append(h.logins, returnPath)
		})),
	)
	return h
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v interface{}) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("Failed to write response: %v", err)
	}
}

func ok(data interface{}) map[string]interface{} {
	return map[string]interface{}{"code": 0, "msg": "", "data": data}
}

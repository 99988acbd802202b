package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webook-dev/webook-client/pkg/session"
	"golang.org/x/sync/errgroup"
)

// refreshBackend accepts access token "a2" only; the refresh endpoint rotates to a2/r2
// unless failRefresh is set.
type refreshBackend struct {
	t           *testing.T
	failRefresh bool
	// beforeRefresh runs inside the refresh handler before it answers
	beforeRefresh func()

	refreshCalls atomic.Int32
	mu           sync.Mutex
	served       []string
}

func (b *refreshBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == DefaultRefreshPath {
		b.refreshCalls.Add(1)
		assert.Equal(b.t, http.MethodPost, r.Method)
		assert.Equal(b.t, "Bearer r1", r.Header.Get("Authorization"))
		var body map[string]interface{}
		assert.NoError(b.t, json.NewDecoder(r.Body).Decode(&body))
		assert.Empty(b.t, body)

		if b.beforeRefresh != nil {
			b.beforeRefresh()
		}
		if b.failRefresh {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("X-Jwt-Token", "a2")
		w.Header().Set("X-Refresh-Token", "r2")
		writeJSON(b.t, w, http.StatusOK, ok(nil))
		return
	}

	if r.Header.Get("Authorization") != "Bearer a2" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	b.mu.Lock()
	b.served = append(b.served, r.URL.Path)
	b.mu.Unlock()
	writeJSON(b.t, w, http.StatusOK, ok(map[string]string{"path": r.URL.Path}))
}

func (b *refreshBackend) Served() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.served))
	copy(out, b.served)
	return out
}

// waitQueued blocks until n requests are parked or a second passes
func waitQueued(h **harness, n int) func() {
	return func() {
		deadline := time.Now().Add(time.Second)
		for (*h).client.Session().Queued() < n && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}
	}
}

func TestRefresh_ReplaysAfterRotation(t *testing.T) {
	backend := &refreshBackend{t: t}
	server := httptest.NewServer(backend)
	defer server.Close()

	h := newHarness(t, server, loggedIn)
	var out map[string]string
	err := h.client.Get(context.Background(), "/x", nil, &out)

	require.NoError(t, err)
	assert.Equal(t, "/x", out["path"])
	assert.Equal(t, int32(1), backend.refreshCalls.Load())
	assert.Equal(t, session.Pair{AccessToken: "a2", RefreshToken: "r2"}, h.client.Session().Pair())
	assert.Empty(t, h.notes.History())
	assert.Empty(t, h.navigations())
	assert.False(t, h.client.Session().Refreshing())
}

func TestRefresh_ConcurrentUnauthorizedShareOneRefresh(t *testing.T) {
	const n = 10

	var h *harness
	backend := &refreshBackend{t: t}
	backend.beforeRefresh = waitQueued(&h, n)
	server := httptest.NewServer(backend)
	defer server.Close()
	h = newHarness(t, server, loggedIn)

	results := make([]string, n)
	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			var out map[string]string
			if err := h.client.Get(ctx, fmt.Sprintf("/item/%d", i), nil, &out); err != nil {
				return err
			}
			results[i] = out["path"]
			return nil
		})
	}
	require.NoError(t, g.Wait())

	for i := 0; i < n; i++ {
		assert.Equal(t, fmt.Sprintf("/item/%d", i), results[i])
	}
	assert.Equal(t, int32(1), backend.refreshCalls.Load())
	assert.Len(t, backend.Served(), n)
	assert.Empty(t, h.notes.History())
	assert.Zero(t, h.client.Session().Queued())
}

func TestRefresh_ReplaysInArrivalOrder(t *testing.T) {
	release := make(chan struct{})
	backend := &refreshBackend{t: t, beforeRefresh: func() { <-release }}
	server := httptest.NewServer(backend)
	defer server.Close()

	h := newHarness(t, server, loggedIn)
	sess := h.client.Session()

	paths := []string{"/first", "/second", "/third", "/fourth"}
	var g errgroup.Group
	for i, path := range paths {
		g.Go(func() error {
			return h.client.Get(context.Background(), path, nil, nil)
		})
		require.Eventually(t, func() bool { return sess.Queued() == i+1 }, time.Second, 5*time.Millisecond)
	}
	close(release)
	require.NoError(t, g.Wait())

	assert.Equal(t, paths, backend.Served())
	assert.Equal(t, int32(1), backend.refreshCalls.Load())
}

func TestRefresh_FailureEndsSessionOnce(t *testing.T) {
	const n = 5

	var h *harness
	backend := &refreshBackend{t: t, failRefresh: true}
	backend.beforeRefresh = waitQueued(&h, n)
	server := httptest.NewServer(backend)
	defer server.Close()
	h = newHarness(t, server, loggedIn)

	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = h.client.Get(context.Background(), fmt.Sprintf("/item/%d", i), nil, nil)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrSessionExpired))
		assert.True(t, IsKind(err, KindSessionExpired))
	}
	assert.Equal(t, int32(1), backend.refreshCalls.Load())
	assert.Equal(t, session.Pair{}, h.client.Session().Pair())
	assert.Equal(t, 1, h.store.Clears())
	assert.Len(t, h.navigations(), 1)
	assert.Equal(t, []string{msgSessionExpired}, h.notes.Messages())
	assert.Empty(t, backend.Served())
}

func TestRefresh_ReplayUnauthorizedEndsSession(t *testing.T) {
	var refreshCalls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == DefaultRefreshPath {
			refreshCalls++
			w.Header().Set("X-Jwt-Token", "a2")
			writeJSON(t, w, http.StatusOK, ok(nil))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	h := newHarness(t, server, loggedIn)
	err := h.client.Get(context.Background(), "/admin", nil, nil)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSessionExpired))
	assert.Equal(t, 1, refreshCalls)
	assert.Equal(t, session.Pair{}, h.client.Session().Pair())
	assert.Equal(t, []string{"/admin"}, h.navigations())
	assert.Equal(t, []string{msgSessionExpired}, h.notes.Messages())
}

func TestRefresh_RefreshPathUnauthorized(t *testing.T) {
	backend := &refreshBackend{t: t, failRefresh: true}
	server := httptest.NewServer(backend)
	defer server.Close()

	h := newHarness(t, server, loggedIn)
	err := h.client.Post(context.Background(), DefaultRefreshPath, struct{}{}, nil)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSessionExpired))
	assert.Equal(t, int32(1), backend.refreshCalls.Load())
	assert.Equal(t, session.Pair{}, h.client.Session().Pair())
	assert.Equal(t, []string{DefaultRefreshPath}, h.navigations())
	assert.Equal(t, []string{msgSessionExpired}, h.notes.Messages())
}

func TestRefresh_Explicit(t *testing.T) {
	backend := &refreshBackend{t: t}
	server := httptest.NewServer(backend)
	defer server.Close()

	h := newHarness(t, server, loggedIn)
	require.NoError(t, h.client.Refresh(context.Background()))

	assert.Equal(t, session.Pair{AccessToken: "a2", RefreshToken: "r2"}, h.client.Session().Pair())
	assert.Empty(t, h.notes.History())
}

func TestRefresh_ExplicitFailure(t *testing.T) {
	backend := &refreshBackend{t: t, failRefresh: true}
	server := httptest.NewServer(backend)
	defer server.Close()

	h := newHarness(t, server, loggedIn)
	err := h.client.Refresh(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSessionExpired))
	assert.Equal(t, session.Pair{}, h.client.Session().Pair())
	assert.Len(t, h.navigations(), 1)
	assert.Equal(t, []string{msgSessionExpired}, h.notes.Messages())
}

func TestRefresh_CancelledLeaderDoesNotStrandQueue(t *testing.T) {
	release := make(chan struct{})
	backend := &refreshBackend{t: t, beforeRefresh: func() { <-release }}
	server := httptest.NewServer(backend)
	defer server.Close()

	h := newHarness(t, server, loggedIn)
	sess := h.client.Session()

	leaderCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	leaderErr := make(chan error, 1)
	go func() {
		leaderErr <- h.client.Get(leaderCtx, "/leader", nil, nil)
	}()
	require.Eventually(t, func() bool { return sess.Queued() == 1 }, time.Second, 5*time.Millisecond)

	followerErr := make(chan error, 1)
	go func() {
		followerErr <- h.client.Get(context.Background(), "/follower", nil, nil)
	}()
	require.Eventually(t, func() bool { return sess.Queued() == 2 }, time.Second, 5*time.Millisecond)

	cancel()
	close(release)

	assert.True(t, IsKind(<-leaderErr, KindNoResponse))
	assert.NoError(t, <-followerErr)
	assert.Equal(t, []string{"/follower"}, backend.Served())
	assert.Equal(t, "a2", sess.AccessToken())
}

func TestRefresh_StaleTokenReplaysWithoutRefresh(t *testing.T) {
	var refreshCalls atomic.Int32
	var h *harness
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == DefaultRefreshPath:
			refreshCalls.Add(1)
			w.WriteHeader(http.StatusUnauthorized)
		case r.Header.Get("Authorization") == "Bearer a1":
			// the token is rotated by someone else while this request is in flight
			_, err := h.client.Session().Rotate(session.Pair{AccessToken: "a2"})
			assert.NoError(t, err)
			w.WriteHeader(http.StatusUnauthorized)
		default:
			writeJSON(t, w, http.StatusOK, ok(nil))
		}
	}))
	defer server.Close()
	h = newHarness(t, server, loggedIn)

	require.NoError(t, h.client.Get(context.Background(), "/x", nil, nil))
	assert.Zero(t, refreshCalls.Load())
	assert.Empty(t, h.notes.History())
}

func TestRefresh_LateUnauthorizedAfterFailedRefresh(t *testing.T) {
	arrived := make(chan struct{})
	release := make(chan struct{})

	var mu sync.Mutex
	var refreshAuth []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case DefaultRefreshPath:
			mu.Lock()
			refreshAuth = append(refreshAuth, r.Header.Get("Authorization"))
			mu.Unlock()
		case "/slow":
			// answered only after the refresh of /fast has failed
			close(arrived)
			<-release
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	h := newHarness(t, server, loggedIn)

	slowErr := make(chan error, 1)
	go func() {
		slowErr <- h.client.Get(context.Background(), "/slow", nil, nil)
	}()
	<-arrived

	err := h.client.Get(context.Background(), "/fast", nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSessionExpired))

	close(release)
	err = <-slowErr
	require.Error(t, err)
	assert.True(t, IsKind(err, KindSessionExpired))
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.SessionEnded)
	assert.Equal(t, "/slow", apiErr.Path)

	mu.Lock()
	assert.Equal(t, []string{"Bearer r1"}, refreshAuth)
	mu.Unlock()
	assert.Equal(t, 1, h.store.Clears())
	assert.Equal(t, []string{"/fast"}, h.navigations())
	assert.Equal(t, []string{msgSessionExpired}, h.notes.Messages())
	assert.False(t, h.client.Session().Refreshing())
}

func TestRefresh_FirstUnauthorizedReplayRejectsTheRest(t *testing.T) {
	const n = 4

	var h *harness
	var replays atomic.Int32
	var refreshCalls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == DefaultRefreshPath {
			refreshCalls.Add(1)
			waitQueued(&h, n)()
			w.Header().Set("X-Jwt-Token", "a2")
			writeJSON(t, w, http.StatusOK, ok(nil))
			return
		}
		if r.Header.Get("Authorization") == "Bearer a2" {
			replays.Add(1)
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()
	h = newHarness(t, server, loggedIn)

	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = h.client.Get(context.Background(), fmt.Sprintf("/item/%d", i), nil, nil)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrSessionExpired))
	}
	assert.Equal(t, int32(1), refreshCalls.Load())
	assert.Equal(t, int32(1), replays.Load())
	assert.Equal(t, session.Pair{}, h.client.Session().Pair())
	assert.Equal(t, 1, h.store.Clears())
	assert.Len(t, h.navigations(), 1)
	assert.Equal(t, []string{msgSessionExpired}, h.notes.Messages())
	assert.Zero(t, h.client.Session().Queued())
}

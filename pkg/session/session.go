// Package session owns the credential pair, the persisted user profile and
// the refresh-in-progress flag with its replay queue.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/webook-dev/webook-client/pkg/logger"
	"github.com/webook-dev/webook-client/pkg/storage"
)

// ErrRefreshInProgress is returned by WithRefreshLock when another refresh holds the flag.
var ErrRefreshInProgress = errors.New("session: refresh already in progress")

// Pair is the access/refresh credential pair
type Pair struct {
	AccessToken  string
	RefreshToken string
}

// Pending is a request parked while a refresh is outstanding
type Pending interface {
	// Replay re-dispatches the request with the current access token and
	// returns its failure, if any
	Replay() error
	// Reject fails the request without dispatching it again
	Reject(err error)
}

// EnqueueResult tells the caller of Enqueue what to do next
type EnqueueResult int

const (
	// Joined means a refresh is already in flight; wait for the queue to drain.
	Joined EnqueueResult = iota
	// Lead means the caller set the refresh flag and must call CompleteRefresh.
	Lead
	// Stale means the access token was rotated after the request was sent; replay it now.
	Stale
	// Ended means the credentials the request was sent with were cleared since;
	// fail it without refreshing.
	Ended
)

// Manager guards the credential pair, the refresh flag and the queue with a single mutex
type Manager struct {
	store storage.Store
	log   logrus.FieldLogger

	mu         sync.Mutex // protects the below fields
	pair       Pair
	refreshing bool
	queue      []Pending
}

// NewManager restores the credential pair from store
func NewManager(store storage.Store) (*Manager, error) {
	m := &Manager{
		store: store,
		log:   logger.Standard().WithField("component", "session"),
	}

	var err error
	if m.pair.AccessToken, err = load(store, storage.KeyAccessToken); err != nil {
		return nil, err
	}
	if m.pair.RefreshToken, err = load(store, storage.KeyRefreshToken); err != nil {
		return nil, err
	}
	return m, nil
}

func load(store storage.Store, key string) (string, error) {
	value, err := store.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to restore %s: %w", key, err)
	}
	return value, nil
}

func (m *Manager) AccessToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pair.AccessToken
}

func (m *Manager) RefreshToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pair.RefreshToken
}

// Pair returns a copy of the current credential pair
func (m *Manager) Pair() Pair {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pair
}

// LoggedIn reports whether an access token is held
func (m *Manager) LoggedIn() bool {
	return m.AccessToken() != ""
}

// Rotate overwrites the non-empty members of p and writes them through to the store.
// It reports whether anything changed.
func (m *Manager) Rotate(p Pair) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	changed := false
	if p.AccessToken != "" && p.AccessToken != m.pair.AccessToken {
		if err := m.store.Set(storage.KeyAccessToken, p.AccessToken); err != nil {
			return changed, fmt.Errorf("failed to persist access token: %w", err)
		}
		m.pair.AccessToken = p.AccessToken
		changed = true
	}
	if p.RefreshToken != "" && p.RefreshToken != m.pair.RefreshToken {
		if err := m.store.Set(storage.KeyRefreshToken, p.RefreshToken); err != nil {
			return changed, fmt.Errorf("failed to persist refresh token: %w", err)
		}
		m.pair.RefreshToken = p.RefreshToken
		changed = true
	}
	if changed {
		m.log.WithField("access_token", logger.Redact(m.pair.AccessToken)).Debug("Credentials rotated")
	}
	return changed, nil
}

// Clear drops both credentials and the stored profile
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pair = Pair{}
	var errs []error
	for _, key := range []string{storage.KeyAccessToken, storage.KeyRefreshToken, storage.KeyUser} {
		if err := m.store.Delete(key); err != nil {
			errs = append(errs, err)
		}
	}
	m.log.Debug("Credentials cleared")
	return errors.Join(errs...)
}

// SetUser stores the serialized profile of the logged in user
func (m *Manager) SetUser(user interface{}) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}
	if err := m.store.Set(storage.KeyUser, string(data)); err != nil {
		return fmt.Errorf("failed to persist user: %w", err)
	}
	return nil
}

// User decodes the stored profile into out. It returns storage.ErrNotFound when none is stored.
func (m *Manager) User(out interface{}) error {
	data, err := m.store.Get(storage.KeyUser)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(data), out); err != nil {
		return fmt.Errorf("failed to unmarshal user: %w", err)
	}
	return nil
}

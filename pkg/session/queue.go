package session

// Enqueue parks p behind the refresh. sentWith is the access token the failed
// request carried. When no refresh is running the request is not queued if
// the held token changed since: Stale after a rotation, Ended after a clear.
func (m *Manager) Enqueue(p Pending, sentWith string) EnqueueResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.refreshing {
		m.queue = append(m.queue, p)
		return Joined
	}
	if sentWith != "" && m.pair.AccessToken == "" {
		return Ended
	}
	if m.pair.AccessToken != "" && sentWith != m.pair.AccessToken {
		return Stale
	}
	m.refreshing = true
	m.queue = append(m.queue, p)
	return Lead
}

// Refreshing reports whether the refresh flag is held
func (m *Manager) Refreshing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshing
}

// Queued returns the number of parked requests
func (m *Manager) Queued() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

func (m *Manager) tryBeginRefresh() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.refreshing {
		return false
	}
	m.refreshing = true
	return true
}

// CompleteRefresh runs fn while the flag is held by the caller, then releases
// the flag and hands back the queue in arrival order. Requests that arrive
// after the release are not part of the returned queue.
func (m *Manager) CompleteRefresh(fn func() error) ([]Pending, error) {
	err := fn()

	m.mu.Lock()
	defer m.mu.Unlock()

	queue := m.queue
	m.queue = nil
	m.refreshing = false
	return queue, err
}

// WithRefreshLock sets the refresh flag, runs fn and releases the flag.
// It fails with ErrRefreshInProgress if the flag is already held.
func (m *Manager) WithRefreshLock(fn func() error) ([]Pending, error) {
	if !m.tryBeginRefresh() {
		return nil, ErrRefreshInProgress
	}
	return m.CompleteRefresh(fn)
}

package notification

import "sync"

// Recorder keeps every notification in memory in the order received
type Recorder struct {
	mu      sync.Mutex
	history []Notification
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = append(r.history, n)
}

// History returns a copy of the recorded notifications
func (r *Recorder) History() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.history))
	copy(out, r.history)
	return out
}

// Messages returns the recorded messages only
func (r *Recorder) Messages() []string {
	history := r.History()
	out := make([]string, 0, len(history))
	for _, n := range history {
		out = append(out, n.Message)
	}
	return out
}

// Reset forgets everything recorded so far
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = nil
}

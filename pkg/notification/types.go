package notification

import "time"

// Level is the severity of a user-facing notification
type Level string

const (
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
)

// Notification is one message surfaced to the user
type Notification struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	Path    string    `json:"path,omitempty"`
	SentAt  time.Time `json:"sent_at"`
}

// Notifier surfaces messages to the user. Implementations must be safe for concurrent use.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(n Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// Discard drops every notification
var Discard Notifier = NotifierFunc(func(Notification) {})

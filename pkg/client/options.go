package client

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/webook-dev/webook-client/pkg/notification"
)

// Option configures a Client
type Option func(*Client)

// WithNotifier routes user-facing failure messages to n
func WithNotifier(n notification.Notifier) Option {
	return func(c *Client) {
		c.notifier = n
	}
}

// WithNavigator sets the login surface used when the session ends
func WithNavigator(n Navigator) Option {
	return func(c *Client) {
		c.navigator = n
	}
}

// WithHTTPClient replaces the underlying transport client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger used for request tracing
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// CallOption adjusts a single call
type CallOption func(*Request)

// WithTimeout overrides the client timeout for one call
func WithTimeout(d time.Duration) CallOption {
	return func(r *Request) {
		r.Timeout = d
	}
}

// WithHeader adds a header to one call
func WithHeader(key, value string) CallOption {
	return func(r *Request) {
		if r.Header == nil {
			r.Header = make(http.Header)
		}
		r.Header.Add(key, value)
	}
}

// AsStream skips envelope normalization for one call. The response body is
// handed back as a *Stream, so out must be a **Stream.
func AsStream() CallOption {
	return func(r *Request) {
		r.stream = true
	}
}

package client

import (
	"fmt"
	"net/url"
	"os"
	"time"
)

const (
	// DefaultTimeout bounds every call without a per-call override
	DefaultTimeout = 15 * time.Second
	// GenerateTimeout is used by the AI generation endpoints
	GenerateTimeout = 120 * time.Second
	// DefaultRefreshPath is the token refresh endpoint
	DefaultRefreshPath = "/users/refresh_token"
	// DefaultOrigin stands in for the page origin when none is configured
	DefaultOrigin = "http://localhost"

	apiPrefix = "/api"
)

// Config holds the client configuration
type Config struct {
	// APIBase overrides the base URL; relative values resolve against Origin
	APIBase string
	// Origin is the origin the client acts on behalf of
	Origin      string
	Timeout     time.Duration
	RefreshPath string
}

// ConfigFromEnv creates a client configuration from environment variables.
// WEBOOK_API_BASE and WEBOOK_ORIGIN are both optional.
func ConfigFromEnv() *Config {
	return &Config{
		APIBase:     os.Getenv("WEBOOK_API_BASE"),
		Origin:      os.Getenv("WEBOOK_ORIGIN"),
		Timeout:     DefaultTimeout,
		RefreshPath: DefaultRefreshPath,
	}
}

// BaseURL resolves the configured base URL
func (c *Config) BaseURL() string {
	return ResolveBaseURL(c.APIBase, c.Origin)
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.Origin == "" {
		out.Origin = DefaultOrigin
	}
	if out.Timeout <= 0 {
		out.Timeout = DefaultTimeout
	}
	if out.RefreshPath == "" {
		out.RefreshPath = DefaultRefreshPath
	}
	return out
}

// ResolveBaseURL returns apiBase resolved against origin, defaulting to the
// origin's /api. When the origin is served over HTTPS the result is upgraded to
// HTTPS as well. Unparseable input falls back to the default.
func ResolveBaseURL(apiBase, origin string) string {
	if origin == "" {
		origin = DefaultOrigin
	}
	originURL, err := url.Parse(origin)
	if err != nil || originURL.Scheme == "" || originURL.Host == "" {
		originURL, _ = url.Parse(DefaultOrigin)
	}
	defaultBase := originURL.ResolveReference(&url.URL{Path: apiPrefix}).String()

	base := apiBase
	if base == "" {
		base = defaultBase
	}
	u, err := originURL.Parse(base)
	if err != nil {
		return defaultBase
	}
	if originURL.Scheme == "https" && u.Scheme != "https" {
		u.Scheme = "https"
	}
	return u.String()
}

// Validate checks the configuration for values the client cannot work with
func (c *Config) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	if c.Origin != "" {
		u, err := url.Parse(c.Origin)
		if err != nil {
			return fmt.Errorf("invalid origin %q: %w", c.Origin, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("origin %q must use http or https", c.Origin)
		}
	}
	return nil
}

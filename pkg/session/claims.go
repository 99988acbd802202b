package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims mirrors the payload the backend signs into access tokens
type Claims struct {
	Id        int64
	UserAgent string
	Ssid      string
	jwt.RegisteredClaims
}

// ParseClaims decodes an access token without verifying its signature.
// The signing key lives on the server; the client only reads its own identity.
func ParseClaims(token string) (*Claims, error) {
	if token == "" {
		return nil, fmt.Errorf("no access token")
	}
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, fmt.Errorf("failed to parse access token: %w", err)
	}
	return &claims, nil
}

// Claims decodes the held access token
func (m *Manager) Claims() (*Claims, error) {
	return ParseClaims(m.AccessToken())
}

// UserID returns the uid carried by the held access token
func (m *Manager) UserID() (int64, error) {
	claims, err := m.Claims()
	if err != nil {
		return 0, err
	}
	return claims.Id, nil
}

// Expired reports whether the access token's exp claim is before now.
// Tokens without exp never expire client side.
func (c *Claims) Expired(now time.Time) bool {
	if c.ExpiresAt == nil {
		return false
	}
	return c.ExpiresAt.Before(now)
}

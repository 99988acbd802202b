package storage

import "errors"

// Fixed keys under which the session state is persisted.
const (
	KeyAccessToken  = "token"
	KeyRefreshToken = "refreshToken"
	KeyUser         = "user"
)

// ErrNotFound is returned by Get when the key has never been written or was deleted.
var ErrNotFound = errors.New("storage: key not found")

// Store is a durable string key/value store, the local equivalent of browser localStorage.
type Store interface {
	// Get returns the value stored under key or ErrNotFound
	Get(key string) (string, error)

	// Set overwrites the value stored under key
	Set(key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
}

// StoreConfig holds configuration for storage backends
type StoreConfig struct {
	Type string `mapstructure:"type"` // "memory", "disk"

	// Disk storage config
	Dir            string `mapstructure:"dir"`
	EncryptSecrets bool   `mapstructure:"encrypt_secrets"`
	EncryptionKey  string `mapstructure:"encryption_key"`
}

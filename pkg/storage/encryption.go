package storage

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
)

const encryptedPrefix = "ENC:"

// EncryptedStore seals values with AES-GCM before handing them to the wrapped store.
// Values written before encryption was enabled are returned as-is.
type EncryptedStore struct {
	inner Store
	aead  cipher.AEAD
}

// NewEncryptedStore derives a 256-bit key from passphrase
func NewEncryptedStore(inner Store, passphrase string) (*EncryptedStore, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("encryption key is required")
	}
	key := sha256.Sum256([]byte(passphrase))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &EncryptedStore{inner: inner, aead: aead}, nil
}

func (e *EncryptedStore) Get(key string) (string, error) {
	value, err := e.inner.Get(key)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(value, encryptedPrefix) {
		return value, nil
	}
	plain, err := e.decrypt(strings.TrimPrefix(value, encryptedPrefix))
	if err != nil {
		return "", fmt.Errorf("failed to decrypt %s: %w", key, err)
	}
	return plain, nil
}

func (e *EncryptedStore) Set(key, value string) error {
	sealed, err := e.encrypt(value)
	if err != nil {
		return fmt.Errorf("failed to encrypt %s: %w", key, err)
	}
	return e.inner.Set(key, encryptedPrefix+sealed)
}

func (e *EncryptedStore) Delete(key string) error {
	return e.inner.Delete(key)
}

func (e *EncryptedStore) encrypt(text string) (string, error) {
	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := e.aead.Seal(nonce, nonce, []byte(text), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (e *EncryptedStore) decrypt(encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	size := e.aead.NonceSize()
	if len(data) < size {
		return "", fmt.Errorf("ciphertext too short")
	}
	plain, err := e.aead.Open(nil, data[:size], data[size:], nil)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

package storage

import (
	"fmt"
)

// NewStore creates a store instance based on the configuration
func NewStore(config *StoreConfig) (Store, error) {
	var (
		store Store
		err   error
	)

	switch config.Type {
	case "memory":
		store = NewMemoryStore()

	case "disk", "":
		store, err = NewDiskStore(config.Dir)
		if err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("unknown storage type: %s", config.Type)
	}

	if config.EncryptSecrets {
		return NewEncryptedStore(store, config.EncryptionKey)
	}
	return store, nil
}

package storage

import (
	"fmt"
	"os"

	"github.com/peterbourgon/diskv/v3"
)

const cacheSizeMaxBytes = 4096

// DiskStore persists every key as a file under a single directory
type DiskStore struct {
	dv *diskv.Diskv
}

// NewDiskStore creates a store rooted at dir. Files are readable by the owner only.
func NewDiskStore(dir string) (*DiskStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage directory is required")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", dir, err)
	}

	// All keys live directly in the base dir.
	flatTransform := func(s string) []string { return []string{} }

	dv := diskv.New(diskv.Options{
		BasePath:     dir,
		Transform:    flatTransform,
		CacheSizeMax: cacheSizeMaxBytes,
		PathPerm:     0700,
		FilePerm:     0600,
	})
	return &DiskStore{dv: dv}, nil
}

func (d *DiskStore) Get(key string) (string, error) {
	data, err := d.dv.Read(key)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return string(data), nil
}

func (d *DiskStore) Set(key, value string) error {
	if err := d.dv.Write(key, []byte(value)); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (d *DiskStore) Delete(key string) error {
	if !d.dv.Has(key) {
		return nil
	}
	if err := d.dv.Erase(key); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to erase %s: %w", key, err)
	}
	return nil
}

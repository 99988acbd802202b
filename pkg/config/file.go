package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultFile returns the config file read when no --config is given
func DefaultFile() string {
	return filepath.Join(Dir(), fileName+".yaml")
}

// WriteFile stores c as YAML at path, replacing any existing file atomically.
// The file is readable by the owner only as it may hold the encryption key.
func WriteFile(path string, c *Config) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return writeAtomic(path, data, 0600)
}

// writeAtomic writes data to a temporary file next to path and renames it into place
func writeAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	switch {
	case writeErr != nil:
		err = fmt.Errorf("failed to write %s: %w", tmpName, writeErr)
	case closeErr != nil:
		err = fmt.Errorf("failed to close %s: %w", tmpName, closeErr)
	default:
		if err = os.Chmod(tmpName, perm); err != nil {
			err = fmt.Errorf("failed to set permissions on %s: %w", tmpName, err)
		} else if err = os.Rename(tmpName, path); err != nil {
			err = fmt.Errorf("failed to rename %s to %s: %w", tmpName, path, err)
		}
	}
	if err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

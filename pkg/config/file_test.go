package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	want := &Config{
		APIBase:   "https://webook.example.com/api",
		Origin:    "https://webook.example.com",
		Timeout:   30 * time.Second,
		StateDir:  "/var/lib/webook",
		Store:     "disk",
		LogLevel:  "debug",
		LogFormat: "json",
		LogOutput: "stderr",
	}
	require.NoError(t, WriteFile(path, want))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	got, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestWriteFileReplaces(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store: memory\n"), 0644))

	require.NoError(t, WriteFile(path, &Config{Store: "disk", Timeout: time.Second}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "store: disk")
	assert.Contains(t, string(data), "timeout: 1s")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file left behind")
}

func TestDefaultFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	assert.Equal(t, filepath.Join(home, ".webook", "config.yaml"), DefaultFile())
}

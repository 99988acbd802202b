package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webook-dev/webook-client/pkg/client"
)

func TestLoad_Defaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	c, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "", c.APIBase)
	assert.Equal(t, client.DefaultOrigin, c.Origin)
	assert.Equal(t, client.DefaultTimeout, c.Timeout)
	assert.Equal(t, filepath.Join(home, ".webook", "state"), c.StateDir)
	assert.Equal(t, "disk", c.Store)
	assert.Equal(t, "warn", c.LogLevel)
	assert.Equal(t, "text", c.LogFormat)
	assert.Equal(t, "http://localhost/api", c.Client().BaseURL())
}

func TestLoad_ConfigFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".webook")
	require.NoError(t, os.MkdirAll(dir, 0700))
	content := `
origin: https://webook.example
timeout: 30s
store: memory
log_level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0600))

	c, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "https://webook.example", c.Origin)
	assert.Equal(t, 30*time.Second, c.Timeout)
	assert.Equal(t, "memory", c.Store)
	assert.Equal(t, "debug", c.Logger().Severity)
	assert.Equal(t, "https://webook.example/api", c.Client().BaseURL())
}

func TestLoad_ExplicitFileMustExist(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	file := filepath.Join(t.TempDir(), "webook.yaml")
	require.NoError(t, os.WriteFile(file, []byte("api_base: http://file.example/api\n"), 0600))

	t.Setenv("WEBOOK_API_BASE", "http://env.example/api")
	t.Setenv("WEBOOK_TIMEOUT", "5s")
	t.Setenv("WEBOOK_LOG_FORMAT", "json")

	c, err := Load(viper.New(), file)
	require.NoError(t, err)

	assert.Equal(t, "http://env.example/api", c.APIBase)
	assert.Equal(t, 5*time.Second, c.Timeout)
	assert.Equal(t, "json", c.LogFormat)
}

func TestLoad_FlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("WEBOOK_ORIGIN", "http://env.example")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("origin", "", "")
	flags.String("state-dir", "", "")
	require.NoError(t, flags.Parse([]string{"--origin", "https://flag.example", "--state-dir", "/tmp/webook"}))

	v := viper.New()
	require.NoError(t, BindFlags(v, flags))
	c, err := Load(v, "")
	require.NoError(t, err)

	assert.Equal(t, "https://flag.example", c.Origin)
	assert.Equal(t, "/tmp/webook", c.StoreConfig().Dir)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Origin:   "http://localhost",
			Timeout:  time.Second,
			StateDir: "/tmp/state",
			Store:    "disk",
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"memory store needs no dir", func(c *Config) { c.Store = "memory"; c.StateDir = "" }, false},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, true},
		{"bad origin scheme", func(c *Config) { c.Origin = "ftp://x" }, true},
		{"unknown store", func(c *Config) { c.Store = "s3" }, true},
		{"disk store without dir", func(c *Config) { c.StateDir = "" }, true},
		{"encryption without key", func(c *Config) { c.EncryptSecrets = true }, true},
		{"encryption with key", func(c *Config) { c.EncryptSecrets = true; c.EncryptionKey = "k" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_StoreConfig(t *testing.T) {
	c := &Config{Store: "disk", StateDir: "/var/webook", EncryptSecrets: true, EncryptionKey: "k"}
	sc := c.StoreConfig()

	assert.Equal(t, "disk", sc.Type)
	assert.Equal(t, "/var/webook", sc.Dir)
	assert.True(t, sc.EncryptSecrets)
	assert.Equal(t, "k", sc.EncryptionKey)
}

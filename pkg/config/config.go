// Package config loads the webook client configuration from defaults, an
// optional YAML file, WEBOOK_ environment variables and bound flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/webook-dev/webook-client/pkg/client"
	"github.com/webook-dev/webook-client/pkg/logger"
	"github.com/webook-dev/webook-client/pkg/storage"
)

const (
	// EnvPrefix is the configuration environment prefix
	EnvPrefix = "WEBOOK"

	dirName  = ".webook"
	fileName = "config"
)

// Keys, shared by the config file, the environment (WEBOOK_<KEY>) and the flags
const (
	KeyAPIBase        = "api_base"
	KeyOrigin         = "origin"
	KeyTimeout        = "timeout"
	KeyStateDir       = "state_dir"
	KeyStore          = "store"
	KeyEncryptSecrets = "encrypt_secrets"
	KeyEncryptionKey  = "encryption_key"
	KeyLogLevel       = "log_level"
	KeyLogFormat      = "log_format"
	KeyLogOutput      = "log_output"
)

// Config represents the client configuration
type Config struct {
	// APIBase overrides the API base URL; empty means the origin's /api
	APIBase string        `mapstructure:"api_base" yaml:"api_base"`
	Origin  string        `mapstructure:"origin" yaml:"origin"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`

	// StateDir holds the persisted credentials
	StateDir       string `mapstructure:"state_dir" yaml:"state_dir"`
	Store          string `mapstructure:"store" yaml:"store"`
	EncryptSecrets bool   `mapstructure:"encrypt_secrets" yaml:"encrypt_secrets"`
	EncryptionKey  string `mapstructure:"encryption_key" yaml:"encryption_key"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
	LogOutput string `mapstructure:"log_output" yaml:"log_output"`
}

// Dir returns the directory holding the config file and the default state dir
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return dirName
	}
	return filepath.Join(home, dirName)
}

// SetDefaults registers every key with its default value
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyAPIBase, "")
	v.SetDefault(KeyOrigin, client.DefaultOrigin)
	v.SetDefault(KeyTimeout, client.DefaultTimeout)
	v.SetDefault(KeyStateDir, filepath.Join(Dir(), "state"))
	v.SetDefault(KeyStore, "disk")
	v.SetDefault(KeyEncryptSecrets, false)
	v.SetDefault(KeyEncryptionKey, "")

	defaults := logger.DefaultConfig()
	v.SetDefault(KeyLogLevel, defaults.Severity)
	v.SetDefault(KeyLogFormat, defaults.Format)
	v.SetDefault(KeyLogOutput, defaults.Output)
}

// BindFlags binds the flags that exist in flags to their keys. Flag names use
// dashes where keys use underscores.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	keys := []string{
		KeyAPIBase, KeyOrigin, KeyTimeout, KeyStateDir, KeyStore,
		KeyEncryptSecrets, KeyEncryptionKey, KeyLogLevel, KeyLogFormat, KeyLogOutput,
	}
	for _, key := range keys {
		flag := flags.Lookup(strings.ReplaceAll(key, "_", "-"))
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", flag.Name, err)
		}
	}
	return nil
}

// Load reads the configuration into a Config. An explicit configFile must
// exist; without one, $HOME/.webook/config.yaml is read when present.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(fileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(Dir())
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks that the values can be used to build a client
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if err := c.Client().Validate(); err != nil {
		return err
	}
	switch c.Store {
	case "disk":
		if c.StateDir == "" {
			return fmt.Errorf("state_dir is required for the disk store")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}
	if c.EncryptSecrets && c.EncryptionKey == "" {
		return fmt.Errorf("encryption_key is required when encrypt_secrets is set")
	}
	return nil
}

// Client returns the API client configuration
func (c *Config) Client() *client.Config {
	return &client.Config{
		APIBase:     c.APIBase,
		Origin:      c.Origin,
		Timeout:     c.Timeout,
		RefreshPath: client.DefaultRefreshPath,
	}
}

// StoreConfig returns the credential store configuration
func (c *Config) StoreConfig() *storage.StoreConfig {
	return &storage.StoreConfig{
		Type:           c.Store,
		Dir:            c.StateDir,
		EncryptSecrets: c.EncryptSecrets,
		EncryptionKey:  c.EncryptionKey,
	}
}

// Logger returns the logger configuration
func (c *Config) Logger() logger.Config {
	return logger.Config{
		Output:   c.LogOutput,
		Severity: c.LogLevel,
		Format:   c.LogFormat,
	}
}

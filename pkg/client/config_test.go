package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolveBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		apiBase string
		origin  string
		want    string
	}{
		{"defaults", "", "", "http://localhost/api"},
		{"same origin", "", "http://webook.example:8080", "http://webook.example:8080/api"},
		{"https origin", "", "https://webook.example", "https://webook.example/api"},
		{"relative base", "/v2", "http://webook.example", "http://webook.example/v2"},
		{"absolute base", "http://api.example.com/api", "http://webook.example", "http://api.example.com/api"},
		{"upgraded to https", "http://api.example.com/api", "https://webook.example", "https://api.example.com/api"},
		{"invalid origin", "", "not a url", "http://localhost/api"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveBaseURL(tt.apiBase, tt.origin))
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("WEBOOK_API_BASE", "http://api.example.com")
	t.Setenv("WEBOOK_ORIGIN", "https://webook.example")

	cfg := ConfigFromEnv()

	assert.Equal(t, "https://api.example.com", cfg.BaseURL())
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, DefaultRefreshPath, cfg.RefreshPath)
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, (&Config{}).Validate())
	assert.NoError(t, (&Config{Origin: "https://webook.example", Timeout: time.Second}).Validate())
	assert.Error(t, (&Config{Timeout: -time.Second}).Validate())
	assert.Error(t, (&Config{Origin: "ftp://webook.example"}).Validate())
}

func TestConfig_WithDefaults(t *testing.T) {
	conf := (&Config{}).withDefaults()

	assert.Equal(t, DefaultOrigin, conf.Origin)
	assert.Equal(t, DefaultTimeout, conf.Timeout)
	assert.Equal(t, DefaultRefreshPath, conf.RefreshPath)
}

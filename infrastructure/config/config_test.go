package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ServerAddress)
	assert.Equal(t, 8, cfg.FetchConcurrency)
	assert.Equal(t, 0.8, cfg.Breaker.FailureThreshold)
	assert.Equal(t, 1.0, cfg.Tracing.SampleRatio)
	assert.Empty(t, cfg.Tracing.Endpoint)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, []string{"defaults", "environment"}, cfg.Sources)
}

func TestLoadConfig_FileThenEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "portal.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api_base_url: https://ctd.example.org/api
cache_ttl: 1m
fetch_concurrency: 4
breaker:
  failure_threshold: 0.5
cors_allowed_origins: [https://portal.example.org]
tracing:
  endpoint: otel-collector:4317
  sample_ratio: 0.5
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("FETCH_CONCURRENCY", "2")
	t.Setenv("UPSTREAM_TIMEOUT", "5")
	t.Setenv("ENABLE_CORS", "false")
	t.Setenv("TRACE_SAMPLE_RATIO", "0.25")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "https://ctd.example.org/api", cfg.APIBaseURL)
	assert.Equal(t, time.Minute, cfg.CacheTTL)
	assert.Equal(t, 2, cfg.FetchConcurrency)
	assert.Equal(t, 5*time.Second, cfg.UpstreamTimeout)
	assert.Equal(t, 0.5, cfg.Breaker.FailureThreshold)
	assert.Equal(t, uint32(5), cfg.Breaker.MaxRequests)
	assert.False(t, cfg.EnableCORS)
	assert.Equal(t, []string{"https://portal.example.org"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "otel-collector:4317", cfg.Tracing.Endpoint)
	assert.Equal(t, 0.25, cfg.Tracing.SampleRatio)
	assert.Equal(t, []string{"defaults", path, "environment"}, cfg.Sources)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"relative api url", func(c *Config) { c.APIBaseURL = "/api" }},
		{"zero timeout", func(c *Config) { c.UpstreamTimeout = 0 }},
		{"no concurrency", func(c *Config) { c.FetchConcurrency = 0 }},
		{"no cookie name", func(c *Config) { c.SessionCookieName = "" }},
		{"threshold out of range", func(c *Config) { c.Breaker.FailureThreshold = 1.5 }},
		{"sample ratio out of range", func(c *Config) { c.Tracing.SampleRatio = -0.1 }},
		{"insecure cookie in production", func(c *Config) { c.Environment = "production" }},
	}

	assert.NoError(t, Default().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b ,"))
}

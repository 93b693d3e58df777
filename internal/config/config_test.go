package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
upstream:
  base_url: http://flow.local:8000/
  timeout: 5s
storage:
  type: none
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://flow.local:8000/", cfg.Upstream.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, StorageNone, cfg.Storage.Type)
	assert.False(t, cfg.JournalEnabled())
	assert.Equal(t, DefaultRetention, cfg.Storage.Retention)
	assert.Equal(t, DefaultRateLimit, cfg.Webserver.RateLimit)
	assert.Equal(t, DefaultWebserverListen, cfg.Webserver.Listen)
	assert.Equal(t, DefaultChartWidth, cfg.Charts.Width)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
general:
  log_level: info
upstream:
  base_url: http://flow.local:8000
`)
	t.Setenv("METROFLOW_UPSTREAM_BASE_URL", "https://api.example.com")
	t.Setenv("METROFLOW_GENERAL_LOG_LEVEL", "debug")
	t.Setenv("METROFLOW_STORAGE_TYPE", "none")
	t.Setenv("METROFLOW_WEBSERVER_AUTH_USERNAME", "admin")
	t.Setenv("METROFLOW_WEBSERVER_AUTH_PASSWORD", "secret")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", cfg.Upstream.BaseURL)
	assert.Equal(t, "debug", cfg.General.LogLevel)
	assert.Equal(t, StorageNone, cfg.Storage.Type)
	assert.True(t, cfg.Webserver.Auth.Enabled())
}

func TestLoadConfigPathFromEnv(t *testing.T) {
	path := writeConfig(t, "upstream:\n  base_url: http://a.local\n")
	t.Setenv(EnvConfigPath, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://a.local", cfg.Upstream.BaseURL)

	t.Setenv(EnvConfigPath, filepath.Join(t.TempDir(), "missing.yaml"))
	_, err = Load("")
	assert.Error(t, err)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "config file not found")
}

func TestLoadRejectsBadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "upstream: [unclosed"))
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := NewDefault()
		cfg.Upstream.BaseURL = "http://localhost:8000"
		return cfg
	}
	require.NoError(t, Validate(valid()))

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"log level", func(c *Config) { c.General.LogLevel = "trace" }, "invalid log_level"},
		{"missing base url", func(c *Config) { c.Upstream.BaseURL = "" }, "base_url is required"},
		{"bad scheme", func(c *Config) { c.Upstream.BaseURL = "ftp://x" }, "invalid upstream base_url"},
		{"negative timeout", func(c *Config) { c.Upstream.Timeout = -time.Second }, "timeout"},
		{"storage type", func(c *Config) { c.Storage.Type = "redis" }, "invalid storage type"},
		{"postgres host", func(c *Config) { c.Storage.Type = StoragePostgres }, "postgres host"},
		{"listen", func(c *Config) { c.Webserver.Listen = "8080" }, "listen address"},
		{"auth password", func(c *Config) { c.Webserver.Auth.Username = "admin" }, "auth password"},
		{"schedule", func(c *Config) {
			c.Scheduler.Enabled = true
			c.Scheduler.Schedule = "every minute"
		}, "invalid scheduler schedule"},
		{"chart size", func(c *Config) { c.Charts.Width = 10 }, "charts must be"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.ErrorContains(t, Validate(cfg), tt.want)
		})
	}
}

func TestWriteExample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etc", "metroflow.yaml")
	require.NoError(t, WriteExample(path))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", cfg.Upstream.BaseURL)
	assert.Equal(t, DefaultSchedule, cfg.Scheduler.Schedule)
}

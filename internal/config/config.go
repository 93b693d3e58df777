// Package config provides configuration structures and loading for MetroFlow.
package config

import "time"

// Config is the main configuration structure for MetroFlow.
//
// Every field can be overridden from the environment with the METROFLOW
// prefix, e.g. METROFLOW_UPSTREAM_BASE_URL or METROFLOW_STORAGE_TYPE.
type Config struct {
	General   GeneralConfig   `yaml:"general" envconfig:"general"`
	Upstream  UpstreamConfig  `yaml:"upstream" envconfig:"upstream"`
	Storage   StorageConfig   `yaml:"storage" envconfig:"storage"`
	Webserver WebserverConfig `yaml:"webserver" envconfig:"webserver"`
	Scheduler SchedulerConfig `yaml:"scheduler" envconfig:"scheduler"`
	Charts    ChartsConfig    `yaml:"charts" envconfig:"charts"`
}

// GeneralConfig contains general application settings.
type GeneralConfig struct {
	// LogLevel sets the logging verbosity: debug, info, warn, error
	LogLevel string `yaml:"log_level" envconfig:"log_level"`
}

// UpstreamConfig points at the flow API serving /api/kpis, /api/trend and /api/lines.
type UpstreamConfig struct {
	// BaseURL is the API root, e.g. "http://localhost:8000"
	BaseURL string `yaml:"base_url" envconfig:"base_url"`
	// Timeout bounds each request; 0 waits indefinitely
	Timeout time.Duration `yaml:"timeout" envconfig:"timeout"`
}

// StorageConfig defines the cycle journal backend.
type StorageConfig struct {
	// Type is the storage backend: none, sqlite or postgres
	Type     string         `yaml:"type" envconfig:"type"`
	SQLite   SQLiteConfig   `yaml:"sqlite" envconfig:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres" envconfig:"postgres"`
	// Retention is how long journal entries are kept; 0 keeps them forever
	Retention time.Duration `yaml:"retention" envconfig:"retention"`
}

// SQLiteConfig contains SQLite-specific settings.
type SQLiteConfig struct {
	// Path is the file path for the SQLite database
	Path string `yaml:"path" envconfig:"path"`
}

// PostgresConfig contains PostgreSQL-specific settings.
type PostgresConfig struct {
	Host     string `yaml:"host" envconfig:"host"`
	Port     int    `yaml:"port" envconfig:"port"`
	Database string `yaml:"database" envconfig:"database"`
	User     string `yaml:"user" envconfig:"user"`
	Password string `yaml:"password" envconfig:"password"`
	SSLMode  string `yaml:"ssl_mode" envconfig:"ssl_mode"`
}

// WebserverConfig defines the web server settings (Dashboard + API).
type WebserverConfig struct {
	// Enabled controls whether the web server is started
	Enabled bool `yaml:"enabled" envconfig:"enabled"`
	// Listen is the address and port to bind to (e.g., "0.0.0.0:8080")
	Listen string `yaml:"listen" envconfig:"listen"`
	// Auth enables Basic Auth when a username is set
	Auth AuthConfig `yaml:"auth,omitempty" envconfig:"auth"`
	// RateLimit caps filter actions per client and minute; 0 disables it
	RateLimit int `yaml:"rate_limit" envconfig:"rate_limit"`
}

// AuthConfig contains optional Basic Auth settings.
type AuthConfig struct {
	Username string `yaml:"username,omitempty" envconfig:"username"`
	Password string `yaml:"password,omitempty" envconfig:"password"`
}

// Enabled reports whether Basic Auth is configured.
func (a AuthConfig) Enabled() bool {
	return a.Username != ""
}

// SchedulerConfig defines the automatic dashboard refresh.
type SchedulerConfig struct {
	// Enabled controls whether the dashboard is refreshed automatically
	Enabled bool `yaml:"enabled" envconfig:"enabled"`
	// Schedule is a cron expression (e.g., "*/5 * * * *" for every 5 minutes)
	Schedule string `yaml:"schedule" envconfig:"schedule"`
}

// ChartsConfig sizes the rendered charts.
type ChartsConfig struct {
	Width  int `yaml:"width" envconfig:"width"`
	Height int `yaml:"height" envconfig:"height"`
}

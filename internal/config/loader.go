package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "METROFLOW"

// EnvConfigPath names the environment variable holding the config file path.
const EnvConfigPath = "METROFLOW_CONFIG"

// DefaultConfigPaths defines the search order for configuration files.
var DefaultConfigPaths = []string{
	"/etc/metroflow/config.yaml",
	"/etc/metroflow/config.yml",
	"./config.yaml",
	"./config.yml",
	"./metroflow.yaml",
	"./metroflow.yml",
}

// errNoConfigFile is returned by resolveConfigPath when no default path exists.
var errNoConfigFile = errors.New("no config file found")

// Load reads and parses a configuration file from the given path.
// If path is empty, it searches DefaultConfigPaths; when none exists the
// defaults are used, so a setup driven purely by environment variables works.
// Environment variable METROFLOW_CONFIG takes precedence over defaults, and
// METROFLOW_* overrides are applied on top of the file.
func Load(path string) (*Config, error) {
	configPath, err := resolveConfigPath(path)
	if err != nil && !errors.Is(err, errNoConfigFile) {
		return nil, err
	}

	cfg := NewDefault()
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	// Apply defaults for missing values
	ApplyDefaults(cfg)

	// Validate the configuration
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyEnv overrides cfg with METROFLOW_* variables. Unset variables leave
// the file values untouched.
func applyEnv(cfg *Config) error {
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return fmt.Errorf("failed to apply environment overrides: %w", err)
	}
	return nil
}

// resolveConfigPath determines which config file to use.
// Priority: explicit path > METROFLOW_CONFIG env > default paths
func resolveConfigPath(path string) (string, error) {
	// 1. Explicit path provided
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("config file not found: %s", path)
		}
		return path, nil
	}

	// 2. Environment variable
	if envPath := os.Getenv(EnvConfigPath); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return "", fmt.Errorf("config file from %s not found: %s", EnvConfigPath, envPath)
		}
		return envPath, nil
	}

	// 3. Search default paths
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("%w (searched: %v)", errNoConfigFile, DefaultConfigPaths)
}

// Validate checks the configuration for errors.
func Validate(cfg *Config) error {
	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[cfg.General.LogLevel] {
		return fmt.Errorf("invalid log_level: %q (must be debug, info, warn, or error)", cfg.General.LogLevel)
	}

	// Validate upstream
	if cfg.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream base_url is required")
	}
	u, err := url.Parse(cfg.Upstream.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid upstream base_url %q (must be an http or https URL)", cfg.Upstream.BaseURL)
	}
	if cfg.Upstream.Timeout < 0 {
		return fmt.Errorf("upstream timeout must not be negative")
	}

	// Validate storage type
	validStorageTypes := map[string]bool{
		StorageNone:     true,
		StorageSQLite:   true,
		StoragePostgres: true,
	}
	if !validStorageTypes[cfg.Storage.Type] {
		return fmt.Errorf("invalid storage type: %q (must be none, sqlite or postgres)", cfg.Storage.Type)
	}

	// Validate SQLite path if using SQLite
	if cfg.Storage.Type == StorageSQLite && cfg.Storage.SQLite.Path == "" {
		return fmt.Errorf("sqlite path is required when storage type is sqlite")
	}

	// Validate PostgreSQL config if using PostgreSQL
	if cfg.Storage.Type == StoragePostgres {
		if cfg.Storage.Postgres.Host == "" {
			return fmt.Errorf("postgres host is required when storage type is postgres")
		}
		if cfg.Storage.Postgres.Database == "" {
			return fmt.Errorf("postgres database is required when storage type is postgres")
		}
	}
	if cfg.Storage.Retention < 0 {
		return fmt.Errorf("storage retention must not be negative")
	}

	// Validate webserver
	if cfg.Webserver.Enabled {
		if _, _, err := net.SplitHostPort(cfg.Webserver.Listen); err != nil {
			return fmt.Errorf("invalid webserver listen address %q: %w", cfg.Webserver.Listen, err)
		}
	}
	if cfg.Webserver.Auth.Enabled() && cfg.Webserver.Auth.Password == "" {
		return fmt.Errorf("webserver auth password is required when a username is set")
	}
	if cfg.Webserver.RateLimit < 0 {
		return fmt.Errorf("webserver rate_limit must not be negative")
	}

	// Validate scheduler
	if cfg.Scheduler.Enabled {
		if _, err := cron.ParseStandard(cfg.Scheduler.Schedule); err != nil {
			return fmt.Errorf("invalid scheduler schedule %q: %w", cfg.Scheduler.Schedule, err)
		}
	}

	// Validate chart size
	if cfg.Charts.Width < 200 || cfg.Charts.Height < 120 {
		return fmt.Errorf("charts must be at least 200x120, got %dx%d", cfg.Charts.Width, cfg.Charts.Height)
	}

	return nil
}

// ExampleYAML returns an example configuration built from the defaults.
func ExampleYAML() ([]byte, error) {
	cfg := NewDefault()
	cfg.Upstream.BaseURL = "http://localhost:8000"

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal example config: %w", err)
	}
	return data, nil
}

// WriteExample writes an example configuration to the given path.
func WriteExample(path string) error {
	data, err := ExampleYAML()
	if err != nil {
		return err
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write example config: %w", err)
	}

	return nil
}

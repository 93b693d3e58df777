package config

import "time"

// Default values for configuration
const (
	DefaultLogLevel        = "info"
	DefaultStorageType     = "sqlite"
	DefaultSQLitePath      = "/var/lib/metroflow/journal.db"
	DefaultRetention       = 30 * 24 * time.Hour
	DefaultWebserverListen = "127.0.0.1:8080"
	DefaultRateLimit       = 30
	DefaultSchedule        = "*/5 * * * *" // Every 5 minutes
	DefaultPostgresPort    = 5432
	DefaultPostgresSSL     = "disable"
	DefaultChartWidth      = 720
	DefaultChartHeight     = 300
)

// Storage types
const (
	StorageNone     = "none"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// NewDefault creates a new Config with all default values applied.
// The upstream base URL has no default and must be configured.
func NewDefault() *Config {
	return &Config{
		General: GeneralConfig{
			LogLevel: DefaultLogLevel,
		},
		Storage: StorageConfig{
			Type: DefaultStorageType,
			SQLite: SQLiteConfig{
				Path: DefaultSQLitePath,
			},
			Postgres: PostgresConfig{
				Port:    DefaultPostgresPort,
				SSLMode: DefaultPostgresSSL,
			},
			Retention: DefaultRetention,
		},
		Webserver: WebserverConfig{
			Enabled:   true,
			Listen:    DefaultWebserverListen,
			RateLimit: DefaultRateLimit,
		},
		Scheduler: SchedulerConfig{
			Enabled:  false,
			Schedule: DefaultSchedule,
		},
		Charts: ChartsConfig{
			Width:  DefaultChartWidth,
			Height: DefaultChartHeight,
		},
	}
}

// ApplyDefaults fills in default values for any unset configuration options.
func ApplyDefaults(cfg *Config) {
	// General defaults
	if cfg.General.LogLevel == "" {
		cfg.General.LogLevel = DefaultLogLevel
	}

	// Storage defaults
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = DefaultStorageType
	}
	if cfg.Storage.Type == StorageSQLite && cfg.Storage.SQLite.Path == "" {
		cfg.Storage.SQLite.Path = DefaultSQLitePath
	}
	if cfg.Storage.Postgres.Port == 0 {
		cfg.Storage.Postgres.Port = DefaultPostgresPort
	}
	if cfg.Storage.Postgres.SSLMode == "" {
		cfg.Storage.Postgres.SSLMode = DefaultPostgresSSL
	}

	// Webserver defaults
	if cfg.Webserver.Listen == "" {
		cfg.Webserver.Listen = DefaultWebserverListen
	}

	// Scheduler defaults
	if cfg.Scheduler.Schedule == "" {
		cfg.Scheduler.Schedule = DefaultSchedule
	}

	// Chart defaults
	if cfg.Charts.Width == 0 {
		cfg.Charts.Width = DefaultChartWidth
	}
	if cfg.Charts.Height == 0 {
		cfg.Charts.Height = DefaultChartHeight
	}

	// Note: retention and rate_limit treat 0 as "disabled". Load decodes the
	// file over NewDefault, so their defaults survive when the keys are absent.
}

// JournalEnabled reports whether load cycles are journaled.
func (c *Config) JournalEnabled() bool {
	return c.Storage.Type != StorageNone
}

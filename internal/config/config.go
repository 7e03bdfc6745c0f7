// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers a YAML file and environment variables on top of New.
// - External errors are wrapped with this package's sentinels.
package config

import (
	"context"
	"net"
	"net/url"
)

// Storage backends accepted by Backend.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFile additionally writes logs to a rotated file when set.
	LogFile string `koanf:"log_file"`

	// Addr configures the score API listen address, e.g. ":3112".
	Addr string `koanf:"addr"`

	// HomeAddr configures the link aggregator listen address.
	HomeAddr string `koanf:"home_addr"`

	// Backend selects the score store: memory, postgres or sqlite.
	Backend string `koanf:"backend"`

	// CacheMaxEntries bounds the in-memory backend.
	CacheMaxEntries int `koanf:"cache_max_entries"`

	// DatabaseURL wins over the individual db_* settings when set.
	DatabaseURL string `koanf:"database_url"`
	DBUsername  string `koanf:"db_username"`
	DBPassword  string `koanf:"db_password"`
	DBHost      string `koanf:"db_host"`
	DBPort      string `koanf:"db_port"`
	DBName      string `koanf:"db_name"`
	DBMaxConns  int    `koanf:"db_max_conns"`
	DBMinConns  int    `koanf:"db_min_conns"`

	// SQLitePath is the database file used by the sqlite backend.
	SQLitePath string `koanf:"sqlite_path"`

	// DefaultLeaderboardLimit applies when a request names no limit.
	DefaultLeaderboardLimit int `koanf:"default_leaderboard_limit"`

	// MaxLeaderboardLimit caps GET /api/scores?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// SubmitRateLimit is the per-client submissions per second; 0 disables it.
	SubmitRateLimit float64 `koanf:"submit_rate_limit"`
	SubmitRateBurst int     `koanf:"submit_rate_burst"`

	// Links shown by the home page.
	TommyJumperURL string `koanf:"tommyjumper_url"`
	ArgoCDURL      string `koanf:"argocd_url"`
	GrafanaURL     string `koanf:"grafana_url"`
	JaegerURL      string `koanf:"jaeger_url"`
	LokiURL        string `koanf:"loki_url"`
	PrometheusURL  string `koanf:"prometheus_url"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:                "info",
		Addr:                    ":3112",
		HomeAddr:                ":3113",
		Backend:                 BackendMemory,
		CacheMaxEntries:         1000,
		DBUsername:              "postgres",
		DBPassword:              "password",
		DBHost:                  "localhost",
		DBPort:                  "5432",
		DBName:                  "postgres",
		DBMaxConns:              10,
		DBMinConns:              1,
		SQLitePath:              "jumper.db",
		DefaultLeaderboardLimit: 10,
		MaxLeaderboardLimit:     100,
		SubmitRateLimit:         20,
		SubmitRateBurst:         40,
		TommyJumperURL:          "#",
		ArgoCDURL:               "#",
		GrafanaURL:              "#",
		JaegerURL:               "#",
		LokiURL:                 "#",
		PrometheusURL:           "#",
	}
}

// PostgresURL returns DatabaseURL, or a URL assembled from the db_* fields.
func (c *Config) PostgresURL() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.DBUsername, c.DBPassword),
		Host:   net.JoinHostPort(c.DBHost, c.DBPort),
		Path:   "/" + c.DBName,
	}
	return u.String()
}

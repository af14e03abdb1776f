// Package config defines the top-level configuration for the PnL service
// and provides validation helpers.
package config

import (
	"fmt"
	"time"

	"polymarket-pnl/internal/fixedpoint"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by PNL_* environment variables.
type Config struct {
	Clickhouse ClickhouseConfig `toml:"clickhouse"`
	Postgres   PostgresConfig   `toml:"postgres"`
	Redis      RedisConfig      `toml:"redis"`
	Goldsky    GoldskyConfig    `toml:"goldsky"`
	Gamma      GammaConfig      `toml:"gamma"`
	Engine     EngineConfig     `toml:"engine"`
	Server     ServerConfig     `toml:"server"`
	LogLevel   string           `toml:"log_level"`
}

// ClickhouseConfig holds the ledger database connection parameters.
type ClickhouseConfig struct {
	DSN           string `toml:"dsn"`
	RunMigrations bool   `toml:"run_migrations"`
}

// PostgresConfig holds the result database connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds the mark price cache parameters. An empty Addr disables
// the cache; mark lookups then go straight to the Gamma API.
type RedisConfig struct {
	Addr     string   `toml:"addr"`
	Password string   `toml:"password"`
	DB       int      `toml:"db"`
	TTL      duration `toml:"ttl"`
}

// GoldskyConfig holds the activity subgraph parameters.
type GoldskyConfig struct {
	URL      string `toml:"url"`
	APIKey   string `toml:"api_key"`
	PageSize int    `toml:"page_size"`
}

// GammaConfig holds the Polymarket Gamma markets API parameters.
type GammaConfig struct {
	Host string `toml:"host"`
}

// EngineConfig holds computation parameters.
type EngineConfig struct {
	// DefaultMarkPrice is the fallback mark for unresolved positions with
	// no live price, in dollars per token.
	DefaultMarkPrice float64 `toml:"default_mark_price"`

	// Workers bounds concurrent wallet computations.
	Workers int `toml:"workers"`

	// PersistResults writes computed results to Postgres.
	PersistResults bool `toml:"persist_results"`
}

// ServerConfig holds the HTTP API parameters.
type ServerConfig struct {
	Port int `toml:"port"`
}

// duration wraps time.Duration for TOML decoding from strings like "15m".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Clickhouse: ClickhouseConfig{
			DSN:           "clickhouse://localhost:9000/pnl",
			RunMigrations: true,
		},
		Postgres: PostgresConfig{
			DSN:           "postgres://localhost:5432/pnl?sslmode=disable",
			RunMigrations: true,
		},
		Redis: RedisConfig{
			TTL: duration{15 * time.Minute},
		},
		Goldsky: GoldskyConfig{
			PageSize: 1000,
		},
		Gamma: GammaConfig{
			Host: "https://gamma-api.polymarket.com",
		},
		Engine: EngineConfig{
			DefaultMarkPrice: 0.5,
			Workers:          10,
			PersistResults:   true,
		},
		Server: ServerConfig{
			Port: 8080,
		},
		LogLevel: "info",
	}
}

// Validate checks the configuration for values that would fail at runtime.
func (c *Config) Validate() error {
	if c.Clickhouse.DSN == "" {
		return fmt.Errorf("clickhouse.dsn is required")
	}
	if c.Engine.DefaultMarkPrice < 0 || c.Engine.DefaultMarkPrice > 1 {
		return fmt.Errorf("engine.default_mark_price must be within [0, 1], got %v", c.Engine.DefaultMarkPrice)
	}
	if c.Engine.Workers < 0 {
		return fmt.Errorf("engine.workers must be non-negative, got %d", c.Engine.Workers)
	}
	if c.Goldsky.PageSize < 0 || c.Goldsky.PageSize > 1000 {
		return fmt.Errorf("goldsky.page_size must be within [0, 1000], got %d", c.Goldsky.PageSize)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be within (0, 65535], got %d", c.Server.Port)
	}
	return nil
}

// DefaultMarkMicro returns the configured default mark in micro-USD.
func (c *Config) DefaultMarkMicro() int64 {
	mark, ok := fixedpoint.FromFloat(c.Engine.DefaultMarkPrice)
	if !ok {
		return fixedpoint.Scale / 2
	}
	return mark
}

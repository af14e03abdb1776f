package config

import (
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies PNL_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known PNL_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.Clickhouse.DSN, "PNL_CLICKHOUSE_DSN")
	setBool(&cfg.Clickhouse.RunMigrations, "PNL_CLICKHOUSE_RUN_MIGRATIONS")

	setStr(&cfg.Postgres.DSN, "PNL_POSTGRES_DSN")
	setBool(&cfg.Postgres.RunMigrations, "PNL_POSTGRES_RUN_MIGRATIONS")

	setStr(&cfg.Redis.Addr, "PNL_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "PNL_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "PNL_REDIS_DB")
	setDuration(&cfg.Redis.TTL, "PNL_REDIS_TTL")

	setStr(&cfg.Goldsky.URL, "PNL_GOLDSKY_URL")
	setStr(&cfg.Goldsky.APIKey, "PNL_GOLDSKY_API_KEY")
	setInt(&cfg.Goldsky.PageSize, "PNL_GOLDSKY_PAGE_SIZE")

	setStr(&cfg.Gamma.Host, "PNL_GAMMA_HOST")

	setFloat64(&cfg.Engine.DefaultMarkPrice, "PNL_ENGINE_DEFAULT_MARK_PRICE")
	setInt(&cfg.Engine.Workers, "PNL_ENGINE_WORKERS")
	setBool(&cfg.Engine.PersistResults, "PNL_ENGINE_PERSIST_RESULTS")

	setInt(&cfg.Server.Port, "PNL_SERVER_PORT")

	setStr(&cfg.LogLevel, "PNL_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

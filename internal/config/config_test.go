package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 0.5, cfg.Engine.DefaultMarkPrice)
	assert.Equal(t, 10, cfg.Engine.Workers)
	assert.Equal(t, 1000, cfg.Goldsky.PageSize)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	require.NoError(t, cfg.Validate())
}

func TestLoad_TOMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
log_level = "debug"

[clickhouse]
dsn = "clickhouse://ch.internal:9000/pnl_prod"

[redis]
addr = "redis.internal:6379"
ttl = "5m"

[engine]
default_mark_price = 0.4
workers = 4

[server]
port = 9090
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "clickhouse://ch.internal:9000/pnl_prod", cfg.Clickhouse.DSN)
	assert.Equal(t, "redis.internal:6379", cfg.Redis.Addr)
	assert.Equal(t, "5m0s", cfg.Redis.TTL.String())
	assert.Equal(t, 0.4, cfg.Engine.DefaultMarkPrice)
	assert.Equal(t, 4, cfg.Engine.Workers)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.LogLevel)

	// Unset sections keep their defaults.
	assert.Equal(t, "https://gamma-api.polymarket.com", cfg.Gamma.Host)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PNL_CLICKHOUSE_DSN", "clickhouse://env-host:9000/pnl")
	t.Setenv("PNL_ENGINE_WORKERS", "3")
	t.Setenv("PNL_ENGINE_DEFAULT_MARK_PRICE", "0.35")
	t.Setenv("PNL_ENGINE_PERSIST_RESULTS", "false")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "clickhouse://env-host:9000/pnl", cfg.Clickhouse.DSN)
	assert.Equal(t, 3, cfg.Engine.Workers)
	assert.Equal(t, 0.35, cfg.Engine.DefaultMarkPrice)
	assert.False(t, cfg.Engine.PersistResults)
}

func TestConfig_Validate(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())

	bad := Defaults()
	bad.Clickhouse.DSN = ""
	assert.Error(t, bad.Validate())

	bad = Defaults()
	bad.Engine.DefaultMarkPrice = 1.5
	assert.Error(t, bad.Validate())

	bad = Defaults()
	bad.Engine.Workers = -1
	assert.Error(t, bad.Validate())

	bad = Defaults()
	bad.Goldsky.PageSize = 5000
	assert.Error(t, bad.Validate())

	bad = Defaults()
	bad.Server.Port = 0
	assert.Error(t, bad.Validate())
}

func TestConfig_DefaultMarkMicro(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, int64(500_000), cfg.DefaultMarkMicro())

	cfg.Engine.DefaultMarkPrice = 0.25
	assert.Equal(t, int64(250_000), cfg.DefaultMarkMicro())
}

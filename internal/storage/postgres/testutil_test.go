package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB creates a PostgreSQL container for testing and applies the
// schema. Returns a cleanup function that must be called after tests
// complete.
func setupTestDB(t *testing.T) (*Pool, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err, "failed to create pool")

	createTables(t, ctx, pool)

	cleanup := func() {
		pool.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return pool, cleanup
}

// createTables applies the schema directly; the embedded migration files
// carry the same definitions and are applied by the migration runner in
// production.
func createTables(t *testing.T, ctx context.Context, pool *Pool) {
	t.Helper()

	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS wallet_results (
			run_id              TEXT PRIMARY KEY,
			wallet              TEXT NOT NULL,
			computed_at_ms      BIGINT NOT NULL,
			realized_pnl        BIGINT NOT NULL,
			unrealized_pnl      BIGINT NOT NULL,
			total_pnl           BIGINT NOT NULL,
			cash_flow_pnl       BIGINT NOT NULL,
			gain_sum            BIGINT NOT NULL,
			loss_sum            BIGINT NOT NULL,
			volume              BIGINT NOT NULL,
			markets_traded      INTEGER NOT NULL,
			resolved_markets    INTEGER NOT NULL,
			open_positions      INTEGER NOT NULL,
			event_count         INTEGER NOT NULL,
			duplicate_count     INTEGER NOT NULL,
			synthetic_inferred  INTEGER NOT NULL,
			win_rate            DOUBLE PRECISION NOT NULL,
			cash_by_source      JSONB NOT NULL DEFAULT '{}',
			confidence_score    DOUBLE PRECISION NOT NULL,
			confidence_tier     TEXT NOT NULL,
			warnings            JSONB NOT NULL DEFAULT '[]'
		);

		CREATE INDEX IF NOT EXISTS idx_wallet_results_wallet_computed
			ON wallet_results (wallet, computed_at_ms DESC);
	`)
	require.NoError(t, err)
}

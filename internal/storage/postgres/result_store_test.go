package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"polymarket-pnl/internal/domain"
	"polymarket-pnl/internal/storage"
)

func TestResultStore_InsertAndGetLatest(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewResultStore(pool)
	ctx := context.Background()

	res := &domain.WalletResult{
		Wallet:          "0xabc",
		RunID:           "run-1",
		ComputedAt:      1704067200000,
		RealizedPnL:     60_000_000,
		UnrealizedPnL:   5_000_000,
		TotalPnL:        65_000_000,
		CashFlowPnL:     65_000_000,
		GainSum:         60_000_000,
		LossSum:         0,
		Volume:          100_000_000,
		MarketsTraded:   2,
		ResolvedMarkets: 1,
		OpenPositions:   1,
		EventCount:      5,
		WinRate:         1.0,
		CashBySource: map[domain.CashBucket]int64{
			domain.CashTrade:      -40_000_000,
			domain.CashSettlement: 100_000_000,
		},
		ConfidenceScore: 0.95,
		ConfidenceTier:  domain.ConfidenceHigh,
		Warnings: []domain.Warning{
			{Code: domain.WarnSyntheticSplit, Message: "synthetic split inferred"},
		},
	}

	err := store.Insert(ctx, res)
	require.NoError(t, err)

	got, err := store.GetLatestByWallet(ctx, "0xabc")
	require.NoError(t, err)

	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, int64(60_000_000), got.RealizedPnL)
	assert.Equal(t, int64(65_000_000), got.TotalPnL)
	assert.Equal(t, domain.ConfidenceHigh, got.ConfidenceTier)
	assert.Equal(t, int64(-40_000_000), got.CashBySource[domain.CashTrade])
	assert.Equal(t, int64(100_000_000), got.CashBySource[domain.CashSettlement])
	require.Len(t, got.Warnings, 1)
	assert.Equal(t, domain.WarnSyntheticSplit, got.Warnings[0].Code)
}

func TestResultStore_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewResultStore(pool)
	ctx := context.Background()

	_, err := store.GetLatestByWallet(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestResultStore_DuplicateRunID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewResultStore(pool)
	ctx := context.Background()

	res := &domain.WalletResult{Wallet: "0xabc", RunID: "run-1", ComputedAt: 1000}

	err := store.Insert(ctx, res)
	require.NoError(t, err)

	err = store.Insert(ctx, res)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestResultStore_InvalidInput(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewResultStore(pool)
	ctx := context.Background()

	assert.ErrorIs(t, store.Insert(ctx, nil), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.Insert(ctx, &domain.WalletResult{Wallet: "0xabc"}), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.Insert(ctx, &domain.WalletResult{RunID: "run-1"}), storage.ErrInvalidInput)
}

func TestResultStore_LatestWins(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewResultStore(pool)
	ctx := context.Background()

	runs := []*domain.WalletResult{
		{Wallet: "0xabc", RunID: "run-1", ComputedAt: 1000, RealizedPnL: 10},
		{Wallet: "0xabc", RunID: "run-3", ComputedAt: 3000, RealizedPnL: 30},
		{Wallet: "0xabc", RunID: "run-2", ComputedAt: 2000, RealizedPnL: 20},
		{Wallet: "0xdef", RunID: "run-4", ComputedAt: 9000, RealizedPnL: 99},
	}

	for _, r := range runs {
		require.NoError(t, store.Insert(ctx, r))
	}

	got, err := store.GetLatestByWallet(ctx, "0xabc")
	require.NoError(t, err)
	assert.Equal(t, "run-3", got.RunID)
	assert.Equal(t, int64(30), got.RealizedPnL)
}

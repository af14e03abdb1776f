package ingestion

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"polymarket-pnl/internal/domain"
	"polymarket-pnl/internal/storage/memory"
)

// fakeSource serves scripted activity pages and resolutions.
type fakeSource struct {
	pages       [][]*domain.LedgerEvent
	resolutions map[string]*domain.Resolution
	calls       int
}

func (f *fakeSource) FetchActivity(_ context.Context, _ string, _ int64, _ int) ([]*domain.LedgerEvent, bool, error) {
	if f.calls >= len(f.pages) {
		return nil, false, nil
	}
	page := f.pages[f.calls]
	f.calls++
	full := f.calls < len(f.pages)
	return page, full, nil
}

func (f *fakeSource) FetchResolutions(_ context.Context, conditionIDs []string) ([]*domain.Resolution, error) {
	var out []*domain.Resolution
	for _, id := range conditionIDs {
		if r, ok := f.resolutions[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func buyEvent(id, cond string, ts int64) *domain.LedgerEvent {
	return &domain.LedgerEvent{
		EventID: id, Wallet: "0xabc", ConditionID: cond,
		Kind: domain.SourceCLOBBuy, Timestamp: ts,
		TokenDelta: 1_000_000, USDCDelta: -500_000,
	}
}

func TestBackfiller_BackfillWallet(t *testing.T) {
	ledgerStore := memory.NewLedgerStore()
	resolutionStore := memory.NewResolutionStore()

	source := &fakeSource{
		pages: [][]*domain.LedgerEvent{
			{buyEvent("e1", "cond-1", 1000), buyEvent("e2", "cond-1", 2000)},
			{buyEvent("e3", "cond-2", 3000)},
		},
		resolutions: map[string]*domain.Resolution{
			"cond-1": {ConditionID: "cond-1", Payouts: []int64{domain.PayoutScale, 0}, ResolvedAt: 5000},
		},
	}

	b := NewBackfiller(BackfillOptions{
		Source:          source,
		LedgerStore:     ledgerStore,
		ResolutionStore: resolutionStore,
		Logger:          zerolog.Nop(),
	})

	result, err := b.BackfillWallet(context.Background(), "0xabc")
	require.NoError(t, err)

	assert.Equal(t, 3, result.EventsIngested)
	assert.Equal(t, 1, result.ResolutionsIngested)
	assert.Equal(t, 2, result.Pages)

	stored, err := ledgerStore.GetByWallet(context.Background(), "0xabc")
	require.NoError(t, err)
	assert.Len(t, stored, 3)

	res, err := resolutionStore.GetByConditionID(context.Background(), "cond-1")
	require.NoError(t, err)
	assert.Equal(t, []int64{domain.PayoutScale, 0}, res.Payouts)
}

func TestBackfiller_SkipsStoredResolutions(t *testing.T) {
	ledgerStore := memory.NewLedgerStore()
	resolutionStore := memory.NewResolutionStore()

	// cond-1 already resolved from an earlier run.
	err := resolutionStore.InsertBulk(context.Background(), []*domain.Resolution{
		{ConditionID: "cond-1", Payouts: []int64{domain.PayoutScale, 0}, ResolvedAt: 100},
	})
	require.NoError(t, err)

	source := &fakeSource{
		pages: [][]*domain.LedgerEvent{
			{buyEvent("e1", "cond-1", 1000)},
		},
		resolutions: map[string]*domain.Resolution{
			"cond-1": {ConditionID: "cond-1", Payouts: []int64{domain.PayoutScale, 0}, ResolvedAt: 100},
		},
	}

	b := NewBackfiller(BackfillOptions{
		Source:          source,
		LedgerStore:     ledgerStore,
		ResolutionStore: resolutionStore,
		Logger:          zerolog.Nop(),
	})

	result, err := b.BackfillWallet(context.Background(), "0xabc")
	require.NoError(t, err)

	// Already-stored resolution is not re-fetched or re-inserted.
	assert.Equal(t, 0, result.ResolutionsIngested)
}

func TestBackfiller_RerunIsSafe(t *testing.T) {
	ledgerStore := memory.NewLedgerStore()
	resolutionStore := memory.NewResolutionStore()

	newSource := func() *fakeSource {
		return &fakeSource{
			pages: [][]*domain.LedgerEvent{
				{buyEvent("e1", "cond-1", 1000)},
			},
		}
	}

	for i := 0; i < 2; i++ {
		b := NewBackfiller(BackfillOptions{
			Source:          newSource(),
			LedgerStore:     ledgerStore,
			ResolutionStore: resolutionStore,
			Logger:          zerolog.Nop(),
		})
		_, err := b.BackfillWallet(context.Background(), "0xabc")
		require.NoError(t, err, "run %d", i)
	}

	// Duplicate rows land in the ledger; the read-path deduper owns them.
	stored, err := ledgerStore.GetByWallet(context.Background(), "0xabc")
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestBackfiller_ManyPages(t *testing.T) {
	ledgerStore := memory.NewLedgerStore()
	resolutionStore := memory.NewResolutionStore()

	var pages [][]*domain.LedgerEvent
	for i := 0; i < 5; i++ {
		pages = append(pages, []*domain.LedgerEvent{
			buyEvent(fmt.Sprintf("e%d", i), "cond-1", int64((i+1)*1000)),
		})
	}

	b := NewBackfiller(BackfillOptions{
		Source:          &fakeSource{pages: pages},
		LedgerStore:     ledgerStore,
		ResolutionStore: resolutionStore,
		Logger:          zerolog.Nop(),
	})

	result, err := b.BackfillWallet(context.Background(), "0xabc")
	require.NoError(t, err)
	assert.Equal(t, 5, result.EventsIngested)
	assert.Equal(t, 5, result.Pages)
}

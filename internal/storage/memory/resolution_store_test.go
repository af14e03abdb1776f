package memory

import (
	"context"
	"errors"
	"testing"

	"polymarket-pnl/internal/domain"
	"polymarket-pnl/internal/storage"
)

func TestResolutionStore_InsertAndGet(t *testing.T) {
	store := NewResolutionStore()
	ctx := context.Background()

	res := &domain.Resolution{
		ConditionID: "cond1",
		Payouts:     []int64{domain.PayoutScale, 0},
		ResolvedAt:  1704067200000,
	}

	if err := store.InsertBulk(ctx, []*domain.Resolution{res}); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByConditionID(ctx, "cond1")
	if err != nil {
		t.Fatalf("GetByConditionID failed: %v", err)
	}

	if got.PayoutFor(0) != domain.PayoutScale {
		t.Errorf("PayoutFor(0) = %d, want %d", got.PayoutFor(0), domain.PayoutScale)
	}
	if got.PayoutFor(1) != 0 {
		t.Errorf("PayoutFor(1) = %d, want 0", got.PayoutFor(1))
	}
}

func TestResolutionStore_NotFound(t *testing.T) {
	store := NewResolutionStore()
	ctx := context.Background()

	_, err := store.GetByConditionID(ctx, "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestResolutionStore_DuplicateKey(t *testing.T) {
	store := NewResolutionStore()
	ctx := context.Background()

	res := &domain.Resolution{ConditionID: "cond1", Payouts: []int64{domain.PayoutScale, 0}}

	if err := store.InsertBulk(ctx, []*domain.Resolution{res}); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.InsertBulk(ctx, []*domain.Resolution{res})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestResolutionStore_BulkRollbackOnDuplicate(t *testing.T) {
	store := NewResolutionStore()
	ctx := context.Background()

	first := &domain.Resolution{ConditionID: "cond1", Payouts: []int64{domain.PayoutScale, 0}}
	if err := store.InsertBulk(ctx, []*domain.Resolution{first}); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	batch := []*domain.Resolution{
		{ConditionID: "cond2", Payouts: []int64{0, domain.PayoutScale}}, // new
		{ConditionID: "cond1", Payouts: []int64{0, domain.PayoutScale}}, // duplicate
	}

	err := store.InsertBulk(ctx, batch)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}

	if _, err := store.GetByConditionID(ctx, "cond2"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected rollback, but cond2 was inserted")
	}
}

func TestResolutionStore_GetByConditionIDs(t *testing.T) {
	store := NewResolutionStore()
	ctx := context.Background()

	batch := []*domain.Resolution{
		{ConditionID: "cond1", Payouts: []int64{domain.PayoutScale, 0}},
		{ConditionID: "cond2", Payouts: []int64{0, domain.PayoutScale}},
	}
	if err := store.InsertBulk(ctx, batch); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, err := store.GetByConditionIDs(ctx, []string{"cond1", "cond2", "unresolved"})
	if err != nil {
		t.Fatalf("GetByConditionIDs failed: %v", err)
	}

	if len(result) != 2 {
		t.Errorf("Expected 2 resolutions, got %d", len(result))
	}
	if _, ok := result["unresolved"]; ok {
		t.Errorf("Unresolved condition should be absent from result map")
	}
}

func TestResolutionStore_CopyOnRead(t *testing.T) {
	store := NewResolutionStore()
	ctx := context.Background()

	res := &domain.Resolution{ConditionID: "cond1", Payouts: []int64{domain.PayoutScale, 0}}
	if err := store.InsertBulk(ctx, []*domain.Resolution{res}); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	first, _ := store.GetByConditionID(ctx, "cond1")
	first.Payouts[0] = 42

	second, _ := store.GetByConditionID(ctx, "cond1")
	if second.Payouts[0] != domain.PayoutScale {
		t.Errorf("Mutation leaked into store: Payouts[0] = %d", second.Payouts[0])
	}
}

package storage

import (
	"context"

	"polymarket-pnl/internal/domain"
)

// LedgerStore provides access to the raw wallet event ledger.
// The engine reads it once per run and never writes back; InsertBulk exists
// for the backfill path only.
type LedgerStore interface {
	// GetByWallet retrieves all ledger rows for a wallet, ordered by
	// timestamp ASC, event_id ASC.
	GetByWallet(ctx context.Context, wallet string) ([]*domain.LedgerEvent, error)

	// GetByWalletTimeRange retrieves rows for a wallet within [start, end]
	// milliseconds (inclusive), same ordering.
	GetByWalletTimeRange(ctx context.Context, wallet string, start, end int64) ([]*domain.LedgerEvent, error)

	// InsertBulk appends ledger rows. The ledger is append-only; rows with
	// an existing event_id are deduplicated at read time, not rejected.
	InsertBulk(ctx context.Context, events []*domain.LedgerEvent) error
}

// ResolutionStore provides access to condition settlement records.
type ResolutionStore interface {
	// GetByConditionID retrieves the resolution for one condition.
	// Returns ErrNotFound for unresolved conditions.
	GetByConditionID(ctx context.Context, conditionID string) (*domain.Resolution, error)

	// GetByConditionIDs retrieves resolutions for the given conditions.
	// Unresolved conditions are simply absent from the result map.
	GetByConditionIDs(ctx context.Context, conditionIDs []string) (map[string]*domain.Resolution, error)

	// InsertBulk appends resolution records (backfill path).
	InsertBulk(ctx context.Context, resolutions []*domain.Resolution) error
}

// ResultStore persists computed wallet results.
type ResultStore interface {
	// Insert adds a computed result. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, r *domain.WalletResult) error

	// GetLatestByWallet retrieves the most recently computed result for a
	// wallet. Returns ErrNotFound if the wallet was never computed.
	GetLatestByWallet(ctx context.Context, wallet string) (*domain.WalletResult, error)
}

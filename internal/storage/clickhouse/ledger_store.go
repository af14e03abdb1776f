package clickhouse

import (
	"context"
	"fmt"

	"polymarket-pnl/internal/domain"
	"polymarket-pnl/internal/storage"
)

// LedgerStore implements storage.LedgerStore using ClickHouse.
// wallet_ledger is a plain MergeTree: ingestion retries produce duplicate
// event_id rows and the read path deduplicates, so inserts never check for
// existing keys.
type LedgerStore struct {
	conn *Conn
}

// NewLedgerStore creates a new LedgerStore.
func NewLedgerStore(conn *Conn) *LedgerStore {
	return &LedgerStore{conn: conn}
}

// Compile-time interface check.
var _ storage.LedgerStore = (*LedgerStore)(nil)

// InsertBulk appends ledger rows in one batch.
func (s *LedgerStore) InsertBulk(ctx context.Context, events []*domain.LedgerEvent) error {
	if len(events) == 0 {
		return nil
	}

	for _, e := range events {
		if e == nil {
			return storage.ErrInvalidInput
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO wallet_ledger (
			event_id, wallet, condition_id, outcome_index, outcome_count,
			kind, timestamp_ms, token_delta, usdc_delta, payout_hint
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, e := range events {
		err = batch.Append(
			e.EventID, e.Wallet, e.ConditionID,
			int32(e.OutcomeIndex), uint8(e.OutcomeCount),
			e.Kind.String(), uint64(e.Timestamp),
			e.TokenDelta, e.USDCDelta, e.PayoutHint,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByWallet retrieves all rows for a wallet, ordered by (timestamp_ms, event_id).
func (s *LedgerStore) GetByWallet(ctx context.Context, wallet string) ([]*domain.LedgerEvent, error) {
	query := `
		SELECT event_id, wallet, condition_id, outcome_index, outcome_count,
		       kind, timestamp_ms, token_delta, usdc_delta, payout_hint
		FROM wallet_ledger
		WHERE wallet = ?
		ORDER BY timestamp_ms ASC, event_id ASC
	`

	rows, err := s.conn.Query(ctx, query, wallet)
	if err != nil {
		return nil, fmt.Errorf("query by wallet: %w", err)
	}
	defer rows.Close()

	return scanLedgerEvents(rows)
}

// GetByWalletTimeRange retrieves rows for a wallet within [start, end]
// milliseconds inclusive, same ordering.
func (s *LedgerStore) GetByWalletTimeRange(ctx context.Context, wallet string, start, end int64) ([]*domain.LedgerEvent, error) {
	query := `
		SELECT event_id, wallet, condition_id, outcome_index, outcome_count,
		       kind, timestamp_ms, token_delta, usdc_delta, payout_hint
		FROM wallet_ledger
		WHERE wallet = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC, event_id ASC
	`

	rows, err := s.conn.Query(ctx, query, wallet, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query by wallet time range: %w", err)
	}
	defer rows.Close()

	return scanLedgerEvents(rows)
}

// scanLedgerEvents scans multiple rows. Unknown kind strings map to
// SourceUnknown; the read-path validator warns and drops them.
func scanLedgerEvents(rows chRows) ([]*domain.LedgerEvent, error) {
	var events []*domain.LedgerEvent

	for rows.Next() {
		var e domain.LedgerEvent
		var outcomeIndex int32
		var outcomeCount uint8
		var kind string
		var timestampMs uint64

		err := rows.Scan(
			&e.EventID, &e.Wallet, &e.ConditionID, &outcomeIndex, &outcomeCount,
			&kind, &timestampMs, &e.TokenDelta, &e.USDCDelta, &e.PayoutHint,
		)
		if err != nil {
			return nil, fmt.Errorf("scan ledger row: %w", err)
		}

		e.OutcomeIndex = int(outcomeIndex)
		e.OutcomeCount = int(outcomeCount)
		e.Kind, _ = domain.ParseSourceKind(kind)
		e.Timestamp = int64(timestampMs)
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger rows: %w", err)
	}

	return events, nil
}

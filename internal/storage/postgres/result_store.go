package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"polymarket-pnl/internal/domain"
	"polymarket-pnl/internal/storage"
)

// ResultStore implements storage.ResultStore using PostgreSQL.
type ResultStore struct {
	pool *Pool
}

// NewResultStore creates a new ResultStore.
func NewResultStore(pool *Pool) *ResultStore {
	return &ResultStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ResultStore = (*ResultStore)(nil)

// Insert adds a computed result. Returns ErrDuplicateKey if run_id exists.
func (s *ResultStore) Insert(ctx context.Context, r *domain.WalletResult) error {
	if r == nil || r.Wallet == "" || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	cashJSON, err := json.Marshal(cashToJSON(r.CashBySource))
	if err != nil {
		return fmt.Errorf("marshal cash_by_source: %w", err)
	}

	warningsJSON, err := json.Marshal(r.Warnings)
	if err != nil {
		return fmt.Errorf("marshal warnings: %w", err)
	}

	query := `
		INSERT INTO wallet_results (
			run_id, wallet, computed_at_ms,
			realized_pnl, unrealized_pnl, total_pnl, cash_flow_pnl,
			gain_sum, loss_sum, volume,
			markets_traded, resolved_markets, open_positions,
			event_count, duplicate_count, synthetic_inferred,
			win_rate, cash_by_source,
			confidence_score, confidence_tier, warnings
		) VALUES (
			$1, $2, $3,
			$4, $5, $6, $7,
			$8, $9, $10,
			$11, $12, $13,
			$14, $15, $16,
			$17, $18,
			$19, $20, $21
		)
	`

	_, err = s.pool.Exec(ctx, query,
		r.RunID, r.Wallet, r.ComputedAt,
		r.RealizedPnL, r.UnrealizedPnL, r.TotalPnL, r.CashFlowPnL,
		r.GainSum, r.LossSum, r.Volume,
		r.MarketsTraded, r.ResolvedMarkets, r.OpenPositions,
		r.EventCount, r.DuplicateCount, r.SyntheticInferred,
		r.WinRate, cashJSON,
		r.ConfidenceScore, string(r.ConfidenceTier), warningsJSON,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert wallet result: %w", err)
	}
	return nil
}

// GetLatestByWallet retrieves the most recently computed result for a
// wallet. Returns ErrNotFound if the wallet was never computed.
func (s *ResultStore) GetLatestByWallet(ctx context.Context, wallet string) (*domain.WalletResult, error) {
	query := `
		SELECT run_id, wallet, computed_at_ms,
		       realized_pnl, unrealized_pnl, total_pnl, cash_flow_pnl,
		       gain_sum, loss_sum, volume,
		       markets_traded, resolved_markets, open_positions,
		       event_count, duplicate_count, synthetic_inferred,
		       win_rate, cash_by_source,
		       confidence_score, confidence_tier, warnings
		FROM wallet_results
		WHERE wallet = $1
		ORDER BY computed_at_ms DESC, run_id DESC
		LIMIT 1
	`

	var r domain.WalletResult
	var tier string
	var cashJSON, warningsJSON []byte

	err := s.pool.QueryRow(ctx, query, wallet).Scan(
		&r.RunID, &r.Wallet, &r.ComputedAt,
		&r.RealizedPnL, &r.UnrealizedPnL, &r.TotalPnL, &r.CashFlowPnL,
		&r.GainSum, &r.LossSum, &r.Volume,
		&r.MarketsTraded, &r.ResolvedMarkets, &r.OpenPositions,
		&r.EventCount, &r.DuplicateCount, &r.SyntheticInferred,
		&r.WinRate, &cashJSON,
		&r.ConfidenceScore, &tier, &warningsJSON,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("query latest wallet result: %w", err)
	}

	r.ConfidenceTier = domain.ConfidenceTier(tier)

	var cash map[string]int64
	if err := json.Unmarshal(cashJSON, &cash); err != nil {
		return nil, fmt.Errorf("unmarshal cash_by_source: %w", err)
	}
	r.CashBySource = cashFromJSON(cash)

	if err := json.Unmarshal(warningsJSON, &r.Warnings); err != nil {
		return nil, fmt.Errorf("unmarshal warnings: %w", err)
	}

	return &r, nil
}

func cashToJSON(cash map[domain.CashBucket]int64) map[string]int64 {
	out := make(map[string]int64, len(cash))
	for k, v := range cash {
		out[string(k)] = v
	}
	return out
}

func cashFromJSON(cash map[string]int64) map[domain.CashBucket]int64 {
	out := make(map[domain.CashBucket]int64, len(cash))
	for k, v := range cash {
		out[domain.CashBucket(k)] = v
	}
	return out
}

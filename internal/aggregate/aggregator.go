// Package aggregate rolls position-level results into wallet-level totals
// and derived statistics.
package aggregate

import (
	"time"

	"polymarket-pnl/internal/confidence"
	"polymarket-pnl/internal/domain"
	"polymarket-pnl/internal/fixedpoint"
)

// Input is everything one wallet run produced before aggregation.
type Input struct {
	Wallet    string
	RunID     string
	Positions []*domain.PositionState

	// Warnings from the reader, deduplicator, and engine, in emission order.
	Warnings []domain.Warning

	EventCount        int
	DuplicateCount    int
	SyntheticInferred int

	Assessment *confidence.Assessment

	// ComputedAt defaults to now when zero; injected by tests for
	// deterministic output.
	ComputedAt int64
}

// Aggregate sums realized/unrealized contributions across all
// (condition, outcome) keys into a WalletResult and derives win rate,
// gain/loss sums, and volume. Deterministic given the same input.
func Aggregate(in Input) *domain.WalletResult {
	r := &domain.WalletResult{
		Wallet:            in.Wallet,
		RunID:             in.RunID,
		ComputedAt:        in.ComputedAt,
		EventCount:        in.EventCount,
		DuplicateCount:    in.DuplicateCount,
		SyntheticInferred: in.SyntheticInferred,
		CashBySource:      make(map[domain.CashBucket]int64),
	}
	if r.ComputedAt == 0 {
		r.ComputedAt = time.Now().UnixMilli()
	}

	conditions := make(map[string]bool) // condition -> touched
	resolved := make(map[string]bool)   // condition -> settled

	var cashSum, remainingValue int64 // for the cash-flow-only view
	var resolvedCount, resolvedWins int

	for _, p := range in.Positions {
		r.RealizedPnL += p.RealizedPnL
		r.UnrealizedPnL += p.UnrealizedPnL
		r.Volume += fixedpoint.Abs(p.CashFlow)

		if p.RealizedPnL > 0 {
			r.GainSum += p.RealizedPnL
		} else {
			r.LossSum += p.RealizedPnL
		}

		for bucket, v := range p.CashBySource {
			r.CashBySource[bucket] += v
		}

		cashSum += p.CashFlow
		if p.Quantity > 0 {
			r.OpenPositions++
			// UnrealizedPnL is quantity*mark - basis, so the mark value of
			// what is still held is unrealized plus basis.
			remainingValue += p.UnrealizedPnL + p.CostBasis
		}

		conditions[p.Key.ConditionID] = true
		if p.Settled {
			resolved[p.Key.ConditionID] = true
			resolvedCount++
			if p.RealizedPnL > 0 {
				resolvedWins++
			}
		}
	}

	r.TotalPnL = r.RealizedPnL + r.UnrealizedPnL
	r.CashFlowPnL = cashSum + remainingValue
	r.MarketsTraded = len(conditions)
	r.ResolvedMarkets = len(resolved)

	if resolvedCount > 0 {
		r.WinRate = float64(resolvedWins) / float64(resolvedCount)
	}

	r.Warnings = append(r.Warnings, in.Warnings...)

	if in.Assessment != nil {
		r.ConfidenceScore = in.Assessment.Score
		r.ConfidenceTier = in.Assessment.Tier
		r.Warnings = append(r.Warnings, in.Assessment.Warnings...)
	} else {
		r.ConfidenceScore = 1.0
		r.ConfidenceTier = domain.ConfidenceHigh
	}

	return r
}

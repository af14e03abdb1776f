package domain

import (
	"polymarket-pnl/internal/fixedpoint"
)

// ConfidenceTier buckets the 0-1 confidence score for human consumption.
type ConfidenceTier string

const (
	ConfidenceHigh   ConfidenceTier = "HIGH"   // score >= 0.9
	ConfidenceMedium ConfidenceTier = "MEDIUM" // score >= 0.7
	ConfidenceLow    ConfidenceTier = "LOW"
)

// TierFor maps a confidence score to its tier.
func TierFor(score float64) ConfidenceTier {
	switch {
	case score >= 0.9:
		return ConfidenceHigh
	case score >= 0.7:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// WalletResult is the wallet-level rollup of one computation run.
// Monetary fields are micro-USD; Report converts them to the two-decimal
// output contract. Deterministic given the same input event set.
type WalletResult struct {
	Wallet     string
	RunID      string
	ComputedAt int64 // unix milliseconds

	RealizedPnL   int64
	UnrealizedPnL int64
	TotalPnL      int64

	// CashFlowPnL is the clearly-labeled secondary cash-flow-only view:
	// sum of cash flows plus the value of remaining inventory, ignoring
	// cost-basis attribution. It is never the source of truth.
	CashFlowPnL int64

	GainSum int64 // sum of positive realized PnL across positions
	LossSum int64 // sum of negative realized PnL across positions (<= 0)
	Volume  int64 // sum of |cash_flow| across positions

	MarketsTraded     int
	ResolvedMarkets   int
	OpenPositions     int
	EventCount        int
	DuplicateCount    int
	SyntheticInferred int // number of synthetic split inferences

	// WinRate is resolved positions with positive realized PnL divided by
	// all resolved positions. Zero when nothing resolved.
	WinRate float64

	CashBySource map[CashBucket]int64

	ConfidenceScore float64
	ConfidenceTier  ConfidenceTier
	Warnings        []Warning
}

// WalletReport is the flat encoded form of WalletResult with currency in
// two-decimal dollars. Field semantics match WalletResult one to one.
type WalletReport struct {
	Wallet     string `json:"wallet"`
	RunID      string `json:"run_id,omitempty"`
	ComputedAt int64  `json:"computed_at_ms"`

	RealizedPnL   float64 `json:"realized_pnl"`
	UnrealizedPnL float64 `json:"unrealized_pnl"`
	TotalPnL      float64 `json:"total_pnl"`
	CashFlowPnL   float64 `json:"cash_flow_pnl"`

	GainSum float64 `json:"gain_sum"`
	LossSum float64 `json:"loss_sum"`
	Volume  float64 `json:"volume"`

	MarketsTraded     int `json:"markets_traded"`
	ResolvedMarkets   int `json:"resolved_markets"`
	OpenPositions     int `json:"open_positions"`
	EventCount        int `json:"event_count"`
	DuplicateCount    int `json:"duplicate_count"`
	SyntheticInferred int `json:"synthetic_inferred"`

	WinRate float64 `json:"win_rate"`

	CashBySource map[string]float64 `json:"cash_by_source"`

	ConfidenceScore float64   `json:"confidence_score"`
	ConfidenceTier  string    `json:"confidence_tier"`
	Warnings        []Warning `json:"warnings,omitempty"`
}

// Report converts the result to its two-decimal output form.
func (r *WalletResult) Report() *WalletReport {
	cash := make(map[string]float64, len(r.CashBySource))
	for _, bucket := range CashBuckets {
		if v, ok := r.CashBySource[bucket]; ok {
			cash[string(bucket)] = fixedpoint.Dollars(v)
		}
	}

	return &WalletReport{
		Wallet:     r.Wallet,
		RunID:      r.RunID,
		ComputedAt: r.ComputedAt,

		RealizedPnL:   fixedpoint.Dollars(r.RealizedPnL),
		UnrealizedPnL: fixedpoint.Dollars(r.UnrealizedPnL),
		TotalPnL:      fixedpoint.Dollars(r.TotalPnL),
		CashFlowPnL:   fixedpoint.Dollars(r.CashFlowPnL),

		GainSum: fixedpoint.Dollars(r.GainSum),
		LossSum: fixedpoint.Dollars(r.LossSum),
		Volume:  fixedpoint.Dollars(r.Volume),

		MarketsTraded:     r.MarketsTraded,
		ResolvedMarkets:   r.ResolvedMarkets,
		OpenPositions:     r.OpenPositions,
		EventCount:        r.EventCount,
		DuplicateCount:    r.DuplicateCount,
		SyntheticInferred: r.SyntheticInferred,

		WinRate: r.WinRate,

		CashBySource: cash,

		ConfidenceScore: r.ConfidenceScore,
		ConfidenceTier:  string(r.ConfidenceTier),
		Warnings:        r.Warnings,
	}
}

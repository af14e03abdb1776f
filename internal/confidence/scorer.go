// Package confidence produces a 0-1 data-quality signal summarizing how much
// of a wallet's activity relies on unmodeled sources. Diagnostic only: it
// never alters computed PnL.
package confidence

import (
	"fmt"

	"polymarket-pnl/internal/domain"
	"polymarket-pnl/internal/fixedpoint"
)

// Config holds the ratio thresholds and the bounded penalty each ratio
// subtracts from the starting score of 1.0 when exceeded.
type Config struct {
	// NonTradeCashThreshold triggers when more than this fraction of the
	// wallet's absolute cash flow came from non-trade sources (splits,
	// merges, redemptions, settlement, synthetic inference).
	NonTradeCashThreshold float64
	NonTradeCashPenalty   float64

	// SyntheticOnlyThreshold triggers when more than this fraction of
	// positions gained inventory only through synthetic inference, i.e.
	// through transfers the ledger never saw.
	SyntheticOnlyThreshold float64
	SyntheticOnlyPenalty   float64

	// UnresolvedThreshold triggers when more than this fraction of
	// positions sits in unresolved conditions.
	UnresolvedThreshold float64
	UnresolvedPenalty   float64

	// MultiwayThreshold triggers when more than this fraction of touched
	// conditions has more than two outcome legs.
	MultiwayThreshold float64
	MultiwayPenalty   float64
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		NonTradeCashThreshold:  0.25,
		NonTradeCashPenalty:    0.15,
		SyntheticOnlyThreshold: 0.05,
		SyntheticOnlyPenalty:   0.25,
		UnresolvedThreshold:    0.50,
		UnresolvedPenalty:      0.10,
		MultiwayThreshold:      0.25,
		MultiwayPenalty:        0.05,
	}
}

// Scorer computes confidence assessments.
type Scorer struct {
	cfg Config
}

// NewScorer creates a scorer. A zero Config gets the defaults.
func NewScorer(cfg Config) *Scorer {
	if cfg == (Config{}) {
		cfg = DefaultConfig()
	}
	return &Scorer{cfg: cfg}
}

// Assessment is the scorer's output for one wallet run.
type Assessment struct {
	Score    float64
	Tier     domain.ConfidenceTier
	Warnings []domain.Warning

	NonTradeCashRatio  float64
	SyntheticOnlyRatio float64
	UnresolvedRatio    float64
	MultiwayRatio      float64
}

// Score assesses the settled positions of one wallet. Each ratio above its
// threshold subtracts its bounded penalty from 1.0; the final score is
// clamped to [0, 1] and mapped to a tier with human-readable warnings.
func (s *Scorer) Score(positions []*domain.PositionState, conditionLegs map[string]int) *Assessment {
	a := &Assessment{Score: 1.0}

	a.NonTradeCashRatio = nonTradeCashRatio(positions)
	a.SyntheticOnlyRatio = syntheticOnlyRatio(positions)
	a.UnresolvedRatio = unresolvedRatio(positions)
	a.MultiwayRatio = multiwayRatio(conditionLegs)

	s.penalize(a, a.NonTradeCashRatio, s.cfg.NonTradeCashThreshold, s.cfg.NonTradeCashPenalty,
		"%.0f%% of absolute cash flow comes from non-trade sources")
	s.penalize(a, a.SyntheticOnlyRatio, s.cfg.SyntheticOnlyThreshold, s.cfg.SyntheticOnlyPenalty,
		"%.0f%% of positions were acquired only through inferred (unobserved) channels")
	s.penalize(a, a.UnresolvedRatio, s.cfg.UnresolvedThreshold, s.cfg.UnresolvedPenalty,
		"%.0f%% of positions sit in unresolved markets and are valued at a mark price")
	s.penalize(a, a.MultiwayRatio, s.cfg.MultiwayThreshold, s.cfg.MultiwayPenalty,
		"%.0f%% of markets have more than two outcomes")

	if a.Score < 0 {
		a.Score = 0
	}
	a.Tier = domain.TierFor(a.Score)
	return a
}

func (s *Scorer) penalize(a *Assessment, ratio, threshold, penalty float64, format string) {
	if ratio <= threshold {
		return
	}
	a.Score -= penalty
	a.Warnings = append(a.Warnings, domain.Warningf(
		domain.WarnConfidence, fmt.Sprintf(format, ratio*100)))
}

// nonTradeCashRatio: fraction of absolute cash flow not from CLOB trades.
func nonTradeCashRatio(positions []*domain.PositionState) float64 {
	var total, nonTrade int64
	for _, p := range positions {
		for bucket, v := range p.CashBySource {
			abs := fixedpoint.Abs(v)
			total += abs
			if bucket != domain.CashTrade {
				nonTrade += abs
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(nonTrade) / float64(total)
}

// syntheticOnlyRatio: fraction of positions whose inventory never came from
// an observed acquisition.
func syntheticOnlyRatio(positions []*domain.PositionState) float64 {
	if len(positions) == 0 {
		return 0
	}
	n := 0
	for _, p := range positions {
		if p.SyntheticQuantity > 0 && !p.TradeAcquired {
			n++
		}
	}
	return float64(n) / float64(len(positions))
}

// unresolvedRatio: fraction of positions that were not settled.
func unresolvedRatio(positions []*domain.PositionState) float64 {
	if len(positions) == 0 {
		return 0
	}
	n := 0
	for _, p := range positions {
		if !p.Settled {
			n++
		}
	}
	return float64(n) / float64(len(positions))
}

// multiwayRatio: fraction of conditions with more than two outcome legs.
func multiwayRatio(conditionLegs map[string]int) float64 {
	if len(conditionLegs) == 0 {
		return 0
	}
	n := 0
	for _, legs := range conditionLegs {
		if legs > 2 {
			n++
		}
	}
	return float64(n) / float64(len(conditionLegs))
}

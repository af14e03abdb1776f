package confidence

import (
	"testing"

	"polymarket-pnl/internal/domain"
)

func cleanPosition(cond string, leg int) *domain.PositionState {
	p := domain.NewPositionState(domain.PositionKey{ConditionID: cond, OutcomeIndex: leg}, 2)
	p.TradeAcquired = true
	p.Settled = true
	p.AddCash(domain.CashTrade, -40_000_000)
	p.AddCash(domain.CashSettlement, 100_000_000)
	return p
}

func TestScorer_CleanWalletScoresHigh(t *testing.T) {
	// One settled, trade-acquired binary position. Settlement cash counts
	// as non-trade, so the non-trade penalty applies even here; everything
	// else stays clean.
	positions := []*domain.PositionState{cleanPosition("c1", 0)}
	legs := map[string]int{"c1": 2}

	a := NewScorer(Config{}).Score(positions, legs)

	if a.SyntheticOnlyRatio != 0 || a.UnresolvedRatio != 0 || a.MultiwayRatio != 0 {
		t.Errorf("clean wallet ratios: %+v", a)
	}
	if a.Score < 0.8 {
		t.Errorf("score = %v, want >= 0.8", a.Score)
	}
}

func TestScorer_TradeOnlyWalletIsPerfect(t *testing.T) {
	p := domain.NewPositionState(domain.PositionKey{ConditionID: "c1"}, 2)
	p.TradeAcquired = true
	p.Settled = true
	p.AddCash(domain.CashTrade, -40_000_000)
	p.AddCash(domain.CashTrade, 60_000_000)

	a := NewScorer(Config{}).Score([]*domain.PositionState{p}, map[string]int{"c1": 2})

	if a.Score != 1.0 {
		t.Errorf("score = %v, want 1.0", a.Score)
	}
	if a.Tier != domain.ConfidenceHigh {
		t.Errorf("tier = %s, want HIGH", a.Tier)
	}
	if len(a.Warnings) != 0 {
		t.Errorf("warnings = %+v, want none", a.Warnings)
	}
}

func TestScorer_SyntheticOnlyPenalty(t *testing.T) {
	p := domain.NewPositionState(domain.PositionKey{ConditionID: "c1", OutcomeIndex: 1}, 2)
	p.SyntheticQuantity = 40_000_000
	p.AddCash(domain.CashSynthetic, -20_000_000)

	a := NewScorer(Config{}).Score([]*domain.PositionState{p}, map[string]int{"c1": 2})

	if a.SyntheticOnlyRatio != 1.0 {
		t.Errorf("synthetic-only ratio = %v, want 1.0", a.SyntheticOnlyRatio)
	}
	found := false
	for _, w := range a.Warnings {
		if w.Code == domain.WarnConfidence {
			found = true
		}
	}
	if !found {
		t.Error("no confidence warning emitted")
	}
	if a.Score >= 1.0 {
		t.Errorf("score = %v, want penalized", a.Score)
	}
}

func TestScorer_UnresolvedPenalty(t *testing.T) {
	open := domain.NewPositionState(domain.PositionKey{ConditionID: "c1"}, 2)
	open.TradeAcquired = true
	open.AddCash(domain.CashTrade, -40_000_000)

	cfg := DefaultConfig()
	a := NewScorer(cfg).Score([]*domain.PositionState{open}, map[string]int{"c1": 2})

	if a.UnresolvedRatio != 1.0 {
		t.Errorf("unresolved ratio = %v, want 1.0", a.UnresolvedRatio)
	}
	want := 1.0 - cfg.UnresolvedPenalty
	if a.Score != want {
		t.Errorf("score = %v, want %v", a.Score, want)
	}
}

func TestScorer_MultiwayPenalty(t *testing.T) {
	a := NewScorer(Config{}).Score(nil, map[string]int{"c1": 3, "c2": 2})
	if a.MultiwayRatio != 0.5 {
		t.Errorf("multiway ratio = %v, want 0.5", a.MultiwayRatio)
	}
	if a.Score >= 1.0 {
		t.Errorf("score = %v, want penalized", a.Score)
	}
}

func TestScorer_ScoreClampedAtZero(t *testing.T) {
	cfg := Config{
		NonTradeCashThreshold: 0.01, NonTradeCashPenalty: 0.6,
		SyntheticOnlyThreshold: 0.01, SyntheticOnlyPenalty: 0.6,
		UnresolvedThreshold: 0.01, UnresolvedPenalty: 0.6,
		MultiwayThreshold: 0.01, MultiwayPenalty: 0.6,
	}

	p := domain.NewPositionState(domain.PositionKey{ConditionID: "c1"}, 3)
	p.SyntheticQuantity = 1
	p.AddCash(domain.CashSynthetic, -1_000_000)

	a := NewScorer(cfg).Score([]*domain.PositionState{p}, map[string]int{"c1": 3})
	if a.Score != 0 {
		t.Errorf("score = %v, want clamped to 0", a.Score)
	}
	if a.Tier != domain.ConfidenceLow {
		t.Errorf("tier = %s, want LOW", a.Tier)
	}
}

func TestScorer_EmptyWallet(t *testing.T) {
	a := NewScorer(Config{}).Score(nil, nil)
	if a.Score != 1.0 || a.Tier != domain.ConfidenceHigh {
		t.Errorf("empty wallet: score=%v tier=%s", a.Score, a.Tier)
	}
}

func TestTierFor(t *testing.T) {
	tests := []struct {
		score float64
		want  domain.ConfidenceTier
	}{
		{1.0, domain.ConfidenceHigh},
		{0.9, domain.ConfidenceHigh},
		{0.89, domain.ConfidenceMedium},
		{0.7, domain.ConfidenceMedium},
		{0.69, domain.ConfidenceLow},
		{0, domain.ConfidenceLow},
	}
	for _, tt := range tests {
		if got := domain.TierFor(tt.score); got != tt.want {
			t.Errorf("TierFor(%v) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

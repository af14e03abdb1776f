package engine

import (
	"fmt"
	"strconv"
	"strings"

	"polymarket-pnl/internal/domain"
	"polymarket-pnl/internal/fixedpoint"
)

// ensureInventory is the single synthetic split inferencer, invoked at every
// disposal site (CLOB sell, merge leg, redemption) before the disposal runs.
//
// A wallet may dispose of more tokens than the ledger shows acquiring when
// the acquisition happened through an unmodeled channel. When disposing
// requested against inventory I < requested, an acquisition of
// (requested - I) is inferred for every outcome leg of the condition at the
// canonical per-leg price 1/outcome_count, immediately before the disposal.
// Inventory stays non-negative by construction and the otherwise-unexplained
// tokens get a defensible cost basis. This is a heuristic, not ground truth
// (the missing acquisition could have been a transfer-in); the confidence
// scorer penalizes wallets where the correction is large.
func (e *Engine) ensureInventory(conditionID string, key domain.PositionKey, requested int64, legs int) {
	held := int64(0)
	if p, ok := e.positions[key]; ok {
		held = p.Quantity
	}
	if held >= requested {
		return
	}

	deficit := requested - held

	// Splitting deficit tokens per leg locks exactly deficit micro-USD of
	// collateral: tokens and collateral share the 1e-6 scale.
	e.applySplit(conditionID, deficit, deficit, legs, domain.CashSynthetic, false)

	e.syntheticCount++
	e.warnf(domain.WarnSyntheticSplit,
		"synthetic split inferred: %s tokens, condition %s",
		formatTokens(deficit), conditionID)
}

// applySplit mints mintedPerLeg tokens on every leg of the condition and
// books the locked collateral at 1/legs per leg. The per-leg basis shares
// sum exactly to lockedTotal; the integer remainder lands on leg 0 so the
// split stays deterministic.
func (e *Engine) applySplit(conditionID string, mintedPerLeg, lockedTotal int64, legs int, bucket domain.CashBucket, observed bool) {
	base := lockedTotal / int64(legs)
	rem := lockedTotal % int64(legs)

	for i := 0; i < legs; i++ {
		share := base
		if i == 0 {
			share += rem
		}

		p := e.position(domain.PositionKey{ConditionID: conditionID, OutcomeIndex: i}, legs)
		p.Quantity += mintedPerLeg
		p.CostBasis += share
		p.AddCash(bucket, -share)

		if observed {
			p.TradeAcquired = true
		} else {
			p.SyntheticQuantity += mintedPerLeg
		}
	}
}

// formatTokens renders a micro-token amount as a decimal token count,
// trimming trailing zeros ("40", "40.5").
func formatTokens(micro int64) string {
	whole := micro / fixedpoint.Scale
	frac := micro % fixedpoint.Scale
	if frac < 0 {
		frac = -frac
	}
	if frac == 0 {
		return strconv.FormatInt(whole, 10)
	}
	s := fmt.Sprintf("%d.%06d", whole, frac)
	return strings.TrimRight(s, "0")
}

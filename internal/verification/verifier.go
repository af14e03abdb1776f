// Package verification checks the accounting invariants of a computed wallet
// run. It re-derives what the engine claims from the position states and
// reports every violation instead of the first, so a broken snapshot can be
// diagnosed in one pass.
package verification

import (
	"fmt"

	"polymarket-pnl/internal/domain"
)

// Violation is one failed invariant.
type Violation struct {
	Invariant string // short invariant name
	Detail    string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Invariant, v.Detail)
}

// Report is the outcome of verifying one wallet run.
type Report struct {
	Violations []Violation
}

// OK reports whether every invariant held.
func (r *Report) OK() bool {
	return len(r.Violations) == 0
}

// Verify checks a wallet result against its position states.
//
// Invariants:
//   - non-negativity: no position holds negative quantity or basis
//   - settled positions hold no inventory and no unrealized value
//   - wallet totals equal the sum over positions
//   - conservation: realized + unrealized equals cash flow plus the value of
//     remaining inventory, per position (synthetic inference books its
//     inferred collateral as cash, so the identity holds even then)
func Verify(result *domain.WalletResult, positions []*domain.PositionState) *Report {
	rep := &Report{}

	var realized, unrealized int64
	for _, p := range positions {
		realized += p.RealizedPnL
		unrealized += p.UnrealizedPnL

		if p.Quantity < 0 {
			rep.add("non-negativity", "condition %s outcome %d: quantity %d < 0",
				p.Key.ConditionID, p.Key.OutcomeIndex, p.Quantity)
		}
		if p.CostBasis < 0 {
			rep.add("non-negativity", "condition %s outcome %d: cost basis %d < 0",
				p.Key.ConditionID, p.Key.OutcomeIndex, p.CostBasis)
		}
		if p.Settled && p.Quantity != 0 {
			rep.add("settlement", "condition %s outcome %d: settled with quantity %d",
				p.Key.ConditionID, p.Key.OutcomeIndex, p.Quantity)
		}
		if p.Settled && p.UnrealizedPnL != 0 {
			rep.add("settlement", "condition %s outcome %d: settled with unrealized pnl %d",
				p.Key.ConditionID, p.Key.OutcomeIndex, p.UnrealizedPnL)
		}

		// Per-position conservation. Remaining value is unrealized + basis
		// (unrealized is quantity*mark - basis); settled positions have no
		// remaining value.
		remaining := int64(0)
		if p.Quantity > 0 {
			remaining = p.UnrealizedPnL + p.CostBasis
		}
		lhs := p.RealizedPnL + p.UnrealizedPnL
		rhs := p.CashFlow + remaining
		if lhs != rhs {
			rep.add("conservation", "condition %s outcome %d: pnl %d != cash %d + remaining %d",
				p.Key.ConditionID, p.Key.OutcomeIndex, lhs, p.CashFlow, remaining)
		}
	}

	if result.RealizedPnL != realized {
		rep.add("totals", "wallet realized %d != position sum %d", result.RealizedPnL, realized)
	}
	if result.UnrealizedPnL != unrealized {
		rep.add("totals", "wallet unrealized %d != position sum %d", result.UnrealizedPnL, unrealized)
	}
	if result.TotalPnL != result.RealizedPnL+result.UnrealizedPnL {
		rep.add("totals", "total pnl %d != realized %d + unrealized %d",
			result.TotalPnL, result.RealizedPnL, result.UnrealizedPnL)
	}

	return rep
}

func (r *Report) add(invariant, format string, args ...any) {
	r.Violations = append(r.Violations, Violation{
		Invariant: invariant,
		Detail:    fmt.Sprintf(format, args...),
	})
}

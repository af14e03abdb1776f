package engine

import (
	"polymarket-pnl/internal/domain"
	"polymarket-pnl/internal/fixedpoint"
)

// Settle converts remaining open positions into realized PnL at market
// settlement and values unresolved positions at the snapshot mark price.
//
// For every position whose condition resolved: realized_pnl gains
// quantity * payout_fraction minus residual cost basis and the quantity is
// zeroed, even without an explicit redemption row. Uncollected losing legs
// still realize their loss, and uncollected winning legs book their payout
// as receivable cash under the settlement bucket so wallet-level
// conservation holds. Re-settling an already-settled position is a no-op.
//
// Positions in unresolved conditions get quantity * mark - cost_basis as
// UnrealizedPnL, never mixed into realized totals.
func (e *Engine) Settle() {
	for _, p := range e.Positions() {
		res, resolved := e.snap.Resolution(p.Key.ConditionID)

		if !resolved {
			if p.Quantity > 0 {
				mark := e.snap.MarkPrice(p.Key)
				p.UnrealizedPnL = fixedpoint.MulScale(p.Quantity, mark) - p.CostBasis
			} else {
				p.UnrealizedPnL = 0
			}
			continue
		}

		if p.Settled {
			continue
		}

		if p.Quantity > 0 {
			payout := fixedpoint.MulScale(p.Quantity, res.PayoutFor(p.Key.OutcomeIndex))
			p.RealizedPnL += payout - p.CostBasis
			if payout != 0 {
				p.AddCash(domain.CashSettlement, payout)
			}
			p.Quantity = 0
			p.CostBasis = 0
		} else if p.CostBasis > 0 {
			// Residual basis with no inventory left: realize the dust.
			p.RealizedPnL -= p.CostBasis
			p.CostBasis = 0
		}

		p.UnrealizedPnL = 0
		p.Settled = true
	}
}

// ResolvedConditions counts how many touched conditions have a resolution
// in the snapshot.
func (e *Engine) ResolvedConditions() int {
	n := 0
	for cond := range e.legs {
		if _, ok := e.snap.Resolution(cond); ok {
			n++
		}
	}
	return n
}

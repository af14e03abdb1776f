// Package engine implements the canonical position state machine: it replays
// a wallet's deduplicated ledger chronologically per (condition, outcome) key,
// maintaining inventory, average-cost basis, and cash flow, and realizes
// profit at each disposal and at market settlement.
package engine

import (
	"fmt"
	"sort"

	"polymarket-pnl/internal/domain"
	"polymarket-pnl/internal/fixedpoint"
)

// Engine holds the state of one wallet's computation run. It is not safe for
// concurrent use; each wallet gets its own Engine (positions are never shared
// across wallets).
type Engine struct {
	snap *Snapshot

	positions map[domain.PositionKey]*domain.PositionState
	legs      map[string]int // condition -> highest leg count observed

	warnings       []domain.Warning
	syntheticCount int
}

// New creates an engine over an immutable per-run snapshot.
func New(snap *Snapshot) *Engine {
	if snap == nil {
		snap = EmptySnapshot()
	}
	return &Engine{
		snap:      snap,
		positions: make(map[domain.PositionKey]*domain.PositionState),
		legs:      make(map[string]int),
	}
}

// Replay applies events in order. Events must already be sorted by
// (timestamp, event_id); out-of-order replay violates the core invariant, so
// the caller sorts before calling.
func (e *Engine) Replay(events []*domain.LedgerEvent) {
	for _, ev := range events {
		e.Apply(ev)
	}
}

// Apply processes a single event. The switch is exhaustive over SourceKind;
// rows the reader let through with an unexpected kind are skipped with a
// warning rather than silently ignored.
func (e *Engine) Apply(ev *domain.LedgerEvent) {
	if ev.ConditionID == "" {
		e.warnf(domain.WarnMalformedEvent, "event %s has no condition_id; skipped", ev.EventID)
		return
	}

	switch ev.Kind {
	case domain.SourceCLOBBuy:
		e.applyBuy(ev)
	case domain.SourceCLOBSell:
		e.applySell(ev)
	case domain.SourceSplit:
		minted := fixedpoint.Abs(ev.TokenDelta)
		locked := fixedpoint.Abs(ev.USDCDelta)
		e.applySplit(ev.ConditionID, minted, locked, e.legsFor(ev), domain.CashSplit, true)
	case domain.SourceMerge:
		e.applyMerge(ev)
	case domain.SourceRedemption:
		e.applyRedemption(ev)
	case domain.SourceUnknown:
		e.warnf(domain.WarnMalformedEvent, "event %s has unknown source_kind; skipped", ev.EventID)
	default:
		e.warnf(domain.WarnMalformedEvent, "event %s has unhandled source_kind %s; skipped", ev.EventID, ev.Kind)
	}
}

// applyBuy: quantity += tokens; cost_basis += |usdc|; cash_flow -= |usdc|.
func (e *Engine) applyBuy(ev *domain.LedgerEvent) {
	key, ok := e.clobKey(ev)
	if !ok {
		return
	}

	p := e.position(key, e.legsFor(ev))
	p.Quantity += fixedpoint.Abs(ev.TokenDelta)
	p.CostBasis += fixedpoint.Abs(ev.USDCDelta)
	p.AddCash(domain.CashTrade, -fixedpoint.Abs(ev.USDCDelta))
	p.TradeAcquired = true
}

// applySell disposes at average cost, clamped to inventory, after synthetic
// split inference covered any deficit.
func (e *Engine) applySell(ev *domain.LedgerEvent) {
	key, ok := e.clobKey(ev)
	if !ok {
		return
	}

	requested := fixedpoint.Abs(ev.TokenDelta)
	proceeds := fixedpoint.Abs(ev.USDCDelta)
	legs := e.legsFor(ev)

	e.ensureInventory(ev.ConditionID, key, requested, legs)
	e.dispose(e.position(key, legs), requested, proceeds, domain.CashTrade)
}

// applyMerge burns one token of every leg; a disposal per leg at average
// cost, proceeds split evenly across legs.
func (e *Engine) applyMerge(ev *domain.LedgerEvent) {
	burned := fixedpoint.Abs(ev.TokenDelta)
	received := fixedpoint.Abs(ev.USDCDelta)
	legs := e.legsFor(ev)

	base := received / int64(legs)
	rem := received % int64(legs)

	for i := 0; i < legs; i++ {
		key := domain.PositionKey{ConditionID: ev.ConditionID, OutcomeIndex: i}
		e.ensureInventory(ev.ConditionID, key, burned, legs)

		share := base
		if i == 0 {
			share += rem
		}
		e.dispose(e.position(key, legs), burned, share, domain.CashMerge)
	}
}

// applyRedemption disposes remaining winning-outcome quantity at the
// resolution payout price. Losing legs of the same condition are auto-zeroed
// by Settle even without a redemption row.
func (e *Engine) applyRedemption(ev *domain.LedgerEvent) {
	key, ok := e.clobKey(ev)
	if !ok {
		return
	}

	requested := fixedpoint.Abs(ev.TokenDelta)
	legs := e.legsFor(ev)

	payout, known := e.payoutPrice(ev)
	proceeds := fixedpoint.Abs(ev.USDCDelta)
	if proceeds == 0 {
		if !known {
			e.warnf(domain.WarnUnknownResolution,
				"redemption %s references condition %s with no known payout; skipped",
				ev.EventID, ev.ConditionID)
			return
		}
		proceeds = fixedpoint.MulScale(requested, payout)
	}

	e.ensureInventory(ev.ConditionID, key, requested, legs)
	e.dispose(e.position(key, legs), requested, proceeds, domain.CashRedemption)
}

// payoutPrice returns the micro-USD-per-token payout for a redemption row:
// the resolution snapshot wins, then the row's own payout hint.
func (e *Engine) payoutPrice(ev *domain.LedgerEvent) (int64, bool) {
	if res, ok := e.snap.Resolution(ev.ConditionID); ok {
		return res.PayoutFor(ev.OutcomeIndex), true
	}
	if ev.PayoutHint != nil {
		return *ev.PayoutHint, true
	}
	return 0, false
}

// dispose sells sellQty = min(requested, quantity) at average cost:
//
//	avg_cost   = cost_basis / quantity
//	realized  += sell_qty * (price - avg_cost)
//	cost_basis -= sell_qty * avg_cost
//	cash_flow += price * sell_qty, scaled proportionally when clamped
func (e *Engine) dispose(p *domain.PositionState, requested, proceeds int64, bucket domain.CashBucket) {
	sellQty := requested
	if sellQty > p.Quantity {
		sellQty = p.Quantity
	}
	if sellQty <= 0 {
		return
	}

	scaled := proceeds
	if sellQty != requested {
		scaled = fixedpoint.MulDiv(proceeds, sellQty, requested)
	}

	costOut := fixedpoint.MulDiv(p.CostBasis, sellQty, p.Quantity)

	p.RealizedPnL += scaled - costOut
	p.CostBasis -= costOut
	p.Quantity -= sellQty
	p.AddCash(bucket, scaled)

	e.clamp(p)
}

// clamp enforces non-negative inventory and basis. Disposals are already
// clamped and inference tops up deficits, so a hit here means the ledger or
// the arithmetic went out of range; the value is zeroed with a warning
// rather than allowed to propagate.
func (e *Engine) clamp(p *domain.PositionState) {
	if p.Quantity < 0 {
		e.warnf(domain.WarnArithmeticAnomaly,
			"negative quantity on condition %s outcome %d clamped to 0",
			p.Key.ConditionID, p.Key.OutcomeIndex)
		p.Quantity = 0
	}
	if p.CostBasis < 0 {
		e.warnf(domain.WarnArithmeticAnomaly,
			"negative cost basis on condition %s outcome %d clamped to 0",
			p.Key.ConditionID, p.Key.OutcomeIndex)
		p.CostBasis = 0
	}
}

// clobKey validates the outcome index of a single-leg event.
func (e *Engine) clobKey(ev *domain.LedgerEvent) (domain.PositionKey, bool) {
	if ev.OutcomeIndex < 0 {
		e.warnf(domain.WarnMalformedEvent,
			"event %s (%s) has invalid outcome index %d; skipped",
			ev.EventID, ev.Kind, ev.OutcomeIndex)
		return domain.PositionKey{}, false
	}
	return ev.Key(), true
}

// legsFor tracks the highest leg count observed for a condition. The
// resolution payout vector is authoritative when present; ledger rows and
// out-of-range outcome indexes can only widen the count.
func (e *Engine) legsFor(ev *domain.LedgerEvent) int {
	legs := e.legs[ev.ConditionID]
	if legs == 0 {
		legs = 2
	}
	if n := ev.Legs(); n > legs {
		legs = n
	}
	if ev.OutcomeIndex >= legs {
		legs = ev.OutcomeIndex + 1
	}
	if res, ok := e.snap.Resolution(ev.ConditionID); ok && res.Legs() > legs {
		legs = res.Legs()
	}
	e.legs[ev.ConditionID] = legs
	return legs
}

// position returns the state for a key, creating it on first touch.
func (e *Engine) position(key domain.PositionKey, outcomeCount int) *domain.PositionState {
	p, ok := e.positions[key]
	if !ok {
		p = domain.NewPositionState(key, outcomeCount)
		e.positions[key] = p
	}
	if outcomeCount > p.OutcomeCount {
		p.OutcomeCount = outcomeCount
	}
	return p
}

// Positions returns all touched positions in deterministic order.
func (e *Engine) Positions() []*domain.PositionState {
	out := make([]*domain.PositionState, 0, len(e.positions))
	for _, p := range e.positions {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key.ConditionID != out[j].Key.ConditionID {
			return out[i].Key.ConditionID < out[j].Key.ConditionID
		}
		return out[i].Key.OutcomeIndex < out[j].Key.OutcomeIndex
	})
	return out
}

// ConditionLegs returns the observed leg count per condition.
func (e *Engine) ConditionLegs() map[string]int {
	out := make(map[string]int, len(e.legs))
	for k, v := range e.legs {
		out[k] = v
	}
	return out
}

// Warnings returns all warnings recorded so far, in emission order.
func (e *Engine) Warnings() []domain.Warning {
	return e.warnings
}

// SyntheticCount returns how many synthetic splits were inferred.
func (e *Engine) SyntheticCount() int {
	return e.syntheticCount
}

func (e *Engine) warnf(code domain.WarningCode, format string, args ...any) {
	e.warnings = append(e.warnings, domain.Warningf(code, fmt.Sprintf(format, args...)))
}

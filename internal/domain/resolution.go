package domain

// PayoutScale is the fixed-point denominator of payout fractions: a payout
// vector sums to PayoutScale (one full dollar per token set).
const PayoutScale = 1_000_000

// Resolution is the immutable settlement record of one condition.
// Corresponds to the condition_resolutions table in ClickHouse. Looked up,
// never mutated.
type Resolution struct {
	ConditionID string
	Payouts     []int64 // per-leg payout fraction in micro-units, sums to PayoutScale
	ResolvedAt  int64   // unix milliseconds
}

// PayoutFor returns the payout fraction (micro-units per token) for an
// outcome leg. Out-of-range legs pay zero; a categorical market can carry
// fewer vector entries than the ledger claims legs.
func (r *Resolution) PayoutFor(outcomeIndex int) int64 {
	if outcomeIndex < 0 || outcomeIndex >= len(r.Payouts) {
		return 0
	}
	return r.Payouts[outcomeIndex]
}

// Legs returns the number of outcome legs encoded in the payout vector.
func (r *Resolution) Legs() int {
	return len(r.Payouts)
}

package domain

// PositionKey uniquely identifies one side of one market for one wallet.
type PositionKey struct {
	ConditionID  string
	OutcomeIndex int
}

// CashBucket labels one slice of a position's cash-flow breakdown.
type CashBucket string

// Cash-flow breakdown buckets. Trade covers CLOB buys and sells; Settlement
// covers payouts realized at resolution without an observed redemption row;
// Synthetic covers collateral inferred for synthetic splits.
const (
	CashTrade      CashBucket = "trade"
	CashSplit      CashBucket = "split"
	CashMerge      CashBucket = "merge"
	CashRedemption CashBucket = "redemption"
	CashSettlement CashBucket = "settlement"
	CashSynthetic  CashBucket = "synthetic"
)

// CashBuckets lists all buckets in deterministic display order.
var CashBuckets = []CashBucket{
	CashTrade, CashSplit, CashMerge, CashRedemption, CashSettlement, CashSynthetic,
}

// PositionState is the accumulated inventory and accounting state of one
// (condition, outcome) key during a single wallet computation run.
// All monetary fields are micro-units. Quantity never goes negative: every
// disposal is preceded by synthetic split inference and clamped.
type PositionState struct {
	Key          PositionKey
	OutcomeCount int

	Quantity    int64 // micro-tokens currently held
	CostBasis   int64 // micro-USD attributed to held quantity
	CashFlow    int64 // cumulative signed micro-USD
	RealizedPnL int64 // micro-USD

	// CashBySource splits CashFlow by origin for the wallet-level breakdown
	// and the confidence scorer.
	CashBySource map[CashBucket]int64

	// SyntheticQuantity is the micro-token amount minted on this leg by
	// synthetic split inference.
	SyntheticQuantity int64

	// TradeAcquired is true once the leg gained inventory from an observed
	// CLOB buy, split, or merge row (anything but inference).
	TradeAcquired bool

	// Settled is true once resolution settlement has been applied.
	// Re-applying settlement to a settled position is a no-op.
	Settled bool

	// UnrealizedPnL is populated by settlement for positions whose
	// condition is unresolved: quantity * mark - cost basis. It is never
	// mixed into RealizedPnL.
	UnrealizedPnL int64
}

// NewPositionState creates an empty position for a key.
func NewPositionState(key PositionKey, outcomeCount int) *PositionState {
	return &PositionState{
		Key:          key,
		OutcomeCount: outcomeCount,
		CashBySource: make(map[CashBucket]int64),
	}
}

// AddCash books a signed cash movement against a bucket.
func (p *PositionState) AddCash(bucket CashBucket, microUSD int64) {
	p.CashFlow += microUSD
	p.CashBySource[bucket] += microUSD
}

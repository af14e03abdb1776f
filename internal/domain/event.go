package domain

import "fmt"

// SourceKind identifies the on-chain origin of a ledger event.
// It is a closed enum: every consumer switches over all values so that a new
// kind fails loudly instead of falling through to "ignored".
type SourceKind uint8

const (
	// SourceUnknown marks rows whose source_kind could not be parsed.
	// The reader filters these out with a malformed_event warning before
	// they reach the engine.
	SourceUnknown SourceKind = iota

	// SourceCLOBBuy is an order fill acquiring outcome tokens for USDC.
	SourceCLOBBuy

	// SourceCLOBSell is an order fill disposing outcome tokens for USDC.
	SourceCLOBSell

	// SourceSplit locks collateral to mint one token of every outcome leg.
	SourceSplit

	// SourceMerge burns one token of every leg to recover collateral.
	SourceMerge

	// SourceRedemption burns winning-outcome tokens for their payout share
	// after the condition resolved.
	SourceRedemption
)

// String returns the wire name of the source kind.
func (k SourceKind) String() string {
	switch k {
	case SourceCLOBBuy:
		return "CLOB_BUY"
	case SourceCLOBSell:
		return "CLOB_SELL"
	case SourceSplit:
		return "SPLIT"
	case SourceMerge:
		return "MERGE"
	case SourceRedemption:
		return "REDEMPTION"
	case SourceUnknown:
		return "UNKNOWN"
	}
	return fmt.Sprintf("SourceKind(%d)", uint8(k))
}

// ParseSourceKind maps a wire name to its SourceKind.
// Unrecognized names map to SourceUnknown with ok=false.
func ParseSourceKind(s string) (SourceKind, bool) {
	switch s {
	case "CLOB_BUY":
		return SourceCLOBBuy, true
	case "CLOB_SELL":
		return SourceCLOBSell, true
	case "SPLIT":
		return SourceSplit, true
	case "MERGE":
		return SourceMerge, true
	case "REDEMPTION":
		return SourceRedemption, true
	}
	return SourceUnknown, false
}

// AllLegsIndex is the OutcomeIndex carried by SPLIT and MERGE rows, which
// move every leg of a condition together.
const AllLegsIndex = -1

// LedgerEvent is one raw row of a wallet's event ledger.
// Corresponds to the wallet_ledger table in ClickHouse.
//
// Monetary and token amounts are signed fixed-point micro-units (1e-6),
// the native precision of USDC and CTF outcome tokens. CLOB events move
// TokenDelta and USDCDelta with opposite economic sign; SPLIT/MERGE rows
// carry OutcomeIndex = AllLegsIndex and a per-leg TokenDelta.
type LedgerEvent struct {
	EventID      string     // globally unique, dedup key
	Wallet       string     // checksummed hex address, lowercased
	ConditionID  string     // hex condition identifier
	OutcomeIndex int        // leg index, or AllLegsIndex for SPLIT/MERGE
	OutcomeCount int        // number of legs of the condition; 0 means unknown (treated as 2)
	Kind         SourceKind // event type
	Timestamp    int64      // unix milliseconds
	TokenDelta   int64      // signed micro-tokens
	USDCDelta    int64      // signed micro-USD
	PayoutHint   *int64     // optional micro-USD-per-token payout carried by REDEMPTION rows
}

// Key returns the position key the event primarily touches.
// SPLIT/MERGE events touch all legs; their Key carries AllLegsIndex.
func (e *LedgerEvent) Key() PositionKey {
	return PositionKey{ConditionID: e.ConditionID, OutcomeIndex: e.OutcomeIndex}
}

// Legs returns the number of outcome legs, defaulting binary markets when
// the ledger row did not carry a count.
func (e *LedgerEvent) Legs() int {
	if e.OutcomeCount < 2 {
		return 2
	}
	return e.OutcomeCount
}

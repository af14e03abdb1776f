package domain

import "errors"

// Computation errors. Everything not listed here is non-fatal and surfaces
// as a Warning on the WalletResult instead of an error.
var (
	// ErrDataUnavailable indicates the backing store was unreachable.
	// Fatal for the affected wallet; callers may retry, the computation is
	// idempotent given the same ledger snapshot.
	ErrDataUnavailable = errors.New("ledger data unavailable")
)

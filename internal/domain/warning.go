package domain

// WarningCode classifies a non-fatal data-quality condition encountered
// during a wallet computation. Warnings accumulate into WalletResult so
// callers can weigh trust alongside the confidence tier; they never abort
// the run.
type WarningCode string

const (
	// WarnMalformedEvent: unknown source_kind or missing condition_id;
	// the event was skipped.
	WarnMalformedEvent WarningCode = "malformed_event"

	// WarnDuplicateConflict: duplicate event_id rows disagreed on their
	// deltas; the first-seen value won.
	WarnDuplicateConflict WarningCode = "duplicate_conflict"

	// WarnSyntheticSplit: a disposal exceeded known inventory and an
	// acquisition was inferred to cover the deficit.
	WarnSyntheticSplit WarningCode = "synthetic_split"

	// WarnArithmeticAnomaly: an accumulator went out of range and was
	// clamped to a safe value.
	WarnArithmeticAnomaly WarningCode = "arithmetic_anomaly"

	// WarnUnknownResolution: a redemption row referenced a condition with
	// no known payout vector and no payout hint; the row was skipped.
	WarnUnknownResolution WarningCode = "unknown_resolution"

	// WarnConfidence: human-readable confidence scorer finding.
	WarnConfidence WarningCode = "confidence"
)

// Warning is one recorded non-fatal condition.
type Warning struct {
	Code    WarningCode `json:"code"`
	Message string      `json:"message"`
}

// Warningf is a small helper building a Warning.
func Warningf(code WarningCode, message string) Warning {
	return Warning{Code: code, Message: message}
}

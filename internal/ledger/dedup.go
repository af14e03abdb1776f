package ledger

import (
	"fmt"

	"polymarket-pnl/internal/domain"
)

// DedupResult carries the deduplicated stream and what was dropped.
type DedupResult struct {
	Events     []*domain.LedgerEvent
	Duplicates int
	Warnings   []domain.Warning
}

// Dedup collapses duplicate rows produced by upstream ingestion retries,
// keyed by event_id. Events must already be in replay order; the first-seen
// row wins. Duplicates that disagree on token or USDC deltas are recorded as
// warnings, never silently dropped.
func Dedup(events []*domain.LedgerEvent) *DedupResult {
	res := &DedupResult{
		Events: make([]*domain.LedgerEvent, 0, len(events)),
	}

	seen := make(map[string]*domain.LedgerEvent, len(events))
	for _, ev := range events {
		first, dup := seen[ev.EventID]
		if !dup {
			seen[ev.EventID] = ev
			res.Events = append(res.Events, ev)
			continue
		}

		res.Duplicates++
		if first.TokenDelta != ev.TokenDelta || first.USDCDelta != ev.USDCDelta {
			res.Warnings = append(res.Warnings, domain.Warningf(
				domain.WarnDuplicateConflict,
				fmt.Sprintf("duplicate rows for event %s disagree on deltas; first-seen value kept", ev.EventID),
			))
		}
	}

	return res
}

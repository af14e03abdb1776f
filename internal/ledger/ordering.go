package ledger

import (
	"sort"

	"polymarket-pnl/internal/domain"
)

// SortEvents orders events by (timestamp ASC, event_id ASC).
// Replay requires strict chronological order; the event_id tie-breaker makes
// reprocessing of same-millisecond rows deterministic and therefore the whole
// computation idempotent.
func SortEvents(events []*domain.LedgerEvent) {
	sort.Slice(events, func(i, j int) bool {
		return Compare(events[i], events[j]) < 0
	})
}

// Compare returns:
//   - negative if a < b
//   - zero if a == b
//   - positive if a > b
//
// Order: (timestamp ASC, event_id ASC).
func Compare(a, b *domain.LedgerEvent) int {
	if a.Timestamp != b.Timestamp {
		if a.Timestamp < b.Timestamp {
			return -1
		}
		return 1
	}
	if a.EventID != b.EventID {
		if a.EventID < b.EventID {
			return -1
		}
		return 1
	}
	return 0
}

// IsSorted reports whether events are already in replay order.
func IsSorted(events []*domain.LedgerEvent) bool {
	for i := 1; i < len(events); i++ {
		if Compare(events[i-1], events[i]) > 0 {
			return false
		}
	}
	return true
}

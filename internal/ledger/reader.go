// Package ledger turns raw stored rows into the deduplicated, strictly
// ordered event stream the position engine replays.
package ledger

import (
	"context"
	"fmt"

	"polymarket-pnl/internal/domain"
	"polymarket-pnl/internal/storage"
)

// Reader fetches a wallet's ledger rows from the analytics store and exposes
// a time-ordered typed event stream. Read-only; no side effects.
type Reader struct {
	store storage.LedgerStore
}

// NewReader creates a reader over a ledger store.
func NewReader(store storage.LedgerStore) *Reader {
	return &Reader{store: store}
}

// FetchResult is the materialized, validated event stream for one wallet.
type FetchResult struct {
	Events   []*domain.LedgerEvent
	Warnings []domain.Warning
}

// Fetch loads all ledger rows for a wallet, drops malformed rows with a
// warning, and returns the rest sorted into replay order. A store failure is
// wrapped as domain.ErrDataUnavailable: fatal for this wallet, retryable by
// the caller.
func (r *Reader) Fetch(ctx context.Context, wallet string) (*FetchResult, error) {
	rows, err := r.store.GetByWallet(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch ledger for %s: %v", domain.ErrDataUnavailable, wallet, err)
	}

	res := &FetchResult{Events: make([]*domain.LedgerEvent, 0, len(rows))}
	for _, ev := range rows {
		if w, ok := validate(ev); !ok {
			res.Warnings = append(res.Warnings, w)
			continue
		}
		res.Events = append(res.Events, ev)
	}

	// Stores return rows ordered by (timestamp, event_id) already; sorting
	// again is cheap on sorted input and keeps the replay invariant local.
	if !IsSorted(res.Events) {
		SortEvents(res.Events)
	}

	return res, nil
}

// validate checks one row; malformed rows are skipped with a warning.
func validate(ev *domain.LedgerEvent) (domain.Warning, bool) {
	if ev.ConditionID == "" {
		return domain.Warningf(domain.WarnMalformedEvent,
			fmt.Sprintf("event %s has no condition_id; skipped", ev.EventID)), false
	}

	switch ev.Kind {
	case domain.SourceCLOBBuy, domain.SourceCLOBSell,
		domain.SourceSplit, domain.SourceMerge, domain.SourceRedemption:
		return domain.Warning{}, true
	case domain.SourceUnknown:
		return domain.Warningf(domain.WarnMalformedEvent,
			fmt.Sprintf("event %s has unsupported source_kind; skipped", ev.EventID)), false
	}
	return domain.Warningf(domain.WarnMalformedEvent,
		fmt.Sprintf("event %s has unsupported source_kind %s; skipped", ev.EventID, ev.Kind)), false
}

// Package memory provides in-memory store implementations for tests and
// the -use-memory pipeline mode. All stores are safe for concurrent use
// and copy domain objects on both insert and read.
package memory

import (
	"context"
	"sort"
	"sync"

	"polymarket-pnl/internal/domain"
	"polymarket-pnl/internal/storage"
)

// LedgerStore is an in-memory implementation of storage.LedgerStore.
// The ledger is append-only: duplicate event IDs are accepted and left for
// the read-path deduplicator, matching the production ClickHouse table.
type LedgerStore struct {
	mu   sync.RWMutex
	data []*domain.LedgerEvent
}

// NewLedgerStore creates a new in-memory ledger store.
func NewLedgerStore() *LedgerStore {
	return &LedgerStore{
		data: make([]*domain.LedgerEvent, 0),
	}
}

// InsertBulk appends ledger rows. Duplicates are not rejected.
func (s *LedgerStore) InsertBulk(_ context.Context, events []*domain.LedgerEvent) error {
	if len(events) == 0 {
		return nil
	}

	for _, e := range events {
		if e == nil {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range events {
		s.data = append(s.data, copyEvent(e))
	}

	return nil
}

// GetByWallet retrieves all rows for a wallet, ordered by (timestamp, event_id).
func (s *LedgerStore) GetByWallet(_ context.Context, wallet string) ([]*domain.LedgerEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.LedgerEvent
	for _, e := range s.data {
		if e.Wallet == wallet {
			result = append(result, copyEvent(e))
		}
	}

	sortLedgerEvents(result)

	return result, nil
}

// GetByWalletTimeRange retrieves rows for a wallet within [start, end]
// milliseconds inclusive, same ordering.
func (s *LedgerStore) GetByWalletTimeRange(_ context.Context, wallet string, start, end int64) ([]*domain.LedgerEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.LedgerEvent
	for _, e := range s.data {
		if e.Wallet == wallet && e.Timestamp >= start && e.Timestamp <= end {
			result = append(result, copyEvent(e))
		}
	}

	sortLedgerEvents(result)

	return result, nil
}

// copyEvent deep-copies an event, including the optional payout hint.
func copyEvent(e *domain.LedgerEvent) *domain.LedgerEvent {
	copy := *e
	if e.PayoutHint != nil {
		hint := *e.PayoutHint
		copy.PayoutHint = &hint
	}
	return &copy
}

// sortLedgerEvents sorts events by (timestamp, event_id).
func sortLedgerEvents(events []*domain.LedgerEvent) {
	sort.Slice(events, func(i, j int) bool {
		if events[i].Timestamp != events[j].Timestamp {
			return events[i].Timestamp < events[j].Timestamp
		}
		return events[i].EventID < events[j].EventID
	})
}

// Verify interface compliance at compile time.
var _ storage.LedgerStore = (*LedgerStore)(nil)

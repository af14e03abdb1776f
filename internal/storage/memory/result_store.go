package memory

import (
	"context"
	"sync"

	"polymarket-pnl/internal/domain"
	"polymarket-pnl/internal/storage"
)

// ResultStore is an in-memory implementation of storage.ResultStore.
type ResultStore struct {
	mu     sync.RWMutex
	data   []*domain.WalletResult
	runIDs map[string]bool
}

// NewResultStore creates a new in-memory result store.
func NewResultStore() *ResultStore {
	return &ResultStore{
		data:   make([]*domain.WalletResult, 0),
		runIDs: make(map[string]bool),
	}
}

// Insert adds a computed result. Returns ErrDuplicateKey if run_id exists.
func (s *ResultStore) Insert(_ context.Context, r *domain.WalletResult) error {
	if r == nil || r.Wallet == "" || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.runIDs[r.RunID] {
		return storage.ErrDuplicateKey
	}

	s.data = append(s.data, copyResult(r))
	s.runIDs[r.RunID] = true

	return nil
}

// GetLatestByWallet retrieves the most recently computed result for a
// wallet, breaking ComputedAt ties by insertion order. Returns ErrNotFound
// if the wallet was never computed.
func (s *ResultStore) GetLatestByWallet(_ context.Context, wallet string) (*domain.WalletResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.WalletResult
	for _, r := range s.data {
		if r.Wallet != wallet {
			continue
		}
		if latest == nil || r.ComputedAt >= latest.ComputedAt {
			latest = r
		}
	}

	if latest == nil {
		return nil, storage.ErrNotFound
	}

	return copyResult(latest), nil
}

// copyResult deep-copies a result, including cash buckets and warnings.
func copyResult(r *domain.WalletResult) *domain.WalletResult {
	copy := *r

	copy.CashBySource = make(map[domain.CashBucket]int64, len(r.CashBySource))
	for k, v := range r.CashBySource {
		copy.CashBySource[k] = v
	}

	copy.Warnings = make([]domain.Warning, len(r.Warnings))
	for i, w := range r.Warnings {
		copy.Warnings[i] = w
	}

	return &copy
}

// Verify interface compliance at compile time.
var _ storage.ResultStore = (*ResultStore)(nil)

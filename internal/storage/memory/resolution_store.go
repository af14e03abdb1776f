package memory

import (
	"context"
	"sync"

	"polymarket-pnl/internal/domain"
	"polymarket-pnl/internal/storage"
)

// ResolutionStore is an in-memory implementation of storage.ResolutionStore.
type ResolutionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Resolution
}

// NewResolutionStore creates a new in-memory resolution store.
func NewResolutionStore() *ResolutionStore {
	return &ResolutionStore{
		data: make(map[string]*domain.Resolution),
	}
}

// InsertBulk adds resolution records. Returns ErrDuplicateKey if any
// condition_id already exists; the batch is all-or-nothing.
func (s *ResolutionStore) InsertBulk(_ context.Context, resolutions []*domain.Resolution) error {
	if len(resolutions) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batch := make(map[string]bool)
	for _, r := range resolutions {
		if r == nil || r.ConditionID == "" {
			return storage.ErrInvalidInput
		}
		if _, ok := s.data[r.ConditionID]; ok || batch[r.ConditionID] {
			return storage.ErrDuplicateKey
		}
		batch[r.ConditionID] = true
	}

	for _, r := range resolutions {
		s.data[r.ConditionID] = copyResolution(r)
	}

	return nil
}

// GetByConditionID retrieves one resolution. Returns ErrNotFound for
// unresolved conditions.
func (s *ResolutionStore) GetByConditionID(_ context.Context, conditionID string) (*domain.Resolution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.data[conditionID]
	if !ok {
		return nil, storage.ErrNotFound
	}

	return copyResolution(r), nil
}

// GetByConditionIDs retrieves resolutions for the given conditions.
// Unresolved conditions are absent from the result map.
func (s *ResolutionStore) GetByConditionIDs(_ context.Context, conditionIDs []string) (map[string]*domain.Resolution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]*domain.Resolution)
	for _, id := range conditionIDs {
		if r, ok := s.data[id]; ok {
			result[id] = copyResolution(r)
		}
	}

	return result, nil
}

// copyResolution deep-copies a resolution, including the payout vector.
func copyResolution(r *domain.Resolution) *domain.Resolution {
	copy := *r
	copy.Payouts = make([]int64, len(r.Payouts))
	for i, p := range r.Payouts {
		copy.Payouts[i] = p
	}
	return &copy
}

// Verify interface compliance at compile time.
var _ storage.ResolutionStore = (*ResolutionStore)(nil)

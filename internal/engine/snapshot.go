package engine

import "polymarket-pnl/internal/domain"

// DefaultMarkPrice is the fallback unrealized-value proxy for unresolved
// positions when no live mark is available: $0.50 in micro-units.
const DefaultMarkPrice = 500_000

// Snapshot is the immutable per-run view of resolution and mark-price data.
// It is constructed once, before replay begins, and shared read-only across
// all positions of the wallet; no component mutates it afterwards, so no
// locking is needed.
type Snapshot struct {
	resolutions map[string]*domain.Resolution
	marks       map[domain.PositionKey]int64
	defaultMark int64
}

// NewSnapshot builds a snapshot from already-fetched data. Nil maps are
// treated as empty; a non-positive defaultMark falls back to DefaultMarkPrice.
func NewSnapshot(resolutions map[string]*domain.Resolution, marks map[domain.PositionKey]int64, defaultMark int64) *Snapshot {
	if resolutions == nil {
		resolutions = map[string]*domain.Resolution{}
	}
	if marks == nil {
		marks = map[domain.PositionKey]int64{}
	}
	if defaultMark <= 0 {
		defaultMark = DefaultMarkPrice
	}
	return &Snapshot{
		resolutions: resolutions,
		marks:       marks,
		defaultMark: defaultMark,
	}
}

// EmptySnapshot returns a snapshot with no resolutions and the default mark.
func EmptySnapshot() *Snapshot {
	return NewSnapshot(nil, nil, 0)
}

// Resolution returns the settlement record for a condition, if resolved.
func (s *Snapshot) Resolution(conditionID string) (*domain.Resolution, bool) {
	r, ok := s.resolutions[conditionID]
	return r, ok
}

// MarkPrice returns the micro-USD mark for a position key, falling back to
// the snapshot default when no live mark was captured.
func (s *Snapshot) MarkPrice(key domain.PositionKey) int64 {
	if m, ok := s.marks[key]; ok && m > 0 {
		return m
	}
	return s.defaultMark
}

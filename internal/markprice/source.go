// Package markprice supplies mark prices used as the unrealized-value proxy
// for positions in unresolved markets. Prices feed the per-run snapshot and
// are never consulted mid-replay.
package markprice

import (
	"context"

	"polymarket-pnl/internal/domain"
	"polymarket-pnl/internal/engine"
)

// Source returns the micro-USD mark for one outcome leg. ok=false means the
// source has no price for the key; lookup failures are soft, the snapshot
// default covers the gap.
type Source interface {
	Price(ctx context.Context, conditionID string, outcomeIndex int) (price int64, ok bool, err error)
}

// Static always returns a fixed mark. A zero Mark means "no price", which
// lets the snapshot default ($0.50) apply.
type Static struct {
	Mark int64
}

// Price implements Source.
func (s Static) Price(_ context.Context, _ string, _ int) (int64, bool, error) {
	if s.Mark <= 0 {
		return 0, false, nil
	}
	return s.Mark, true, nil
}

var _ Source = Static{}

// CollectMarks flattens a source into the immutable per-run price map for
// the given open position keys. Errors from the source are soft: the key is
// simply left to the snapshot default.
func CollectMarks(ctx context.Context, src Source, keys []domain.PositionKey) map[domain.PositionKey]int64 {
	marks := make(map[domain.PositionKey]int64, len(keys))
	if src == nil {
		return marks
	}
	for _, key := range keys {
		price, ok, err := src.Price(ctx, key.ConditionID, key.OutcomeIndex)
		if err != nil || !ok {
			continue
		}
		marks[key] = price
	}
	return marks
}

// Snapshot builds the engine snapshot for one run from already-fetched
// resolutions and a mark source.
func Snapshot(ctx context.Context, resolutions map[string]*domain.Resolution, src Source, keys []domain.PositionKey, defaultMark int64) *engine.Snapshot {
	return engine.NewSnapshot(resolutions, CollectMarks(ctx, src, keys), defaultMark)
}

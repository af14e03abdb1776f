package ingestion

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"polymarket-pnl/internal/domain"
	"polymarket-pnl/internal/storage"
)

// ActivitySource abstracts the subgraph for testing.
type ActivitySource interface {
	FetchActivity(ctx context.Context, wallet string, since int64, first int) ([]*domain.LedgerEvent, bool, error)
	FetchResolutions(ctx context.Context, conditionIDs []string) ([]*domain.Resolution, error)
}

// Backfiller pages wallet activity out of the subgraph into the ledger
// store, then pulls resolutions for every condition the wallet touched.
type Backfiller struct {
	source          ActivitySource
	ledgerStore     storage.LedgerStore
	resolutionStore storage.ResolutionStore
	pageSize        int
	logger          zerolog.Logger
}

// BackfillOptions contains configuration for creating a Backfiller.
type BackfillOptions struct {
	Source          ActivitySource
	LedgerStore     storage.LedgerStore
	ResolutionStore storage.ResolutionStore

	// PageSize is the subgraph page limit; 0 means 1000 (the subgraph
	// maximum).
	PageSize int

	Logger zerolog.Logger
}

// NewBackfiller creates a new wallet activity backfiller.
func NewBackfiller(opts BackfillOptions) *Backfiller {
	pageSize := opts.PageSize
	if pageSize <= 0 || pageSize > 1000 {
		pageSize = 1000
	}

	return &Backfiller{
		source:          opts.Source,
		ledgerStore:     opts.LedgerStore,
		resolutionStore: opts.ResolutionStore,
		pageSize:        pageSize,
		logger:          opts.Logger,
	}
}

// BackfillResult contains statistics from a backfill operation.
type BackfillResult struct {
	EventsIngested      int
	ResolutionsIngested int
	Pages               int
	Duration            time.Duration
}

// BackfillWallet ingests the full history of one wallet. The ledger is
// append-only, so re-running over the same range lands duplicate rows that
// the read path collapses; the operation is safe to repeat.
func (b *Backfiller) BackfillWallet(ctx context.Context, wallet string) (*BackfillResult, error) {
	start := time.Now()
	result := &BackfillResult{}
	conditions := make(map[string]struct{})

	// Page forward by timestamp. Cursor is unix seconds; a full page whose
	// last event shares the cursor timestamp still advances by one second,
	// trading a missed same-second tail row for guaranteed termination.
	var cursor int64
	for {
		events, full, err := b.source.FetchActivity(ctx, wallet, cursor, b.pageSize)
		if err != nil {
			return result, fmt.Errorf("fetch activity page at %d: %w", cursor, err)
		}
		result.Pages++

		if len(events) > 0 {
			if err := b.ledgerStore.InsertBulk(ctx, events); err != nil {
				return result, fmt.Errorf("store ledger events: %w", err)
			}
			result.EventsIngested += len(events)

			for _, ev := range events {
				conditions[ev.ConditionID] = struct{}{}
			}
		}

		if !full {
			break
		}

		next := maxTimestampSec(events)
		if next <= cursor {
			next = cursor + 1
		}
		cursor = next
	}

	ingested, err := b.backfillResolutions(ctx, conditions)
	if err != nil {
		return result, err
	}
	result.ResolutionsIngested = ingested

	result.Duration = time.Since(start)
	b.logger.Info().
		Str("wallet", wallet).
		Int("events", result.EventsIngested).
		Int("resolutions", result.ResolutionsIngested).
		Int("pages", result.Pages).
		Dur("elapsed", result.Duration).
		Msg("backfill complete")

	return result, nil
}

// backfillResolutions fetches and stores resolutions for conditions not yet
// recorded. Already-stored conditions are filtered out first since the
// resolution store rejects whole batches on duplicates.
func (b *Backfiller) backfillResolutions(ctx context.Context, conditions map[string]struct{}) (int, error) {
	if len(conditions) == 0 {
		return 0, nil
	}

	ids := make([]string, 0, len(conditions))
	for id := range conditions {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	existing, err := b.resolutionStore.GetByConditionIDs(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("check existing resolutions: %w", err)
	}

	var missing []string
	for _, id := range ids {
		if _, ok := existing[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return 0, nil
	}

	resolutions, err := b.source.FetchResolutions(ctx, missing)
	if err != nil {
		return 0, fmt.Errorf("fetch resolutions: %w", err)
	}
	if len(resolutions) == 0 {
		return 0, nil
	}

	if err := b.resolutionStore.InsertBulk(ctx, resolutions); err != nil {
		return 0, fmt.Errorf("store resolutions: %w", err)
	}

	return len(resolutions), nil
}

func maxTimestampSec(events []*domain.LedgerEvent) int64 {
	var max int64
	for _, ev := range events {
		if sec := ev.Timestamp / 1000; sec > max {
			max = sec
		}
	}
	return max
}

// Package runner coordinates one wallet computation end to end:
// fetch -> dedup -> replay -> settle -> aggregate -> confidence.
// A single wallet runs as a pure, synchronous batch job; multiple wallets
// run concurrently under a bounded worker pool since their state is
// disjoint and the stores tolerate concurrent reads.
package runner

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"polymarket-pnl/internal/aggregate"
	"polymarket-pnl/internal/confidence"
	"polymarket-pnl/internal/domain"
	"polymarket-pnl/internal/engine"
	"polymarket-pnl/internal/ledger"
	"polymarket-pnl/internal/markprice"
	"polymarket-pnl/internal/observability"
	"polymarket-pnl/internal/storage"
	"polymarket-pnl/internal/verification"
)

// DefaultWorkers bounds concurrent wallet computations.
const DefaultWorkers = 10

// Options for creating a Runner.
type Options struct {
	// Required stores.
	LedgerStore     storage.LedgerStore
	ResolutionStore storage.ResolutionStore

	// ResultStore persists computed results when set; nil disables
	// persistence.
	ResultStore storage.ResultStore

	// MarkSource supplies live marks for unresolved positions; nil falls
	// back to the snapshot default of $0.50.
	MarkSource markprice.Source

	// DefaultMark overrides the $0.50 fallback (micro-USD) when positive.
	DefaultMark int64

	// Confidence overrides the scorer thresholds; zero value uses defaults.
	Confidence confidence.Config

	// Workers bounds ComputeWallets concurrency; <= 0 means DefaultWorkers.
	Workers int

	Logger  zerolog.Logger
	Metrics *observability.Metrics
}

// Runner computes wallet PnL results.
type Runner struct {
	ledgerStore     storage.LedgerStore
	resolutionStore storage.ResolutionStore
	resultStore     storage.ResultStore
	marks           markprice.Source
	defaultMark     int64
	scorer          *confidence.Scorer
	workers         int
	logger          zerolog.Logger
	metrics         *observability.Metrics
}

// New creates a Runner.
func New(opts Options) *Runner {
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Runner{
		ledgerStore:     opts.LedgerStore,
		resolutionStore: opts.ResolutionStore,
		resultStore:     opts.ResultStore,
		marks:           opts.MarkSource,
		defaultMark:     opts.DefaultMark,
		scorer:          confidence.NewScorer(opts.Confidence),
		workers:         workers,
		logger:          opts.Logger,
		metrics:         opts.Metrics,
	}
}

// ComputeWallet computes the full WalletResult for one wallet. The run is
// idempotent given the same ledger snapshot; callers wanting a timeout wrap
// ctx, no mid-replay cancellation exists because a single wallet completes
// in time proportional to its event count.
func (r *Runner) ComputeWallet(ctx context.Context, wallet string) (*domain.WalletResult, error) {
	started := time.Now()

	// Phase 1: fetch and order the event stream.
	fetched, err := ledger.NewReader(r.ledgerStore).Fetch(ctx, wallet)
	if err != nil {
		return nil, err
	}

	// Phase 2: collapse ingestion-retry duplicates.
	deduped := ledger.Dedup(fetched.Events)

	// Phase 3: snapshot resolutions and marks before replay begins.
	snap, err := r.buildSnapshot(ctx, deduped.Events)
	if err != nil {
		return nil, err
	}

	// Phase 4: replay and settle.
	eng := engine.New(snap)
	eng.Replay(deduped.Events)
	eng.Settle()

	positions := eng.Positions()

	// Phase 5: score and aggregate.
	assessment := r.scorer.Score(positions, eng.ConditionLegs())

	warnings := make([]domain.Warning, 0,
		len(fetched.Warnings)+len(deduped.Warnings)+len(eng.Warnings()))
	warnings = append(warnings, fetched.Warnings...)
	warnings = append(warnings, deduped.Warnings...)
	warnings = append(warnings, eng.Warnings()...)

	result := aggregate.Aggregate(aggregate.Input{
		Wallet:            wallet,
		RunID:             uuid.NewString(),
		Positions:         positions,
		Warnings:          warnings,
		EventCount:        len(deduped.Events),
		DuplicateCount:    deduped.Duplicates,
		SyntheticInferred: eng.SyntheticCount(),
		Assessment:        assessment,
	})

	// Self-check the accounting invariants before the result leaves the run.
	if rep := verification.Verify(result, positions); !rep.OK() {
		for _, v := range rep.Violations {
			r.logger.Error().Str("wallet", wallet).Str("invariant", v.Invariant).
				Str("detail", v.Detail).Msg("accounting invariant violated")
			result.Warnings = append(result.Warnings,
				domain.Warningf(domain.WarnArithmeticAnomaly, v.String()))
		}
	}

	if r.resultStore != nil {
		if err := r.resultStore.Insert(ctx, result); err != nil {
			return nil, fmt.Errorf("persist result for %s: %w", wallet, err)
		}
	}

	r.observe(wallet, result, time.Since(started))
	return result, nil
}

// ComputeWallets computes many wallets under the bounded worker pool.
// The first fatal error cancels remaining work; completed results are
// returned alongside it so partial progress is not lost.
func (r *Runner) ComputeWallets(ctx context.Context, wallets []string) (map[string]*domain.WalletResult, error) {
	results := make(map[string]*domain.WalletResult, len(wallets))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for _, wallet := range wallets {
		g.Go(func() error {
			res, err := r.ComputeWallet(gctx, wallet)
			if err != nil {
				return fmt.Errorf("wallet %s: %w", wallet, err)
			}
			mu.Lock()
			results[wallet] = res
			mu.Unlock()
			return nil
		})
	}

	err := g.Wait()
	return results, err
}

// buildSnapshot loads resolutions for every touched condition and flattens
// mark prices for every touched leg, once, before replay.
func (r *Runner) buildSnapshot(ctx context.Context, events []*domain.LedgerEvent) (*engine.Snapshot, error) {
	conditionIDs, keys := touched(events)

	resolutions, err := r.resolutionStore.GetByConditionIDs(ctx, conditionIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch resolutions: %v", domain.ErrDataUnavailable, err)
	}

	// Only unresolved legs need a mark.
	var openKeys []domain.PositionKey
	for _, key := range keys {
		if _, ok := resolutions[key.ConditionID]; !ok {
			openKeys = append(openKeys, key)
		}
	}

	return markprice.Snapshot(ctx, resolutions, r.marks, openKeys, r.defaultMark), nil
}

// touched extracts the distinct condition IDs and single-leg position keys
// of an event stream, in deterministic order.
func touched(events []*domain.LedgerEvent) ([]string, []domain.PositionKey) {
	condSet := make(map[string]struct{})
	keySet := make(map[domain.PositionKey]struct{})

	for _, ev := range events {
		condSet[ev.ConditionID] = struct{}{}
		legs := ev.Legs()
		if ev.OutcomeIndex == domain.AllLegsIndex {
			for i := 0; i < legs; i++ {
				keySet[domain.PositionKey{ConditionID: ev.ConditionID, OutcomeIndex: i}] = struct{}{}
			}
			continue
		}
		keySet[ev.Key()] = struct{}{}
	}

	conditions := make([]string, 0, len(condSet))
	for c := range condSet {
		conditions = append(conditions, c)
	}
	sort.Strings(conditions)

	keys := make([]domain.PositionKey, 0, len(keySet))
	for k := range keySet {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].ConditionID != keys[j].ConditionID {
			return keys[i].ConditionID < keys[j].ConditionID
		}
		return keys[i].OutcomeIndex < keys[j].OutcomeIndex
	})

	return conditions, keys
}

func (r *Runner) observe(wallet string, result *domain.WalletResult, elapsed time.Duration) {
	r.logger.Info().
		Str("wallet", wallet).
		Int("events", result.EventCount).
		Int("markets", result.MarketsTraded).
		Int("synthetic", result.SyntheticInferred).
		Float64("confidence", result.ConfidenceScore).
		Dur("elapsed", elapsed).
		Msg("wallet computed")

	if r.metrics != nil {
		r.metrics.RecordWalletComputed(elapsed.Seconds(), result)
	}
}

package clickhouse

import (
	"context"
	"fmt"

	"polymarket-pnl/internal/domain"
	"polymarket-pnl/internal/storage"
)

// ResolutionStore implements storage.ResolutionStore using ClickHouse.
// Resolutions are written once per condition; inserts check for existing
// rows explicitly since MergeTree does not enforce uniqueness.
type ResolutionStore struct {
	conn *Conn
}

// NewResolutionStore creates a new ResolutionStore.
func NewResolutionStore(conn *Conn) *ResolutionStore {
	return &ResolutionStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ResolutionStore = (*ResolutionStore)(nil)

// InsertBulk adds resolution records. Fails the entire batch with
// ErrDuplicateKey if any condition_id exists.
func (s *ResolutionStore) InsertBulk(ctx context.Context, resolutions []*domain.Resolution) error {
	if len(resolutions) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	seen := make(map[string]struct{})
	for _, r := range resolutions {
		if r == nil || r.ConditionID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := seen[r.ConditionID]; exists {
			return storage.ErrDuplicateKey
		}
		seen[r.ConditionID] = struct{}{}
	}

	// Check for duplicates against existing DB rows
	for _, r := range resolutions {
		exists, err := s.exists(ctx, r.ConditionID)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO condition_resolutions (
			condition_id, payouts, resolved_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range resolutions {
		if err := batch.Append(r.ConditionID, r.Payouts, uint64(r.ResolvedAt)); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByConditionID retrieves one resolution. Returns ErrNotFound for
// unresolved conditions.
func (s *ResolutionStore) GetByConditionID(ctx context.Context, conditionID string) (*domain.Resolution, error) {
	query := `
		SELECT condition_id, payouts, resolved_at
		FROM condition_resolutions
		WHERE condition_id = ?
		LIMIT 1
	`

	var r domain.Resolution
	var resolvedAt uint64
	err := s.conn.QueryRow(ctx, query, conditionID).Scan(&r.ConditionID, &r.Payouts, &resolvedAt)
	if err != nil {
		if isNoRowsError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("query by condition id: %w", err)
	}

	r.ResolvedAt = int64(resolvedAt)
	return &r, nil
}

// GetByConditionIDs retrieves resolutions for the given conditions.
// Unresolved conditions are absent from the result map.
func (s *ResolutionStore) GetByConditionIDs(ctx context.Context, conditionIDs []string) (map[string]*domain.Resolution, error) {
	result := make(map[string]*domain.Resolution)
	if len(conditionIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT condition_id, payouts, resolved_at
		FROM condition_resolutions
		WHERE condition_id IN (?)
	`

	rows, err := s.conn.Query(ctx, query, conditionIDs)
	if err != nil {
		return nil, fmt.Errorf("query by condition ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r domain.Resolution
		var resolvedAt uint64
		if err := rows.Scan(&r.ConditionID, &r.Payouts, &resolvedAt); err != nil {
			return nil, fmt.Errorf("scan resolution row: %w", err)
		}
		r.ResolvedAt = int64(resolvedAt)
		result[r.ConditionID] = &r
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate resolution rows: %w", err)
	}

	return result, nil
}

// exists checks if a resolution for the condition exists.
func (s *ResolutionStore) exists(ctx context.Context, conditionID string) (bool, error) {
	query := `
		SELECT count(*) FROM condition_resolutions
		WHERE condition_id = ?
	`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, conditionID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

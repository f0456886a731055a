package clickhouse

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"circularity-lab/internal/domain"
	"circularity-lab/internal/storage"
)

// TrialStore implements storage.TrialStore using ClickHouse.
type TrialStore struct {
	conn *Conn
}

// NewTrialStore creates a new TrialStore.
func NewTrialStore(conn *Conn) *TrialStore {
	return &TrialStore{conn: conn}
}

// Compile-time interface check.
var _ storage.TrialStore = (*TrialStore)(nil)

// InsertTrials appends the trial counts of one run.
func (s *TrialStore) InsertTrials(ctx context.Context, runID string, seed int64, trials []domain.TrialCounts) error {
	if len(trials) == 0 {
		return nil
	}
	id, err := uuid.Parse(runID)
	if err != nil {
		return fmt.Errorf("parse run id: %w", storage.ErrInvalidInput)
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO null_model_trials (
			run_id, seed, trial, loops, cycles, cycles_len3, cycles_len4, cycles_len5
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for i, t := range trials {
		err = batch.Append(
			id, seed, uint32(i),
			uint32(t.Loops), uint32(t.Cycles),
			uint32(t.Cycles3), uint32(t.Cycles4), uint32(t.Cycles5),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetTrials reads back all trial counts for a run, ordered by trial index.
func (s *TrialStore) GetTrials(ctx context.Context, runID string) ([]domain.TrialCounts, error) {
	id, err := uuid.Parse(runID)
	if err != nil {
		return nil, fmt.Errorf("parse run id: %w", storage.ErrInvalidInput)
	}

	rows, err := s.conn.Query(ctx, `
		SELECT loops, cycles, cycles_len3, cycles_len4, cycles_len5
		FROM null_model_trials
		WHERE run_id = ?
		ORDER BY trial
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query trials: %w", err)
	}
	defer rows.Close()

	var out []domain.TrialCounts
	for rows.Next() {
		var loops, cycles, c3, c4, c5 uint32
		if err := rows.Scan(&loops, &cycles, &c3, &c4, &c5); err != nil {
			return nil, fmt.Errorf("scan trial: %w", err)
		}
		out = append(out, domain.TrialCounts{
			Loops:   int(loops),
			Cycles:  int(cycles),
			Cycles3: int(c3),
			Cycles4: int(c4),
			Cycles5: int(c5),
		})
	}
	return out, rows.Err()
}

package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"runbot/internal/domain/entities"
	"runbot/internal/ports/output"
)

var _ output.KeyPopRepository = (*KeyPopRepository)(nil)

// KeyPopRepository implements output.KeyPopRepository on PostgreSQL.
type KeyPopRepository struct {
	db DB
}

func NewKeyPopRepository(db DB) *KeyPopRepository {
	return &KeyPopRepository{db: db}
}

func (r *KeyPopRepository) InsertSnapshot(ctx context.Context, snap *entities.KeyPopSnapshot) error {
	// ON CONFLICT DO NOTHING keeps the snapshot write-once under a
	// crash-and-retry of the same pop.
	_, err := r.db.Exec(ctx,
		`INSERT INTO key_pop_snapshots (run_id, pop_number, user_ids, captured_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (run_id, pop_number) DO NOTHING`,
		snap.RunID, snap.PopNumber, snap.UserIDs,
		pgtype.Timestamptz{Time: snap.CapturedAt, Valid: true},
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

func (r *KeyPopRepository) FindSnapshot(ctx context.Context, runID string, popNumber int) (*entities.KeyPopSnapshot, error) {
	row := r.db.QueryRow(ctx,
		`SELECT run_id, pop_number, user_ids, captured_at
		 FROM key_pop_snapshots WHERE run_id = $1 AND pop_number = $2`,
		runID, popNumber,
	)
	var (
		snap       entities.KeyPopSnapshot
		capturedAt pgtype.Timestamptz
	)
	err := row.Scan(&snap.RunID, &snap.PopNumber, &snap.UserIDs, &capturedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("snapshot %d of run %s not found", popNumber, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("scan snapshot: %w", err)
	}
	snap.CapturedAt = pgtypeTimestamptzToTime(capturedAt)
	return &snap, nil
}

package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"runbot/internal/domain/entities"
	"runbot/internal/ports/output"
)

var _ output.LedgerRepository = (*LedgerRepository)(nil)

// LedgerRepository implements output.LedgerRepository on PostgreSQL. One
// settlement batch is one transaction; the settlement record's primary key
// arbitrates concurrent attempts, so exactly one transaction commits credit
// for a given (run, pop).
type LedgerRepository struct {
	db DB
}

func NewLedgerRepository(db DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) SettlementExists(ctx context.Context, runID string, popNumber int) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM settlement_records WHERE run_id = $1 AND pop_number = $2)`,
		runID, popNumber,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check settlement record: %w", err)
	}
	return exists, nil
}

func (r *LedgerRepository) RecordSettlement(ctx context.Context, batch output.SettlementBatch) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin settlement: %w", err)
	}
	defer tx.Rollback(ctx)

	settledAt := pgtype.Timestamptz{Time: batch.SettledAt, Valid: true}
	tag, err := tx.Exec(ctx,
		`INSERT INTO settlement_records (run_id, pop_number, settled_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (run_id, pop_number) DO NOTHING`,
		batch.RunID, batch.PopNumber, settledAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert settlement record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Another caller settled this pop first; the rollback discards nothing.
		return false, nil
	}

	for _, credit := range batch.Credits {
		_, err := tx.Exec(ctx,
			`INSERT INTO completion_credits (run_id, pop_number, user_id, points, credited_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			credit.RunID, credit.PopNumber, credit.UserID, credit.Points,
			pgtype.Timestamptz{Time: credit.CreditedAt, Valid: true},
		)
		if err != nil {
			return false, fmt.Errorf("insert credit for %s: %w", credit.UserID, err)
		}
	}

	ev := batch.Organizer
	_, err = tx.Exec(ctx,
		`INSERT INTO organizer_events (run_id, organizer_id, kind, pop_number, participants, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		ev.RunID, ev.OrganizerID, ev.Kind, ev.PopNumber, ev.Participants,
		pgtype.Timestamptz{Time: ev.CreatedAt, Valid: true},
	)
	if err != nil {
		return false, fmt.Errorf("insert organizer event: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit settlement: %w", err)
	}
	return true, nil
}

func (r *LedgerRepository) InsertOrganizerEvent(ctx context.Context, ev *entities.OrganizerEvent) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO organizer_events (run_id, organizer_id, kind, pop_number, participants, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		ev.RunID, ev.OrganizerID, ev.Kind, ev.PopNumber, ev.Participants,
		pgtype.Timestamptz{Time: ev.CreatedAt, Valid: true},
	)
	if err != nil {
		return fmt.Errorf("insert organizer event: %w", err)
	}
	return nil
}

package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"runbot/internal/domain"
	"runbot/internal/domain/entities"
	"runbot/internal/ports/output"
)

var _ output.ParticipantRepository = (*ParticipantRepository)(nil)

// ParticipantRepository implements output.ParticipantRepository on
// PostgreSQL. Every write re-checks that the target run is not ended inside
// the statement itself; a racing close makes the write match nothing.
type ParticipantRepository struct {
	db DB
}

func NewParticipantRepository(db DB) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

func (r *ParticipantRepository) Join(ctx context.Context, runID, userID string, at time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`INSERT INTO run_participants (run_id, user_id, state, attribute, created_at, updated_at)
		 SELECT $1, $2, $3, '', $4, $4
		 WHERE EXISTS (SELECT 1 FROM runs WHERE id = $1 AND status <> $5)
		 ON CONFLICT (run_id, user_id)
		 DO UPDATE SET state = $3, updated_at = $4`,
		runID, userID, domain.ParticipantJoined,
		pgtype.Timestamptz{Time: at, Valid: true}, domain.RunEnded,
	)
	if err != nil {
		return false, fmt.Errorf("upsert participant: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *ParticipantRepository) SetAttribute(ctx context.Context, runID, userID, attribute string, at time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`INSERT INTO run_participants (run_id, user_id, state, attribute, created_at, updated_at)
		 SELECT $1, $2, $3, $4, $5, $5
		 WHERE EXISTS (SELECT 1 FROM runs WHERE id = $1 AND status <> $6)
		 ON CONFLICT (run_id, user_id)
		 DO UPDATE SET state = $3, attribute = $4, updated_at = $5`,
		runID, userID, domain.ParticipantJoined, attribute,
		pgtype.Timestamptz{Time: at, Valid: true}, domain.RunEnded,
	)
	if err != nil {
		return false, fmt.Errorf("upsert participant attribute: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *ParticipantRepository) MarkLeft(ctx context.Context, runID, userID string, at time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE run_participants p SET state = $3, updated_at = $4
		 FROM runs r
		 WHERE p.run_id = $1 AND p.user_id = $2 AND p.state = $5
		   AND r.id = p.run_id AND r.status <> $6`,
		runID, userID, domain.ParticipantLeft,
		pgtype.Timestamptz{Time: at, Valid: true},
		domain.ParticipantJoined, domain.RunEnded,
	)
	if err != nil {
		return false, fmt.Errorf("mark participant left: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *ParticipantRepository) Find(ctx context.Context, runID, userID string) (*entities.ParticipantEntry, error) {
	row := r.db.QueryRow(ctx,
		`SELECT run_id, user_id, state, attribute, created_at, updated_at
		 FROM run_participants WHERE run_id = $1 AND user_id = $2`,
		runID, userID,
	)
	var (
		entry     entities.ParticipantEntry
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)
	err := row.Scan(&entry.RunID, &entry.UserID, &entry.State, &entry.Attribute, &createdAt, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan participant: %w", err)
	}
	entry.CreatedAt = pgtypeTimestamptzToTime(createdAt)
	entry.UpdatedAt = pgtypeTimestamptzToTime(updatedAt)
	return &entry, nil
}

func (r *ParticipantRepository) ListJoined(ctx context.Context, runID string) ([]entities.ParticipantEntry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT run_id, user_id, state, attribute, created_at, updated_at
		 FROM run_participants
		 WHERE run_id = $1 AND state = $2
		 ORDER BY created_at`,
		runID, domain.ParticipantJoined,
	)
	if err != nil {
		return nil, fmt.Errorf("query joined participants: %w", err)
	}
	defer rows.Close()
	var out []entities.ParticipantEntry
	for rows.Next() {
		var (
			entry     entities.ParticipantEntry
			createdAt pgtype.Timestamptz
			updatedAt pgtype.Timestamptz
		)
		if err := rows.Scan(&entry.RunID, &entry.UserID, &entry.State, &entry.Attribute, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		entry.CreatedAt = pgtypeTimestamptzToTime(createdAt)
		entry.UpdatedAt = pgtypeTimestamptzToTime(updatedAt)
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate participants: %w", err)
	}
	return out, nil
}

func (r *ParticipantRepository) CountJoined(ctx context.Context, runID string) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM run_participants WHERE run_id = $1 AND state = $2`,
		runID, domain.ParticipantJoined,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count joined participants: %w", err)
	}
	return count, nil
}

func (r *ParticipantRepository) CountJoinedByAttribute(ctx context.Context, runID string) (map[string]int64, error) {
	rows, err := r.db.Query(ctx,
		`SELECT attribute, COUNT(*) FROM run_participants
		 WHERE run_id = $1 AND state = $2 AND attribute <> ''
		 GROUP BY attribute`,
		runID, domain.ParticipantJoined,
	)
	if err != nil {
		return nil, fmt.Errorf("count participants by attribute: %w", err)
	}
	defer rows.Close()
	out := make(map[string]int64)
	for rows.Next() {
		var (
			attribute string
			count     int64
		)
		if err := rows.Scan(&attribute, &count); err != nil {
			return nil, fmt.Errorf("scan attribute count: %w", err)
		}
		out[attribute] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attribute counts: %w", err)
	}
	return out, nil
}

func (r *ParticipantRepository) ToggleOffer(ctx context.Context, runID, userID, offerType string, at time.Time) (bool, bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, false, fmt.Errorf("begin toggle offer: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`DELETE FROM run_offers o USING runs r
		 WHERE o.run_id = $1 AND o.user_id = $2 AND o.offer_type = $3
		   AND r.id = o.run_id AND r.status <> $4`,
		runID, userID, offerType, domain.RunEnded,
	)
	if err != nil {
		return false, false, fmt.Errorf("delete offer: %w", err)
	}
	if tag.RowsAffected() == 1 {
		if err := tx.Commit(ctx); err != nil {
			return false, false, fmt.Errorf("commit toggle offer: %w", err)
		}
		return false, true, nil
	}

	tag, err = tx.Exec(ctx,
		`INSERT INTO run_offers (run_id, user_id, offer_type, created_at)
		 SELECT $1, $2, $3, $4
		 WHERE EXISTS (SELECT 1 FROM runs WHERE id = $1 AND status <> $5)
		 ON CONFLICT (run_id, user_id, offer_type) DO NOTHING`,
		runID, userID, offerType,
		pgtype.Timestamptz{Time: at, Valid: true}, domain.RunEnded,
	)
	if err != nil {
		return false, false, fmt.Errorf("insert offer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Neither the delete nor the insert matched: the run is ended.
		return false, false, nil
	}
	if err := tx.Commit(ctx); err != nil {
		return false, false, fmt.Errorf("commit toggle offer: %w", err)
	}
	return true, true, nil
}

func (r *ParticipantRepository) ListOffers(ctx context.Context, runID string) (map[string][]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT offer_type, user_id FROM run_offers
		 WHERE run_id = $1 ORDER BY offer_type, created_at`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query offers: %w", err)
	}
	defer rows.Close()
	out := make(map[string][]string)
	for rows.Next() {
		var offerType, userID string
		if err := rows.Scan(&offerType, &userID); err != nil {
			return nil, fmt.Errorf("scan offer: %w", err)
		}
		out[offerType] = append(out[offerType], userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate offers: %w", err)
	}
	return out, nil
}

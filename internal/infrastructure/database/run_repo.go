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

var _ output.RunRepository = (*RunRepository)(nil)

// RunRepository implements output.RunRepository on PostgreSQL. Status
// transitions are conditional UPDATEs whose WHERE clause re-checks the
// expected state, so a stale read can never produce a lost update.
type RunRepository struct {
	db DB
}

func NewRunRepository(db DB) *RunRepository {
	return &RunRepository{db: db}
}

const runColumns = `id, guild_id, organizer_id, activity_key, status, key_pop_count,
	key_window_ends_at, chain_amount, party, location, description, auto_end_minutes,
	channel_id, message_id, created_at, started_at, ended_at, updated_at`

func (r *RunRepository) Create(ctx context.Context, run *entities.Run) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO runs (
			id, guild_id, organizer_id, activity_key, status, key_pop_count,
			key_window_ends_at, chain_amount, party, location, description,
			auto_end_minutes, channel_id, message_id, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$15)`,
		run.ID,
		run.GuildID,
		run.OrganizerID,
		run.ActivityKey,
		run.Status,
		run.KeyPopCount,
		timestamptzOrNull(run.KeyWindowEndsAt),
		int4OrNull(run.ChainAmount),
		run.Party,
		run.Location,
		run.Description,
		run.AutoEndMinutes,
		run.ChannelID,
		run.MessageID,
		pgtype.Timestamptz{Time: run.CreatedAt, Valid: true},
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func (r *RunRepository) FindByID(ctx context.Context, id string) (*entities.Run, error) {
	row := r.db.QueryRow(ctx, `SELECT `+runColumns+` FROM runs WHERE id = $1`, id)
	return scanRun(row)
}

func (r *RunRepository) FindByMessageID(ctx context.Context, messageID string) (*entities.Run, error) {
	row := r.db.QueryRow(ctx, `SELECT `+runColumns+` FROM runs WHERE message_id = $1`, messageID)
	return scanRun(row)
}

func (r *RunRepository) FindActiveByOrganizer(ctx context.Context, guildID, organizerID string) (*entities.Run, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+runColumns+` FROM runs
		 WHERE guild_id = $1 AND organizer_id = $2 AND status <> $3
		 ORDER BY created_at DESC LIMIT 1`,
		guildID, organizerID, domain.RunEnded,
	)
	return scanRun(row)
}

func (r *RunRepository) FindExpired(ctx context.Context, now time.Time) ([]entities.Run, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+runColumns+` FROM runs
		 WHERE status <> $1
		   AND auto_end_minutes > 0
		   AND created_at + make_interval(mins => auto_end_minutes) < $2`,
		domain.RunEnded, pgtype.Timestamptz{Time: now, Valid: true},
	)
	if err != nil {
		return nil, fmt.Errorf("query expired runs: %w", err)
	}
	defer rows.Close()
	return scanRuns(rows)
}

func (r *RunRepository) MarkLive(ctx context.Context, id string, at time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE runs SET status = $2, started_at = $3, updated_at = $3
		 WHERE id = $1 AND status = $4`,
		id, domain.RunLive, pgtype.Timestamptz{Time: at, Valid: true}, domain.RunOpen,
	)
	if err != nil {
		return false, fmt.Errorf("mark run live: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *RunRepository) MarkEnded(ctx context.Context, id string, at time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE runs SET status = $2, ended_at = $3, updated_at = $3
		 WHERE id = $1 AND status = $4`,
		id, domain.RunEnded, pgtype.Timestamptz{Time: at, Valid: true}, domain.RunLive,
	)
	if err != nil {
		return false, fmt.Errorf("mark run ended: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *RunRepository) ForceEnd(ctx context.Context, id string, at time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE runs SET status = $2, ended_at = $3, updated_at = $3
		 WHERE id = $1 AND status <> $2`,
		id, domain.RunEnded, pgtype.Timestamptz{Time: at, Valid: true},
	)
	if err != nil {
		return false, fmt.Errorf("force end run: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *RunRepository) AdvanceKeyPop(ctx context.Context, id string, fromCount int, windowEndsAt time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE runs SET key_pop_count = key_pop_count + 1, key_window_ends_at = $3, updated_at = now()
		 WHERE id = $1 AND status = $4 AND key_pop_count = $2`,
		id, fromCount, pgtype.Timestamptz{Time: windowEndsAt, Valid: true}, domain.RunLive,
	)
	if err != nil {
		return false, fmt.Errorf("advance key pop: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *RunRepository) SetMessage(ctx context.Context, id, channelID, messageID string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE runs SET channel_id = $2, message_id = $3, updated_at = now() WHERE id = $1`,
		id, channelID, messageID,
	)
	if err != nil {
		return fmt.Errorf("set run message: %w", err)
	}
	return nil
}

func scanRun(row pgx.Row) (*entities.Run, error) {
	var (
		run             entities.Run
		keyWindowEndsAt pgtype.Timestamptz
		chainAmount     pgtype.Int4
		createdAt       pgtype.Timestamptz
		startedAt       pgtype.Timestamptz
		endedAt         pgtype.Timestamptz
		updatedAt       pgtype.Timestamptz
	)
	err := row.Scan(
		&run.ID, &run.GuildID, &run.OrganizerID, &run.ActivityKey, &run.Status,
		&run.KeyPopCount, &keyWindowEndsAt, &chainAmount, &run.Party, &run.Location,
		&run.Description, &run.AutoEndMinutes, &run.ChannelID, &run.MessageID,
		&createdAt, &startedAt, &endedAt, &updatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}
	run.KeyWindowEndsAt = pgtypeTimestamptzToTime(keyWindowEndsAt)
	run.ChainAmount = pgtypeInt4ToInt(chainAmount)
	run.CreatedAt = pgtypeTimestamptzToTime(createdAt)
	run.StartedAt = pgtypeTimestamptzToTime(startedAt)
	run.EndedAt = pgtypeTimestamptzToTime(endedAt)
	run.UpdatedAt = pgtypeTimestamptzToTime(updatedAt)
	return &run, nil
}

func scanRuns(rows pgx.Rows) ([]entities.Run, error) {
	var out []entities.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return out, nil
}

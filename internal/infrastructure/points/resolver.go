package points

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"runbot/internal/infrastructure/database"
	"runbot/internal/ports/output"
)

var _ output.PointsResolver = (*Resolver)(nil)

// Resolver resolves completion point values from the activity_points table:
// a per-guild, per-activity override with a flat default when no row exists.
// The per-user parameter is accepted for the port's sake and unused here;
// user-specific overrides stay behind the interface.
type Resolver struct {
	db            database.DB
	defaultPoints int64
}

func NewResolver(db database.DB, defaultPoints int64) *Resolver {
	return &Resolver{db: db, defaultPoints: defaultPoints}
}

func (r *Resolver) PointsFor(ctx context.Context, guildID, activityKey, userID string) (int64, error) {
	var points int64
	err := r.db.QueryRow(ctx,
		`SELECT points FROM activity_points WHERE guild_id = $1 AND activity_key = $2`,
		guildID, activityKey,
	).Scan(&points)
	if errors.Is(err, pgx.ErrNoRows) {
		return r.defaultPoints, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query activity points: %w", err)
	}
	return points, nil
}

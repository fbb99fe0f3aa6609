package output

import "context"

// PointsResolver resolves the completion point value credited to one user
// for one settled clear. The formula behind it is configuration-driven and
// out of the core's scope; implementations may ignore userID when no
// per-user override applies.
type PointsResolver interface {
	PointsFor(ctx context.Context, guildID, activityKey, userID string) (int64, error)
}

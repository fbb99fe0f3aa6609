package output

import (
	"context"
	"time"

	"runbot/internal/domain/entities"
)

// ParticipantRepository persists run participation. All mutating operations
// are conditioned on the run not being ended (ok=false when it is), so no
// entry is ever created or changed after a run reaches its terminal state.
type ParticipantRepository interface {
	// Join upserts an entry to state joined, preserving any attribute.
	Join(ctx context.Context, runID, userID string, at time.Time) (bool, error)
	// SetAttribute is an implicit join plus attribute set.
	SetAttribute(ctx context.Context, runID, userID, attribute string, at time.Time) (bool, error)
	// MarkLeft flips a joined entry to left. ok=false when the run ended or
	// the user has no joined entry.
	MarkLeft(ctx context.Context, runID, userID string, at time.Time) (bool, error)
	Find(ctx context.Context, runID, userID string) (*entities.ParticipantEntry, error)
	ListJoined(ctx context.Context, runID string) ([]entities.ParticipantEntry, error)
	CountJoined(ctx context.Context, runID string) (int64, error)
	CountJoinedByAttribute(ctx context.Context, runID string) (map[string]int64, error)
	// ToggleOffer flips the per-(run,user,offerType) signal; enabled is the
	// state after the flip.
	ToggleOffer(ctx context.Context, runID, userID, offerType string, at time.Time) (enabled bool, ok bool, err error)
	// ListOffers groups user ids per offer type.
	ListOffers(ctx context.Context, runID string) (map[string][]string, error)
}

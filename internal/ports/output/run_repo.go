package output

import (
	"context"
	"time"

	"runbot/internal/domain/entities"
)

// RunRepository persists runs. Status transitions are conditional writes
// keyed by run id: they report ok=false instead of mutating when the run is
// no longer in the expected state, so status gates hold at write time and not
// only at request validation time.
type RunRepository interface {
	Create(ctx context.Context, run *entities.Run) error
	FindByID(ctx context.Context, id string) (*entities.Run, error)
	FindByMessageID(ctx context.Context, messageID string) (*entities.Run, error)
	FindActiveByOrganizer(ctx context.Context, guildID, organizerID string) (*entities.Run, error)
	// FindExpired lists non-ended runs older than their configured duration.
	FindExpired(ctx context.Context, now time.Time) ([]entities.Run, error)
	// MarkLive moves open -> live and sets startedAt.
	MarkLive(ctx context.Context, id string, at time.Time) (bool, error)
	// MarkEnded moves live -> ended and sets endedAt.
	MarkEnded(ctx context.Context, id string, at time.Time) (bool, error)
	// ForceEnd moves any non-ended status -> ended (cancel and system paths).
	ForceEnd(ctx context.Context, id string, at time.Time) (bool, error)
	// AdvanceKeyPop increments keyPopCount from fromCount and opens a new key
	// window, only while the run is live and the count still equals fromCount.
	AdvanceKeyPop(ctx context.Context, id string, fromCount int, windowEndsAt time.Time) (bool, error)
	SetMessage(ctx context.Context, id, channelID, messageID string) error
}

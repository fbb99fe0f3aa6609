package output

import (
	"context"
	"time"

	"runbot/internal/domain/entities"
)

// SettlementBatch is everything one settlement writes: per-user credits, the
// organizer aggregate event and the settlement record itself.
type SettlementBatch struct {
	RunID     string
	PopNumber int
	SettledAt time.Time
	Credits   []entities.CompletionCredit
	Organizer entities.OrganizerEvent
}

// LedgerRepository persists completion credit. RecordSettlement must apply a
// batch as a single all-or-nothing unit and use the settlement record's
// (runID, popNumber) uniqueness to resolve concurrent attempts: exactly one
// caller observes inserted=true, every other observes inserted=false with no
// partial writes.
type LedgerRepository interface {
	SettlementExists(ctx context.Context, runID string, popNumber int) (bool, error)
	RecordSettlement(ctx context.Context, batch SettlementBatch) (inserted bool, err error)
	InsertOrganizerEvent(ctx context.Context, ev *entities.OrganizerEvent) error
}

package application

import (
	"context"
	"fmt"
	"time"

	"runbot/internal/domain/entities"
	"runbot/internal/ports/output"
)

// AttributionEngine settles completion credit for key pop snapshots. Each
// settlement is idempotent via the settlement record and applied as one
// all-or-nothing batch; callers treat a failed settlement as "degrade to
// no-credit" and never let it block a run status write.
type AttributionEngine struct {
	pops         output.KeyPopRepository
	ledger       output.LedgerRepository
	participants output.ParticipantRepository
	points       output.PointsResolver
	now          func() time.Time
}

func NewAttributionEngine(
	pops output.KeyPopRepository,
	ledger output.LedgerRepository,
	participants output.ParticipantRepository,
	points output.PointsResolver,
) *AttributionEngine {
	return &AttributionEngine{
		pops:         pops,
		ledger:       ledger,
		participants: participants,
		points:       points,
		now:          time.Now,
	}
}

// Settle credits the users frozen in snapshot popNumber exactly once.
// Returns the number of users credited; 0 when the pop was already settled
// by a concurrent caller.
func (e *AttributionEngine) Settle(ctx context.Context, run *entities.Run, popNumber int) (int, error) {
	exists, err := e.ledger.SettlementExists(ctx, run.ID, popNumber)
	if err != nil {
		return 0, fmt.Errorf("check settlement: %w", err)
	}
	if exists {
		return 0, nil
	}
	snap, err := e.pops.FindSnapshot(ctx, run.ID, popNumber)
	if err != nil {
		return 0, fmt.Errorf("load snapshot %d: %w", popNumber, err)
	}
	return e.settleUsers(ctx, run, popNumber, snap.UserIDs, entities.OrganizerEventPopSettled)
}

// Finalize settles whatever is still open when a run reaches ended: the
// trailing pop, or, for a run that never popped, a one-shot fallback credit
// of every currently-joined participant (recorded as pop 0) so organizers of
// pop-less activities are not penalized by the snapshot mechanism.
func (e *AttributionEngine) Finalize(ctx context.Context, run *entities.Run) (int, error) {
	if run.KeyPopCount > 0 {
		return e.Settle(ctx, run, run.KeyPopCount)
	}
	exists, err := e.ledger.SettlementExists(ctx, run.ID, 0)
	if err != nil {
		return 0, fmt.Errorf("check fallback settlement: %w", err)
	}
	if exists {
		return 0, nil
	}
	joined, err := e.participants.ListJoined(ctx, run.ID)
	if err != nil {
		return 0, fmt.Errorf("list joined: %w", err)
	}
	userIDs := make([]string, len(joined))
	for i := range joined {
		userIDs[i] = joined[i].UserID
	}
	return e.settleUsers(ctx, run, 0, userIDs, entities.OrganizerEventRunFallback)
}

func (e *AttributionEngine) settleUsers(ctx context.Context, run *entities.Run, popNumber int, userIDs []string, kind string) (int, error) {
	now := e.now()
	credits := make([]entities.CompletionCredit, 0, len(userIDs))
	for _, userID := range userIDs {
		pts, err := e.points.PointsFor(ctx, run.GuildID, run.ActivityKey, userID)
		if err != nil {
			return 0, fmt.Errorf("resolve points for %s: %w", userID, err)
		}
		credits = append(credits, entities.CompletionCredit{
			RunID:      run.ID,
			PopNumber:  popNumber,
			UserID:     userID,
			Points:     pts,
			CreditedAt: now,
		})
	}
	inserted, err := e.ledger.RecordSettlement(ctx, output.SettlementBatch{
		RunID:     run.ID,
		PopNumber: popNumber,
		SettledAt: now,
		Credits:   credits,
		Organizer: entities.OrganizerEvent{
			RunID:        run.ID,
			OrganizerID:  run.OrganizerID,
			Kind:         kind,
			PopNumber:    popNumber,
			Participants: len(credits),
			CreatedAt:    now,
		},
	})
	if err != nil {
		return 0, fmt.Errorf("record settlement: %w", err)
	}
	if !inserted {
		// Lost the race against a concurrent settle of the same pop.
		return 0, nil
	}
	return len(credits), nil
}

package application

import (
	"context"
	"fmt"
	"log"
	"time"

	"runbot/internal/domain"
	"runbot/internal/domain/entities"
	"runbot/internal/ports/input"
	"runbot/internal/ports/output"
)

// KeyPopService triggers key pops. Credit for clear N is only well-defined
// once pop N+1 happens (everyone present between the two pops is credited
// for clear N), so each trigger settles the previous pop before capturing
// the next snapshot; the trailing pop is settled at run end.
type KeyPopService struct {
	runs         output.RunRepository
	participants output.ParticipantRepository
	pops         output.KeyPopRepository
	engine       *AttributionEngine
	now          func() time.Time
}

var _ input.KeyPopUseCase = (*KeyPopService)(nil)

func NewKeyPopService(
	runs output.RunRepository,
	participants output.ParticipantRepository,
	pops output.KeyPopRepository,
	engine *AttributionEngine,
) *KeyPopService {
	return &KeyPopService{
		runs:         runs,
		participants: participants,
		pops:         pops,
		engine:       engine,
		now:          time.Now,
	}
}

// TriggerPop opens key window number keyPopCount+1 on a live run. Only the
// organizer themselves may pop; staff override is deliberately not honored
// here because the pop marks a moment only the organizer is present for.
func (s *KeyPopService) TriggerPop(ctx context.Context, actor entities.Actor, runID string, window time.Duration) (*input.PopResult, error) {
	run, err := s.runs.FindByID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("find run: %w", err)
	}
	if run == nil {
		return nil, &domain.NotFoundError{RunID: runID}
	}
	if actor.UserID != run.OrganizerID {
		return nil, domain.ErrNotOrganizer
	}
	if run.Status != domain.RunLive {
		return nil, domain.ErrRunNotLive
	}

	// Settle the previous pop strictly before the new snapshot is captured,
	// so a user joining inside the new window never leaks into the previous
	// pop's credited set. Settlement failure is logged, never aborts the pop.
	settled := 0
	if run.KeyPopCount > 0 {
		n, err := s.engine.Settle(ctx, run, run.KeyPopCount)
		if err != nil {
			log.Printf("❌ Settlement of pop %d (run %s): %v", run.KeyPopCount, run.ID, err)
		} else {
			settled = n
		}
	}

	joined, err := s.participants.ListJoined(ctx, run.ID)
	if err != nil {
		return nil, fmt.Errorf("list joined: %w", err)
	}
	userIDs := make([]string, len(joined))
	for i := range joined {
		userIDs[i] = joined[i].UserID
	}

	now := s.now()
	popNumber := run.KeyPopCount + 1
	windowEndsAt := now.Add(window)

	// The conditional increment is the serialization point: it only matches
	// while the run is still live and the count has not moved, so concurrent
	// pops and a racing close cannot both advance.
	ok, err := s.runs.AdvanceKeyPop(ctx, run.ID, run.KeyPopCount, windowEndsAt)
	if err != nil {
		return nil, fmt.Errorf("advance key pop: %w", err)
	}
	if !ok {
		current, err := s.runs.FindByID(ctx, run.ID)
		if err != nil {
			return nil, fmt.Errorf("find run: %w", err)
		}
		if current == nil || current.Status == domain.RunEnded {
			return nil, domain.ErrRunClosed
		}
		if current.Status != domain.RunLive {
			return nil, domain.ErrRunNotLive
		}
		return nil, fmt.Errorf("key pop %d raced a concurrent pop on run %s", popNumber, run.ID)
	}

	if err := s.pops.InsertSnapshot(ctx, &entities.KeyPopSnapshot{
		RunID:      run.ID,
		PopNumber:  popNumber,
		UserIDs:    userIDs,
		CapturedAt: now,
	}); err != nil {
		// The counter already advanced; a missing snapshot degrades pop
		// popNumber to no-credit when its settlement later fails to load it.
		log.Printf("❌ Snapshot of pop %d (run %s): %v", popNumber, run.ID, err)
	}

	return &input.PopResult{
		PopNumber:    popNumber,
		WindowEndsAt: windowEndsAt,
		Settled:      settled,
	}, nil
}

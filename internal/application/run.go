package application

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"runbot/internal/domain"
	"runbot/internal/domain/entities"
	"runbot/internal/ports/input"
	"runbot/internal/ports/output"
)

// RunService is the run lifecycle state machine: open -> live -> ended, with
// the system-only any-state close reachable through SystemEndRun. Settlement
// is attached to the terminal transition but deliberately decoupled from it:
// a failing attribution pass is logged and never rolls back or blocks the
// status write.
type RunService struct {
	runs         output.RunRepository
	participants output.ParticipantRepository
	ledger       output.LedgerRepository
	gate         *AuthorizationGate
	engine       *AttributionEngine
	now          func() time.Time
}

var _ input.RunUseCase = (*RunService)(nil)
var _ input.RunExpirer = (*RunService)(nil)

func NewRunService(
	runs output.RunRepository,
	participants output.ParticipantRepository,
	ledger output.LedgerRepository,
	gate *AuthorizationGate,
	engine *AttributionEngine,
) *RunService {
	return &RunService{
		runs:         runs,
		participants: participants,
		ledger:       ledger,
		gate:         gate,
		engine:       engine,
		now:          time.Now,
	}
}

// CreateRun inserts a new open run. Requires the organizer rank or higher,
// and at most one active run per organizer per guild. The organizer is
// joined to their own run immediately.
func (s *RunService) CreateRun(ctx context.Context, actor entities.Actor, params input.CreateRunParams) (*entities.Run, error) {
	ok, err := s.gate.HasRoleOrHigher(ctx, params.GuildID, actor, domain.RankOrganizer)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &domain.ForbiddenError{RequiredRank: domain.RankOrganizer}
	}
	existing, err := s.runs.FindActiveByOrganizer(ctx, params.GuildID, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("find active run: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrOrganizerBusy
	}
	now := s.now()
	run := &entities.Run{
		ID:             uuid.NewString(),
		GuildID:        params.GuildID,
		OrganizerID:    actor.UserID,
		ActivityKey:    params.ActivityKey,
		Status:         domain.RunOpen,
		ChainAmount:    params.ChainAmount,
		Party:          params.Party,
		Location:       params.Location,
		Description:    params.Description,
		AutoEndMinutes: params.AutoEndMinutes,
		CreatedAt:      now,
	}
	if err := s.runs.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	if _, err := s.participants.Join(ctx, run.ID, actor.UserID, now); err != nil {
		return nil, fmt.Errorf("join organizer: %w", err)
	}
	return run, nil
}

// StartRun moves an open run to live and stamps startedAt once.
func (s *RunService) StartRun(ctx context.Context, actor entities.Actor, runID string) (*entities.Run, error) {
	run, err := s.getRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if err := s.gate.AuthorizeRunActor(ctx, run, actor, RunActorPolicy{AllowOrganizer: true, AllowOrganizerRole: true}); err != nil {
		return nil, err
	}
	ok, err := s.runs.MarkLive(ctx, runID, s.now())
	if err != nil {
		return nil, fmt.Errorf("mark live: %w", err)
	}
	if !ok {
		return nil, s.transitionFailure(ctx, runID, domain.RunLive)
	}
	return s.getRun(ctx, runID)
}

// EndRun closes a live run. Ending also triggers the attribution pass for
// the trailing pop (or the pop-less fallback) plus one organizer-credit
// event; both are best-effort.
func (s *RunService) EndRun(ctx context.Context, actor entities.Actor, runID string) (*entities.Run, error) {
	run, err := s.getRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if err := s.gate.AuthorizeRunActor(ctx, run, actor, RunActorPolicy{AllowOrganizer: true, AllowOrganizerRole: true}); err != nil {
		return nil, err
	}
	ok, err := s.runs.MarkEnded(ctx, runID, s.now())
	if err != nil {
		return nil, fmt.Errorf("mark ended: %w", err)
	}
	if !ok {
		return nil, s.transitionFailure(ctx, runID, domain.RunEnded)
	}
	return s.afterClose(ctx, runID)
}

// CancelRun closes a run from any non-terminal state. Same authorization
// shape as EndRun; a run that was already ended yields AlreadyTerminal.
func (s *RunService) CancelRun(ctx context.Context, actor entities.Actor, runID string) (*entities.Run, error) {
	run, err := s.getRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if err := s.gate.AuthorizeRunActor(ctx, run, actor, RunActorPolicy{AllowOrganizer: true, AllowOrganizerRole: true}); err != nil {
		return nil, err
	}
	ok, err := s.runs.ForceEnd(ctx, runID, s.now())
	if err != nil {
		return nil, fmt.Errorf("force end: %w", err)
	}
	if !ok {
		return nil, domain.ErrAlreadyTerminal
	}
	return s.afterClose(ctx, runID)
}

// SystemEndRun is the expiry scheduler's close path. It skips the gate
// entirely and may close a run from any state; it is only reachable through
// the input.RunExpirer wiring.
func (s *RunService) SystemEndRun(ctx context.Context, runID string) (*entities.Run, error) {
	if _, err := s.getRun(ctx, runID); err != nil {
		return nil, err
	}
	ok, err := s.runs.ForceEnd(ctx, runID, s.now())
	if err != nil {
		return nil, fmt.Errorf("force end: %w", err)
	}
	if !ok {
		return nil, domain.ErrAlreadyTerminal
	}
	return s.afterClose(ctx, runID)
}

// ExpiredRuns lists runs past their configured duration, for the scheduler.
func (s *RunService) ExpiredRuns(ctx context.Context, now time.Time) ([]entities.Run, error) {
	return s.runs.FindExpired(ctx, now)
}

func (s *RunService) GetRunByID(ctx context.Context, id string) (*entities.Run, error) {
	return s.getRun(ctx, id)
}

func (s *RunService) GetRunByMessageID(ctx context.Context, messageID string) (*entities.Run, error) {
	run, err := s.runs.FindByMessageID(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("find run by message id: %w", err)
	}
	if run == nil {
		return nil, &domain.NotFoundError{RunID: messageID}
	}
	return run, nil
}

func (s *RunService) GetActiveRun(ctx context.Context, guildID, organizerID string) (*entities.Run, error) {
	run, err := s.runs.FindActiveByOrganizer(ctx, guildID, organizerID)
	if err != nil {
		return nil, fmt.Errorf("find active run: %w", err)
	}
	if run == nil {
		return nil, &domain.NotFoundError{}
	}
	return run, nil
}

func (s *RunService) AttachMessage(ctx context.Context, runID, channelID, messageID string) error {
	if err := s.runs.SetMessage(ctx, runID, channelID, messageID); err != nil {
		return fmt.Errorf("set run message: %w", err)
	}
	return nil
}

func (s *RunService) getRun(ctx context.Context, id string) (*entities.Run, error) {
	run, err := s.runs.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find run: %w", err)
	}
	if run == nil {
		return nil, &domain.NotFoundError{RunID: id}
	}
	return run, nil
}

// transitionFailure re-reads the run after a conditional write matched no
// row, to report what actually blocked the transition.
func (s *RunService) transitionFailure(ctx context.Context, runID, wanted string) error {
	run, err := s.runs.FindByID(ctx, runID)
	if err != nil {
		return fmt.Errorf("find run: %w", err)
	}
	if run == nil {
		return &domain.NotFoundError{RunID: runID}
	}
	if run.Status == domain.RunEnded && wanted == domain.RunEnded {
		return domain.ErrAlreadyTerminal
	}
	return &domain.InvalidTransitionError{From: run.Status, To: wanted}
}

// afterClose runs the best-effort terminal work: settle the outstanding
// snapshot (or fallback) and log one organizer-credit event. Neither failure
// is surfaced; run control stays available when the reward subsystem is
// degraded.
func (s *RunService) afterClose(ctx context.Context, runID string) (*entities.Run, error) {
	run, err := s.getRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if credited, err := s.engine.Finalize(ctx, run); err != nil {
		log.Printf("❌ Settlement on close (run %s): %v", run.ID, err)
	} else if credited > 0 {
		log.Printf("✅ Settled %d participant(s) on close (run %s)", credited, run.ID)
	}
	ev := &entities.OrganizerEvent{
		RunID:       run.ID,
		OrganizerID: run.OrganizerID,
		Kind:        entities.OrganizerEventRunEnded,
		PopNumber:   run.KeyPopCount,
		CreatedAt:   s.now(),
	}
	if err := s.ledger.InsertOrganizerEvent(ctx, ev); err != nil {
		log.Printf("❌ Organizer event on close (run %s): %v", run.ID, err)
	}
	return run, nil
}

package application

import (
	"context"
	"fmt"
	"time"

	"runbot/internal/domain"
	"runbot/internal/domain/entities"
	"runbot/internal/ports/input"
	"runbot/internal/ports/output"
)

// RosterService tracks who is in a run. Every mutation re-checks the run's
// status at the moment of write (the repository conditions each write on the
// run not being ended), so a close racing a join cannot create entries on a
// terminal run.
type RosterService struct {
	runs         output.RunRepository
	participants output.ParticipantRepository
	now          func() time.Time
}

var _ input.RosterUseCase = (*RosterService)(nil)

func NewRosterService(runs output.RunRepository, participants output.ParticipantRepository) *RosterService {
	return &RosterService{
		runs:         runs,
		participants: participants,
		now:          time.Now,
	}
}

func (s *RosterService) Join(ctx context.Context, runID, userID string) error {
	if err := s.requireRun(ctx, runID); err != nil {
		return err
	}
	ok, err := s.participants.Join(ctx, runID, userID, s.now())
	if err != nil {
		return fmt.Errorf("join run: %w", err)
	}
	if !ok {
		return domain.ErrRunClosed
	}
	return nil
}

func (s *RosterService) Leave(ctx context.Context, runID, userID string) error {
	run, err := s.findRun(ctx, runID)
	if err != nil {
		return err
	}
	if run.Status == domain.RunEnded {
		return domain.ErrRunClosed
	}
	ok, err := s.participants.MarkLeft(ctx, runID, userID, s.now())
	if err != nil {
		return fmt.Errorf("leave run: %w", err)
	}
	if !ok {
		// Either no joined entry for this user, or the run closed between
		// the read above and the write.
		entry, err := s.participants.Find(ctx, runID, userID)
		if err != nil {
			return fmt.Errorf("find participant: %w", err)
		}
		if entry == nil || entry.State != domain.ParticipantJoined {
			return domain.ErrParticipantNotFound
		}
		return domain.ErrRunClosed
	}
	return nil
}

func (s *RosterService) SetAttribute(ctx context.Context, runID, userID, attribute string) error {
	if err := s.requireRun(ctx, runID); err != nil {
		return err
	}
	ok, err := s.participants.SetAttribute(ctx, runID, userID, attribute, s.now())
	if err != nil {
		return fmt.Errorf("set attribute: %w", err)
	}
	if !ok {
		return domain.ErrRunClosed
	}
	return nil
}

func (s *RosterService) ToggleOffer(ctx context.Context, runID, userID, offerType string) (bool, error) {
	if !domain.ValidOfferType(offerType) {
		return false, fmt.Errorf("unknown offer type %q", offerType)
	}
	if err := s.requireRun(ctx, runID); err != nil {
		return false, err
	}
	enabled, ok, err := s.participants.ToggleOffer(ctx, runID, userID, offerType, s.now())
	if err != nil {
		return false, fmt.Errorf("toggle offer: %w", err)
	}
	if !ok {
		return false, domain.ErrRunClosed
	}
	return enabled, nil
}

func (s *RosterService) Summary(ctx context.Context, runID string) (*input.RosterSummary, error) {
	if _, err := s.findRun(ctx, runID); err != nil {
		return nil, err
	}
	joined, err := s.participants.CountJoined(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("count joined: %w", err)
	}
	byAttribute, err := s.participants.CountJoinedByAttribute(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("count by attribute: %w", err)
	}
	offers, err := s.participants.ListOffers(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("list offers: %w", err)
	}
	return &input.RosterSummary{
		Joined:       joined,
		ByAttribute:  byAttribute,
		OffersByType: offers,
	}, nil
}

func (s *RosterService) findRun(ctx context.Context, runID string) (*entities.Run, error) {
	run, err := s.runs.FindByID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("find run: %w", err)
	}
	if run == nil {
		return nil, &domain.NotFoundError{RunID: runID}
	}
	return run, nil
}

func (s *RosterService) requireRun(ctx context.Context, runID string) error {
	run, err := s.findRun(ctx, runID)
	if err != nil {
		return err
	}
	if run.Status == domain.RunEnded {
		return domain.ErrRunClosed
	}
	return nil
}

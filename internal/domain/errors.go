package domain

import (
	"errors"
	"fmt"
)

// Domain errors.
var (
	ErrRunClosed           = errors.New("run is closed")
	ErrRunNotLive          = errors.New("run is not live")
	ErrAlreadyTerminal     = errors.New("run already ended")
	ErrNotOrganizer        = errors.New("only the organizer can perform this action")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrOrganizerBusy       = errors.New("organizer already has an active run")
)

// ForbiddenError is returned when an actor fails the authorization gate.
// Exactly one of RequiredRank / RequiredRelationship is meaningful: either
// the action needed a rank the actor does not hold, or it needed a
// relationship to the run (being its organizer) the actor does not have.
type ForbiddenError struct {
	RequiredRank         Rank
	RequiredRelationship string
}

func (e *ForbiddenError) Error() string {
	if e.RequiredRelationship != "" {
		return fmt.Sprintf("forbidden: requires %s", e.RequiredRelationship)
	}
	return fmt.Sprintf("forbidden: requires rank %s or higher", e.RequiredRank)
}

// NotFoundError is returned when a run id resolves to nothing.
type NotFoundError struct {
	RunID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("run %s not found", e.RunID)
}

// InvalidTransitionError is returned when a lifecycle operation is applied
// to a run whose status does not permit it.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition %s -> %s", e.From, e.To)
}

// Code extracts a stable error code from a domain error, for mapping to
// user-facing messages at the boundary. Returns "" for non-domain errors.
func Code(err error) string {
	var forbidden *ForbiddenError
	var notFound *NotFoundError
	var transition *InvalidTransitionError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &forbidden):
		return "forbidden"
	case errors.As(err, &notFound):
		return "run_not_found"
	case errors.As(err, &transition):
		return "invalid_transition"
	case errors.Is(err, ErrRunClosed):
		return "run_closed"
	case errors.Is(err, ErrRunNotLive):
		return "run_not_live"
	case errors.Is(err, ErrAlreadyTerminal):
		return "already_terminal"
	case errors.Is(err, ErrNotOrganizer):
		return "not_organizer"
	case errors.Is(err, ErrParticipantNotFound):
		return "participant_not_found"
	case errors.Is(err, ErrOrganizerBusy):
		return "organizer_busy"
	}
	return ""
}

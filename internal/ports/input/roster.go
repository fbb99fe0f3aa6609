package input

import "context"

// RosterSummary aggregates the counters shown on a run message.
type RosterSummary struct {
	Joined       int64
	ByAttribute  map[string]int64
	OffersByType map[string][]string
}

type RosterUseCase interface {
	Join(ctx context.Context, runID, userID string) error
	Leave(ctx context.Context, runID, userID string) error
	SetAttribute(ctx context.Context, runID, userID, attribute string) error
	// ToggleOffer flips an "I have X" signal; returns the state after the flip.
	ToggleOffer(ctx context.Context, runID, userID, offerType string) (bool, error)
	Summary(ctx context.Context, runID string) (*RosterSummary, error)
}

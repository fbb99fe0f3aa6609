package entities

import "time"

// KeyPopSnapshot freezes the joined roster at the instant a key pop occurred.
// Created exactly once per pop and never mutated afterwards.
type KeyPopSnapshot struct {
	RunID      string
	PopNumber  int
	UserIDs    []string
	CapturedAt time.Time
}

// SettlementRecord marks that a snapshot's credit has been distributed. Its
// existence is the idempotency guard for settlement. PopNumber 0 is the
// pop-less fallback settlement written when a run ends without any key pop.
type SettlementRecord struct {
	RunID     string
	PopNumber int
	SettledAt time.Time
}

// CompletionCredit is one user's credit for one settled snapshot.
type CompletionCredit struct {
	RunID      string
	PopNumber  int
	UserID     string
	Points     int64
	CreditedAt time.Time
}

// Organizer event kinds.
const (
	OrganizerEventPopSettled  = "pop_settled"
	OrganizerEventRunFallback = "run_fallback"
	OrganizerEventRunEnded    = "run_ended"
)

// OrganizerEvent is an aggregate event attributed to the run's organizer,
// written alongside participant credit (per settlement) and once on run end.
type OrganizerEvent struct {
	RunID        string
	OrganizerID  string
	Kind         string
	PopNumber    int
	Participants int
	CreatedAt    time.Time
}

package entities

import "time"

// ParticipantEntry represents a user's participation in a run, keyed by
// (RunID, UserID).
type ParticipantEntry struct {
	RunID     string
	UserID    string
	State     string
	Attribute string // optional class/offer label chosen within the activity
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Actor is the identity an operation is performed as: the calling user plus
// the external role identifiers presented by the boundary. It is never
// persisted.
type Actor struct {
	UserID  string
	RoleIDs []string
}

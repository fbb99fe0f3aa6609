package entities

import "time"

// Run is one tracked group activity session.
type Run struct {
	ID              string
	GuildID         string
	OrganizerID     string
	ActivityKey     string
	Status          string
	KeyPopCount     int
	KeyWindowEndsAt time.Time // zero = no open key window
	ChainAmount     int       // 0 = not set
	Party           string
	Location        string
	Description     string
	AutoEndMinutes  int
	ChannelID       string
	MessageID       string
	CreatedAt       time.Time
	StartedAt       time.Time // zero = never went live
	EndedAt         time.Time // zero = not ended yet
	UpdatedAt       time.Time
}

// ExpiresAt returns the instant after which the expiry scheduler may close
// the run.
func (r *Run) ExpiresAt() time.Time {
	return r.CreatedAt.Add(time.Duration(r.AutoEndMinutes) * time.Minute)
}

package domain

// Run statuses. A run only ever advances open -> live -> ended; a cancelled
// run is one that reached ended without ever having been live.
const (
	RunOpen  = "open"
	RunLive  = "live"
	RunEnded = "ended"
)

// Participant states. Entries are never hard-deleted; a user who left keeps
// a row in state "left" and no longer counts as a participant.
const (
	ParticipantJoined = "joined"
	ParticipantLeft   = "left"
)

// Offer types: secondary "I have X" signals, independent of join state.
const (
	OfferKey = "key"
	OfferAlt = "alt"
)

// OfferTypes lists the offer types accepted by ToggleOffer.
var OfferTypes = []string{OfferKey, OfferAlt}

// ValidOfferType reports whether t is a known offer type.
func ValidOfferType(t string) bool {
	for _, known := range OfferTypes {
		if t == known {
			return true
		}
	}
	return false
}

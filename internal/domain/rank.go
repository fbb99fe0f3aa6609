package domain

// Rank is a level in the guild role hierarchy. Ranks are ordered by their
// ordinal value, lowest authority first, so "this rank or higher" checks are
// plain integer comparisons.
type Rank int

const (
	RankVerified Rank = iota
	RankMember
	RankRaider
	RankVeteran
	RankOrganizer
	RankModerator
	RankAdministrator
)

var rankNames = map[Rank]string{
	RankVerified:      "verified",
	RankMember:        "member",
	RankRaider:        "raider",
	RankVeteran:       "veteran",
	RankOrganizer:     "organizer",
	RankModerator:     "moderator",
	RankAdministrator: "administrator",
}

func (r Rank) String() string {
	if name, ok := rankNames[r]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether r is one of the declared ranks.
func (r Rank) Valid() bool {
	_, ok := rankNames[r]
	return ok
}

// Ranks returns all ranks ordered lowest authority first.
func Ranks() []Rank {
	return []Rank{
		RankVerified,
		RankMember,
		RankRaider,
		RankVeteran,
		RankOrganizer,
		RankModerator,
		RankAdministrator,
	}
}

// ParseRank resolves a rank name back to its Rank. Used when loading the
// per-guild role configuration.
func ParseRank(name string) (Rank, bool) {
	for rank, n := range rankNames {
		if n == name {
			return rank, true
		}
	}
	return 0, false
}

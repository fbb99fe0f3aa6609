package output

import (
	"context"

	"runbot/internal/domain"
)

// RoleConfigRepository resolves a guild's rank -> external role identifier
// mapping. A rank absent from the map is unmapped and can never be satisfied.
type RoleConfigRepository interface {
	RankRoles(ctx context.Context, guildID string) (map[domain.Rank]string, error)
}

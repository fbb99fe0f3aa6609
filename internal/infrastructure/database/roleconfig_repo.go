package database

import (
	"context"
	"fmt"
	"log"

	"runbot/internal/domain"
	"runbot/internal/ports/output"
)

var _ output.RoleConfigRepository = (*RoleConfigRepository)(nil)

// RoleConfigRepository loads a guild's rank -> Discord role id mapping.
type RoleConfigRepository struct {
	db DB
}

func NewRoleConfigRepository(db DB) *RoleConfigRepository {
	return &RoleConfigRepository{db: db}
}

func (r *RoleConfigRepository) RankRoles(ctx context.Context, guildID string) (map[domain.Rank]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT rank, role_id FROM guild_role_config WHERE guild_id = $1`,
		guildID,
	)
	if err != nil {
		return nil, fmt.Errorf("query role config: %w", err)
	}
	defer rows.Close()
	out := make(map[domain.Rank]string)
	for rows.Next() {
		var name, roleID string
		if err := rows.Scan(&name, &roleID); err != nil {
			return nil, fmt.Errorf("scan role config: %w", err)
		}
		rank, ok := domain.ParseRank(name)
		if !ok {
			log.Printf("⚠️ Unknown rank %q in role config for guild %s", name, guildID)
			continue
		}
		out[rank] = roleID
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate role config: %w", err)
	}
	return out, nil
}

package application

import (
	"context"
	"fmt"

	"runbot/internal/domain"
	"runbot/internal/domain/entities"
	"runbot/internal/ports/output"
)

// AuthorizationGate answers per-action authorization questions against a
// guild's configured role hierarchy. Unmapped ranks fail closed: if a guild
// never mapped a rank to a role id, no actor can satisfy that rank.
type AuthorizationGate struct {
	roles output.RoleConfigRepository
}

func NewAuthorizationGate(roles output.RoleConfigRepository) *AuthorizationGate {
	return &AuthorizationGate{roles: roles}
}

// RunActorPolicy selects which relationships may authorize a mutating run
// operation. The system bypass is intentionally absent: system-initiated
// closes go through the RunExpirer call path and never consult the gate.
type RunActorPolicy struct {
	// AllowOrganizer permits the run's own organizer.
	AllowOrganizer bool
	// AllowOrganizerRole permits any actor holding the organizer rank or higher.
	AllowOrganizerRole bool
}

// highestRank returns the highest rank the actor's presented role set
// satisfies. ok=false when the actor satisfies none.
func (g *AuthorizationGate) highestRank(ctx context.Context, guildID string, actor entities.Actor) (domain.Rank, bool, error) {
	if len(actor.RoleIDs) == 0 {
		return 0, false, nil
	}
	mapping, err := g.roles.RankRoles(ctx, guildID)
	if err != nil {
		return 0, false, fmt.Errorf("load rank roles: %w", err)
	}
	held := make(map[string]struct{}, len(actor.RoleIDs))
	for _, id := range actor.RoleIDs {
		held[id] = struct{}{}
	}
	best := domain.Rank(-1)
	for rank, roleID := range mapping {
		if _, ok := held[roleID]; !ok {
			continue
		}
		if rank > best {
			best = rank
		}
	}
	if best < 0 {
		return 0, false, nil
	}
	return best, true, nil
}

// HasRole reports whether the actor holds exactly the given rank's mapped role.
func (g *AuthorizationGate) HasRole(ctx context.Context, guildID string, actor entities.Actor, rank domain.Rank) (bool, error) {
	if len(actor.RoleIDs) == 0 {
		return false, nil
	}
	mapping, err := g.roles.RankRoles(ctx, guildID)
	if err != nil {
		return false, fmt.Errorf("load rank roles: %w", err)
	}
	roleID, ok := mapping[rank]
	if !ok {
		return false, nil
	}
	for _, id := range actor.RoleIDs {
		if id == roleID {
			return true, nil
		}
	}
	return false, nil
}

// HasRoleOrHigher reports whether the actor's highest held rank is at least
// rank. Rank ordinals make the check a single comparison, which also makes
// the monotonicity guarantee (true for R implies true below R) structural.
func (g *AuthorizationGate) HasRoleOrHigher(ctx context.Context, guildID string, actor entities.Actor, rank domain.Rank) (bool, error) {
	best, ok, err := g.highestRank(ctx, guildID, actor)
	if err != nil || !ok {
		return false, err
	}
	return best >= rank, nil
}

// AuthorizeRunActor decides whether actor may perform a mutating operation on
// run. First match wins: organizer rank (when the policy enables staff
// override), then organizer identity.
func (g *AuthorizationGate) AuthorizeRunActor(ctx context.Context, run *entities.Run, actor entities.Actor, policy RunActorPolicy) error {
	if policy.AllowOrganizerRole {
		ok, err := g.HasRoleOrHigher(ctx, run.GuildID, actor, domain.RankOrganizer)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	if policy.AllowOrganizer && actor.UserID == run.OrganizerID {
		return nil
	}
	if policy.AllowOrganizerRole {
		return &domain.ForbiddenError{RequiredRank: domain.RankOrganizer}
	}
	return &domain.ForbiddenError{RequiredRelationship: "run organizer"}
}

package discord

import (
	"github.com/bwmarrin/discordgo"

	"runbot/internal/domain/entities"
)

// interactionActor builds the authorization context for an interaction: the
// acting user plus the role ids Discord attached to the guild member. The
// gate trusts this boundary to pass them through unmodified.
func interactionActor(i *discordgo.InteractionCreate) entities.Actor {
	actor := entities.Actor{}
	if i.Member != nil {
		actor.RoleIDs = i.Member.Roles
		if i.Member.User != nil {
			actor.UserID = i.Member.User.ID
		}
	} else if i.User != nil {
		actor.UserID = i.User.ID
	}
	return actor
}

package discord

import (
	"github.com/bwmarrin/discordgo"

	pkgdiscord "runbot/pkg/discord"
)

func respondEphemeral(s *discordgo.Session, i *discordgo.Interaction, content string) {
	_ = s.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

// respondDomainError replies with the localized message for a domain error.
func (h *Handler) respondDomainError(s *discordgo.Session, i *discordgo.Interaction, err error) {
	key := pkgdiscord.DomainErrorKey(err)
	respondEphemeral(s, i, h.translator.T(h.locale, key, nil))
}

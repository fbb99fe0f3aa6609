package discord

import (
	"context"
	"strings"

	"github.com/bwmarrin/discordgo"
)

const prefixClassSelect = "select_run_class_"

func (h *Handler) HandleClassSelect(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	data := i.MessageComponentData()
	if len(data.Values) == 0 {
		return
	}
	runID := strings.TrimPrefix(data.CustomID, prefixClassSelect)
	attribute := data.Values[0]
	if err := h.rosterUseCase.SetAttribute(ctx, runID, interactionActor(i).UserID, attribute); err != nil {
		h.respondDomainError(s, i.Interaction, err)
		return
	}
	h.refreshRunMessage(ctx, s, runID)
	respondEphemeral(s, i.Interaction, h.translator.T(h.locale, "run.attribute.ok", map[string]any{"Attribute": attribute}))
}

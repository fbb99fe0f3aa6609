package discord

import (
	"context"
	"strings"

	"github.com/bwmarrin/discordgo"

	"runbot/internal/domain"
)

// Button custom id prefixes; the suffix is always the run id.
const (
	prefixJoin     = "btn_run_join_"
	prefixLeave    = "btn_run_leave_"
	prefixOfferKey = "btn_run_offer_key_"
	prefixOfferAlt = "btn_run_offer_alt_"
)

func (h *Handler) HandleJoin(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	runID := strings.TrimPrefix(i.MessageComponentData().CustomID, prefixJoin)
	if err := h.rosterUseCase.Join(ctx, runID, interactionActor(i).UserID); err != nil {
		h.respondDomainError(s, i.Interaction, err)
		return
	}
	h.refreshRunMessage(ctx, s, runID)
	respondEphemeral(s, i.Interaction, h.translator.T(h.locale, "run.join.ok", nil))
}

func (h *Handler) HandleLeave(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	runID := strings.TrimPrefix(i.MessageComponentData().CustomID, prefixLeave)
	if err := h.rosterUseCase.Leave(ctx, runID, interactionActor(i).UserID); err != nil {
		h.respondDomainError(s, i.Interaction, err)
		return
	}
	h.refreshRunMessage(ctx, s, runID)
	respondEphemeral(s, i.Interaction, h.translator.T(h.locale, "run.leave.ok", nil))
}

func (h *Handler) HandleOffer(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	customID := i.MessageComponentData().CustomID
	var runID, offerType string
	switch {
	case strings.HasPrefix(customID, prefixOfferKey):
		runID, offerType = strings.TrimPrefix(customID, prefixOfferKey), domain.OfferKey
	case strings.HasPrefix(customID, prefixOfferAlt):
		runID, offerType = strings.TrimPrefix(customID, prefixOfferAlt), domain.OfferAlt
	default:
		return
	}
	enabled, err := h.rosterUseCase.ToggleOffer(ctx, runID, interactionActor(i).UserID, offerType)
	if err != nil {
		h.respondDomainError(s, i.Interaction, err)
		return
	}
	h.refreshRunMessage(ctx, s, runID)
	key := "run.offer.off"
	if enabled {
		key = "run.offer.on"
	}
	respondEphemeral(s, i.Interaction, h.translator.T(h.locale, key, map[string]any{"Offer": offerType}))
}

package discord

import (
	"context"
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"

	"runbot/internal/domain"
	"runbot/internal/domain/entities"
	pkgdiscord "runbot/pkg/discord"
)

func runComponents(run *entities.Run) []discordgo.MessageComponent {
	if run.Status == domain.RunEnded {
		return nil
	}
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: "Join", Style: discordgo.PrimaryButton, CustomID: prefixJoin + run.ID},
			discordgo.Button{Label: "Leave", Style: discordgo.SecondaryButton, CustomID: prefixLeave + run.ID},
			discordgo.Button{Label: "I have a key", Emoji: &discordgo.ComponentEmoji{Name: "🔑"}, Style: discordgo.SuccessButton, CustomID: prefixOfferKey + run.ID},
			discordgo.Button{Label: "Alt available", Emoji: &discordgo.ComponentEmoji{Name: "🎒"}, Style: discordgo.SecondaryButton, CustomID: prefixOfferAlt + run.ID},
		}},
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				CustomID:    prefixClassSelect + run.ID,
				Placeholder: "Pick your class",
				Options: []discordgo.SelectMenuOption{
					{Label: "Tank", Value: "tank", Emoji: &discordgo.ComponentEmoji{Name: "🛡️"}},
					{Label: "Healer", Value: "healer", Emoji: &discordgo.ComponentEmoji{Name: "💉"}},
					{Label: "DPS", Value: "dps", Emoji: &discordgo.ComponentEmoji{Name: "⚔️"}},
				},
			},
		}},
	}
}

// postRunMessage publishes the run embed in the run channel and records the
// message on the run so later interactions can resolve it.
func (h *Handler) postRunMessage(ctx context.Context, s *discordgo.Session, run *entities.Run) error {
	summary, err := h.rosterUseCase.Summary(ctx, run.ID)
	if err != nil {
		return fmt.Errorf("roster summary: %w", err)
	}
	msg, err := s.ChannelMessageSendComplex(h.runChannelID, &discordgo.MessageSend{
		Embed:      pkgdiscord.BuildRunEmbed(run, summary),
		Components: runComponents(run),
	})
	if err != nil {
		return fmt.Errorf("send run message: %w", err)
	}
	return h.runUseCase.AttachMessage(ctx, run.ID, msg.ChannelID, msg.ID)
}

// refreshRunMessage re-renders the run embed after any state change.
// Rendering failures are logged only; the state change already happened.
func (h *Handler) refreshRunMessage(ctx context.Context, s *discordgo.Session, runID string) {
	run, err := h.runUseCase.GetRunByID(ctx, runID)
	if err != nil {
		log.Printf("❌ Refresh run message (run %s): %v", runID, err)
		return
	}
	if run.MessageID == "" {
		return
	}
	summary, err := h.rosterUseCase.Summary(ctx, run.ID)
	if err != nil {
		log.Printf("❌ Roster summary (run %s): %v", runID, err)
		return
	}
	embed := pkgdiscord.BuildRunEmbed(run, summary)
	components := runComponents(run)
	_, err = s.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    run.ChannelID,
		ID:         run.MessageID,
		Embeds:     &[]*discordgo.MessageEmbed{embed},
		Components: &components,
	})
	if err != nil {
		log.Printf("❌ Edit run message (run %s): %v", runID, err)
	}
}

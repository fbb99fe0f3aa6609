package discord

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/bwmarrin/discordgo"

	"runbot/internal/ports/input"
	pkgdiscord "runbot/pkg/discord"
)

const defaultWindowSeconds = 300

// RunCommand is the /run application command definition.
func RunCommand() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "run",
		Description: "Organize and control a run",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "create",
				Description: "Create a new run",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionString, Name: "activity", Description: "Activity key (e.g. boss or dungeon name)", Required: true},
					{Type: discordgo.ApplicationCommandOptionString, Name: "party", Description: "Party or team label"},
					{Type: discordgo.ApplicationCommandOptionString, Name: "location", Description: "Where to meet"},
					{Type: discordgo.ApplicationCommandOptionInteger, Name: "chain", Description: "Chain amount"},
					{Type: discordgo.ApplicationCommandOptionString, Name: "description", Description: "Extra details"},
					{Type: discordgo.ApplicationCommandOptionInteger, Name: "duration", Description: "Auto-end after this many minutes (default 120)"},
				},
			},
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "start", Description: "Start your open run"},
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "end", Description: "End your live run"},
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "cancel", Description: "Cancel your run"},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "pop",
				Description: "Pop the next key",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionInteger, Name: "window", Description: "Key window in seconds (default 300)"},
				},
			},
		},
	}
}

func (h *Handler) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		return
	}
	switch data.Options[0].Name {
	case "create":
		h.handleCreate(s, i, data.Options[0].Options)
	case "start":
		h.handleStart(s, i)
	case "end":
		h.handleEnd(s, i)
	case "cancel":
		h.handleCancel(s, i)
	case "pop":
		h.handlePop(s, i, data.Options[0].Options)
	}
}

func optionMap(opts []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	out := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(opts))
	for _, opt := range opts {
		out[opt.Name] = opt
	}
	return out
}

func (h *Handler) handleCreate(s *discordgo.Session, i *discordgo.InteractionCreate, opts []*discordgo.ApplicationCommandInteractionDataOption) {
	ctx := context.Background()
	byName := optionMap(opts)

	params := input.CreateRunParams{
		GuildID:        i.GuildID,
		ActivityKey:    byName["activity"].StringValue(),
		AutoEndMinutes: 120,
	}
	if opt, ok := byName["party"]; ok {
		params.Party = opt.StringValue()
	}
	if opt, ok := byName["location"]; ok {
		params.Location = opt.StringValue()
	}
	if opt, ok := byName["chain"]; ok {
		params.ChainAmount = int(opt.IntValue())
	}
	if opt, ok := byName["description"]; ok {
		params.Description = opt.StringValue()
	}
	if opt, ok := byName["duration"]; ok && opt.IntValue() > 0 {
		params.AutoEndMinutes = int(opt.IntValue())
	}

	run, err := h.runUseCase.CreateRun(ctx, interactionActor(i), params)
	if err != nil {
		h.respondDomainError(s, i.Interaction, err)
		return
	}
	if err := h.postRunMessage(ctx, s, run); err != nil {
		log.Printf("❌ Post run message (run %s): %v", run.ID, err)
	}
	respondEphemeral(s, i.Interaction, h.translator.T(h.locale, "run.created", nil))
}

// activeRun resolves the caller's current run; subcommands other than create
// always target it.
func (h *Handler) activeRun(ctx context.Context, i *discordgo.InteractionCreate) (string, error) {
	run, err := h.runUseCase.GetActiveRun(ctx, i.GuildID, interactionActor(i).UserID)
	if err != nil {
		return "", err
	}
	return run.ID, nil
}

func (h *Handler) handleStart(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	runID, err := h.activeRun(ctx, i)
	if err != nil {
		h.respondDomainError(s, i.Interaction, err)
		return
	}
	if _, err := h.runUseCase.StartRun(ctx, interactionActor(i), runID); err != nil {
		h.respondDomainError(s, i.Interaction, err)
		return
	}
	h.refreshRunMessage(ctx, s, runID)
	respondEphemeral(s, i.Interaction, h.translator.T(h.locale, "run.started", nil))
}

func (h *Handler) handleEnd(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	runID, err := h.activeRun(ctx, i)
	if err != nil {
		h.respondDomainError(s, i.Interaction, err)
		return
	}
	if _, err := h.runUseCase.EndRun(ctx, interactionActor(i), runID); err != nil {
		h.respondDomainError(s, i.Interaction, err)
		return
	}
	h.refreshRunMessage(ctx, s, runID)
	respondEphemeral(s, i.Interaction, h.translator.T(h.locale, "run.ended", nil))
}

func (h *Handler) handleCancel(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	runID, err := h.activeRun(ctx, i)
	if err != nil {
		h.respondDomainError(s, i.Interaction, err)
		return
	}
	if _, err := h.runUseCase.CancelRun(ctx, interactionActor(i), runID); err != nil {
		h.respondDomainError(s, i.Interaction, err)
		return
	}
	h.refreshRunMessage(ctx, s, runID)
	respondEphemeral(s, i.Interaction, h.translator.T(h.locale, "run.cancelled", nil))
}

func (h *Handler) handlePop(s *discordgo.Session, i *discordgo.InteractionCreate, opts []*discordgo.ApplicationCommandInteractionDataOption) {
	ctx := context.Background()
	runID, err := h.activeRun(ctx, i)
	if err != nil {
		h.respondDomainError(s, i.Interaction, err)
		return
	}
	window := defaultWindowSeconds
	if byName := optionMap(opts); byName["window"] != nil && byName["window"].IntValue() > 0 {
		window = int(byName["window"].IntValue())
	}
	result, err := h.keyPopUseCase.TriggerPop(ctx, interactionActor(i), runID, time.Duration(window)*time.Second)
	if err != nil {
		h.respondDomainError(s, i.Interaction, err)
		return
	}
	h.refreshRunMessage(ctx, s, runID)
	respondEphemeral(s, i.Interaction, h.translator.T(h.locale, "run.pop", map[string]any{
		"Pop":    fmt.Sprintf("%d", result.PopNumber),
		"Window": pkgdiscord.RelativeTimestamp(result.WindowEndsAt),
	}))
}

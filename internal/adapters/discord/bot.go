package discord

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"

	"runbot/internal/application"
	"runbot/internal/config"
	"runbot/internal/ports/output"
)

// Bot is the Discord adapter.
type Bot struct {
	session   *discordgo.Session
	config    *config.Config
	handler   *Handler
	scheduler *ExpiryScheduler
}

// NewBot creates a Bot and wires ports: output adapters -> application (use
// cases) -> handler. The expiry scheduler is handed the system close path
// directly; the handler never sees it.
func NewBot(
	cfg *config.Config,
	runRepo output.RunRepository,
	participantRepo output.ParticipantRepository,
	popRepo output.KeyPopRepository,
	ledgerRepo output.LedgerRepository,
	roleRepo output.RoleConfigRepository,
	points output.PointsResolver,
	translator output.T,
) (*Bot, error) {
	gate := application.NewAuthorizationGate(roleRepo)
	engine := application.NewAttributionEngine(popRepo, ledgerRepo, participantRepo, points)
	runUC := application.NewRunService(runRepo, participantRepo, ledgerRepo, gate, engine)
	keyPopUC := application.NewKeyPopService(runRepo, participantRepo, popRepo, engine)
	rosterUC := application.NewRosterService(runRepo, participantRepo)

	s, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create Discord session: %w", err)
	}

	handler := NewHandler(runUC, keyPopUC, rosterUC, translator, cfg.GuildID, cfg.RunChannelID, cfg.DefaultLocale)

	bot := &Bot{
		session:   s,
		config:    cfg,
		handler:   handler,
		scheduler: NewExpiryScheduler(runUC, handler, time.Duration(cfg.ExpiryPollMinutes)*time.Minute),
	}
	bot.setupHandlers()
	return bot, nil
}

func (b *Bot) setupHandlers() {
	b.session.AddHandler(b.handleInteraction)
}

func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		if i.ApplicationCommandData().Name == "run" {
			b.handler.HandleCommand(s, i)
		}
	case discordgo.InteractionMessageComponent:
		customID := i.MessageComponentData().CustomID
		switch {
		case strings.HasPrefix(customID, prefixJoin):
			b.handler.HandleJoin(s, i)
		case strings.HasPrefix(customID, prefixLeave):
			b.handler.HandleLeave(s, i)
		case strings.HasPrefix(customID, prefixOfferKey), strings.HasPrefix(customID, prefixOfferAlt):
			b.handler.HandleOffer(s, i)
		case strings.HasPrefix(customID, prefixClassSelect):
			b.handler.HandleClassSelect(s, i)
		}
	}
}

// Start runs the bot until interrupted.
func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	defer b.session.Close()

	if _, err := b.session.ApplicationCommandCreate(b.session.State.User.ID, b.config.GuildID, RunCommand()); err != nil {
		log.Printf("⚠️ Failed to register the run command: %v", err)
	}

	go b.scheduler.Run(b.session)

	fmt.Println("🤖 Bot online! Press CTRL+C to quit.")
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	return nil
}

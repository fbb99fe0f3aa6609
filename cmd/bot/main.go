package main

import (
	"context"
	"log"
	"os"

	"runbot/internal/adapters/discord"
	"runbot/internal/config"
	"runbot/internal/infrastructure/database"
	"runbot/internal/infrastructure/i18n"
	"runbot/internal/infrastructure/points"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Configuration error: %v", err)
	}

	if err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.Fatalf("❌ Migration error: %v", err)
	}

	ctx := context.Background()
	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Database initialization error: %v", err)
	}
	defer pool.Close()

	runRepo := database.NewRunRepository(pool)
	participantRepo := database.NewParticipantRepository(pool)
	popRepo := database.NewKeyPopRepository(pool)
	ledgerRepo := database.NewLedgerRepository(pool)
	roleRepo := database.NewRoleConfigRepository(pool)
	resolver := points.NewResolver(pool, cfg.DefaultPoints)
	translator := i18n.NewTranslator(cfg.DefaultLocale)

	bot, err := discord.NewBot(cfg, runRepo, participantRepo, popRepo, ledgerRepo, roleRepo, resolver, translator)
	if err != nil {
		log.Fatalf("❌ Bot initialization error: %v", err)
	}
	if err := bot.Start(); err != nil {
		log.Printf("❌ Bot startup error: %v", err)
		os.Exit(1)
	}
}

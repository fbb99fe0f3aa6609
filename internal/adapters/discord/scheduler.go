package discord

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/bwmarrin/discordgo"

	"runbot/internal/domain"
	"runbot/internal/ports/input"
)

// ExpiryScheduler closes runs that outlived their configured duration. It is
// the only holder of the input.RunExpirer port, which is what makes the
// any-state close a system-only capability.
type ExpiryScheduler struct {
	expirer  input.RunExpirer
	handler  *Handler
	interval time.Duration
}

func NewExpiryScheduler(expirer input.RunExpirer, handler *Handler, interval time.Duration) *ExpiryScheduler {
	return &ExpiryScheduler{
		expirer:  expirer,
		handler:  handler,
		interval: interval,
	}
}

// Run polls for expired runs until the session closes.
func (e *ExpiryScheduler) Run(s *discordgo.Session) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for range ticker.C {
		ctx := context.Background()
		runs, err := e.expirer.ExpiredRuns(ctx, time.Now())
		if err != nil {
			log.Printf("❌ Expiry scheduler: %v", err)
			continue
		}
		for _, run := range runs {
			if _, err := e.expirer.SystemEndRun(ctx, run.ID); err != nil {
				// An organizer ending/cancelling concurrently is expected.
				if errors.Is(err, domain.ErrAlreadyTerminal) {
					continue
				}
				log.Printf("❌ Auto-end (run %s): %v", run.ID, err)
				continue
			}
			log.Printf("✅ Auto-ended run %s after %d minute(s)", run.ID, run.AutoEndMinutes)
			e.handler.refreshRunMessage(ctx, s, run.ID)
		}
	}
}

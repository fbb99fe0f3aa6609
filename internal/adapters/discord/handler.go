package discord

import (
	"runbot/internal/ports/input"
	"runbot/internal/ports/output"
)

// Handler handles Discord interactions using use cases.
type Handler struct {
	runUseCase    input.RunUseCase
	keyPopUseCase input.KeyPopUseCase
	rosterUseCase input.RosterUseCase
	translator    output.T
	guildID       string
	runChannelID  string
	locale        string
}

// NewHandler creates a Handler.
func NewHandler(
	runUseCase input.RunUseCase,
	keyPopUseCase input.KeyPopUseCase,
	rosterUseCase input.RosterUseCase,
	translator output.T,
	guildID string,
	runChannelID string,
	locale string,
) *Handler {
	return &Handler{
		runUseCase:    runUseCase,
		keyPopUseCase: keyPopUseCase,
		rosterUseCase: rosterUseCase,
		translator:    translator,
		guildID:       guildID,
		runChannelID:  runChannelID,
		locale:        locale,
	}
}

package input

import (
	"context"

	"runbot/internal/domain/entities"
)

// CreateRunParams carries the caller-supplied fields of a new run. Display
// fields are passed through untouched.
type CreateRunParams struct {
	GuildID        string
	ActivityKey    string
	Party          string
	Location       string
	Description    string
	ChainAmount    int
	AutoEndMinutes int
}

type RunUseCase interface {
	CreateRun(ctx context.Context, actor entities.Actor, params CreateRunParams) (*entities.Run, error)
	StartRun(ctx context.Context, actor entities.Actor, runID string) (*entities.Run, error)
	EndRun(ctx context.Context, actor entities.Actor, runID string) (*entities.Run, error)
	CancelRun(ctx context.Context, actor entities.Actor, runID string) (*entities.Run, error)
	GetRunByID(ctx context.Context, id string) (*entities.Run, error)
	GetRunByMessageID(ctx context.Context, messageID string) (*entities.Run, error)
	GetActiveRun(ctx context.Context, guildID, organizerID string) (*entities.Run, error)
	AttachMessage(ctx context.Context, runID, channelID, messageID string) error
}

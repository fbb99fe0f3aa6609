package input

import (
	"context"
	"time"

	"runbot/internal/domain/entities"
)

// PopResult reports a triggered key pop: its number, when its window closes,
// and how many users the previous pop's settlement credited (0 when this was
// the first pop or settlement was skipped).
type PopResult struct {
	PopNumber    int
	WindowEndsAt time.Time
	Settled      int
}

type KeyPopUseCase interface {
	TriggerPop(ctx context.Context, actor entities.Actor, runID string, window time.Duration) (*PopResult, error)
}

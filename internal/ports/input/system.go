package input

import (
	"context"
	"time"

	"runbot/internal/domain/entities"
)

// RunExpirer is the system-only close path. It is deliberately a separate
// interface from RunUseCase: only the expiry scheduler wiring ever holds it,
// so the any-state close capability cannot be reached from untrusted
// request handling.
type RunExpirer interface {
	ExpiredRuns(ctx context.Context, now time.Time) ([]entities.Run, error)
	// SystemEndRun closes a run from any state. A run already ended by a
	// racing organizer action returns domain.ErrAlreadyTerminal, which the
	// scheduler treats as a no-op.
	SystemEndRun(ctx context.Context, runID string) (*entities.Run, error)
}

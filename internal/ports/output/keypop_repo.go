package output

import (
	"context"

	"runbot/internal/domain/entities"
)

// KeyPopRepository persists key pop snapshots. Snapshots are write-once,
// keyed by (runID, popNumber).
type KeyPopRepository interface {
	InsertSnapshot(ctx context.Context, snap *entities.KeyPopSnapshot) error
	FindSnapshot(ctx context.Context, runID string, popNumber int) (*entities.KeyPopSnapshot, error)
}

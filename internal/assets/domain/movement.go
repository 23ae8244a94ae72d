package assets

import (
	"context"
	"errors"
	"time"
)

// MovementLog records a physical relocation of an asset.
type MovementLog struct {
	ID             string
	AssetRef       string
	FromLocationID string
	ToLocationID   string
	RecordedAt     time.Time
}

// Validate checks movement invariants.
func (m MovementLog) Validate() error {
	if m.AssetRef == "" {
		return errors.New("movement: empty asset ref")
	}
	if m.ToLocationID == "" {
		return errors.New("movement: empty destination")
	}
	return nil
}

// MovementRepository manages movement log persistence.
type MovementRepository interface {
	Append(ctx context.Context, entry *MovementLog) error
	List(ctx context.Context) ([]MovementLog, error)
	ListByAsset(ctx context.Context, refs []string) ([]MovementLog, error)
}

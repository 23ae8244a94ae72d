package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"medequip-cloud/internal/assets/application/events"
	assets "medequip-cloud/internal/assets/domain"
)

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// EventPublisher publishes domain events.
type EventPublisher interface {
	Publish(ctx context.Context, event any) error
}

// Service coordinates asset registration and movement tracking.
type Service struct {
	assets    assets.AssetRepository
	movements assets.MovementRepository
	bus       EventPublisher
	clock     Clock
}

// NewService constructs an asset service.
func NewService(assetRepo assets.AssetRepository, movements assets.MovementRepository, bus EventPublisher, clock Clock) (*Service, error) {
	if assetRepo == nil {
		return nil, errors.New("asset service: nil asset repository")
	}
	if movements == nil {
		return nil, errors.New("asset service: nil movement repository")
	}
	if clock == nil {
		return nil, errors.New("asset service: nil clock")
	}
	return &Service{assets: assetRepo, movements: movements, bus: bus, clock: clock}, nil
}

// Register upserts an asset record.
func (s *Service) Register(ctx context.Context, asset *assets.Asset) error {
	if asset == nil {
		return errors.New("asset service: nil asset")
	}
	if asset.ID == "" {
		asset.ID = newAssetID()
	}
	if asset.Status == "" {
		asset.Status = assets.StatusRunning
	}
	if asset.CreatedAt.IsZero() {
		asset.CreatedAt = s.clock.Now().UTC()
	}
	return s.assets.Save(ctx, asset)
}

// RecordMovement appends a relocation entry, moves the asset to its new
// location and emits AssetRelocated.
func (s *Service) RecordMovement(ctx context.Context, entry *assets.MovementLog) error {
	if entry == nil {
		return errors.New("asset service: nil movement")
	}
	asset, err := s.assets.GetByRef(ctx, entry.AssetRef)
	if err != nil {
		return err
	}

	if entry.FromLocationID == "" {
		entry.FromLocationID = asset.LocationID
	}
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = s.clock.Now().UTC()
	}
	if err := s.movements.Append(ctx, entry); err != nil {
		return err
	}

	asset.LocationID = entry.ToLocationID
	if err := s.assets.Save(ctx, asset); err != nil {
		return err
	}

	if s.bus != nil {
		_ = s.bus.Publish(ctx, events.AssetRelocated{
			AssetID:        asset.ID,
			AssetRef:       entry.AssetRef,
			FromLocationID: entry.FromLocationID,
			ToLocationID:   entry.ToLocationID,
			OccurredAt:     entry.RecordedAt,
		})
	}
	return nil
}

func newAssetID() string {
	var buf [6]byte
	_, _ = rand.Read(buf[:])
	return "asset-" + hex.EncodeToString(buf[:])
}

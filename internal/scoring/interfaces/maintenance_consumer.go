package interfaces

import (
	"context"
	"errors"

	assetevents "medequip-cloud/internal/assets/application/events"
	"medequip-cloud/internal/eventing/eventbus"
	maintenanceevents "medequip-cloud/internal/maintenance/application/events"
)

// RiskRefresher recomputes the risk score of one asset.
type RiskRefresher interface {
	RefreshAsset(ctx context.Context, assetRef string) (int, error)
}

// MaintenanceEventConsumer refreshes risk scores when maintenance or
// movement activity touches an asset.
type MaintenanceEventConsumer struct {
	refresher RiskRefresher
}

// NewMaintenanceEventConsumer constructs a consumer.
func NewMaintenanceEventConsumer(refresher RiskRefresher) (*MaintenanceEventConsumer, error) {
	if refresher == nil {
		return nil, errors.New("scoring consumer: nil refresher")
	}
	return &MaintenanceEventConsumer{refresher: refresher}, nil
}

// HandleFaultReported refreshes the asset named by a fault report.
func (c *MaintenanceEventConsumer) HandleFaultReported(ctx context.Context, event any) error {
	evt, ok := event.(maintenanceevents.FaultReported)
	if !ok {
		return eventbus.ErrInvalidEventType
	}
	_, err := c.refresher.RefreshAsset(ctx, evt.AssetRef)
	return err
}

// HandleWorkOrderClosed refreshes the asset after a repair completes.
func (c *MaintenanceEventConsumer) HandleWorkOrderClosed(ctx context.Context, event any) error {
	evt, ok := event.(maintenanceevents.WorkOrderClosed)
	if !ok {
		return eventbus.ErrInvalidEventType
	}
	_, err := c.refresher.RefreshAsset(ctx, evt.AssetRef)
	return err
}

// HandleAssetRelocated refreshes the asset after a relocation.
func (c *MaintenanceEventConsumer) HandleAssetRelocated(ctx context.Context, event any) error {
	evt, ok := event.(assetevents.AssetRelocated)
	if !ok {
		return eventbus.ErrInvalidEventType
	}
	_, err := c.refresher.RefreshAsset(ctx, evt.AssetRef)
	return err
}

package interfaces

import (
	"context"
	"errors"
	"log"

	"medequip-cloud/internal/eventing/eventbus"
	inventory "medequip-cloud/internal/inventory/domain"
	maintenanceevents "medequip-cloud/internal/maintenance/application/events"
)

// WorkOrderClosedConsumer decrements stock for parts consumed by a
// completed work order.
type WorkOrderClosedConsumer struct {
	parts  inventory.PartRepository
	logger *log.Logger
}

// NewWorkOrderClosedConsumer constructs a consumer.
func NewWorkOrderClosedConsumer(parts inventory.PartRepository, logger *log.Logger) (*WorkOrderClosedConsumer, error) {
	if parts == nil {
		return nil, errors.New("inventory consumer: nil part repository")
	}
	return &WorkOrderClosedConsumer{parts: parts, logger: logger}, nil
}

// Consume handles a WorkOrderClosed event. Unknown part ids are logged
// and skipped rather than failing the event.
func (c *WorkOrderClosedConsumer) Consume(ctx context.Context, event any) error {
	evt, ok := event.(maintenanceevents.WorkOrderClosed)
	if !ok {
		return eventbus.ErrInvalidEventType
	}

	for _, usage := range evt.PartsUsed {
		if usage.PartID == "" || usage.Quantity <= 0 {
			continue
		}
		stock, err := c.parts.AdjustStock(ctx, usage.PartID, -usage.Quantity)
		if err != nil {
			if errors.Is(err, inventory.ErrNotFound) {
				if c.logger != nil {
					c.logger.Printf("inventory: unknown part %s on work order %s", usage.PartID, evt.WorkOrderID)
				}
				continue
			}
			return err
		}
		if c.logger != nil && stock == 0 {
			c.logger.Printf("inventory: part %s exhausted after work order %s", usage.PartID, evt.WorkOrderID)
		}
	}
	return nil
}

package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	assets "medequip-cloud/internal/assets/domain"
	"medequip-cloud/internal/maintenance/application/events"
	maintenance "medequip-cloud/internal/maintenance/domain"
)

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// EventPublisher publishes domain events.
type EventPublisher interface {
	Publish(ctx context.Context, event any) error
}

// Service coordinates the work-order lifecycle.
type Service struct {
	orders maintenance.WorkOrderRepository
	assets assets.AssetRepository
	bus    EventPublisher
	clock  Clock
}

// NewService constructs a maintenance service.
func NewService(orders maintenance.WorkOrderRepository, assetRepo assets.AssetRepository, bus EventPublisher, clock Clock) (*Service, error) {
	if orders == nil {
		return nil, errors.New("maintenance service: nil order repository")
	}
	if assetRepo == nil {
		return nil, errors.New("maintenance service: nil asset repository")
	}
	if clock == nil {
		return nil, errors.New("maintenance service: nil clock")
	}
	return &Service{orders: orders, assets: assetRepo, bus: bus, clock: clock}, nil
}

// ReportFaultInput describes a fault report from the floor.
type ReportFaultInput struct {
	AssetRef   string
	FaultText  string
	Priority   maintenance.Priority
	ReportedBy string
}

// ReportFault opens a corrective work order for the referenced asset
// and marks the asset down. The reference may be the asset's primary id
// or its tag id.
func (s *Service) ReportFault(ctx context.Context, input ReportFaultInput) (*maintenance.WorkOrder, error) {
	asset, err := s.assets.GetByRef(ctx, input.AssetRef)
	if err != nil {
		return nil, err
	}
	priority := input.Priority
	if priority == "" {
		priority = maintenance.PriorityMedium
	}

	now := s.clock.Now().UTC()
	order := &maintenance.WorkOrder{
		ID:         newWorkOrderID(),
		AssetRef:   input.AssetRef,
		Type:       maintenance.TypeCorrective,
		Priority:   priority,
		Status:     maintenance.StatusOpen,
		FaultText:  input.FaultText,
		ReportedBy: input.ReportedBy,
		CreatedAt:  now,
	}
	if err := s.orders.Save(ctx, order); err != nil {
		return nil, err
	}
	if asset.Status == assets.StatusRunning {
		if err := s.assets.UpdateStatus(ctx, asset.ID, assets.StatusDown); err != nil {
			return nil, err
		}
	}

	s.publish(ctx, events.FaultReported{
		WorkOrderID: order.ID,
		AssetID:     asset.ID,
		AssetRef:    order.AssetRef,
		Priority:    order.Priority,
		FaultText:   order.FaultText,
		ReportedBy:  order.ReportedBy,
		OccurredAt:  now,
	})
	return order, nil
}

// SchedulePreventive opens a preventive or calibration order.
func (s *Service) SchedulePreventive(ctx context.Context, assetRef string, orderType maintenance.Type, priority maintenance.Priority, note string) (*maintenance.WorkOrder, error) {
	if orderType != maintenance.TypePreventive && orderType != maintenance.TypeCalibration {
		return nil, errors.New("maintenance service: type must be preventive or calibration")
	}
	if _, err := s.assets.GetByRef(ctx, assetRef); err != nil {
		return nil, err
	}
	if priority == "" {
		priority = maintenance.PriorityLow
	}

	order := &maintenance.WorkOrder{
		ID:        newWorkOrderID(),
		AssetRef:  assetRef,
		Type:      orderType,
		Priority:  priority,
		Status:    maintenance.StatusOpen,
		FaultText: note,
		CreatedAt: s.clock.Now().UTC(),
	}
	if err := s.orders.Save(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// Assign hands an open work order to a technician.
func (s *Service) Assign(ctx context.Context, orderID, technicianID string) (*maintenance.WorkOrder, error) {
	if technicianID == "" {
		return nil, errors.New("maintenance service: empty technician id")
	}
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != maintenance.StatusOpen && order.Status != maintenance.StatusAssigned {
		return nil, maintenance.ErrInvalidTransition
	}

	order.AssigneeID = technicianID
	order.Status = maintenance.StatusAssigned
	if err := s.orders.Save(ctx, order); err != nil {
		return nil, err
	}

	s.publish(ctx, events.WorkOrderAssigned{
		WorkOrderID: order.ID,
		AssetID:     s.resolveAssetID(ctx, order.AssetRef),
		AssigneeID:  technicianID,
		OccurredAt:  s.clock.Now().UTC(),
	})
	return order, nil
}

// Start moves an assigned order to in progress and stamps StartedAt.
func (s *Service) Start(ctx context.Context, orderID string) (*maintenance.WorkOrder, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != maintenance.StatusAssigned {
		return nil, maintenance.ErrInvalidTransition
	}

	order.Status = maintenance.StatusInProgress
	order.StartedAt = s.clock.Now().UTC()
	if err := s.orders.Save(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// CloseInput describes completion details.
type CloseInput struct {
	Resolution string
	PartsUsed  []maintenance.PartUsage
}

// Close completes a work order, records parts used and returns the
// asset to running when no other open orders reference it.
func (s *Service) Close(ctx context.Context, orderID string, input CloseInput) (*maintenance.WorkOrder, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.IsOpen() {
		return nil, maintenance.ErrInvalidTransition
	}

	now := s.clock.Now().UTC()
	order.Status = maintenance.StatusClosed
	order.Resolution = input.Resolution
	order.PartsUsed = input.PartsUsed
	order.ClosedAt = now
	if err := s.orders.Save(ctx, order); err != nil {
		return nil, err
	}

	asset, err := s.assets.GetByRef(ctx, order.AssetRef)
	if err == nil && asset.Status == assets.StatusDown {
		if open, countErr := s.hasOtherOpenOrders(ctx, asset, order.ID); countErr == nil && !open {
			_ = s.assets.UpdateStatus(ctx, asset.ID, assets.StatusRunning)
		}
	}

	assetID := ""
	if asset != nil {
		assetID = asset.ID
	}
	s.publish(ctx, events.WorkOrderClosed{
		WorkOrderID: order.ID,
		AssetID:     assetID,
		AssetRef:    order.AssetRef,
		Type:        order.Type,
		PartsUsed:   order.PartsUsed,
		OccurredAt:  now,
	})
	return order, nil
}

// Cancel abandons an open work order.
func (s *Service) Cancel(ctx context.Context, orderID string) (*maintenance.WorkOrder, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.IsOpen() {
		return nil, maintenance.ErrInvalidTransition
	}

	order.Status = maintenance.StatusCancelled
	if err := s.orders.Save(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Service) hasOtherOpenOrders(ctx context.Context, asset *assets.Asset, excludeID string) (bool, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return false, err
	}
	for i := range orders {
		if orders[i].ID == excludeID {
			continue
		}
		if orders[i].Status.IsOpen() && asset.MatchesRef(orders[i].AssetRef) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) resolveAssetID(ctx context.Context, ref string) string {
	asset, err := s.assets.GetByRef(ctx, ref)
	if err != nil || asset == nil {
		return ""
	}
	return asset.ID
}

func (s *Service) publish(ctx context.Context, event any) {
	if s.bus == nil {
		return
	}
	_ = s.bus.Publish(ctx, event)
}

func newWorkOrderID() string {
	var buf [6]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return fmt.Sprintf("wo-%d", time.Now().UnixNano())
	}
	return "wo-" + hex.EncodeToString(buf[:])
}

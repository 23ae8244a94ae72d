package application

import (
	"context"
	"errors"
	"testing"
	"time"

	assets "medequip-cloud/internal/assets/domain"
	assetmemory "medequip-cloud/internal/assets/infrastructure/memory"
	"medequip-cloud/internal/maintenance/application/events"
	maintenance "medequip-cloud/internal/maintenance/domain"
	maintmemory "medequip-cloud/internal/maintenance/infrastructure/memory"
)

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

func (c *fixedClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type recordingBus struct {
	events []any
}

func (b *recordingBus) Publish(_ context.Context, event any) error {
	b.events = append(b.events, event)
	return nil
}

func newTestFixture(t *testing.T) (*Service, *assetmemory.AssetRepository, *maintmemory.WorkOrderRepository, *recordingBus, *fixedClock) {
	t.Helper()
	assetRepo := assetmemory.NewAssetRepository()
	orderRepo := maintmemory.NewWorkOrderRepository()
	bus := &recordingBus{}
	clock := &fixedClock{now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}

	service, err := NewService(orderRepo, assetRepo, bus, clock)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	seedAsset := &assets.Asset{
		ID:           "asset-vent-01",
		TagID:        "RFID-1001",
		Name:         "Ventilator 1",
		Model:        "Servo-U",
		Manufacturer: "Getinge",
		LocationID:   "icu-1",
		Status:       assets.StatusRunning,
		PurchaseDate: time.Date(2022, 1, 15, 0, 0, 0, 0, time.UTC),
	}
	if err := assetRepo.Save(context.Background(), seedAsset); err != nil {
		t.Fatalf("seed asset: %v", err)
	}
	return service, assetRepo, orderRepo, bus, clock
}

func TestReportFaultOpensOrderAndMarksAssetDown(t *testing.T) {
	service, assetRepo, _, bus, _ := newTestFixture(t)
	ctx := context.Background()

	order, err := service.ReportFault(ctx, ReportFaultInput{
		AssetRef:   "RFID-1001",
		FaultText:  "No airflow on inspiration",
		Priority:   maintenance.PriorityCritical,
		ReportedBy: "nurse-7",
	})
	if err != nil {
		t.Fatalf("ReportFault: %v", err)
	}
	if order.Status != maintenance.StatusOpen {
		t.Fatalf("status = %s, want open", order.Status)
	}
	if order.Type != maintenance.TypeCorrective {
		t.Fatalf("type = %s, want corrective", order.Type)
	}

	asset, err := assetRepo.Get(ctx, "asset-vent-01")
	if err != nil {
		t.Fatalf("Get asset: %v", err)
	}
	if asset.Status != assets.StatusDown {
		t.Fatalf("asset status = %s, want down", asset.Status)
	}

	if len(bus.events) != 1 {
		t.Fatalf("events = %d, want 1", len(bus.events))
	}
	fault, ok := bus.events[0].(events.FaultReported)
	if !ok {
		t.Fatalf("event type = %T, want FaultReported", bus.events[0])
	}
	if fault.AssetID != "asset-vent-01" {
		t.Fatalf("event asset id = %s", fault.AssetID)
	}
}

func TestReportFaultDefaultsPriorityMedium(t *testing.T) {
	service, _, _, _, _ := newTestFixture(t)

	order, err := service.ReportFault(context.Background(), ReportFaultInput{
		AssetRef:  "asset-vent-01",
		FaultText: "Intermittent screen flicker",
	})
	if err != nil {
		t.Fatalf("ReportFault: %v", err)
	}
	if order.Priority != maintenance.PriorityMedium {
		t.Fatalf("priority = %s, want medium", order.Priority)
	}
}

func TestReportFaultUnknownAsset(t *testing.T) {
	service, _, _, _, _ := newTestFixture(t)

	_, err := service.ReportFault(context.Background(), ReportFaultInput{AssetRef: "no-such-asset"})
	if !errors.Is(err, assets.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestWorkOrderLifecycle(t *testing.T) {
	service, assetRepo, orderRepo, bus, clock := newTestFixture(t)
	ctx := context.Background()

	order, err := service.ReportFault(ctx, ReportFaultInput{AssetRef: "asset-vent-01", FaultText: "Leak alarm"})
	if err != nil {
		t.Fatalf("ReportFault: %v", err)
	}

	if _, err := service.Assign(ctx, order.ID, "tech-1"); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	clock.Advance(30 * time.Minute)
	if _, err := service.Start(ctx, order.ID); err != nil {
		t.Fatalf("Start: %v", err)
	}
	clock.Advance(2 * time.Hour)

	closed, err := service.Close(ctx, order.ID, CloseInput{
		Resolution: "Replaced expiratory cassette",
		PartsUsed:  []maintenance.PartUsage{{PartID: "part-cassette", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	if closed.Status != maintenance.StatusClosed {
		t.Fatalf("status = %s, want closed", closed.Status)
	}
	if got := closed.ClosedAt.Sub(closed.StartedAt); got != 2*time.Hour {
		t.Fatalf("repair duration = %s, want 2h", got)
	}

	asset, err := assetRepo.Get(ctx, "asset-vent-01")
	if err != nil {
		t.Fatalf("Get asset: %v", err)
	}
	if asset.Status != assets.StatusRunning {
		t.Fatalf("asset status = %s, want running after close", asset.Status)
	}

	stored, err := orderRepo.Get(ctx, order.ID)
	if err != nil {
		t.Fatalf("Get order: %v", err)
	}
	if len(stored.PartsUsed) != 1 || stored.PartsUsed[0].PartID != "part-cassette" {
		t.Fatalf("parts used = %+v", stored.PartsUsed)
	}

	var sawClose bool
	for _, event := range bus.events {
		if closedEvent, ok := event.(events.WorkOrderClosed); ok {
			sawClose = true
			if len(closedEvent.PartsUsed) != 1 {
				t.Fatalf("close event parts = %+v", closedEvent.PartsUsed)
			}
		}
	}
	if !sawClose {
		t.Fatal("WorkOrderClosed event not published")
	}
}

func TestCloseKeepsAssetDownWhileOtherOrdersOpen(t *testing.T) {
	service, assetRepo, _, _, _ := newTestFixture(t)
	ctx := context.Background()

	first, err := service.ReportFault(ctx, ReportFaultInput{AssetRef: "asset-vent-01", FaultText: "Leak alarm"})
	if err != nil {
		t.Fatalf("ReportFault first: %v", err)
	}
	if _, err := service.ReportFault(ctx, ReportFaultInput{AssetRef: "RFID-1001", FaultText: "Battery warning"}); err != nil {
		t.Fatalf("ReportFault second: %v", err)
	}

	if _, err := service.Close(ctx, first.ID, CloseInput{Resolution: "Reseated tubing"}); err != nil {
		t.Fatalf("Close: %v", err)
	}

	asset, err := assetRepo.Get(ctx, "asset-vent-01")
	if err != nil {
		t.Fatalf("Get asset: %v", err)
	}
	if asset.Status != assets.StatusDown {
		t.Fatalf("asset status = %s, want still down", asset.Status)
	}
}

func TestAssignRejectsClosedOrder(t *testing.T) {
	service, _, _, _, _ := newTestFixture(t)
	ctx := context.Background()

	order, err := service.ReportFault(ctx, ReportFaultInput{AssetRef: "asset-vent-01", FaultText: "Leak"})
	if err != nil {
		t.Fatalf("ReportFault: %v", err)
	}
	if _, err := service.Close(ctx, order.ID, CloseInput{Resolution: "Fixed"}); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := service.Assign(ctx, order.ID, "tech-1"); !errors.Is(err, maintenance.ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestStartRequiresAssignment(t *testing.T) {
	service, _, _, _, _ := newTestFixture(t)
	ctx := context.Background()

	order, err := service.ReportFault(ctx, ReportFaultInput{AssetRef: "asset-vent-01", FaultText: "Leak"})
	if err != nil {
		t.Fatalf("ReportFault: %v", err)
	}
	if _, err := service.Start(ctx, order.ID); !errors.Is(err, maintenance.ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestSchedulePreventiveRejectsCorrective(t *testing.T) {
	service, _, _, _, _ := newTestFixture(t)

	if _, err := service.SchedulePreventive(context.Background(), "asset-vent-01", maintenance.TypeCorrective, "", ""); err == nil {
		t.Fatal("expected error for corrective type")
	}
}

func TestCancelOpenOrder(t *testing.T) {
	service, _, orderRepo, _, _ := newTestFixture(t)
	ctx := context.Background()

	order, err := service.SchedulePreventive(ctx, "asset-vent-01", maintenance.TypePreventive, maintenance.PriorityLow, "Quarterly check")
	if err != nil {
		t.Fatalf("SchedulePreventive: %v", err)
	}
	if _, err := service.Cancel(ctx, order.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	stored, err := orderRepo.Get(ctx, order.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Status != maintenance.StatusCancelled {
		t.Fatalf("status = %s, want cancelled", stored.Status)
	}
}

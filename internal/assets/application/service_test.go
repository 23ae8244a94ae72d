package application

import (
	"context"
	"strings"
	"testing"
	"time"

	"medequip-cloud/internal/assets/application/events"
	assets "medequip-cloud/internal/assets/domain"
	memory "medequip-cloud/internal/assets/infrastructure/memory"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

type recordingBus struct {
	events []any
}

func (b *recordingBus) Publish(_ context.Context, event any) error {
	b.events = append(b.events, event)
	return nil
}

func newService(t *testing.T) (*Service, *memory.AssetRepository, *memory.MovementRepository, *recordingBus) {
	t.Helper()
	assetRepo := memory.NewAssetRepository()
	movementRepo := memory.NewMovementRepository()
	bus := &recordingBus{}
	clock := fixedClock{now: time.Date(2026, 4, 20, 8, 0, 0, 0, time.UTC)}

	service, err := NewService(assetRepo, movementRepo, bus, clock)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return service, assetRepo, movementRepo, bus
}

func TestRegisterGeneratesIDAndDefaults(t *testing.T) {
	service, assetRepo, _, _ := newService(t)
	ctx := context.Background()

	asset := &assets.Asset{
		TagID:        "RFID-3001",
		Name:         "Mobile X-Ray",
		Model:        "Mobilett Elara Max",
		LocationID:   "rad-1",
		PurchaseDate: time.Date(2021, 7, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := service.Register(ctx, asset); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if !strings.HasPrefix(asset.ID, "asset-") {
		t.Fatalf("generated id = %q", asset.ID)
	}
	if asset.Status != assets.StatusRunning {
		t.Fatalf("status = %s, want running", asset.Status)
	}
	if asset.CreatedAt.IsZero() {
		t.Fatal("created at not stamped")
	}

	stored, err := assetRepo.GetByRef(ctx, "RFID-3001")
	if err != nil {
		t.Fatalf("GetByRef: %v", err)
	}
	if stored.ID != asset.ID {
		t.Fatalf("stored id = %s, want %s", stored.ID, asset.ID)
	}
}

func TestRecordMovementRelocatesAssetAndPublishes(t *testing.T) {
	service, assetRepo, movementRepo, bus := newService(t)
	ctx := context.Background()

	seed := &assets.Asset{
		ID:           "asset-pump-01",
		TagID:        "RFID-2001",
		Name:         "Infusion Pump 1",
		Model:        "Alaris 8100",
		LocationID:   "er-1",
		Status:       assets.StatusRunning,
		PurchaseDate: time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := assetRepo.Save(ctx, seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	entry := &assets.MovementLog{AssetRef: "RFID-2001", ToLocationID: "icu-1"}
	if err := service.RecordMovement(ctx, entry); err != nil {
		t.Fatalf("RecordMovement: %v", err)
	}
	if entry.FromLocationID != "er-1" {
		t.Fatalf("from = %s, want er-1 defaulted from asset", entry.FromLocationID)
	}
	if entry.RecordedAt.IsZero() {
		t.Fatal("recorded at not stamped")
	}

	moved, err := assetRepo.Get(ctx, "asset-pump-01")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if moved.LocationID != "icu-1" {
		t.Fatalf("location = %s, want icu-1", moved.LocationID)
	}

	logs, err := movementRepo.ListByAsset(ctx, []string{"asset-pump-01", "RFID-2001"})
	if err != nil {
		t.Fatalf("ListByAsset: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("movements = %d, want 1", len(logs))
	}

	if len(bus.events) != 1 {
		t.Fatalf("events = %d, want 1", len(bus.events))
	}
	relocated, ok := bus.events[0].(events.AssetRelocated)
	if !ok {
		t.Fatalf("event type = %T", bus.events[0])
	}
	if relocated.AssetID != "asset-pump-01" || relocated.ToLocationID != "icu-1" {
		t.Fatalf("event = %+v", relocated)
	}
}

func TestRecordMovementUnknownAsset(t *testing.T) {
	service, _, _, _ := newService(t)

	entry := &assets.MovementLog{AssetRef: "ghost", ToLocationID: "icu-1"}
	if err := service.RecordMovement(context.Background(), entry); err == nil {
		t.Fatal("expected error for unknown asset")
	}
}

package application

import (
	"context"
	"testing"
	"time"

	assetevents "medequip-cloud/internal/assets/application/events"
	assets "medequip-cloud/internal/assets/domain"
	assetmemory "medequip-cloud/internal/assets/infrastructure/memory"
	inventory "medequip-cloud/internal/inventory/domain"
	invmemory "medequip-cloud/internal/inventory/infrastructure/memory"
	maintenance "medequip-cloud/internal/maintenance/domain"
	maintmemory "medequip-cloud/internal/maintenance/infrastructure/memory"
	masterdata "medequip-cloud/internal/masterdata/domain"
	mdmemory "medequip-cloud/internal/masterdata/infrastructure/memory"
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

type fixture struct {
	service     *Service
	assets      *assetmemory.AssetRepository
	movements   *assetmemory.MovementRepository
	orders      *maintmemory.WorkOrderRepository
	parts       *invmemory.PartRepository
	technicians *mdmemory.TechnicianRepository
	locations   *mdmemory.LocationRepository
	bus         *recordingBus
	now         time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		assets:      assetmemory.NewAssetRepository(),
		movements:   assetmemory.NewMovementRepository(),
		orders:      maintmemory.NewWorkOrderRepository(),
		parts:       invmemory.NewPartRepository(),
		technicians: mdmemory.NewTechnicianRepository(),
		locations:   mdmemory.NewLocationRepository(),
		bus:         &recordingBus{},
		now:         time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	service, err := NewService(f.assets, f.movements, f.orders, f.parts, f.technicians, f.locations, f.bus, fixedClock{now: f.now})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	f.service = service
	return f
}

func (f *fixture) seedAsset(t *testing.T, asset assets.Asset) {
	t.Helper()
	if err := f.assets.Save(context.Background(), &asset); err != nil {
		t.Fatalf("seed asset %s: %v", asset.ID, err)
	}
}

func (f *fixture) seedOrder(t *testing.T, order maintenance.WorkOrder) {
	t.Helper()
	if err := f.orders.Save(context.Background(), &order); err != nil {
		t.Fatalf("seed order %s: %v", order.ID, err)
	}
}

func TestRefreshAssetComputesAndPersistsScore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// 4 years old, 2100 operating hours, one recent corrective close.
	f.seedAsset(t, assets.Asset{
		ID:             "asset-vent-01",
		TagID:          "RFID-1001",
		Name:           "Ventilator 1",
		Model:          "Servo-U",
		LocationID:     "icu-1",
		Status:         assets.StatusRunning,
		PurchaseDate:   f.now.AddDate(-4, 0, 0),
		OperatingHours: 2100,
	})
	f.seedOrder(t, maintenance.WorkOrder{
		ID:        "wo-1",
		AssetRef:  "RFID-1001",
		Type:      maintenance.TypeCorrective,
		Priority:  maintenance.PriorityHigh,
		Status:    maintenance.StatusClosed,
		CreatedAt: f.now.AddDate(0, -2, 0),
		StartedAt: f.now.AddDate(0, -2, 0),
		ClosedAt:  f.now.AddDate(0, -2, 0).Add(3 * time.Hour),
	})

	score, err := f.service.RefreshAsset(ctx, "asset-vent-01")
	if err != nil {
		t.Fatalf("RefreshAsset: %v", err)
	}
	// 2*4 age + 2100/500 hours + 10 recent corrective = 22.
	if score != 22 {
		t.Fatalf("score = %d, want 22", score)
	}

	stored, err := f.assets.Get(ctx, "asset-vent-01")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.RiskScore != 22 {
		t.Fatalf("persisted score = %d, want 22", stored.RiskScore)
	}

	if len(f.bus.events) != 1 {
		t.Fatalf("events = %d, want 1", len(f.bus.events))
	}
	updated, ok := f.bus.events[0].(assetevents.RiskScoreUpdated)
	if !ok {
		t.Fatalf("event type = %T", f.bus.events[0])
	}
	if updated.PreviousScore != 0 || updated.Score != 22 {
		t.Fatalf("event scores = %d -> %d", updated.PreviousScore, updated.Score)
	}
	if updated.Model != "Servo-U" || updated.LocationID != "icu-1" {
		t.Fatalf("event fields = %+v", updated)
	}
}

func TestRefreshAssetResolvesTagID(t *testing.T) {
	f := newFixture(t)

	f.seedAsset(t, assets.Asset{
		ID:           "asset-pump-01",
		TagID:        "RFID-2001",
		Name:         "Infusion Pump 1",
		Model:        "Alaris 8100",
		LocationID:   "er-1",
		Status:       assets.StatusRunning,
		PurchaseDate: f.now.AddDate(-2, 0, 0),
	})

	score, err := f.service.RefreshAsset(context.Background(), "RFID-2001")
	if err != nil {
		t.Fatalf("RefreshAsset by tag: %v", err)
	}
	if score != 4 {
		t.Fatalf("score = %d, want 4", score)
	}
}

func TestRefreshAllCountsOnlyChangedAssets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedAsset(t, assets.Asset{
		ID:           "asset-a",
		Name:         "Monitor A",
		Model:        "IntelliVue MX450",
		LocationID:   "icu-1",
		Status:       assets.StatusRunning,
		PurchaseDate: f.now.AddDate(-3, 0, 0),
		RiskScore:    6,
	})
	f.seedAsset(t, assets.Asset{
		ID:           "asset-b",
		Name:         "Monitor B",
		Model:        "IntelliVue MX450",
		LocationID:   "icu-1",
		Status:       assets.StatusRunning,
		PurchaseDate: f.now.AddDate(-5, 0, 0),
		RiskScore:    0,
	})

	changed, err := f.service.RefreshAll(ctx)
	if err != nil {
		t.Fatalf("RefreshAll: %v", err)
	}
	// asset-a already carries its correct score of 6; only asset-b moves.
	if changed != 1 {
		t.Fatalf("changed = %d, want 1", changed)
	}
}

func TestRecommendRanksOnSiteTechnicianFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedAsset(t, assets.Asset{
		ID:           "asset-vent-01",
		Name:         "Ventilator 1",
		Model:        "Servo-U",
		LocationID:   "icu-1",
		Status:       assets.StatusDown,
		PurchaseDate: f.now.AddDate(-1, 0, 0),
	})
	for _, loc := range []masterdata.Location{
		{ID: "icu-1", Name: "ICU Bay 1", Department: "ICU", Floor: 3},
		{ID: "icu-2", Name: "ICU Bay 2", Department: "ICU", Floor: 3},
		{ID: "workshop", Name: "Workshop", Department: "Engineering", Floor: 0},
	} {
		locCopy := loc
		if err := f.locations.Save(ctx, &locCopy); err != nil {
			t.Fatalf("seed location: %v", err)
		}
	}
	for _, tech := range []masterdata.Technician{
		{ID: "tech-onsite", Name: "Asha Pillai", LocationID: "icu-1", Active: true},
		{ID: "tech-dept", Name: "Ben Okafor", LocationID: "icu-2", Active: true},
		{ID: "tech-remote", Name: "Carol Mach", LocationID: "workshop", Active: true},
	} {
		techCopy := tech
		if err := f.technicians.Save(ctx, &techCopy); err != nil {
			t.Fatalf("seed technician: %v", err)
		}
	}

	recommendations, err := f.service.Recommend(ctx, "asset-vent-01")
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(recommendations) != 3 {
		t.Fatalf("recommendations = %d, want 3", len(recommendations))
	}
	if recommendations[0].Technician.ID != "tech-onsite" {
		t.Fatalf("top = %s, want tech-onsite", recommendations[0].Technician.ID)
	}
	if recommendations[1].Technician.ID != "tech-dept" {
		t.Fatalf("second = %s, want tech-dept", recommendations[1].Technician.ID)
	}
}

func TestPatternsAggregatesModelHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedAsset(t, assets.Asset{
		ID:           "asset-vent-01",
		TagID:        "RFID-1001",
		Name:         "Ventilator 1",
		Model:        "Servo-U",
		LocationID:   "icu-1",
		Status:       assets.StatusRunning,
		PurchaseDate: f.now.AddDate(-4, 0, 0),
	})
	if err := f.parts.Save(ctx, &inventory.Part{ID: "part-cassette", Name: "Expiratory Cassette", Category: "ventilator", Stock: 4, MinStock: 2}); err != nil {
		t.Fatalf("seed part: %v", err)
	}

	base := f.now.AddDate(0, -3, 0)
	f.seedOrder(t, maintenance.WorkOrder{
		ID: "wo-1", AssetRef: "asset-vent-01", Type: maintenance.TypeCorrective,
		Priority: maintenance.PriorityHigh, Status: maintenance.StatusClosed,
		CreatedAt: base, StartedAt: base, ClosedAt: base.Add(2 * time.Hour),
		PartsUsed: []maintenance.PartUsage{{PartID: "part-cassette", Quantity: 1}},
	})
	f.seedOrder(t, maintenance.WorkOrder{
		ID: "wo-2", AssetRef: "RFID-1001", Type: maintenance.TypeCorrective,
		Priority: maintenance.PriorityMedium, Status: maintenance.StatusClosed,
		CreatedAt: base.Add(24 * time.Hour), StartedAt: base.Add(24 * time.Hour), ClosedAt: base.Add(27 * time.Hour),
		PartsUsed: []maintenance.PartUsage{{PartID: "part-cassette", Quantity: 1}, {PartID: "part-unknown", Quantity: 1}},
	})

	summary, err := f.service.Patterns(ctx, "servo-u", "no airflow")
	if err != nil {
		t.Fatalf("Patterns: %v", err)
	}
	if summary.SimilarCases != 2 {
		t.Fatalf("similar cases = %d, want 2", summary.SimilarCases)
	}
	if summary.AvgRepairTimeHours != 2.5 {
		t.Fatalf("avg repair hours = %v, want 2.5", summary.AvgRepairTimeHours)
	}
	if len(summary.TopPartsUsed) == 0 || summary.TopPartsUsed[0].PartName != "Expiratory Cassette" {
		t.Fatalf("top parts = %+v", summary.TopPartsUsed)
	}
}

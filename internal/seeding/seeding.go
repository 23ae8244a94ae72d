// Package seeding produces demo datasets for local runs and load tests.
package seeding

import (
	"context"
	"fmt"
	"time"

	assets "medequip-cloud/internal/assets/domain"
	inventory "medequip-cloud/internal/inventory/domain"
	maintenance "medequip-cloud/internal/maintenance/domain"
	masterdata "medequip-cloud/internal/masterdata/domain"
)

// Dataset is a complete seedable snapshot.
type Dataset struct {
	Locations   []masterdata.Location
	Technicians []masterdata.Technician
	Assets      []assets.Asset
	Parts       []inventory.Part
	WorkOrders  []maintenance.WorkOrder
	Movements   []assets.MovementLog
}

// Generator produces a dataset. Implementations must be deterministic
// for a given reference time so runs are reproducible.
type Generator interface {
	Generate(now time.Time) Dataset
}

// Repositories collects the stores a dataset is applied to.
type Repositories struct {
	Locations   masterdata.LocationRepository
	Technicians masterdata.TechnicianRepository
	Assets      assets.AssetRepository
	Parts       inventory.PartRepository
	Orders      maintenance.WorkOrderRepository
	Movements   assets.MovementRepository
}

// Apply writes the dataset into the given repositories.
func Apply(ctx context.Context, dataset Dataset, repos Repositories) error {
	for i := range dataset.Locations {
		if repos.Locations == nil {
			break
		}
		if err := repos.Locations.Save(ctx, &dataset.Locations[i]); err != nil {
			return fmt.Errorf("seed location %s: %w", dataset.Locations[i].ID, err)
		}
	}
	for i := range dataset.Technicians {
		if repos.Technicians == nil {
			break
		}
		if err := repos.Technicians.Save(ctx, &dataset.Technicians[i]); err != nil {
			return fmt.Errorf("seed technician %s: %w", dataset.Technicians[i].ID, err)
		}
	}
	for i := range dataset.Assets {
		if repos.Assets == nil {
			break
		}
		if err := repos.Assets.Save(ctx, &dataset.Assets[i]); err != nil {
			return fmt.Errorf("seed asset %s: %w", dataset.Assets[i].ID, err)
		}
	}
	for i := range dataset.Parts {
		if repos.Parts == nil {
			break
		}
		if err := repos.Parts.Save(ctx, &dataset.Parts[i]); err != nil {
			return fmt.Errorf("seed part %s: %w", dataset.Parts[i].ID, err)
		}
	}
	for i := range dataset.WorkOrders {
		if repos.Orders == nil {
			break
		}
		if err := repos.Orders.Save(ctx, &dataset.WorkOrders[i]); err != nil {
			return fmt.Errorf("seed work order %s: %w", dataset.WorkOrders[i].ID, err)
		}
	}
	for i := range dataset.Movements {
		if repos.Movements == nil {
			break
		}
		if err := repos.Movements.Append(ctx, &dataset.Movements[i]); err != nil {
			return fmt.Errorf("seed movement for %s: %w", dataset.Movements[i].AssetRef, err)
		}
	}
	return nil
}

// DemoGenerator produces a small hospital fleet with enough history to
// exercise scoring, recommendations and pattern analysis.
type DemoGenerator struct{}

// Generate implements Generator.
func (DemoGenerator) Generate(now time.Time) Dataset {
	now = now.UTC()
	day := func(daysAgo int) time.Time { return now.AddDate(0, 0, -daysAgo) }

	locations := []masterdata.Location{
		{ID: "icu-1", Name: "ICU Bay 1", Department: "ICU", Floor: 3},
		{ID: "er-1", Name: "Emergency Room", Department: "Emergency", Floor: 1},
		{ID: "rad-1", Name: "Radiology Suite", Department: "Radiology", Floor: 2},
		{ID: "ward-3", Name: "General Ward 3", Department: "General", Floor: 4},
		{ID: "workshop", Name: "Biomed Workshop", Department: "Engineering", Floor: 0},
	}

	technicians := []masterdata.Technician{
		{ID: "tech-ramirez", Name: "P. Ramirez", LocationID: "icu-1", Phone: "x4410", Active: true},
		{ID: "tech-okafor", Name: "C. Okafor", LocationID: "workshop", Phone: "x4411", Active: true},
		{ID: "tech-lindqvist", Name: "S. Lindqvist", LocationID: "rad-1", Phone: "x4412", Active: true},
		{ID: "tech-moreau", Name: "D. Moreau", LocationID: "er-1", Phone: "x4413", Active: true},
	}

	fleet := []assets.Asset{
		{ID: "asset-vent-01", TagID: "TAG-0001", Name: "Ventilator 1", Model: "Servo-U",
			Manufacturer: "Getinge", LocationID: "icu-1", Status: assets.StatusRunning,
			PurchaseDate: now.AddDate(-6, 0, 0), OperatingHours: 21000},
		{ID: "asset-vent-02", TagID: "TAG-0002", Name: "Ventilator 2", Model: "Servo-U",
			Manufacturer: "Getinge", LocationID: "icu-1", Status: assets.StatusRunning,
			PurchaseDate: now.AddDate(-2, 0, 0), OperatingHours: 6400},
		{ID: "asset-pump-01", TagID: "TAG-0003", Name: "Infusion Pump 1", Model: "Alaris 8100",
			Manufacturer: "BD", LocationID: "ward-3", Status: assets.StatusRunning,
			PurchaseDate: now.AddDate(-4, 0, 0), OperatingHours: 9800},
		{ID: "asset-pump-02", TagID: "TAG-0004", Name: "Infusion Pump 2", Model: "Alaris 8100",
			Manufacturer: "BD", LocationID: "er-1", Status: assets.StatusDown,
			PurchaseDate: now.AddDate(-7, 0, 0), OperatingHours: 18200},
		{ID: "asset-xray-01", TagID: "TAG-0005", Name: "Mobile X-Ray", Model: "MobileDaRt Evolution",
			Manufacturer: "Shimadzu", LocationID: "rad-1", Status: assets.StatusRunning,
			PurchaseDate: now.AddDate(-9, 0, 0), OperatingHours: 11300},
		{ID: "asset-mon-01", TagID: "TAG-0006", Name: "Patient Monitor 1", Model: "IntelliVue MX450",
			Manufacturer: "Philips", LocationID: "icu-1", Status: assets.StatusRunning,
			PurchaseDate: now.AddDate(-1, 0, 0), OperatingHours: 3100},
	}

	parts := []inventory.Part{
		{ID: "part-flow-sensor", Name: "Flow Sensor", Category: "ventilator", Stock: 12, MinStock: 4},
		{ID: "part-o2-cell", Name: "O2 Cell", Category: "ventilator", Stock: 8, MinStock: 3},
		{ID: "part-battery", Name: "Battery Pack", Category: "general", Stock: 15, MinStock: 5},
		{ID: "part-pump-set", Name: "Pump Administration Set", Category: "infusion", Stock: 40, MinStock: 10},
		{ID: "part-tube-head", Name: "X-Ray Tube Head", Category: "imaging", Stock: 1, MinStock: 1},
	}

	orders := []maintenance.WorkOrder{
		{ID: "wo-000101", AssetRef: "TAG-0001", Type: maintenance.TypeCorrective, Priority: maintenance.PriorityHigh,
			Status: maintenance.StatusClosed, FaultText: "No airflow, pressure alarm on startup",
			AssigneeID: "tech-ramirez", ReportedBy: "nurse-icu-2",
			Resolution: "Replaced clogged flow sensor, recalibrated",
			PartsUsed:  []maintenance.PartUsage{{PartID: "part-flow-sensor", Quantity: 1}},
			CreatedAt:  day(150), StartedAt: day(150).Add(2 * time.Hour), ClosedAt: day(150).Add(5 * time.Hour)},
		{ID: "wo-000102", AssetRef: "asset-vent-02", Type: maintenance.TypeCorrective, Priority: maintenance.PriorityMedium,
			Status: maintenance.StatusClosed, FaultText: "Oxygen reading drifting low",
			AssigneeID: "tech-okafor", ReportedBy: "nurse-icu-1",
			Resolution: "Replaced expired O2 cell",
			PartsUsed:  []maintenance.PartUsage{{PartID: "part-o2-cell", Quantity: 1}},
			CreatedAt:  day(95), StartedAt: day(95).Add(1 * time.Hour), ClosedAt: day(95).Add(3 * time.Hour)},
		{ID: "wo-000103", AssetRef: "TAG-0001", Type: maintenance.TypeCorrective, Priority: maintenance.PriorityHigh,
			Status: maintenance.StatusClosed, FaultText: "Pressure alarm recurring under load",
			AssigneeID: "tech-ramirez", ReportedBy: "nurse-icu-3",
			Resolution: "Replaced flow sensor and worn tubing",
			PartsUsed:  []maintenance.PartUsage{{PartID: "part-flow-sensor", Quantity: 2}},
			CreatedAt:  day(40), StartedAt: day(40).Add(3 * time.Hour), ClosedAt: day(40).Add(9 * time.Hour)},
		{ID: "wo-000104", AssetRef: "asset-pump-01", Type: maintenance.TypeCorrective, Priority: maintenance.PriorityMedium,
			Status: maintenance.StatusClosed, FaultText: "Occlusion alarms with no occlusion",
			AssigneeID: "tech-okafor", ReportedBy: "nurse-ward-3",
			Resolution: "Replaced administration set and pressure plate",
			PartsUsed:  []maintenance.PartUsage{{PartID: "part-pump-set", Quantity: 1}},
			CreatedAt:  day(60), StartedAt: day(60).Add(4 * time.Hour), ClosedAt: day(60).Add(6 * time.Hour)},
		{ID: "wo-000105", AssetRef: "TAG-0005", Type: maintenance.TypePreventive, Priority: maintenance.PriorityLow,
			Status: maintenance.StatusClosed, FaultText: "",
			AssigneeID: "tech-lindqvist", ReportedBy: "",
			Resolution: "Annual inspection, tube output within tolerance",
			CreatedAt:  day(30), StartedAt: day(30).Add(1 * time.Hour), ClosedAt: day(30).Add(4 * time.Hour)},
		{ID: "wo-000106", AssetRef: "TAG-0004", Type: maintenance.TypeCorrective, Priority: maintenance.PriorityCritical,
			Status: maintenance.StatusOpen, FaultText: "Pump shuts down mid-infusion",
			ReportedBy: "nurse-er-1",
			CreatedAt:  day(1)},
	}

	movements := []assets.MovementLog{
		{AssetRef: "TAG-0001", FromLocationID: "workshop", ToLocationID: "icu-1", RecordedAt: day(140)},
		{AssetRef: "TAG-0004", FromLocationID: "ward-3", ToLocationID: "er-1", RecordedAt: day(70)},
		{AssetRef: "TAG-0004", FromLocationID: "er-1", ToLocationID: "workshop", RecordedAt: day(20)},
		{AssetRef: "TAG-0004", FromLocationID: "workshop", ToLocationID: "er-1", RecordedAt: day(5)},
		{AssetRef: "TAG-0005", FromLocationID: "rad-1", ToLocationID: "er-1", RecordedAt: day(12)},
		{AssetRef: "TAG-0005", FromLocationID: "er-1", ToLocationID: "rad-1", RecordedAt: day(11)},
	}

	return Dataset{
		Locations:   locations,
		Technicians: technicians,
		Assets:      fleet,
		Parts:       parts,
		WorkOrders:  orders,
		Movements:   movements,
	}
}

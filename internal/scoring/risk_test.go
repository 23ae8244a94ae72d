package scoring

import (
	"testing"
	"time"

	assets "medequip-cloud/internal/assets/domain"
	maintenance "medequip-cloud/internal/maintenance/domain"
)

var riskNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func newAsset() assets.Asset {
	return assets.Asset{
		ID:           "asset-1",
		TagID:        "TAG-0001",
		Name:         "Ventilator 12",
		Model:        "Servo-U",
		LocationID:   "icu-1",
		Status:       assets.StatusRunning,
		PurchaseDate: riskNow,
	}
}

func TestComputeRiskScoreNewIdleAssetIsZero(t *testing.T) {
	asset := newAsset()
	score := ComputeRiskScore(asset, nil, nil, riskNow)
	if score != 0 {
		t.Fatalf("expected 0 for new idle asset, got %d", score)
	}
}

func TestComputeRiskScoreFactors(t *testing.T) {
	asset := newAsset()
	asset.PurchaseDate = time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC) // 5 years -> 10
	asset.OperatingHours = 1700                                      // floor(1700/500) -> 3

	orders := []maintenance.WorkOrder{
		{ID: "wo-1", AssetRef: "asset-1", Type: maintenance.TypeCorrective, Status: maintenance.StatusClosed, CreatedAt: riskNow.AddDate(0, -1, 0)},
		{ID: "wo-2", AssetRef: "TAG-0001", Type: maintenance.TypeCorrective, Status: maintenance.StatusOpen, CreatedAt: riskNow.AddDate(0, -2, 0)},
		// Preventive orders never count.
		{ID: "wo-3", AssetRef: "asset-1", Type: maintenance.TypePreventive, Status: maintenance.StatusClosed, CreatedAt: riskNow.AddDate(0, -1, 0)},
		// Too old.
		{ID: "wo-4", AssetRef: "asset-1", Type: maintenance.TypeCorrective, Status: maintenance.StatusClosed, CreatedAt: riskNow.AddDate(-1, 0, 0)},
		// Different asset.
		{ID: "wo-5", AssetRef: "asset-2", Type: maintenance.TypeCorrective, Status: maintenance.StatusClosed, CreatedAt: riskNow.AddDate(0, -1, 0)},
	}
	movements := []assets.MovementLog{
		{AssetRef: "asset-1", ToLocationID: "er-1", RecordedAt: riskNow.AddDate(0, -1, 0)},
		{AssetRef: "TAG-0001", ToLocationID: "icu-1", RecordedAt: riskNow.AddDate(0, -3, 0)},
		{AssetRef: "asset-1", ToLocationID: "er-1", RecordedAt: riskNow.AddDate(-2, 0, 0)},
	}

	// 10 age + 3 utilization + 2*10 failures + 2*5 movements = 43
	score := ComputeRiskScore(asset, orders, movements, riskNow)
	if score != 43 {
		t.Fatalf("expected 43, got %d", score)
	}
}

func TestComputeRiskScoreClampsAt100(t *testing.T) {
	asset := newAsset()
	asset.PurchaseDate = time.Date(1976, 1, 1, 0, 0, 0, 0, time.UTC)
	asset.OperatingHours = 50000

	score := ComputeRiskScore(asset, nil, nil, riskNow)
	if score != 100 {
		t.Fatalf("expected clamp at 100, got %d", score)
	}
}

func TestComputeRiskScoreMalformedDatesContributeZero(t *testing.T) {
	asset := newAsset()
	asset.PurchaseDate = time.Time{}

	orders := []maintenance.WorkOrder{
		{ID: "wo-1", AssetRef: "asset-1", Type: maintenance.TypeCorrective},
	}
	movements := []assets.MovementLog{
		{AssetRef: "asset-1", ToLocationID: "er-1"},
	}

	score := ComputeRiskScore(asset, orders, movements, riskNow)
	if score != 0 {
		t.Fatalf("expected 0 with zero-value dates, got %d", score)
	}

	asset.PurchaseDate = riskNow.AddDate(2, 0, 0)
	if got := ComputeRiskScore(asset, nil, nil, riskNow); got != 0 {
		t.Fatalf("expected 0 for future purchase date, got %d", got)
	}
}

func TestComputeRiskScoreMonotonicInFailures(t *testing.T) {
	asset := newAsset()
	var orders []maintenance.WorkOrder
	previous := 0
	for i := 0; i < 12; i++ {
		orders = append(orders, maintenance.WorkOrder{
			ID:        "wo",
			AssetRef:  "asset-1",
			Type:      maintenance.TypeCorrective,
			CreatedAt: riskNow.AddDate(0, 0, -7),
		})
		score := ComputeRiskScore(asset, orders, nil, riskNow)
		if score < previous {
			t.Fatalf("score decreased from %d to %d after adding a failure", previous, score)
		}
		if score > MaxRiskScore {
			t.Fatalf("score %d above clamp", score)
		}
		previous = score
	}
}

func TestResolveAssetRef(t *testing.T) {
	snapshot := []assets.Asset{
		{ID: "asset-1", TagID: "TAG-0001"},
		{ID: "asset-2", TagID: "TAG-0002"},
	}

	if id, ok := ResolveAssetRef("TAG-0002", snapshot); !ok || id != "asset-2" {
		t.Fatalf("expected asset-2 via tag, got %q ok=%v", id, ok)
	}
	if id, ok := ResolveAssetRef("asset-1", snapshot); !ok || id != "asset-1" {
		t.Fatalf("expected asset-1 via primary id, got %q ok=%v", id, ok)
	}
	if _, ok := ResolveAssetRef("TAG-9999", snapshot); ok {
		t.Fatalf("expected no match for unknown ref")
	}
	if _, ok := ResolveAssetRef("", snapshot); ok {
		t.Fatalf("expected no match for empty ref")
	}
}

package scoring

import (
	"testing"

	assets "medequip-cloud/internal/assets/domain"
	maintenance "medequip-cloud/internal/maintenance/domain"
	masterdata "medequip-cloud/internal/masterdata/domain"
)

func deptLookup(locationID string) string {
	switch locationID {
	case "icu-1", "icu-2":
		return "Intensive Care"
	case "er-1":
		return "Emergency"
	default:
		return ""
	}
}

func closedOrders(assignee string, n int) []maintenance.WorkOrder {
	orders := make([]maintenance.WorkOrder, 0, n)
	for i := 0; i < n; i++ {
		orders = append(orders, maintenance.WorkOrder{
			ID:         "wo",
			AssetRef:   "asset-1",
			AssigneeID: assignee,
			Type:       maintenance.TypeCorrective,
			Status:     maintenance.StatusClosed,
		})
	}
	return orders
}

func TestRecommendTechniciansEmptyCandidates(t *testing.T) {
	asset := newAsset()
	result := RecommendTechnicians(asset, nil, nil, deptLookup)
	if len(result) != 0 {
		t.Fatalf("expected empty result, got %d entries", len(result))
	}
}

func TestRecommendTechniciansProximityTiers(t *testing.T) {
	asset := newAsset() // located at icu-1

	candidates := []masterdata.Technician{
		{ID: "tech-remote", LocationID: "er-1"},
		{ID: "tech-dept", LocationID: "icu-2"},
		{ID: "tech-onsite", LocationID: "icu-1"},
	}

	result := RecommendTechnicians(asset, candidates, nil, deptLookup)
	if len(result) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(result))
	}
	if result[0].Technician.ID != "tech-onsite" || result[0].Score != 50 {
		t.Fatalf("expected tech-onsite first with 50, got %s/%d", result[0].Technician.ID, result[0].Score)
	}
	if result[0].Reasons[0] != "On Site" {
		t.Fatalf("expected On Site label, got %v", result[0].Reasons)
	}
	if result[1].Technician.ID != "tech-dept" || result[1].Score != 30 {
		t.Fatalf("expected tech-dept second with 30, got %s/%d", result[1].Technician.ID, result[1].Score)
	}
	if result[1].Reasons[0] != "Same Dept" {
		t.Fatalf("expected Same Dept label, got %v", result[1].Reasons)
	}
	if result[2].Technician.ID != "tech-remote" || result[2].Score != 0 {
		t.Fatalf("expected tech-remote last with 0, got %s/%d", result[2].Technician.ID, result[2].Score)
	}
}

func TestRecommendTechniciansExpertise(t *testing.T) {
	asset := newAsset()
	candidates := []masterdata.Technician{{ID: "tech-1", LocationID: "ward-9"}}

	// 5 closed jobs -> 10, not above the threshold, no bonus.
	result := RecommendTechnicians(asset, candidates, closedOrders("tech-1", 5), deptLookup)
	if result[0].Score != 0 {
		t.Fatalf("expected no expertise bonus at threshold, got %d", result[0].Score)
	}
	if len(result[0].Reasons) != 0 {
		t.Fatalf("expected no labels, got %v", result[0].Reasons)
	}

	// 6 closed jobs -> 12.
	result = RecommendTechnicians(asset, candidates, closedOrders("tech-1", 6), deptLookup)
	if result[0].Score != 12 {
		t.Fatalf("expected 12, got %d", result[0].Score)
	}
	if result[0].Reasons[0] != "Expert (6 Jobs)" {
		t.Fatalf("expected expert label with raw count, got %v", result[0].Reasons)
	}

	// 30 closed jobs -> capped at 40, label keeps the raw count.
	result = RecommendTechnicians(asset, candidates, closedOrders("tech-1", 30), deptLookup)
	if result[0].Score != 40 {
		t.Fatalf("expected cap at 40, got %d", result[0].Score)
	}
	if result[0].Reasons[0] != "Expert (30 Jobs)" {
		t.Fatalf("expected Expert (30 Jobs), got %v", result[0].Reasons)
	}
}

func TestRecommendTechniciansWorkloadPenalty(t *testing.T) {
	asset := newAsset()
	candidates := []masterdata.Technician{{ID: "tech-1", LocationID: "ward-9"}}

	orders := []maintenance.WorkOrder{
		{ID: "a", AssetRef: "asset-1", AssigneeID: "tech-1", Status: maintenance.StatusOpen},
		{ID: "b", AssetRef: "asset-1", AssigneeID: "tech-1", Status: maintenance.StatusAssigned},
		{ID: "c", AssetRef: "asset-1", AssigneeID: "tech-1", Status: maintenance.StatusInProgress},
	}
	result := RecommendTechnicians(asset, candidates, orders, deptLookup)
	if result[0].Score != -15 {
		t.Fatalf("expected -15 for 3 open orders, got %d", result[0].Score)
	}
	for _, reason := range result[0].Reasons {
		if reason == "Busy" {
			t.Fatalf("did not expect Busy label at 3 open orders")
		}
	}

	orders = append(orders, maintenance.WorkOrder{ID: "d", AssetRef: "asset-1", AssigneeID: "tech-1", Status: maintenance.StatusOpen})
	result = RecommendTechnicians(asset, candidates, orders, deptLookup)
	if result[0].Score != -20 {
		t.Fatalf("expected -20 for 4 open orders, got %d", result[0].Score)
	}
	if len(result[0].Reasons) == 0 || result[0].Reasons[len(result[0].Reasons)-1] != "Busy" {
		t.Fatalf("expected Busy label, got %v", result[0].Reasons)
	}
}

func TestRecommendTechniciansStableOnTies(t *testing.T) {
	asset := newAsset()
	candidates := []masterdata.Technician{
		{ID: "tech-a", LocationID: "ward-9"},
		{ID: "tech-b", LocationID: "ward-8"},
		{ID: "tech-c", LocationID: "ward-7"},
	}
	result := RecommendTechnicians(asset, candidates, nil, deptLookup)
	for i, want := range []string{"tech-a", "tech-b", "tech-c"} {
		if result[i].Technician.ID != want {
			t.Fatalf("tie order not stable: position %d got %s", i, result[i].Technician.ID)
		}
	}
}

func TestRecommendTechniciansModelScopedOption(t *testing.T) {
	asset := newAsset() // model Servo-U
	snapshot := []assets.Asset{
		asset,
		{ID: "asset-2", TagID: "TAG-0002", Model: "Evita-V"},
	}
	candidates := []masterdata.Technician{{ID: "tech-1", LocationID: "ward-9"}}

	orders := closedOrders("tech-1", 10)
	for i := range orders {
		if i >= 4 {
			orders[i].AssetRef = "TAG-0002"
		}
	}

	// Default counts all 10 closed jobs -> capped contribution of 20.
	result := RecommendTechnicians(asset, candidates, orders, deptLookup)
	if result[0].Score != 20 {
		t.Fatalf("expected 20 unscoped, got %d", result[0].Score)
	}

	// Scoped counts only the 4 Servo-U jobs -> 8, below the threshold.
	result = RecommendTechnicians(asset, candidates, orders, deptLookup, WithModelScopedExpertise(snapshot))
	if result[0].Score != 0 {
		t.Fatalf("expected 0 scoped, got %d", result[0].Score)
	}
}

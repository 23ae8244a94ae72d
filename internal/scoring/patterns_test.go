package scoring

import (
	"testing"
	"time"

	assets "medequip-cloud/internal/assets/domain"
	inventory "medequip-cloud/internal/inventory/domain"
	maintenance "medequip-cloud/internal/maintenance/domain"
)

func patternFixture() ([]assets.Asset, []inventory.Part) {
	snapshot := []assets.Asset{
		{ID: "asset-1", TagID: "TAG-0001", Model: "Servo-U"},
		{ID: "asset-2", TagID: "TAG-0002", Model: "servo-u"},
		{ID: "asset-3", TagID: "TAG-0003", Model: "Evita-V"},
	}
	parts := []inventory.Part{
		{ID: "5", Name: "Flow Sensor"},
		{ID: "7", Name: "O2 Cell"},
	}
	return snapshot, parts
}

func TestAnalyzeHistoricalPatternsNoMatches(t *testing.T) {
	snapshot, parts := patternFixture()
	summary := AnalyzeHistoricalPatterns("Servo-U", "screen flickers", snapshot, nil, parts)
	if summary.SimilarCases != 0 {
		t.Fatalf("expected 0 similar cases, got %d", summary.SimilarCases)
	}
	if summary.AvgRepairTimeHours != 0 {
		t.Fatalf("expected 0 avg hours, got %v", summary.AvgRepairTimeHours)
	}
	if len(summary.TopPartsUsed) != 0 || len(summary.CommonSolutionRefs) != 0 {
		t.Fatalf("expected empty aggregates, got %+v", summary)
	}

	summary = AnalyzeHistoricalPatterns("Unknown-Model", "", snapshot, nil, parts)
	if summary.SimilarCases != 0 {
		t.Fatalf("expected 0 cases for unknown model, got %d", summary.SimilarCases)
	}
}

func TestAnalyzeHistoricalPatternsAggregation(t *testing.T) {
	snapshot, parts := patternFixture()
	start := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)

	orders := []maintenance.WorkOrder{
		{
			ID:        "101",
			AssetRef:  "asset-1",
			Type:      maintenance.TypeCorrective,
			Status:    maintenance.StatusClosed,
			StartedAt: start,
			ClosedAt:  start.Add(2 * time.Hour),
			PartsUsed: []maintenance.PartUsage{{PartID: "5", Quantity: 1}},
		},
		{
			// Referenced by tag id, case-differing model on asset-2.
			ID:        "102",
			AssetRef:  "TAG-0002",
			Type:      maintenance.TypeCorrective,
			Status:    maintenance.StatusClosed,
			StartedAt: start,
			ClosedAt:  start.Add(4 * time.Hour),
			PartsUsed: []maintenance.PartUsage{{PartID: "5", Quantity: 2}, {PartID: "7", Quantity: 1}},
		},
		{
			// No timestamps: counted as a case, excluded from the average.
			ID:       "103",
			AssetRef: "asset-1",
			Type:     maintenance.TypeCorrective,
			Status:   maintenance.StatusClosed,
			PartsUsed: []maintenance.PartUsage{
				{PartID: "9", Quantity: 1},
			},
		},
		// Wrong model, wrong type, wrong status: all excluded.
		{ID: "104", AssetRef: "asset-3", Type: maintenance.TypeCorrective, Status: maintenance.StatusClosed},
		{ID: "105", AssetRef: "asset-1", Type: maintenance.TypePreventive, Status: maintenance.StatusClosed},
		{ID: "106", AssetRef: "asset-1", Type: maintenance.TypeCorrective, Status: maintenance.StatusOpen},
	}

	summary := AnalyzeHistoricalPatterns("Servo-U", "no pressure reading", snapshot, orders, parts)

	if summary.SimilarCases != 3 {
		t.Fatalf("expected 3 similar cases, got %d", summary.SimilarCases)
	}
	// Two valid durations of 2h and 4h average to 3.0; order 103 is not
	// in the denominator.
	if summary.AvgRepairTimeHours != 3.0 {
		t.Fatalf("expected 3.0 avg hours, got %v", summary.AvgRepairTimeHours)
	}

	if len(summary.TopPartsUsed) != 3 {
		t.Fatalf("expected 3 part summaries, got %d", len(summary.TopPartsUsed))
	}
	top := summary.TopPartsUsed[0]
	if top.PartID != "5" || top.PartName != "Flow Sensor" || top.Count != 3 {
		t.Fatalf("expected Flow Sensor x3 on top, got %+v", top)
	}
	// Part 9 has no inventory entry and falls back to a placeholder name.
	var fallback *PartUsageSummary
	for i := range summary.TopPartsUsed {
		if summary.TopPartsUsed[i].PartID == "9" {
			fallback = &summary.TopPartsUsed[i]
		}
	}
	if fallback == nil || fallback.PartName != "Part #9" {
		t.Fatalf("expected Part #9 fallback name, got %+v", summary.TopPartsUsed)
	}

	if len(summary.CommonSolutionRefs) != 2 {
		t.Fatalf("expected 2 solution refs, got %v", summary.CommonSolutionRefs)
	}
	if summary.CommonSolutionRefs[0] != "Ref WO#101" || summary.CommonSolutionRefs[1] != "Ref WO#102" {
		t.Fatalf("expected input-order refs, got %v", summary.CommonSolutionRefs)
	}
}

func TestAnalyzeHistoricalPatternsTopPartsLimit(t *testing.T) {
	snapshot, parts := patternFixture()

	orders := []maintenance.WorkOrder{{
		ID:       "201",
		AssetRef: "asset-1",
		Type:     maintenance.TypeCorrective,
		Status:   maintenance.StatusClosed,
		PartsUsed: []maintenance.PartUsage{
			{PartID: "1", Quantity: 1},
			{PartID: "2", Quantity: 4},
			{PartID: "3", Quantity: 2},
			{PartID: "4", Quantity: 3},
		},
	}}

	summary := AnalyzeHistoricalPatterns("Servo-U", "", snapshot, orders, parts)
	if len(summary.TopPartsUsed) != 3 {
		t.Fatalf("expected top 3 parts, got %d", len(summary.TopPartsUsed))
	}
	if summary.TopPartsUsed[0].Count != 4 || summary.TopPartsUsed[1].Count != 3 || summary.TopPartsUsed[2].Count != 2 {
		t.Fatalf("expected descending counts 4,3,2, got %+v", summary.TopPartsUsed)
	}
}

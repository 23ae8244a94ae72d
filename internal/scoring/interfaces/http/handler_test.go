package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	assets "medequip-cloud/internal/assets/domain"
	assetmemory "medequip-cloud/internal/assets/infrastructure/memory"
	invmemory "medequip-cloud/internal/inventory/infrastructure/memory"
	maintenance "medequip-cloud/internal/maintenance/domain"
	maintmemory "medequip-cloud/internal/maintenance/infrastructure/memory"
	masterdata "medequip-cloud/internal/masterdata/domain"
	mdmemory "medequip-cloud/internal/masterdata/infrastructure/memory"
	scoringapp "medequip-cloud/internal/scoring/application"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	assetRepo := assetmemory.NewAssetRepository()
	movementRepo := assetmemory.NewMovementRepository()
	orderRepo := maintmemory.NewWorkOrderRepository()
	partRepo := invmemory.NewPartRepository()
	technicianRepo := mdmemory.NewTechnicianRepository()
	locationRepo := mdmemory.NewLocationRepository()

	if err := assetRepo.Save(ctx, &assets.Asset{
		ID:           "asset-vent-01",
		TagID:        "RFID-1001",
		Name:         "Ventilator 1",
		Model:        "Servo-U",
		LocationID:   "icu-1",
		Status:       assets.StatusRunning,
		PurchaseDate: now.AddDate(-3, 0, 0),
	}); err != nil {
		t.Fatalf("seed asset: %v", err)
	}
	if err := locationRepo.Save(ctx, &masterdata.Location{ID: "icu-1", Name: "ICU Bay 1", Department: "ICU", Floor: 3}); err != nil {
		t.Fatalf("seed location: %v", err)
	}
	if err := technicianRepo.Save(ctx, &masterdata.Technician{ID: "tech-1", Name: "Asha Pillai", LocationID: "icu-1", Active: true}); err != nil {
		t.Fatalf("seed technician: %v", err)
	}

	start := now.AddDate(0, -1, 0)
	if err := orderRepo.Save(ctx, &maintenance.WorkOrder{
		ID:        "wo-1",
		AssetRef:  "asset-vent-01",
		Type:      maintenance.TypeCorrective,
		Priority:  maintenance.PriorityHigh,
		Status:    maintenance.StatusClosed,
		CreatedAt: start,
		StartedAt: start,
		ClosedAt:  start.Add(2 * time.Hour),
	}); err != nil {
		t.Fatalf("seed order: %v", err)
	}

	service, err := scoringapp.NewService(assetRepo, movementRepo, orderRepo, partRepo, technicianRepo, locationRepo, nil, fixedClock{now: now})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	handler, err := NewHandler(service)
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	return handler
}

func TestRecommendationsEndpoint(t *testing.T) {
	handler := newTestHandler(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/recommendations?asset=RFID-1001", nil)
	handler.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var payload []struct {
		TechnicianID string `json:"technician_id"`
		Score        int    `json:"score"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload) != 1 || payload[0].TechnicianID != "tech-1" {
		t.Fatalf("payload = %+v", payload)
	}
	if payload[0].Score < 50 {
		t.Fatalf("score = %d, want on-site bonus applied", payload[0].Score)
	}
}

func TestRecommendationsRequireAsset(t *testing.T) {
	handler := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/recommendations", nil))
	if rec.Code != 400 {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRecommendationsUnknownAsset(t *testing.T) {
	handler := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/recommendations?asset=ghost", nil))
	if rec.Code != 404 {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestPatternsEndpoint(t *testing.T) {
	handler := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/patterns?model=servo-u&fault=no+airflow", nil))
	if rec.Code != 200 {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var payload struct {
		SimilarCases       int     `json:"similar_cases"`
		AvgRepairTimeHours float64 `json:"avg_repair_time_hours"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.SimilarCases != 1 {
		t.Fatalf("similar cases = %d, want 1", payload.SimilarCases)
	}
	if payload.AvgRepairTimeHours != 2.0 {
		t.Fatalf("avg hours = %v, want 2.0", payload.AvgRepairTimeHours)
	}
}

func TestRiskLookupReturnsStoredScore(t *testing.T) {
	handler := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/risk/refresh?asset=asset-vent-01", nil))
	if rec.Code != 200 {
		t.Fatalf("refresh status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/risk?asset=RFID-1001", nil))
	if rec.Code != 200 {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var payload struct {
		Asset     string `json:"asset"`
		RiskScore int    `json:"risk_score"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.RiskScore != 16 {
		t.Fatalf("risk score = %d, want 16", payload.RiskScore)
	}
}

func TestRiskRefreshSingleAsset(t *testing.T) {
	handler := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/risk/refresh?asset=asset-vent-01", nil))
	if rec.Code != 200 {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var payload struct {
		Asset     string `json:"asset"`
		RiskScore int    `json:"risk_score"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// 3 years of age plus one corrective order in the window.
	if payload.RiskScore != 16 {
		t.Fatalf("risk score = %d, want 16", payload.RiskScore)
	}
}

func TestRiskRefreshAll(t *testing.T) {
	handler := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/risk/refresh", nil))
	if rec.Code != 200 {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var payload struct {
		Changed int `json:"changed"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Changed != 1 {
		t.Fatalf("changed = %d, want 1", payload.Changed)
	}
}

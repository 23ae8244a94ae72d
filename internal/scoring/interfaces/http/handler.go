package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	assets "medequip-cloud/internal/assets/domain"
	"medequip-cloud/internal/observability/metrics"
	scoringapp "medequip-cloud/internal/scoring/application"
)

// Handler provides scoring HTTP endpoints: recommendations, historical
// patterns, risk lookup and risk refresh.
type Handler struct {
	service *scoringapp.Service
}

// NewHandler constructs a handler.
func NewHandler(service *scoringapp.Service) (*Handler, error) {
	if service == nil {
		return nil, errors.New("scoring handler: nil service")
	}
	return &Handler{service: service}, nil
}

type recommendationDTO struct {
	TechnicianID string   `json:"technician_id"`
	Name         string   `json:"name"`
	LocationID   string   `json:"location_id"`
	Phone        string   `json:"phone,omitempty"`
	Score        int      `json:"score"`
	Reasons      []string `json:"reasons"`
}

type partUsageDTO struct {
	PartID   string `json:"part_id"`
	PartName string `json:"part_name"`
	Count    int    `json:"count"`
}

type patternDTO struct {
	SimilarCases       int            `json:"similar_cases"`
	AvgRepairTimeHours float64        `json:"avg_repair_time_hours"`
	TopPartsUsed       []partUsageDTO `json:"top_parts_used"`
	CommonSolutionRefs []string       `json:"common_solution_refs"`
}

// ServeHTTP dispatches scoring routes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/v1/recommendations":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleRecommend(w, r)
	case "/api/v1/patterns":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handlePatterns(w, r)
	case "/api/v1/risk":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleRisk(w, r)
	case "/api/v1/risk/refresh":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleRefresh(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleRecommend(w http.ResponseWriter, r *http.Request) {
	ref := r.URL.Query().Get("asset")
	if ref == "" {
		http.Error(w, "asset is required", http.StatusBadRequest)
		return
	}

	started := time.Now()
	ranked, err := h.service.Recommend(r.Context(), ref)
	if err != nil {
		metrics.ObserveRecommendation(metrics.ResultError, time.Since(started))
		if errors.Is(err, assets.ErrNotFound) {
			http.Error(w, "unknown asset", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	metrics.ObserveRecommendation(metrics.ResultSuccess, time.Since(started))

	result := make([]recommendationDTO, 0, len(ranked))
	for _, rec := range ranked {
		result = append(result, recommendationDTO{
			TechnicianID: rec.Technician.ID,
			Name:         rec.Technician.Name,
			LocationID:   rec.Technician.LocationID,
			Phone:        rec.Technician.Phone,
			Score:        rec.Score,
			Reasons:      rec.Reasons,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}

func (h *Handler) handlePatterns(w http.ResponseWriter, r *http.Request) {
	model := r.URL.Query().Get("model")
	if model == "" {
		http.Error(w, "model is required", http.StatusBadRequest)
		return
	}
	faultText := r.URL.Query().Get("fault")

	started := time.Now()
	summary, err := h.service.Patterns(r.Context(), model, faultText)
	if err != nil {
		metrics.ObservePattern(metrics.ResultError, time.Since(started))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	metrics.ObservePattern(metrics.ResultSuccess, time.Since(started))

	dto := patternDTO{
		SimilarCases:       summary.SimilarCases,
		AvgRepairTimeHours: summary.AvgRepairTimeHours,
		TopPartsUsed:       make([]partUsageDTO, 0, len(summary.TopPartsUsed)),
		CommonSolutionRefs: summary.CommonSolutionRefs,
	}
	for _, usage := range summary.TopPartsUsed {
		dto.TopPartsUsed = append(dto.TopPartsUsed, partUsageDTO{
			PartID:   usage.PartID,
			PartName: usage.PartName,
			Count:    usage.Count,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(dto)
}

func (h *Handler) handleRisk(w http.ResponseWriter, r *http.Request) {
	ref := r.URL.Query().Get("asset")
	if ref == "" {
		http.Error(w, "asset is required", http.StatusBadRequest)
		return
	}

	score, err := h.service.Risk(r.Context(), ref)
	if err != nil {
		if errors.Is(err, assets.ErrNotFound) {
			http.Error(w, "unknown asset", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"asset": ref, "risk_score": score})
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	if ref := r.URL.Query().Get("asset"); ref != "" {
		score, err := h.service.RefreshAsset(r.Context(), ref)
		if err != nil {
			metrics.ObserveRiskRefresh(metrics.ResultError, time.Since(started))
			if errors.Is(err, assets.ErrNotFound) {
				http.Error(w, "unknown asset", http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		metrics.ObserveRiskRefresh(metrics.ResultSuccess, time.Since(started))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"asset": ref, "risk_score": score})
		return
	}

	changed, err := h.service.RefreshAll(r.Context())
	if err != nil {
		metrics.ObserveRiskRefresh(metrics.ResultError, time.Since(started))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	metrics.ObserveRiskRefresh(metrics.ResultSuccess, time.Since(started))
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"changed": changed})
}

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	analyticsapp "medequip-cloud/internal/analytics/application"
)

// StatsHandler serves fleet dashboard statistics.
type StatsHandler struct {
	service *analyticsapp.DashboardService
}

// NewStatsHandler constructs a StatsHandler.
func NewStatsHandler(service *analyticsapp.DashboardService) (*StatsHandler, error) {
	if service == nil {
		return nil, errors.New("stats handler: nil service")
	}
	return &StatsHandler{service: service}, nil
}

// ServeHTTP handles GET /api/v1/stats.
func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	stats, err := h.service.Dashboard(r.Context())
	if err != nil {
		http.Error(w, "query stats error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(stats)
}

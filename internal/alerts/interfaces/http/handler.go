package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	alertapp "medequip-cloud/internal/alerts/application"
	alerts "medequip-cloud/internal/alerts/domain"
)

// Handler provides alert HTTP endpoints.
type Handler struct {
	service *alertapp.Service
}

// NewHandler constructs a handler.
func NewHandler(service *alertapp.Service) (*Handler, error) {
	if service == nil {
		return nil, errors.New("alerts handler: nil service")
	}
	return &Handler{service: service}, nil
}

// ServeHTTP handles /api/v1/alerts and subroutes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/v1/alerts":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleList(w, r)
		return
	case strings.HasPrefix(r.URL.Path, "/api/v1/alerts/"):
		h.handleAction(w, r)
		return
	default:
		w.WriteHeader(http.StatusNotFound)
		return
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	switch status {
	case "", alerts.StatusActive, alerts.StatusAcknowledged, alerts.StatusResolved:
	default:
		http.Error(w, "unknown status", http.StatusBadRequest)
		return
	}

	list, err := h.service.List(r.Context(), status)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(list)
}

func (h *Handler) handleAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/alerts/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	id := parts[0]
	action := parts[1]

	if action != "ack" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	alert, err := h.service.Acknowledge(r.Context(), id)
	if err != nil {
		if errors.Is(err, alerts.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(alert)
}

package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"medequip-cloud/internal/audit"
	"medequip-cloud/internal/auth"
	inventory "medequip-cloud/internal/inventory/domain"
)

// Handler provides spare part HTTP endpoints.
type Handler struct {
	parts       inventory.PartRepository
	auditLogger audit.Logger
}

// NewHandler constructs a handler.
func NewHandler(parts inventory.PartRepository, auditLogger audit.Logger) (*Handler, error) {
	if parts == nil {
		return nil, errors.New("parts handler: nil repository")
	}
	return &Handler{parts: parts, auditLogger: auditLogger}, nil
}

type partDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	Stock    int    `json:"stock"`
	MinStock int    `json:"min_stock"`
	LowStock bool   `json:"low_stock"`
}

func toPartDTO(part inventory.Part) partDTO {
	return partDTO{
		ID:       part.ID,
		Name:     part.Name,
		Category: part.Category,
		Stock:    part.Stock,
		MinStock: part.MinStock,
		LowStock: part.LowStock(),
	}
}

// ServeHTTP handles /api/v1/parts and subroutes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/v1/parts":
		switch r.Method {
		case http.MethodGet:
			h.handleList(w, r)
		case http.MethodPost:
			h.handleSave(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	case strings.HasPrefix(r.URL.Path, "/api/v1/parts/"):
		h.handleSubroute(w, r)
		return
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleSubroute(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/parts/")
	parts := strings.Split(path, "/")
	switch {
	case len(parts) == 1:
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleGet(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "adjust":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleAdjust(w, r, parts[0])
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.parts.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	lowOnly := false
	if raw := r.URL.Query().Get("low_stock"); raw != "" {
		lowOnly, err = strconv.ParseBool(raw)
		if err != nil {
			http.Error(w, "low_stock must be a boolean", http.StatusBadRequest)
			return
		}
	}

	result := make([]partDTO, 0, len(list))
	for _, part := range list {
		if lowOnly && !part.LowStock() {
			continue
		}
		result = append(result, toPartDTO(part))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	part, err := h.parts.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, inventory.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toPartDTO(*part))
}

type saveRequest struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Stock    int    `json:"stock"`
	MinStock int    `json:"min_stock"`
}

func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read body error", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var req saveRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	part := inventory.Part{
		ID:        req.ID,
		Name:      req.Name,
		Category:  req.Category,
		Stock:     req.Stock,
		MinStock:  req.MinStock,
		UpdatedAt: time.Now().UTC(),
	}
	if err := part.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.parts.Save(r.Context(), &part); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(toPartDTO(part))

	h.logAudit(r, "part.save", part.ID, nil)
}

type adjustRequest struct {
	Delta int `json:"delta"`
}

func (h *Handler) handleAdjust(w http.ResponseWriter, r *http.Request, id string) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read body error", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var req adjustRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	stock, err := h.parts.AdjustStock(r.Context(), id, req.Delta)
	if err != nil {
		if errors.Is(err, inventory.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"id": id, "stock": stock})

	h.logAudit(r, "part.adjust", id, map[string]any{"delta": req.Delta})
}

func (h *Handler) logAudit(r *http.Request, action, partID string, meta map[string]any) {
	if h.auditLogger == nil {
		return
	}
	facilityID := auth.FacilityIDFromContext(r.Context())
	if facilityID == "" {
		return
	}
	var metadata json.RawMessage
	if meta != nil {
		metadata, _ = json.Marshal(meta)
	}
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		FacilityID:   facilityID,
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: "part",
		ResourceID:   partID,
		Metadata:     metadata,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

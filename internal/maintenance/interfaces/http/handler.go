package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	assets "medequip-cloud/internal/assets/domain"
	"medequip-cloud/internal/audit"
	"medequip-cloud/internal/auth"
	maintenanceapp "medequip-cloud/internal/maintenance/application"
	maintenance "medequip-cloud/internal/maintenance/domain"
	"medequip-cloud/internal/observability/metrics"
)

const timeLayout = time.RFC3339

// Handler provides work order HTTP endpoints.
type Handler struct {
	service     *maintenanceapp.Service
	orders      maintenance.WorkOrderRepository
	auditLogger audit.Logger
}

// NewHandler constructs a handler.
func NewHandler(service *maintenanceapp.Service, orders maintenance.WorkOrderRepository, auditLogger audit.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("workorders handler: nil service")
	}
	if orders == nil {
		return nil, errors.New("workorders handler: nil repository")
	}
	return &Handler{service: service, orders: orders, auditLogger: auditLogger}, nil
}

type partUsageDTO struct {
	PartID   string `json:"part_id"`
	Quantity int    `json:"quantity"`
}

type workOrderDTO struct {
	ID         string         `json:"id"`
	AssetRef   string         `json:"asset_ref"`
	Type       string         `json:"type"`
	Priority   string         `json:"priority"`
	Status     string         `json:"status"`
	FaultText  string         `json:"fault_text,omitempty"`
	AssigneeID string         `json:"assignee_id,omitempty"`
	ReportedBy string         `json:"reported_by,omitempty"`
	Resolution string         `json:"resolution,omitempty"`
	PartsUsed  []partUsageDTO `json:"parts_used,omitempty"`
	CreatedAt  string         `json:"created_at"`
	StartedAt  string         `json:"started_at,omitempty"`
	ClosedAt   string         `json:"closed_at,omitempty"`
}

func toWorkOrderDTO(order maintenance.WorkOrder) workOrderDTO {
	dto := workOrderDTO{
		ID:         order.ID,
		AssetRef:   order.AssetRef,
		Type:       string(order.Type),
		Priority:   string(order.Priority),
		Status:     string(order.Status),
		FaultText:  order.FaultText,
		AssigneeID: order.AssigneeID,
		ReportedBy: order.ReportedBy,
		Resolution: order.Resolution,
		CreatedAt:  order.CreatedAt.UTC().Format(timeLayout),
	}
	for _, usage := range order.PartsUsed {
		dto.PartsUsed = append(dto.PartsUsed, partUsageDTO{PartID: usage.PartID, Quantity: usage.Quantity})
	}
	if !order.StartedAt.IsZero() {
		dto.StartedAt = order.StartedAt.UTC().Format(timeLayout)
	}
	if !order.ClosedAt.IsZero() {
		dto.ClosedAt = order.ClosedAt.UTC().Format(timeLayout)
	}
	return dto
}

// ServeHTTP handles /api/v1/workorders and subroutes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/v1/workorders":
		switch r.Method {
		case http.MethodGet:
			h.handleList(w, r)
		case http.MethodPost:
			h.handleReport(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	case strings.HasPrefix(r.URL.Path, "/api/v1/workorders/"):
		h.handleSubroute(w, r)
		return
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleSubroute(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/workorders/")
	parts := strings.Split(path, "/")
	switch {
	case len(parts) == 1:
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleGet(w, r, parts[0])
	case len(parts) == 2:
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleAction(w, r, parts[0], parts[1])
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	var (
		list []maintenance.WorkOrder
		err  error
	)
	if assignee := r.URL.Query().Get("assignee_id"); assignee != "" {
		list, err = h.orders.ListByAssignee(r.Context(), assignee)
	} else {
		list, err = h.orders.List(r.Context())
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	status := r.URL.Query().Get("status")
	result := make([]workOrderDTO, 0, len(list))
	for _, order := range list {
		if status != "" && string(order.Status) != status {
			continue
		}
		result = append(result, toWorkOrderDTO(order))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	order, err := h.orders.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, maintenance.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toWorkOrderDTO(*order))
}

type reportRequest struct {
	AssetRef  string `json:"asset_ref"`
	FaultText string `json:"fault_text"`
	Priority  string `json:"priority"`
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read body error", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var req reportRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	order, err := h.service.ReportFault(r.Context(), maintenanceapp.ReportFaultInput{
		AssetRef:   req.AssetRef,
		FaultText:  req.FaultText,
		Priority:   maintenance.Priority(req.Priority),
		ReportedBy: auth.SubjectFromContext(r.Context()),
	})
	if err != nil {
		if errors.Is(err, assets.ErrNotFound) {
			http.Error(w, "unknown asset", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	metrics.IncFaultReported(string(order.Priority))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(toWorkOrderDTO(*order))

	h.logAudit(r, "workorder.report", order, nil)
}

type assignRequest struct {
	TechnicianID string `json:"technician_id"`
}

type closeRequest struct {
	Resolution string         `json:"resolution"`
	PartsUsed  []partUsageDTO `json:"parts_used"`
}

func (h *Handler) handleAction(w http.ResponseWriter, r *http.Request, id, action string) {
	var (
		order *maintenance.WorkOrder
		err   error
		meta  map[string]any
	)
	switch action {
	case "assign":
		var req assignRequest
		if !decodeBody(w, r, &req) {
			return
		}
		order, err = h.service.Assign(r.Context(), id, req.TechnicianID)
		meta = map[string]any{"technician_id": req.TechnicianID}
	case "start":
		order, err = h.service.Start(r.Context(), id)
	case "close":
		var req closeRequest
		if !decodeBody(w, r, &req) {
			return
		}
		var used []maintenance.PartUsage
		for _, usage := range req.PartsUsed {
			used = append(used, maintenance.PartUsage{PartID: usage.PartID, Quantity: usage.Quantity})
		}
		order, err = h.service.Close(r.Context(), id, maintenanceapp.CloseInput{
			Resolution: req.Resolution,
			PartsUsed:  used,
		})
		if err == nil {
			metrics.IncWorkOrderClosed(metrics.ResultSuccess)
		} else {
			metrics.IncWorkOrderClosed(metrics.ResultError)
		}
	case "cancel":
		order, err = h.service.Cancel(r.Context(), id)
	default:
		w.WriteHeader(http.StatusNotFound)
		return
	}

	if err != nil {
		if errors.Is(err, maintenance.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if errors.Is(err, maintenance.ErrInvalidTransition) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toWorkOrderDTO(*order))

	h.logAudit(r, "workorder."+action, order, meta)
}

func decodeBody(w http.ResponseWriter, r *http.Request, target any) bool {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read body error", http.StatusBadRequest)
		return false
	}
	defer r.Body.Close()
	if len(body) == 0 {
		return true
	}
	if err := json.Unmarshal(body, target); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return false
	}
	return true
}

func (h *Handler) logAudit(r *http.Request, action string, order *maintenance.WorkOrder, meta map[string]any) {
	if h.auditLogger == nil || order == nil {
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
		ResourceType: "workorder",
		ResourceID:   order.ID,
		AssetID:      order.AssetRef,
		Metadata:     metadata,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

package apihttp

import (
	"encoding/csv"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	assets "medequip-cloud/internal/assets/domain"
	assetexport "medequip-cloud/internal/assets/interfaces"
	inventory "medequip-cloud/internal/inventory/domain"
	maintenance "medequip-cloud/internal/maintenance/domain"
	workorderexport "medequip-cloud/internal/maintenance/interfaces"
	"medequip-cloud/internal/observability/metrics"
)

const timeLayout = time.RFC3339

// ExportWorkOrdersCSVHandler serves the work order history as CSV.
type ExportWorkOrdersCSVHandler struct {
	orders maintenance.WorkOrderRepository
}

// NewExportWorkOrdersCSVHandler constructs a ExportWorkOrdersCSVHandler.
func NewExportWorkOrdersCSVHandler(orders maintenance.WorkOrderRepository) *ExportWorkOrdersCSVHandler {
	return &ExportWorkOrdersCSVHandler{orders: orders}
}

// ServeHTTP handles GET /api/v1/exports/workorders.csv.
func (h *ExportWorkOrdersCSVHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.orders == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	from, to, err := parseOptionalRange(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	started := time.Now()
	list, err := h.orders.List(r.Context())
	if err != nil {
		metrics.ObserveExport("csv", metrics.ResultError, time.Since(started))
		http.Error(w, "query work orders error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	writer := csv.NewWriter(w)
	_ = writer.Write([]string{
		"id",
		"asset_ref",
		"type",
		"priority",
		"status",
		"fault_text",
		"assignee_id",
		"resolution",
		"parts_used",
		"created_at",
		"started_at",
		"closed_at",
	})
	for _, order := range list {
		if !from.IsZero() && order.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && !order.CreatedAt.Before(to) {
			continue
		}
		_ = writer.Write([]string{
			order.ID,
			order.AssetRef,
			string(order.Type),
			string(order.Priority),
			string(order.Status),
			order.FaultText,
			order.AssigneeID,
			order.Resolution,
			formatPartsUsed(order.PartsUsed),
			formatTime(order.CreatedAt),
			formatTime(order.StartedAt),
			formatTime(order.ClosedAt),
		})
	}
	writer.Flush()
	metrics.ObserveExport("csv", metrics.ResultSuccess, time.Since(started))
}

// ExportAssetsXLSXHandler serves the asset register as XLSX.
type ExportAssetsXLSXHandler struct {
	assets assets.AssetRepository
}

// NewExportAssetsXLSXHandler constructs a ExportAssetsXLSXHandler.
func NewExportAssetsXLSXHandler(assetRepo assets.AssetRepository) *ExportAssetsXLSXHandler {
	return &ExportAssetsXLSXHandler{assets: assetRepo}
}

// ServeHTTP handles GET /api/v1/exports/assets.xlsx.
func (h *ExportAssetsXLSXHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.assets == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	started := time.Now()
	fleet, err := h.assets.List(r.Context())
	if err != nil {
		metrics.ObserveExport("xlsx", metrics.ResultError, time.Since(started))
		http.Error(w, "query assets error", http.StatusInternalServerError)
		return
	}
	payload, err := assetexport.BuildAssetRegisterXLSX(fleet, time.Now())
	if err != nil {
		metrics.ObserveExport("xlsx", metrics.ResultError, time.Since(started))
		http.Error(w, "build export error", http.StatusInternalServerError)
		return
	}
	metrics.ObserveExport("xlsx", metrics.ResultSuccess, time.Since(started))

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="assets.xlsx"`)
	_, _ = w.Write(payload)
}

// ExportWorkOrderPDFHandler serves a single work order report as PDF.
type ExportWorkOrderPDFHandler struct {
	orders maintenance.WorkOrderRepository
	assets assets.AssetRepository
	parts  inventory.PartRepository
}

// NewExportWorkOrderPDFHandler constructs a ExportWorkOrderPDFHandler.
func NewExportWorkOrderPDFHandler(orders maintenance.WorkOrderRepository, assetRepo assets.AssetRepository, parts inventory.PartRepository) *ExportWorkOrderPDFHandler {
	return &ExportWorkOrderPDFHandler{orders: orders, assets: assetRepo, parts: parts}
}

// ServeHTTP handles GET /api/v1/exports/workorders/{id}.pdf.
func (h *ExportWorkOrderPDFHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.orders == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/v1/exports/workorders/")
	id := strings.TrimSuffix(path, ".pdf")
	if id == "" || id == path {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	started := time.Now()
	order, err := h.orders.Get(r.Context(), id)
	if err != nil {
		metrics.ObserveExport("pdf", metrics.ResultError, time.Since(started))
		if errors.Is(err, maintenance.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		http.Error(w, "query work order error", http.StatusInternalServerError)
		return
	}

	var asset *assets.Asset
	if h.assets != nil {
		if found, err := h.assets.GetByRef(r.Context(), order.AssetRef); err == nil {
			asset = found
		}
	}
	partNames := make(map[string]string)
	if h.parts != nil {
		for _, usage := range order.PartsUsed {
			if part, err := h.parts.Get(r.Context(), usage.PartID); err == nil {
				partNames[usage.PartID] = part.Name
			}
		}
	}

	payload, err := workorderexport.BuildWorkOrderPDF(order, asset, partNames)
	if err != nil {
		metrics.ObserveExport("pdf", metrics.ResultError, time.Since(started))
		http.Error(w, "build export error", http.StatusInternalServerError)
		return
	}
	metrics.ObserveExport("pdf", metrics.ResultSuccess, time.Since(started))

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+id+`.pdf"`)
	_, _ = w.Write(payload)
}

func parseOptionalRange(r *http.Request) (time.Time, time.Time, error) {
	var from, to time.Time
	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse(timeLayout, raw)
		if err != nil {
			return from, to, errors.New("from must be RFC3339")
		}
		from = parsed.UTC()
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.Parse(timeLayout, raw)
		if err != nil {
			return from, to, errors.New("to must be RFC3339")
		}
		to = parsed.UTC()
	}
	if !from.IsZero() && !to.IsZero() && !to.After(from) {
		return from, to, errors.New("to must be after from")
	}
	return from, to, nil
}

func formatPartsUsed(used []maintenance.PartUsage) string {
	if len(used) == 0 {
		return ""
	}
	entries := make([]string, 0, len(used))
	for _, usage := range used {
		entries = append(entries, usage.PartID+"x"+strconv.Itoa(usage.Quantity))
	}
	return strings.Join(entries, ";")
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format(timeLayout)
}

package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	assetsapp "medequip-cloud/internal/assets/application"
	assets "medequip-cloud/internal/assets/domain"
	"medequip-cloud/internal/audit"
	"medequip-cloud/internal/auth"
)

const timeLayout = time.RFC3339

// Handler provides asset HTTP endpoints.
type Handler struct {
	service     *assetsapp.Service
	repo        assets.AssetRepository
	movements   assets.MovementRepository
	auditLogger audit.Logger
}

// NewHandler constructs a handler.
func NewHandler(service *assetsapp.Service, repo assets.AssetRepository, movements assets.MovementRepository, auditLogger audit.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("assets handler: nil service")
	}
	if repo == nil {
		return nil, errors.New("assets handler: nil repository")
	}
	if movements == nil {
		return nil, errors.New("assets handler: nil movement repository")
	}
	return &Handler{service: service, repo: repo, movements: movements, auditLogger: auditLogger}, nil
}

type assetDTO struct {
	ID             string  `json:"id"`
	TagID          string  `json:"tag_id,omitempty"`
	Name           string  `json:"name"`
	Model          string  `json:"model"`
	Manufacturer   string  `json:"manufacturer,omitempty"`
	LocationID     string  `json:"location_id"`
	Status         string  `json:"status"`
	PurchaseDate   string  `json:"purchase_date,omitempty"`
	OperatingHours float64 `json:"operating_hours"`
	RiskScore      int     `json:"risk_score"`
}

func toAssetDTO(asset assets.Asset) assetDTO {
	dto := assetDTO{
		ID:             asset.ID,
		TagID:          asset.TagID,
		Name:           asset.Name,
		Model:          asset.Model,
		Manufacturer:   asset.Manufacturer,
		LocationID:     asset.LocationID,
		Status:         string(asset.Status),
		OperatingHours: asset.OperatingHours,
		RiskScore:      asset.RiskScore,
	}
	if !asset.PurchaseDate.IsZero() {
		dto.PurchaseDate = asset.PurchaseDate.UTC().Format(timeLayout)
	}
	return dto
}

type movementDTO struct {
	ID             string `json:"id"`
	AssetRef       string `json:"asset_ref"`
	FromLocationID string `json:"from_location_id,omitempty"`
	ToLocationID   string `json:"to_location_id"`
	RecordedAt     string `json:"recorded_at"`
}

// ServeHTTP handles /api/v1/assets and subroutes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/v1/assets":
		switch r.Method {
		case http.MethodGet:
			h.handleList(w, r)
		case http.MethodPost:
			h.handleRegister(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	case strings.HasPrefix(r.URL.Path, "/api/v1/assets/"):
		h.handleSubroute(w, r)
		return
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleSubroute(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/assets/")
	parts := strings.Split(path, "/")
	switch {
	case len(parts) == 1:
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleGet(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "movements":
		switch r.Method {
		case http.MethodGet:
			h.handleListMovements(w, r, parts[0])
		case http.MethodPost:
			h.handleRecordMovement(w, r, parts[0])
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.repo.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	result := make([]assetDTO, 0, len(list))
	for _, asset := range list {
		result = append(result, toAssetDTO(asset))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request, ref string) {
	asset, err := h.repo.GetByRef(r.Context(), ref)
	if err != nil {
		if errors.Is(err, assets.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toAssetDTO(*asset))
}

type registerRequest struct {
	ID             string  `json:"id"`
	TagID          string  `json:"tag_id"`
	Name           string  `json:"name"`
	Model          string  `json:"model"`
	Manufacturer   string  `json:"manufacturer"`
	LocationID     string  `json:"location_id"`
	PurchaseDate   string  `json:"purchase_date"`
	OperatingHours float64 `json:"operating_hours"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read body error", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var req registerRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	asset := assets.Asset{
		ID:             req.ID,
		TagID:          req.TagID,
		Name:           req.Name,
		Model:          req.Model,
		Manufacturer:   req.Manufacturer,
		LocationID:     req.LocationID,
		OperatingHours: req.OperatingHours,
	}
	if req.PurchaseDate != "" {
		purchased, err := time.Parse(timeLayout, req.PurchaseDate)
		if err != nil {
			http.Error(w, "purchase_date must be RFC3339", http.StatusBadRequest)
			return
		}
		asset.PurchaseDate = purchased.UTC()
	}

	if err := h.service.Register(r.Context(), &asset); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(toAssetDTO(asset))

	h.logAudit(r, "asset.register", asset.ID, nil)
}

func (h *Handler) handleListMovements(w http.ResponseWriter, r *http.Request, ref string) {
	asset, err := h.repo.GetByRef(r.Context(), ref)
	if err != nil {
		if errors.Is(err, assets.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	refs := []string{asset.ID}
	if asset.TagID != "" {
		refs = append(refs, asset.TagID)
	}
	entries, err := h.movements.ListByAsset(r.Context(), refs)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	result := make([]movementDTO, 0, len(entries))
	for _, entry := range entries {
		result = append(result, movementDTO{
			ID:             entry.ID,
			AssetRef:       entry.AssetRef,
			FromLocationID: entry.FromLocationID,
			ToLocationID:   entry.ToLocationID,
			RecordedAt:     entry.RecordedAt.UTC().Format(timeLayout),
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}

type movementRequest struct {
	ToLocationID string `json:"to_location_id"`
	RecordedAt   string `json:"recorded_at"`
}

func (h *Handler) handleRecordMovement(w http.ResponseWriter, r *http.Request, ref string) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read body error", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var req movementRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	entry := assets.MovementLog{AssetRef: ref, ToLocationID: req.ToLocationID}
	if req.RecordedAt != "" {
		recorded, err := time.Parse(timeLayout, req.RecordedAt)
		if err != nil {
			http.Error(w, "recorded_at must be RFC3339", http.StatusBadRequest)
			return
		}
		entry.RecordedAt = recorded.UTC()
	}

	if err := h.service.RecordMovement(r.Context(), &entry); err != nil {
		if errors.Is(err, assets.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(movementDTO{
		ID:             entry.ID,
		AssetRef:       entry.AssetRef,
		FromLocationID: entry.FromLocationID,
		ToLocationID:   entry.ToLocationID,
		RecordedAt:     entry.RecordedAt.UTC().Format(timeLayout),
	})

	h.logAudit(r, "asset.move", ref, map[string]any{"to_location_id": req.ToLocationID})
}

func (h *Handler) logAudit(r *http.Request, action, assetID string, meta map[string]any) {
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
		ResourceType: "asset",
		ResourceID:   assetID,
		AssetID:      assetID,
		Metadata:     metadata,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

package rfid

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	assetsapp "medequip-cloud/internal/assets/application"
	assets "medequip-cloud/internal/assets/domain"
	"medequip-cloud/internal/observability/metrics"
)

// IngestHandler handles movement reads pushed by RFID gateway webhooks.
type IngestHandler struct {
	service *assetsapp.Service
	logger  *log.Logger
}

// NewIngestHandler constructs an ingest handler.
func NewIngestHandler(service *assetsapp.Service, logger *log.Logger) (*IngestHandler, error) {
	if service == nil {
		return nil, errors.New("rfid ingest: nil service")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &IngestHandler{service: service, logger: logger}, nil
}

// ServeHTTP ingests a batch of gateway reads. Each read relocates one
// asset; the batch is applied read by read and reports how many stuck.
func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Printf("rfid ingest: read body error: %v", err)
		metrics.IncIngestError("read_body")
		metrics.ObserveIngest(metrics.IngestResultError, time.Since(start))
		http.Error(w, "read body error", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var req ingestRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.logger.Printf("rfid ingest: decode error: %v", err)
		metrics.IncIngestError("decode")
		metrics.ObserveIngest(metrics.IngestResultError, time.Since(start))
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	movements, err := req.toMovements()
	if err != nil {
		h.logger.Printf("rfid ingest: invalid payload: %v", err)
		metrics.IncIngestError("payload")
		metrics.ObserveIngest(metrics.IngestResultError, time.Since(start))
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	applied := 0
	for i := range movements {
		if err := h.service.RecordMovement(r.Context(), &movements[i]); err != nil {
			h.logger.Printf("rfid ingest: movement %s error: %v", movements[i].AssetRef, err)
			metrics.IncIngestError("apply")
			continue
		}
		applied++
	}

	metrics.ObserveIngest(metrics.IngestResultSuccess, time.Since(start))
	resp := map[string]any{"received": len(movements), "applied": applied}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

type ingestRequest struct {
	GatewayID string       `json:"gatewayId"`
	Reads     []ingestRead `json:"reads"`
}

type ingestRead struct {
	TagID      string `json:"tagId"`
	LocationID string `json:"locationId"`
	TS         int64  `json:"ts"`
}

func (r ingestRequest) toMovements() ([]assets.MovementLog, error) {
	if r.GatewayID == "" {
		return nil, errors.New("missing gatewayId")
	}
	if len(r.Reads) == 0 {
		return nil, errors.New("no reads")
	}

	movements := make([]assets.MovementLog, 0, len(r.Reads))
	for _, read := range r.Reads {
		if read.TagID == "" || read.LocationID == "" {
			return nil, errors.New("missing tagId/locationId")
		}
		recordedAt, err := parseTimestamp(read.TS)
		if err != nil {
			return nil, err
		}
		movements = append(movements, assets.MovementLog{
			AssetRef:     read.TagID,
			ToLocationID: read.LocationID,
			RecordedAt:   recordedAt,
		})
	}
	return movements, nil
}

func parseTimestamp(ts int64) (time.Time, error) {
	if ts == 0 {
		return time.Time{}, nil
	}
	if ts < 0 {
		return time.Time{}, errors.New("negative timestamp")
	}
	// Gateways send epoch millis.
	return time.UnixMilli(ts).UTC(), nil
}

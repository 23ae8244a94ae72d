package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	alerts "medequip-cloud/internal/alerts/domain"
)

// AlertRepository is an in-memory alert store.
type AlertRepository struct {
	mu   sync.RWMutex
	data map[string]alerts.Alert
}

// NewAlertRepository constructs a repository.
func NewAlertRepository() *AlertRepository {
	return &AlertRepository{data: make(map[string]alerts.Alert)}
}

// Get loads an alert by id.
func (r *AlertRepository) Get(ctx context.Context, id string) (*alerts.Alert, error) {
	_ = ctx
	if id == "" {
		return nil, errors.New("memory alert repo: empty id")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	alert, ok := r.data[id]
	if !ok {
		return nil, alerts.ErrNotFound
	}
	return &alert, nil
}

// GetOpenByAsset returns the active or acknowledged alert for an asset,
// or nil when no alert is open.
func (r *AlertRepository) GetOpenByAsset(ctx context.Context, assetID string) (*alerts.Alert, error) {
	_ = ctx
	if assetID == "" {
		return nil, errors.New("memory alert repo: empty asset id")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, alert := range r.data {
		if alert.AssetID == assetID && alert.Open() {
			found := alert
			return &found, nil
		}
	}
	return nil, nil
}

// List returns alerts filtered by status, newest first.
func (r *AlertRepository) List(ctx context.Context, status string) ([]alerts.Alert, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]alerts.Alert, 0, len(r.data))
	for _, alert := range r.data {
		if status != "" && alert.Status != status {
			continue
		}
		result = append(result, alert)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].RaisedAt.Equal(result[j].RaisedAt) {
			return result[i].RaisedAt.After(result[j].RaisedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// Save persists an alert.
func (r *AlertRepository) Save(ctx context.Context, alert *alerts.Alert) error {
	_ = ctx
	if alert == nil {
		return errors.New("memory alert repo: nil alert")
	}
	if alert.ID == "" {
		return errors.New("memory alert repo: empty id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *alert
	stored.UpdatedAt = time.Now().UTC()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = stored.UpdatedAt
	}
	r.data[stored.ID] = stored
	return nil
}

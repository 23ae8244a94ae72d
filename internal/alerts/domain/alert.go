package alerts

import (
	"context"
	"time"
)

const (
	StatusActive       = "active"
	StatusAcknowledged = "acknowledged"
	StatusResolved     = "resolved"
)

// Alert represents a high-risk condition raised for an asset whose
// risk score crossed its department threshold.
type Alert struct {
	ID         string    `json:"id"`
	AssetID    string    `json:"asset_id"`
	Model      string    `json:"model"`
	LocationID string    `json:"location_id"`
	Department string    `json:"department"`
	Score      int       `json:"score"`
	Threshold  int       `json:"threshold"`
	Status     string    `json:"status"`
	RaisedAt   time.Time `json:"raised_at"`
	AckedAt    time.Time `json:"acked_at,omitempty"`
	ResolvedAt time.Time `json:"resolved_at,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Open reports whether the alert still demands attention.
func (a Alert) Open() bool {
	return a.Status == StatusActive || a.Status == StatusAcknowledged
}

// AlertRepository manages alert persistence.
type AlertRepository interface {
	Get(ctx context.Context, id string) (*Alert, error)
	GetOpenByAsset(ctx context.Context, assetID string) (*Alert, error)
	List(ctx context.Context, status string) ([]Alert, error)
	Save(ctx context.Context, alert *Alert) error
}

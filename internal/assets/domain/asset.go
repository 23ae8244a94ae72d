package assets

import (
	"context"
	"errors"
	"time"
)

// Status describes the operational state of an asset.
type Status string

const (
	StatusRunning     Status = "running"
	StatusDown        Status = "down"
	StatusMaintenance Status = "maintenance"
	StatusScrapped    Status = "scrapped"
)

// IsValid reports whether the status is a known value.
func (s Status) IsValid() bool {
	switch s {
	case StatusRunning, StatusDown, StatusMaintenance, StatusScrapped:
		return true
	default:
		return false
	}
}

// Asset represents a piece of medical equipment.
//
// Assets carry two identifiers: the primary ID assigned on registration
// and the physical TagID printed on the RFID/barcode label. Work orders
// and movement logs may reference either one; joins must go through
// scoring.ResolveAssetRef rather than comparing fields directly.
type Asset struct {
	ID             string
	TagID          string
	Name           string
	Model          string
	Manufacturer   string
	LocationID     string
	Status         Status
	PurchaseDate   time.Time
	OperatingHours float64
	RiskScore      int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Validate checks asset invariants.
func (a Asset) Validate() error {
	if a.ID == "" {
		return errors.New("asset: empty id")
	}
	if a.Name == "" {
		return errors.New("asset: empty name")
	}
	if !a.Status.IsValid() {
		return errors.New("asset: invalid status")
	}
	if a.RiskScore < 0 || a.RiskScore > 100 {
		return errors.New("asset: risk score out of range")
	}
	return nil
}

// MatchesRef reports whether ref identifies this asset by primary id
// or by tag id.
func (a Asset) MatchesRef(ref string) bool {
	if ref == "" {
		return false
	}
	return ref == a.ID || (a.TagID != "" && ref == a.TagID)
}

// AssetRepository manages asset persistence.
type AssetRepository interface {
	Get(ctx context.Context, id string) (*Asset, error)
	GetByRef(ctx context.Context, ref string) (*Asset, error)
	List(ctx context.Context) ([]Asset, error)
	Save(ctx context.Context, asset *Asset) error
	UpdateStatus(ctx context.Context, id string, status Status) error
	UpdateRiskScore(ctx context.Context, id string, score int) error
}

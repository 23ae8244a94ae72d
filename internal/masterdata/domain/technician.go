package masterdata

import (
	"context"
	"errors"
	"time"
)

// Technician represents a maintenance technician eligible for
// work-order assignment.
type Technician struct {
	ID         string
	Name       string
	LocationID string
	Phone      string
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Validate checks technician invariants.
func (t Technician) Validate() error {
	if t.ID == "" {
		return errors.New("technician: empty id")
	}
	if t.Name == "" {
		return errors.New("technician: empty name")
	}
	return nil
}

// TechnicianRepository manages technician persistence.
type TechnicianRepository interface {
	Get(ctx context.Context, id string) (*Technician, error)
	ListActive(ctx context.Context) ([]Technician, error)
	Save(ctx context.Context, technician *Technician) error
}

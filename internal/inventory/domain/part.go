package inventory

import (
	"context"
	"errors"
	"time"
)

// Part represents a spare part held in stock.
type Part struct {
	ID        string
	Name      string
	Category  string
	Stock     int
	MinStock  int
	UpdatedAt time.Time
}

// Validate checks part invariants.
func (p Part) Validate() error {
	if p.ID == "" {
		return errors.New("part: empty id")
	}
	if p.Name == "" {
		return errors.New("part: empty name")
	}
	if p.Stock < 0 {
		return errors.New("part: negative stock")
	}
	return nil
}

// LowStock reports whether stock has fallen to or below the minimum.
func (p Part) LowStock() bool {
	return p.Stock <= p.MinStock
}

// ErrNotFound indicates a missing part record.
var ErrNotFound = errors.New("part: not found")

// PartRepository manages part persistence.
type PartRepository interface {
	Get(ctx context.Context, id string) (*Part, error)
	List(ctx context.Context) ([]Part, error)
	Save(ctx context.Context, part *Part) error
	// AdjustStock changes stock by delta, flooring at zero. It returns
	// the resulting level.
	AdjustStock(ctx context.Context, id string, delta int) (int, error)
}

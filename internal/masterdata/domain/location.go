package masterdata

import (
	"context"
	"errors"
)

// Location represents a physical ward, room or storage area.
type Location struct {
	ID         string
	Name       string
	Department string
	Floor      int
}

// Validate checks location invariants.
func (l Location) Validate() error {
	if l.ID == "" {
		return errors.New("location: empty id")
	}
	if l.Name == "" {
		return errors.New("location: empty name")
	}
	return nil
}

// LocationRepository manages location persistence.
type LocationRepository interface {
	Get(ctx context.Context, id string) (*Location, error)
	List(ctx context.Context) ([]Location, error)
	Save(ctx context.Context, location *Location) error
}

// DepartmentLookup resolves a location id to its department name.
// Unknown locations resolve to the empty string.
type DepartmentLookup func(locationID string) string

// DepartmentLookupFromRepo builds a lookup over a snapshot of the
// location repository. Lookup failures degrade to empty, never error.
func DepartmentLookupFromRepo(ctx context.Context, repo LocationRepository) DepartmentLookup {
	return func(locationID string) string {
		if repo == nil || locationID == "" {
			return ""
		}
		location, err := repo.Get(ctx, locationID)
		if err != nil || location == nil {
			return ""
		}
		return location.Department
	}
}

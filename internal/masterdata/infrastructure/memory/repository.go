package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	masterdata "medequip-cloud/internal/masterdata/domain"
)

// LocationRepository is an in-memory location store.
type LocationRepository struct {
	mu   sync.RWMutex
	data map[string]masterdata.Location
}

// NewLocationRepository constructs a repository.
func NewLocationRepository() *LocationRepository {
	return &LocationRepository{data: make(map[string]masterdata.Location)}
}

// Get loads a location by id.
func (r *LocationRepository) Get(ctx context.Context, id string) (*masterdata.Location, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	location, ok := r.data[id]
	if !ok {
		return nil, masterdata.ErrNotFound
	}
	return &location, nil
}

// List returns all locations ordered by id.
func (r *LocationRepository) List(ctx context.Context) ([]masterdata.Location, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]masterdata.Location, 0, len(r.data))
	for _, location := range r.data {
		result = append(result, location)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// Save persists a location.
func (r *LocationRepository) Save(ctx context.Context, location *masterdata.Location) error {
	_ = ctx
	if location == nil {
		return errors.New("memory location repo: nil location")
	}
	if err := location.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[location.ID] = *location
	return nil
}

// TechnicianRepository is an in-memory technician store.
type TechnicianRepository struct {
	mu   sync.RWMutex
	data map[string]masterdata.Technician
}

// NewTechnicianRepository constructs a repository.
func NewTechnicianRepository() *TechnicianRepository {
	return &TechnicianRepository{data: make(map[string]masterdata.Technician)}
}

// Get loads a technician by id.
func (r *TechnicianRepository) Get(ctx context.Context, id string) (*masterdata.Technician, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	technician, ok := r.data[id]
	if !ok {
		return nil, masterdata.ErrNotFound
	}
	return &technician, nil
}

// ListActive returns active technicians ordered by id.
func (r *TechnicianRepository) ListActive(ctx context.Context) ([]masterdata.Technician, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]masterdata.Technician, 0, len(r.data))
	for _, technician := range r.data {
		if technician.Active {
			result = append(result, technician)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// Save persists a technician.
func (r *TechnicianRepository) Save(ctx context.Context, technician *masterdata.Technician) error {
	_ = ctx
	if technician == nil {
		return errors.New("memory technician repo: nil technician")
	}
	if err := technician.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	technician.UpdatedAt = time.Now().UTC()
	r.data[technician.ID] = *technician
	return nil
}

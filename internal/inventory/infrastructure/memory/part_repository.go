package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	inventory "medequip-cloud/internal/inventory/domain"
)

// PartRepository is an in-memory spare-part store.
type PartRepository struct {
	mu   sync.RWMutex
	data map[string]inventory.Part
}

// NewPartRepository constructs a repository.
func NewPartRepository() *PartRepository {
	return &PartRepository{data: make(map[string]inventory.Part)}
}

// Get loads a part by id.
func (r *PartRepository) Get(ctx context.Context, id string) (*inventory.Part, error) {
	_ = ctx
	if id == "" {
		return nil, errors.New("memory part repo: empty id")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	part, ok := r.data[id]
	if !ok {
		return nil, inventory.ErrNotFound
	}
	return &part, nil
}

// List returns all parts ordered by id.
func (r *PartRepository) List(ctx context.Context) ([]inventory.Part, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]inventory.Part, 0, len(r.data))
	for _, part := range r.data {
		result = append(result, part)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// Save persists a part.
func (r *PartRepository) Save(ctx context.Context, part *inventory.Part) error {
	_ = ctx
	if part == nil {
		return errors.New("memory part repo: nil part")
	}
	if err := part.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	part.UpdatedAt = time.Now().UTC()
	r.data[part.ID] = *part
	return nil
}

// AdjustStock changes stock by delta, flooring at zero.
func (r *PartRepository) AdjustStock(ctx context.Context, id string, delta int) (int, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	part, ok := r.data[id]
	if !ok {
		return 0, inventory.ErrNotFound
	}
	part.Stock += delta
	if part.Stock < 0 {
		part.Stock = 0
	}
	part.UpdatedAt = time.Now().UTC()
	r.data[id] = part
	return part.Stock, nil
}

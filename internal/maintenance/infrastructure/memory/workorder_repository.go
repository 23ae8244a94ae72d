package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	maintenance "medequip-cloud/internal/maintenance/domain"
)

// WorkOrderRepository is an in-memory work-order store.
type WorkOrderRepository struct {
	mu   sync.RWMutex
	data map[string]maintenance.WorkOrder
}

// NewWorkOrderRepository constructs a repository.
func NewWorkOrderRepository() *WorkOrderRepository {
	return &WorkOrderRepository{data: make(map[string]maintenance.WorkOrder)}
}

// Get loads a work order by id.
func (r *WorkOrderRepository) Get(ctx context.Context, id string) (*maintenance.WorkOrder, error) {
	_ = ctx
	if id == "" {
		return nil, errors.New("memory workorder repo: empty id")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	order, ok := r.data[id]
	if !ok {
		return nil, maintenance.ErrNotFound
	}
	return cloneOrder(order), nil
}

// List returns all work orders ordered by creation time, then id.
func (r *WorkOrderRepository) List(ctx context.Context) ([]maintenance.WorkOrder, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]maintenance.WorkOrder, 0, len(r.data))
	for _, order := range r.data {
		result = append(result, *cloneOrder(order))
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// ListByAssignee returns work orders assigned to the technician.
func (r *WorkOrderRepository) ListByAssignee(ctx context.Context, assigneeID string) ([]maintenance.WorkOrder, error) {
	orders, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	result := orders[:0]
	for _, order := range orders {
		if order.AssigneeID == assigneeID {
			result = append(result, order)
		}
	}
	return result, nil
}

// Save persists a work order.
func (r *WorkOrderRepository) Save(ctx context.Context, order *maintenance.WorkOrder) error {
	_ = ctx
	if order == nil {
		return errors.New("memory workorder repo: nil order")
	}
	if err := order.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	order.UpdatedAt = time.Now().UTC()
	r.data[order.ID] = *cloneOrder(*order)
	return nil
}

// cloneOrder copies the order including its parts slice so callers
// cannot mutate stored state.
func cloneOrder(order maintenance.WorkOrder) *maintenance.WorkOrder {
	copied := order
	if order.PartsUsed != nil {
		copied.PartsUsed = append([]maintenance.PartUsage(nil), order.PartsUsed...)
	}
	return &copied
}

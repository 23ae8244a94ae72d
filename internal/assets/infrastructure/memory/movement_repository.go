package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	assets "medequip-cloud/internal/assets/domain"
)

// MovementRepository is an in-memory movement log.
type MovementRepository struct {
	mu      sync.RWMutex
	entries []assets.MovementLog
	seq     int
}

// NewMovementRepository constructs a repository.
func NewMovementRepository() *MovementRepository {
	return &MovementRepository{}
}

// Append records a relocation event.
func (r *MovementRepository) Append(ctx context.Context, entry *assets.MovementLog) error {
	_ = ctx
	if entry == nil {
		return errors.New("memory movement repo: nil entry")
	}
	if err := entry.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	if entry.ID == "" {
		entry.ID = fmt.Sprintf("mv-%06d", r.seq)
	}
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now().UTC()
	}
	r.entries = append(r.entries, *entry)
	return nil
}

// List returns all movement entries in insertion order.
func (r *MovementRepository) List(ctx context.Context) ([]assets.MovementLog, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]assets.MovementLog(nil), r.entries...), nil
}

// ListByAsset returns entries whose asset ref matches any of refs.
func (r *MovementRepository) ListByAsset(ctx context.Context, refs []string) ([]assets.MovementLog, error) {
	_ = ctx
	wanted := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		if ref != "" {
			wanted[ref] = struct{}{}
		}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []assets.MovementLog
	for _, entry := range r.entries {
		if _, ok := wanted[entry.AssetRef]; ok {
			result = append(result, entry)
		}
	}
	return result, nil
}

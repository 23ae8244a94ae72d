package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	assets "medequip-cloud/internal/assets/domain"
)

// AssetRepository is an in-memory asset store for demo/testing and the
// no-database fallback mode.
type AssetRepository struct {
	mu   sync.RWMutex
	data map[string]assets.Asset
}

// NewAssetRepository constructs a repository.
func NewAssetRepository() *AssetRepository {
	return &AssetRepository{data: make(map[string]assets.Asset)}
}

// Get loads an asset by primary id.
func (r *AssetRepository) Get(ctx context.Context, id string) (*assets.Asset, error) {
	_ = ctx
	if id == "" {
		return nil, errors.New("memory asset repo: empty id")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	asset, ok := r.data[id]
	if !ok {
		return nil, assets.ErrNotFound
	}
	return &asset, nil
}

// GetByRef loads an asset by primary id or tag id.
func (r *AssetRepository) GetByRef(ctx context.Context, ref string) (*assets.Asset, error) {
	_ = ctx
	if ref == "" {
		return nil, errors.New("memory asset repo: empty ref")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if asset, ok := r.data[ref]; ok {
		return &asset, nil
	}
	for _, asset := range r.data {
		if asset.MatchesRef(ref) {
			return &asset, nil
		}
	}
	return nil, assets.ErrNotFound
}

// List returns all assets ordered by id.
func (r *AssetRepository) List(ctx context.Context) ([]assets.Asset, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]assets.Asset, 0, len(r.data))
	for _, asset := range r.data {
		result = append(result, asset)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// Save persists an asset.
func (r *AssetRepository) Save(ctx context.Context, asset *assets.Asset) error {
	_ = ctx
	if asset == nil {
		return errors.New("memory asset repo: nil asset")
	}
	if err := asset.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	asset.UpdatedAt = time.Now().UTC()
	r.data[asset.ID] = *asset
	return nil
}

// UpdateStatus changes the operational status of an asset.
func (r *AssetRepository) UpdateStatus(ctx context.Context, id string, status assets.Status) error {
	_ = ctx
	if !status.IsValid() {
		return errors.New("memory asset repo: invalid status")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	asset, ok := r.data[id]
	if !ok {
		return assets.ErrNotFound
	}
	asset.Status = status
	asset.UpdatedAt = time.Now().UTC()
	r.data[id] = asset
	return nil
}

// UpdateRiskScore writes the engine-computed risk score back onto the
// asset.
func (r *AssetRepository) UpdateRiskScore(ctx context.Context, id string, score int) error {
	_ = ctx
	if score < 0 || score > 100 {
		return errors.New("memory asset repo: score out of range")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	asset, ok := r.data[id]
	if !ok {
		return assets.ErrNotFound
	}
	asset.RiskScore = score
	asset.UpdatedAt = time.Now().UTC()
	r.data[id] = asset
	return nil
}

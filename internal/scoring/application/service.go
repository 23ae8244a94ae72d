package application

import (
	"context"
	"errors"
	"time"

	assetevents "medequip-cloud/internal/assets/application/events"
	assets "medequip-cloud/internal/assets/domain"
	inventory "medequip-cloud/internal/inventory/domain"
	maintenance "medequip-cloud/internal/maintenance/domain"
	masterdata "medequip-cloud/internal/masterdata/domain"
	"medequip-cloud/internal/scoring"
)

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// EventPublisher publishes domain events.
type EventPublisher interface {
	Publish(ctx context.Context, event any) error
}

// Service runs the scoring engine over repository snapshots and writes
// risk scores back onto assets. The engine itself stays pure; this
// service owns the single-writer risk_score assignment.
type Service struct {
	assets      assets.AssetRepository
	movements   assets.MovementRepository
	orders      maintenance.WorkOrderRepository
	parts       inventory.PartRepository
	technicians masterdata.TechnicianRepository
	locations   masterdata.LocationRepository
	bus         EventPublisher
	clock       Clock
}

// NewService constructs a scoring service.
func NewService(
	assetRepo assets.AssetRepository,
	movements assets.MovementRepository,
	orders maintenance.WorkOrderRepository,
	parts inventory.PartRepository,
	technicians masterdata.TechnicianRepository,
	locations masterdata.LocationRepository,
	bus EventPublisher,
	clock Clock,
) (*Service, error) {
	if assetRepo == nil || movements == nil || orders == nil {
		return nil, errors.New("scoring service: nil repository")
	}
	if clock == nil {
		return nil, errors.New("scoring service: nil clock")
	}
	return &Service{
		assets:      assetRepo,
		movements:   movements,
		orders:      orders,
		parts:       parts,
		technicians: technicians,
		locations:   locations,
		bus:         bus,
		clock:       clock,
	}, nil
}

// Risk returns the stored risk score for an asset without recomputing.
func (s *Service) Risk(ctx context.Context, assetRef string) (int, error) {
	asset, err := s.assets.GetByRef(ctx, assetRef)
	if err != nil {
		return 0, err
	}
	return asset.RiskScore, nil
}

// RefreshAsset recomputes the risk score for one asset (referenced by
// id or tag) and persists it when it changed.
func (s *Service) RefreshAsset(ctx context.Context, assetRef string) (int, error) {
	asset, err := s.assets.GetByRef(ctx, assetRef)
	if err != nil {
		return 0, err
	}

	orders, err := s.orders.List(ctx)
	if err != nil {
		return 0, err
	}
	movements, err := s.movements.List(ctx)
	if err != nil {
		return 0, err
	}

	return s.refresh(ctx, asset, orders, movements)
}

// RefreshAll recomputes risk scores for every asset and returns how
// many changed.
func (s *Service) RefreshAll(ctx context.Context) (int, error) {
	snapshot, err := s.assets.List(ctx)
	if err != nil {
		return 0, err
	}
	orders, err := s.orders.List(ctx)
	if err != nil {
		return 0, err
	}
	movements, err := s.movements.List(ctx)
	if err != nil {
		return 0, err
	}

	changed := 0
	for i := range snapshot {
		previous := snapshot[i].RiskScore
		score, err := s.refresh(ctx, &snapshot[i], orders, movements)
		if err != nil {
			return changed, err
		}
		if score != previous {
			changed++
		}
	}
	return changed, nil
}

func (s *Service) refresh(ctx context.Context, asset *assets.Asset, orders []maintenance.WorkOrder, movements []assets.MovementLog) (int, error) {
	score := scoring.ComputeRiskScore(*asset, orders, movements, s.clock.Now().UTC())
	if score == asset.RiskScore {
		return score, nil
	}

	previous := asset.RiskScore
	if err := s.assets.UpdateRiskScore(ctx, asset.ID, score); err != nil {
		return 0, err
	}
	asset.RiskScore = score

	if s.bus != nil {
		_ = s.bus.Publish(ctx, assetevents.RiskScoreUpdated{
			AssetID:       asset.ID,
			Model:         asset.Model,
			LocationID:    asset.LocationID,
			PreviousScore: previous,
			Score:         score,
			OccurredAt:    s.clock.Now().UTC(),
		})
	}
	return score, nil
}

// Recommend ranks active technicians for work on the referenced asset.
func (s *Service) Recommend(ctx context.Context, assetRef string) ([]scoring.Recommendation, error) {
	if s.technicians == nil {
		return nil, errors.New("scoring service: nil technician repository")
	}
	asset, err := s.assets.GetByRef(ctx, assetRef)
	if err != nil {
		return nil, err
	}
	candidates, err := s.technicians.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, err
	}

	var lookup masterdata.DepartmentLookup
	if s.locations != nil {
		lookup = masterdata.DepartmentLookupFromRepo(ctx, s.locations)
	}
	return scoring.RecommendTechnicians(*asset, candidates, orders, lookup), nil
}

// Patterns aggregates repair history for an equipment model.
func (s *Service) Patterns(ctx context.Context, model, faultText string) (scoring.PatternSummary, error) {
	snapshot, err := s.assets.List(ctx)
	if err != nil {
		return scoring.PatternSummary{}, err
	}
	orders, err := s.orders.List(ctx)
	if err != nil {
		return scoring.PatternSummary{}, err
	}
	var parts []inventory.Part
	if s.parts != nil {
		parts, err = s.parts.List(ctx)
		if err != nil {
			return scoring.PatternSummary{}, err
		}
	}
	return scoring.AnalyzeHistoricalPatterns(model, faultText, snapshot, orders, parts), nil
}

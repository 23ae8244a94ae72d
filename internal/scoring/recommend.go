package scoring

import (
	"fmt"
	"sort"
	"strings"

	assets "medequip-cloud/internal/assets/domain"
	maintenance "medequip-cloud/internal/maintenance/domain"
	masterdata "medequip-cloud/internal/masterdata/domain"
)

const (
	onSiteBonus   = 50
	sameDeptBonus = 30

	expertiseWeight    = 2
	expertiseCap       = 40
	expertiseThreshold = 10

	workloadPenalty = 5
	busyThreshold   = 3
)

// Recommendation ranks a candidate technician for an assignment.
type Recommendation struct {
	Technician masterdata.Technician
	Score      int
	Reasons    []string
}

// RecommendOption tunes the ranker.
type RecommendOption func(*recommendConfig)

type recommendConfig struct {
	modelScope []assets.Asset
}

// WithModelScopedExpertise restricts the expertise count to closed
// orders on the asset's equipment model, resolving order references
// against the given asset snapshot. The historical behavior counts
// every closed order regardless of model; whether that was intended is
// an open product question, so the historical behavior stays the
// default.
func WithModelScopedExpertise(snapshot []assets.Asset) RecommendOption {
	return func(cfg *recommendConfig) {
		cfg.modelScope = snapshot
	}
}

// RecommendTechnicians scores each candidate for work on the asset and
// returns them ordered by descending score; ties keep candidate order.
// The ranking is advisory only — committing an assignment is the
// caller's job. An empty candidate list yields an empty result.
func RecommendTechnicians(asset assets.Asset, candidates []masterdata.Technician, orders []maintenance.WorkOrder, lookup masterdata.DepartmentLookup, opts ...RecommendOption) []Recommendation {
	cfg := recommendConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	assetDept := ""
	if lookup != nil {
		assetDept = lookup(asset.LocationID)
	}

	result := make([]Recommendation, 0, len(candidates))
	for _, tech := range candidates {
		rec := Recommendation{Technician: tech}

		switch {
		case tech.LocationID != "" && tech.LocationID == asset.LocationID:
			rec.Score += onSiteBonus
			rec.Reasons = append(rec.Reasons, "On Site")
		case lookup != nil && assetDept != "" && lookup(tech.LocationID) == assetDept:
			rec.Score += sameDeptBonus
			rec.Reasons = append(rec.Reasons, "Same Dept")
		}

		closed := closedCount(tech.ID, asset.Model, orders, cfg.modelScope)
		expertise := closed * expertiseWeight
		if expertise > expertiseCap {
			expertise = expertiseCap
		}
		if expertise > expertiseThreshold {
			rec.Score += expertise
			rec.Reasons = append(rec.Reasons, fmt.Sprintf("Expert (%d Jobs)", closed))
		}

		open := openCount(tech.ID, orders)
		rec.Score -= open * workloadPenalty
		if open > busyThreshold {
			rec.Reasons = append(rec.Reasons, "Busy")
		}

		result = append(result, rec)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Score > result[j].Score
	})
	return result
}

func closedCount(technicianID, model string, orders []maintenance.WorkOrder, modelScope []assets.Asset) int {
	count := 0
	for i := range orders {
		if orders[i].AssigneeID != technicianID {
			continue
		}
		if orders[i].Status != maintenance.StatusClosed {
			continue
		}
		if modelScope != nil && !orderMatchesModel(orders[i].AssetRef, model, modelScope) {
			continue
		}
		count++
	}
	return count
}

func orderMatchesModel(ref, model string, snapshot []assets.Asset) bool {
	for i := range snapshot {
		if snapshot[i].MatchesRef(ref) {
			return strings.EqualFold(snapshot[i].Model, model)
		}
	}
	return false
}

func openCount(technicianID string, orders []maintenance.WorkOrder) int {
	count := 0
	for i := range orders {
		if orders[i].AssigneeID != technicianID {
			continue
		}
		if orders[i].Status.IsOpen() {
			count++
		}
	}
	return count
}

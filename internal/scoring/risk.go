package scoring

import (
	"math"
	"time"

	assets "medequip-cloud/internal/assets/domain"
	maintenance "medequip-cloud/internal/maintenance/domain"
)

const (
	// MaxRiskScore is the upper clamp of the risk scale.
	MaxRiskScore = 100

	ageWeight          = 2
	utilizationDivisor = 500
	recentFailWeight   = 10
	mobilityWeight     = 5

	// recentWindow bounds the failure and mobility factors.
	recentWindow = 6 * 30 * 24 * time.Hour
)

// ComputeRiskScore estimates the asset's likelihood of near-term
// failure on a 0-100 scale. The score is a weighted sum of equipment
// age, cumulative utilization, corrective orders raised within the last
// six months and relocations within the same window. Missing or
// malformed dates contribute zero rather than failing.
func ComputeRiskScore(asset assets.Asset, orders []maintenance.WorkOrder, movements []assets.MovementLog, now time.Time) int {
	raw := float64(ageFactor(asset, now))
	raw += math.Floor(asset.OperatingHours / utilizationDivisor)
	raw += float64(recentFailWeight * recentCorrectiveCount(asset, orders, now))
	raw += float64(mobilityWeight * recentMovementCount(asset, movements, now))

	score := int(math.Round(raw))
	if score < 0 {
		return 0
	}
	if score > MaxRiskScore {
		return MaxRiskScore
	}
	return score
}

func ageFactor(asset assets.Asset, now time.Time) int {
	if asset.PurchaseDate.IsZero() {
		return 0
	}
	years := now.Year() - asset.PurchaseDate.Year()
	if years < 0 {
		return 0
	}
	return ageWeight * years
}

func recentCorrectiveCount(asset assets.Asset, orders []maintenance.WorkOrder, now time.Time) int {
	cutoff := now.Add(-recentWindow)
	count := 0
	for i := range orders {
		if orders[i].Type != maintenance.TypeCorrective {
			continue
		}
		if !refMatches(asset, orders[i].AssetRef) {
			continue
		}
		if orders[i].CreatedAt.IsZero() || orders[i].CreatedAt.Before(cutoff) {
			continue
		}
		count++
	}
	return count
}

func recentMovementCount(asset assets.Asset, movements []assets.MovementLog, now time.Time) int {
	cutoff := now.Add(-recentWindow)
	count := 0
	for i := range movements {
		if !refMatches(asset, movements[i].AssetRef) {
			continue
		}
		if movements[i].RecordedAt.IsZero() || movements[i].RecordedAt.Before(cutoff) {
			continue
		}
		count++
	}
	return count
}

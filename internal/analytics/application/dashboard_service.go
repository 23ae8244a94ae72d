package application

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	assets "medequip-cloud/internal/assets/domain"
	maintenance "medequip-cloud/internal/maintenance/domain"
)

const (
	topModelsLimit = 5
	monthsBack     = 12
)

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// DashboardService aggregates fleet health statistics for the
// maintenance dashboard.
type DashboardService struct {
	assets assets.AssetRepository
	orders maintenance.WorkOrderRepository
	clock  Clock
}

// NewDashboardService constructs a dashboard service.
func NewDashboardService(assetRepo assets.AssetRepository, orders maintenance.WorkOrderRepository, clock Clock) (*DashboardService, error) {
	if assetRepo == nil {
		return nil, errors.New("dashboard service: nil asset repository")
	}
	if orders == nil {
		return nil, errors.New("dashboard service: nil work order repository")
	}
	if clock == nil {
		return nil, errors.New("dashboard service: nil clock")
	}
	return &DashboardService{assets: assetRepo, orders: orders, clock: clock}, nil
}

// ModelStat carries a per-model aggregate.
type ModelStat struct {
	Model string  `json:"model"`
	Count int     `json:"count"`
	Value float64 `json:"value,omitempty"`
}

// MonthCount carries closed work orders for one calendar month.
type MonthCount struct {
	Month string `json:"month"` // YYYY-MM
	Count int    `json:"count"`
}

// DashboardStats is the aggregate served to the dashboard.
type DashboardStats struct {
	AssetStatusCounts map[string]int `json:"asset_status_counts"`
	OpenByPriority    map[string]int `json:"open_by_priority"`
	MTTRHours         float64        `json:"mttr_hours"`
	MTTRByModel       []ModelStat    `json:"mttr_by_model"`
	ClosedPerMonth    []MonthCount   `json:"closed_per_month"`
	TopFailingModels  []ModelStat    `json:"top_failing_models"`
	HighRiskAssets    int            `json:"high_risk_assets"`
}

// Dashboard computes fleet statistics from current assets and the full
// work order history.
func (s *DashboardService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	snapshot, err := s.assets.List(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{
		AssetStatusCounts: make(map[string]int),
		OpenByPriority:    make(map[string]int),
		MTTRByModel:       []ModelStat{},
		ClosedPerMonth:    []MonthCount{},
		TopFailingModels:  []ModelStat{},
	}

	for _, asset := range snapshot {
		stats.AssetStatusCounts[string(asset.Status)]++
		if asset.RiskScore >= 70 {
			stats.HighRiskAssets++
		}
	}

	modelByRef := make(map[string]string, len(snapshot)*2)
	for _, asset := range snapshot {
		modelByRef[asset.ID] = asset.Model
		if asset.TagID != "" {
			modelByRef[asset.TagID] = asset.Model
		}
	}

	var (
		totalRepair   time.Duration
		repairCount   int
		repairByModel = make(map[string][]time.Duration)
		failByModel   = make(map[string]int)
		byMonth       = make(map[string]int)
	)
	for _, order := range orders {
		if order.Status.IsOpen() {
			stats.OpenByPriority[string(order.Priority)]++
			continue
		}
		if order.Status != maintenance.StatusClosed {
			continue
		}

		if !order.ClosedAt.IsZero() {
			byMonth[order.ClosedAt.UTC().Format("2006-01")]++
		}
		model := modelByRef[order.AssetRef]
		if order.Type == maintenance.TypeCorrective && model != "" {
			failByModel[model]++
		}
		if duration, ok := order.RepairDuration(); ok {
			totalRepair += duration
			repairCount++
			if model != "" {
				repairByModel[model] = append(repairByModel[model], duration)
			}
		}
	}

	if repairCount > 0 {
		stats.MTTRHours = roundHours(totalRepair, repairCount)
	}
	for model, durations := range repairByModel {
		var total time.Duration
		for _, d := range durations {
			total += d
		}
		stats.MTTRByModel = append(stats.MTTRByModel, ModelStat{
			Model: model,
			Count: len(durations),
			Value: roundHours(total, len(durations)),
		})
	}
	sort.Slice(stats.MTTRByModel, func(i, j int) bool {
		return stats.MTTRByModel[i].Model < stats.MTTRByModel[j].Model
	})

	stats.ClosedPerMonth = recentMonths(byMonth, s.clock.Now())
	stats.TopFailingModels = topModels(failByModel)
	return stats, nil
}

func roundHours(total time.Duration, count int) float64 {
	hours := total.Hours() / float64(count)
	return math.Round(hours*10) / 10
}

// recentMonths returns the trailing window oldest first, including
// months with zero closures.
func recentMonths(byMonth map[string]int, now time.Time) []MonthCount {
	result := make([]MonthCount, 0, monthsBack)
	cursor := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	cursor = cursor.AddDate(0, -(monthsBack - 1), 0)
	for i := 0; i < monthsBack; i++ {
		key := cursor.Format("2006-01")
		result = append(result, MonthCount{Month: key, Count: byMonth[key]})
		cursor = cursor.AddDate(0, 1, 0)
	}
	return result
}

func topModels(failByModel map[string]int) []ModelStat {
	result := make([]ModelStat, 0, len(failByModel))
	for model, count := range failByModel {
		result = append(result, ModelStat{Model: model, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Model < result[j].Model
	})
	if len(result) > topModelsLimit {
		result = result[:topModelsLimit]
	}
	return result
}

package scoring

import (
	"fmt"
	"math"
	"sort"
	"strings"

	assets "medequip-cloud/internal/assets/domain"
	inventory "medequip-cloud/internal/inventory/domain"
	maintenance "medequip-cloud/internal/maintenance/domain"
)

const (
	topPartsLimit    = 3
	solutionRefLimit = 2
)

// PartUsageSummary aggregates consumption of one part across similar
// repairs.
type PartUsageSummary struct {
	PartID   string
	PartName string
	Count    int
}

// PatternSummary describes repair history for an equipment model.
type PatternSummary struct {
	SimilarCases       int
	AvgRepairTimeHours float64
	TopPartsUsed       []PartUsageSummary
	CommonSolutionRefs []string
}

// AnalyzeHistoricalPatterns aggregates closed corrective orders for
// every asset sharing the given model (case-insensitive exact match).
//
// faultText is accepted for forward compatibility with text-similarity
// filtering but does not influence the result today.
//
// Average repair time only counts orders carrying a valid
// start-to-close duration; orders without one stay in SimilarCases but
// drop out of the average's denominator. No matches is a defined empty
// result, not an error.
func AnalyzeHistoricalPatterns(model, faultText string, snapshot []assets.Asset, orders []maintenance.WorkOrder, parts []inventory.Part) PatternSummary {
	_ = faultText

	matches := matchingOrders(model, snapshot, orders)
	summary := PatternSummary{
		SimilarCases:       len(matches),
		TopPartsUsed:       []PartUsageSummary{},
		CommonSolutionRefs: []string{},
	}
	if len(matches) == 0 {
		return summary
	}

	summary.AvgRepairTimeHours = averageRepairHours(matches)
	summary.TopPartsUsed = topParts(matches, parts)
	for i := 0; i < len(matches) && i < solutionRefLimit; i++ {
		summary.CommonSolutionRefs = append(summary.CommonSolutionRefs, fmt.Sprintf("Ref WO#%s", matches[i].ID))
	}
	return summary
}

func matchingOrders(model string, snapshot []assets.Asset, orders []maintenance.WorkOrder) []maintenance.WorkOrder {
	if model == "" {
		return nil
	}

	refs := make(map[string]struct{})
	for i := range snapshot {
		if !strings.EqualFold(snapshot[i].Model, model) {
			continue
		}
		for _, ref := range refsFor(snapshot[i]) {
			refs[ref] = struct{}{}
		}
	}
	if len(refs) == 0 {
		return nil
	}

	var matches []maintenance.WorkOrder
	for i := range orders {
		if orders[i].Status != maintenance.StatusClosed || orders[i].Type != maintenance.TypeCorrective {
			continue
		}
		if _, ok := refs[orders[i].AssetRef]; !ok {
			continue
		}
		matches = append(matches, orders[i])
	}
	return matches
}

func averageRepairHours(matches []maintenance.WorkOrder) float64 {
	var total float64
	counted := 0
	for i := range matches {
		duration, ok := matches[i].RepairDuration()
		if !ok {
			continue
		}
		total += duration.Hours()
		counted++
	}
	if counted == 0 {
		return 0
	}
	return math.Round(total/float64(counted)*10) / 10
}

func topParts(matches []maintenance.WorkOrder, parts []inventory.Part) []PartUsageSummary {
	totals := make(map[string]int)
	order := make([]string, 0)
	for i := range matches {
		for _, usage := range matches[i].PartsUsed {
			if usage.PartID == "" || usage.Quantity <= 0 {
				continue
			}
			if _, seen := totals[usage.PartID]; !seen {
				order = append(order, usage.PartID)
			}
			totals[usage.PartID] += usage.Quantity
		}
	}
	if len(totals) == 0 {
		return []PartUsageSummary{}
	}

	names := make(map[string]string, len(parts))
	for i := range parts {
		names[parts[i].ID] = parts[i].Name
	}

	result := make([]PartUsageSummary, 0, len(order))
	for _, id := range order {
		name, ok := names[id]
		if !ok || name == "" {
			name = fmt.Sprintf("Part #%s", id)
		}
		result = append(result, PartUsageSummary{PartID: id, PartName: name, Count: totals[id]})
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Count > result[j].Count
	})
	if len(result) > topPartsLimit {
		result = result[:topPartsLimit]
	}
	return result
}

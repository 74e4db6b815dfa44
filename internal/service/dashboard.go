package service

import (
	"sort"

	"github.com/ricemill/analytics/internal/domain"
)

func assembleDashboard(
	filter domain.DashboardFilter,
	reorderPoints []domain.ReorderPoint,
	abcEntries []domain.ABCEntry,
	wasteReports []domain.WasteReport,
	efficiencyReports []domain.EfficiencyReport,
) *domain.AnalyticsDashboard {
	needsReorder := make([]domain.ReorderPoint, 0, len(reorderPoints))
	for _, p := range reorderPoints {
		if p.RequiresReorder {
			needsReorder = append(needsReorder, p)
		}
	}
	if len(needsReorder) > filter.TopN {
		needsReorder = needsReorder[:filter.TopN]
	}

	topWaste := rankWaste(wasteReports, filter.TopN)

	machines := make([]domain.MachineOEESummary, 0, len(efficiencyReports))
	for _, r := range efficiencyReports {
		machines = append(machines, domain.MachineOEESummary{
			MachineID:             r.MachineID,
			TotalBatches:          r.TotalBatches,
			OverallEfficiency:     r.OverallEfficiency,
			UtilizationPercentage: r.UtilizationPercentage,
			OEE:                   r.OEE.OEE,
		})
	}

	return &domain.AnalyticsDashboard{
		UrgencySummary: summarizeUrgency(reorderPoints),
		ReorderItems:   needsReorder,
		ABCBreakdown:   summarizeClasses(abcEntries),
		TopWaste:       topWaste,
		Machines:       machines,
	}
}

func summarizeUrgency(points []domain.ReorderPoint) []domain.UrgencySummary {
	counts := make(map[domain.UrgencyLevel]int)
	for _, p := range points {
		counts[p.UrgencyLevel]++
	}

	tiers := []domain.UrgencyLevel{
		domain.UrgencyCritical,
		domain.UrgencyHigh,
		domain.UrgencyMedium,
		domain.UrgencyLow,
	}
	summary := make([]domain.UrgencySummary, 0, len(tiers))
	for _, tier := range tiers {
		summary = append(summary, domain.UrgencySummary{Urgency: tier, Count: counts[tier]})
	}
	return summary
}

func summarizeClasses(entries []domain.ABCEntry) []domain.ClassBreakdown {
	counts := make(map[domain.ABCClass]int)
	shares := make(map[domain.ABCClass]float64)
	for _, e := range entries {
		counts[e.Classification]++
		shares[e.Classification] += e.ValuePercentage
	}

	classes := []domain.ABCClass{domain.ClassA, domain.ClassB, domain.ClassC}
	breakdown := make([]domain.ClassBreakdown, 0, len(classes))
	for _, class := range classes {
		breakdown = append(breakdown, domain.ClassBreakdown{
			Classification: class,
			Count:          counts[class],
			ValueShare:     shares[class],
		})
	}
	return breakdown
}

func rankWaste(reports []domain.WasteReport, topN int) []domain.WasteReport {
	ranked := make([]domain.WasteReport, len(reports))
	copy(ranked, reports)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].WasteCost.GreaterThan(ranked[j].WasteCost)
	})
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}

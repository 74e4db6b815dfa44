package analytics

import (
	"sort"
	"time"

	"github.com/ricemill/analytics/internal/domain"
)

// EfficiencyAnalyzer computes yield, utilization, downtime and OEE for a
// machine over a date range. Only batches with fully recorded start/end
// times and quantities participate; the rest are flagged, not guessed at.
type EfficiencyAnalyzer struct {
	idealCycleRate float64
	minDowntimeGap time.Duration
	scheduledHours float64
}

// NewEfficiencyAnalyzer builds an analyzer from the configured parameters.
func NewEfficiencyAnalyzer(p Params) *EfficiencyAnalyzer {
	rate := p.IdealCycleRate
	if rate <= 0 {
		rate = 500
	}
	gap := p.MinDowntimeGap
	if gap <= 0 {
		gap = 10 * time.Minute
	}
	hours := p.ScheduledHoursCap
	if hours <= 0 {
		hours = 16
	}
	return &EfficiencyAnalyzer{idealCycleRate: rate, minDowntimeGap: gap, scheduledHours: hours}
}

// Analyze builds the efficiency report for one machine. batches is the
// machine's batch history inside rng; machine supplies the per-hour capacity
// used as the ideal cycle rate when present.
func (ea *EfficiencyAnalyzer) Analyze(
	machine domain.Machine,
	batches []domain.ProductionBatch,
	rng domain.DateRange,
) (domain.EfficiencyReport, error) {
	if err := rng.Validate(); err != nil {
		return domain.EfficiencyReport{}, err
	}

	report := domain.EfficiencyReport{
		MachineID: machine.ID,
		Range:     rng,
	}

	usable := make([]domain.ProductionBatch, 0, len(batches))
	skipped := 0
	for _, b := range batches {
		if !b.Status.Finished() {
			continue
		}
		if !b.HasFullTimes() || b.TotalInputQuantity() <= 0 {
			skipped++
			continue
		}
		usable = append(usable, b)
	}
	if skipped > 0 {
		report.Warnings = append(report.Warnings,
			"skipped batches with incomplete times or quantities")
	}
	report.TotalBatches = len(usable)
	if len(usable) == 0 {
		return report, nil
	}

	var runTime time.Duration
	for _, b := range usable {
		report.TotalInputQuantity += b.TotalInputQuantity()
		report.TotalOutputQuantity += b.TotalOutputQuantity()
		runTime += b.Duration()
	}

	report.OverallEfficiency = roundFloat(
		ratio(report.TotalOutputQuantity, report.TotalInputQuantity)*100, 2)

	runHours := runTime.Hours()
	report.RunTimeHours = roundFloat(runHours, 2)

	availableHours := rng.Hours()
	report.UtilizationPercentage = roundFloat(ratio(runHours, availableHours)*100, 2)

	report.Downtimes = ea.downtime(machine.ID, usable)
	var downHours float64
	for _, d := range report.Downtimes {
		downHours += d.Duration.Hours()
	}
	report.DowntimeHours = roundFloat(downHours, 2)

	scheduledHours := float64(rng.Days()) * ea.scheduledHours
	report.OEE = ea.oee(report, runHours, scheduledHours, machine.CapacityPerHour)

	return report, nil
}

// oee combines availability, performance and quality. Each factor is a
// ratio in [0,1]; the final score is a percentage capped at 100 with the
// raw value preserved for diagnostics.
func (ea *EfficiencyAnalyzer) oee(
	report domain.EfficiencyReport,
	runHours, scheduledHours, capacityPerHour float64,
) domain.OEEScore {
	rate := capacityPerHour
	if rate <= 0 {
		rate = ea.idealCycleRate
	}

	availability := ratio(runHours, scheduledHours)
	performance := ratio(report.TotalOutputQuantity, runHours*rate)
	quality := ratio(report.TotalOutputQuantity, report.TotalInputQuantity)

	score := domain.OEEScore{
		Availability: roundFloat(clampRatio(availability), 4),
		Performance:  roundFloat(clampRatio(performance), 4),
		Quality:      roundFloat(clampRatio(quality), 4),
	}

	raw := availability * performance * quality * 100
	score.RawOEE = roundFloat(raw, 2)
	if raw > 100 {
		score.OEE = 100
		score.Capped = true
	} else if raw < 0 {
		score.OEE = 0
	} else {
		score.OEE = roundFloat(raw, 2)
	}

	return score
}

// downtime finds inter-batch gaps longer than the changeover threshold.
// Shorter gaps are changeover noise and do not count.
func (ea *EfficiencyAnalyzer) downtime(machineID int64, batches []domain.ProductionBatch) []domain.DowntimePeriod {
	if len(batches) < 2 {
		return nil
	}

	ordered := append([]domain.ProductionBatch(nil), batches...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].StartedAt.Before(*ordered[j].StartedAt)
	})

	var periods []domain.DowntimePeriod
	for i := 1; i < len(ordered); i++ {
		prevEnd := *ordered[i-1].EndedAt
		nextStart := *ordered[i].StartedAt
		gap := nextStart.Sub(prevEnd)
		if gap <= ea.minDowntimeGap {
			continue
		}
		periods = append(periods, domain.DowntimePeriod{
			MachineID: machineID,
			From:      prevEnd,
			To:        nextStart,
			Duration:  gap,
		})
	}
	return periods
}

func clampRatio(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

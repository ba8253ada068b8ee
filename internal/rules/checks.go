package rules

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/plantops/linesight/internal/domain"
	"github.com/plantops/linesight/internal/stats"
)

// lineNamePattern extracts the master line name from free-text event
// descriptions, e.g. "Hydraulic breakdown on HighRange_Line2".
var lineNamePattern = regexp.MustCompile(`(?:HighRange|MedRange)_Line\d+`)

// checkMachineHealth fires DISPATCH_MAINTENANCE per line whose average
// uptime is below the critical threshold.
func (e *Engine) checkMachineHealth(records []domain.PlantRecord, _ *domain.AnalysisContext) ([]domain.RuleResult, error) {
	thr := e.thresholds.MachineUptimeCritical
	var results []domain.RuleResult

	for _, line := range uniqueLines(records) {
		uptime := meanWhere(records, byLine(line), func(r domain.PlantRecord) float64 { return r.Uptime })
		fired, err := e.trigger(FamilyMachineHealth, map[string]any{"value": uptime, "threshold": thr})
		if err != nil {
			return nil, err
		}
		results = append(results, domain.RuleResult{
			Name:      "Low Machine Health",
			Triggered: fired,
			Condition: fmt.Sprintf("Machine uptime for %s = %.1f%% < %.0f%%", line, uptime, thr),
			Threshold: thr,
			Actual:    uptime,
			Action:    domain.ActionDispatchMaintenance,
			Severity:  firedSeverity(fired, domain.SeverityHigh),
			Details:   fmt.Sprintf("Assembly line %s uptime is %s maintenance threshold.", line, belowAbove(fired)),
		})
	}
	return results, nil
}

// checkLineBreakdown scans event descriptions for failure vocabulary. Every
// detected failure emits a CRITICAL maintenance result plus an unconditional
// HIGH reallocation companion: production must be redistributed while the
// repair is pending.
func (e *Engine) checkLineBreakdown(_ []domain.PlantRecord, ctx *domain.AnalysisContext) ([]domain.RuleResult, error) {
	var results []domain.RuleResult

	for _, ev := range ctx.Events {
		desc := ev.Description
		lower := strings.ToLower(desc)
		isFailure := strings.EqualFold(ev.Type, "equipment_failure") ||
			strings.Contains(lower, "breakdown") ||
			strings.Contains(lower, "malfunction")
		if !isFailure {
			continue
		}

		lineName := lineNamePattern.FindString(desc)

		impactArea := ev.ImpactAreas
		if impactArea == "" {
			impactArea = ev.AffectedLine
		}
		if impactArea == "" {
			impactArea = "Unknown"
		}
		affected := lineName
		if affected == "" {
			affected = impactArea
		}

		repair := "Unknown"
		if lm, ok := ctx.LineMaster[lineName]; ok && lm.MTTRHours > 0 {
			repair = fmt.Sprintf("%.0f hours (MTTR)", lm.MTTRHours)
		}

		workaround := "Line_Swap, Manual_Operation"
		if ctx.ScenarioImpact != nil && len(ctx.ScenarioImpact.WorkaroundOptions) > 0 {
			workaround = strings.Join(ctx.ScenarioImpact.WorkaroundOptions, ", ")
		}

		results = append(results, domain.RuleResult{
			Name:      "Line Breakdown Detected",
			Triggered: true,
			Condition: fmt.Sprintf("Equipment failure on %s (%s) - repair est. %s", affected, impactArea, repair),
			Action:    domain.ActionDispatchMaintenance,
			Severity:  domain.SeverityCritical,
			Details:   fmt.Sprintf("Description: %s. Workaround options: %s", desc, workaround),
		})
		results = append(results, domain.RuleResult{
			Name:      "Line Reallocation Required",
			Triggered: true,
			Condition: fmt.Sprintf("%s offline - must redistribute production", affected),
			Action:    domain.ActionReallocateLine,
			Severity:  domain.SeverityHigh,
			Details:   fmt.Sprintf("Move production to alternate lines while %s is being repaired. Impact area: %s.", affected, impactArea),
		})
	}
	return results, nil
}

// checkDemandSpike fires INCREASE_SHIFT when peak demand exceeds
// mean + sigma*std. The configured sigma floor guards near-zero-variance
// series against false positives.
func (e *Engine) checkDemandSpike(records []domain.PlantRecord, _ *domain.AnalysisContext) ([]domain.RuleResult, error) {
	demand := make([]float64, len(records))
	for i, r := range records {
		demand[i] = r.Demand
	}
	avg := stats.Mean(demand)
	std := stats.Std(demand)
	if std < e.thresholds.DemandSigmaFloor {
		std = e.thresholds.DemandSigmaFloor
	}
	peak := stats.Max(demand)
	sigma := e.thresholds.DemandSpikeSigma
	thr := avg + sigma*std

	fired, err := e.trigger(FamilyDemandSpike, map[string]any{
		"peak": peak, "mean": avg, "std": std, "sigma": sigma,
	})
	if err != nil {
		return nil, err
	}

	cmp := "<="
	if fired {
		cmp = ">"
	}
	return []domain.RuleResult{{
		Name:      "Demand Spike Detection",
		Triggered: fired,
		Condition: fmt.Sprintf("Peak demand (%.0f) %s threshold (%.0f = avg+%.0f*std)", peak, cmp, thr, sigma),
		Threshold: thr,
		Actual:    peak,
		Action:    domain.ActionIncreaseShift,
		Severity:  firedSeverity(fired, domain.SeverityHigh),
		Details:   fmt.Sprintf("Average demand = %.0f, std = %.0f", avg, std),
	}}, nil
}

// checkInventory fires RAISE_SUPPLY_ALERT per line whose average inventory
// level is below the critical threshold.
func (e *Engine) checkInventory(records []domain.PlantRecord, _ *domain.AnalysisContext) ([]domain.RuleResult, error) {
	thr := e.thresholds.InventoryCritical
	var results []domain.RuleResult

	for _, line := range uniqueLines(records) {
		level := meanWhere(records, byLine(line), func(r domain.PlantRecord) float64 { return r.Inventory })
		fired, err := e.trigger(FamilyInventory, map[string]any{"value": level, "threshold": thr})
		if err != nil {
			return nil, err
		}
		results = append(results, domain.RuleResult{
			Name:      "Low Inventory",
			Triggered: fired,
			Condition: fmt.Sprintf("Inventory for %s = %.1f%% < %.0f%%", line, level, thr),
			Threshold: thr,
			Actual:    level,
			Action:    domain.ActionRaiseSupplyAlert,
			Severity:  firedSeverity(fired, domain.SeverityHigh),
			Details:   fmt.Sprintf("Assembly line %s may face stockout risk.", line),
		})
	}
	return results, nil
}

// checkSupplyChain fires SWITCH_SUPPLIER when the modal semiconductor status
// is Shortage/Critical or the shortage-record fraction exceeds 30%. Records
// without a semiconductor status are treated as column-absent.
func (e *Engine) checkSupplyChain(records []domain.PlantRecord, _ *domain.AnalysisContext) ([]domain.RuleResult, error) {
	var statuses []string
	for _, r := range records {
		if r.Semiconductor != "" {
			statuses = append(statuses, r.Semiconductor)
		}
	}
	if len(statuses) == 0 {
		return nil, nil
	}

	modal := stats.Mode(statuses)
	total := len(statuses)
	shortage := 0
	for _, s := range statuses {
		if s == domain.SemiconductorShortage {
			shortage++
		}
	}
	fraction := float64(shortage) / float64(total)

	fired, err := e.trigger(FamilySupplyChain, map[string]any{
		"modal": modal, "fraction": fraction, "threshold": e.thresholds.ShortageFraction,
	})
	if err != nil {
		return nil, err
	}

	return []domain.RuleResult{{
		Name:      "Semiconductor Supply Risk",
		Triggered: fired,
		Condition: fmt.Sprintf("Semiconductor status = %s (Shortage in %d/%d records)", modal, shortage, total),
		Threshold: e.thresholds.ShortageFraction,
		Actual:    fraction,
		Action:    domain.ActionSwitchSupplier,
		Severity:  firedSeverity(fired, domain.SeverityHigh),
		Details:   "Distribution: " + statusDistribution(statuses),
	}}, nil
}

// checkOverload compares master-data utilization against the overload
// threshold for every line except the one under active breakdown. Lines
// without master capacity data are skipped.
func (e *Engine) checkOverload(records []domain.PlantRecord, ctx *domain.AnalysisContext) ([]domain.RuleResult, error) {
	if len(ctx.LineMaster) == 0 {
		return nil, nil
	}

	affected := ""
	if ctx.ScenarioImpact != nil {
		affected = ctx.ScenarioImpact.AffectedLine
	}

	thr := e.thresholds.OverloadUtilization
	var results []domain.RuleResult

	for _, line := range uniqueLines(records) {
		master := domain.MasterLineName(domain.CanonicalLineName(line))
		// The affected line is down; no overload check applies.
		if affected != "" && (master == affected || line == affected) {
			continue
		}
		lm, ok := ctx.LineMaster[master]
		if !ok || lm.DailyCapacity <= 0 {
			continue
		}

		fired, err := e.trigger(FamilyOverload, map[string]any{"value": lm.Utilization, "threshold": thr})
		if err != nil {
			return nil, err
		}
		results = append(results, domain.RuleResult{
			Name:      "Line Overload",
			Triggered: fired,
			Condition: fmt.Sprintf("%s utilization = %.0f%% of %.0f units/day capacity", line, lm.Utilization, lm.DailyCapacity),
			Threshold: thr,
			Actual:    lm.Utilization,
			Action:    domain.ActionReallocateLine,
			Severity:  firedSeverity(fired, domain.SeverityHigh),
			Details:   fmt.Sprintf("Daily capacity for %s: %.0f units/day, OEE: %.0f%%", master, lm.DailyCapacity, lm.OEE),
		})
	}
	return results, nil
}

// checkWorkforce fires INCREASE_SHIFT per shift whose average worker
// availability is below target.
func (e *Engine) checkWorkforce(records []domain.PlantRecord, ctx *domain.AnalysisContext) ([]domain.RuleResult, error) {
	thr := e.thresholds.WorkerAvailabilityTarget
	var results []domain.RuleResult

	for _, shift := range uniqueShifts(records) {
		avail := meanWhere(records,
			func(r domain.PlantRecord) bool { return r.Shift == shift },
			func(r domain.PlantRecord) float64 { return r.WorkerAvailability })
		fired, err := e.trigger(FamilyWorkforce, map[string]any{"value": avail, "threshold": thr})
		if err != nil {
			return nil, err
		}

		details := fmt.Sprintf("Consider overtime or temporary staff for Shift %s.", shift)
		if sm, ok := ctx.ShiftMaster[shift]; ok && sm.MaxOvertimeHours > 0 {
			details += fmt.Sprintf(" Max overtime: %.0fh per worker.", sm.MaxOvertimeHours)
		}

		results = append(results, domain.RuleResult{
			Name:      "Workforce Below Target",
			Triggered: fired,
			Condition: fmt.Sprintf("Shift %s availability = %.1f%% < target %.0f%% (gap %.1fpp)", shift, avail, thr, thr-avail),
			Threshold: thr,
			Actual:    avail,
			Action:    domain.ActionIncreaseShift,
			Severity:  firedSeverity(fired, domain.SeverityMedium),
			Details:   details,
		})
	}
	return results, nil
}

// --- helpers ---

func byLine(line string) func(domain.PlantRecord) bool {
	return func(r domain.PlantRecord) bool { return r.Line == line }
}

func uniqueLines(records []domain.PlantRecord) []string {
	return uniqueBy(records, func(r domain.PlantRecord) string { return r.Line })
}

func uniqueShifts(records []domain.PlantRecord) []string {
	return uniqueBy(records, func(r domain.PlantRecord) string { return r.Shift })
}

// uniqueBy returns distinct keys in first-encounter order.
func uniqueBy(records []domain.PlantRecord, key func(domain.PlantRecord) string) []string {
	seen := make(map[string]bool, len(records))
	var keys []string
	for _, r := range records {
		k := key(r)
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	return keys
}

func meanWhere(records []domain.PlantRecord, match func(domain.PlantRecord) bool, value func(domain.PlantRecord) float64) float64 {
	var vals []float64
	for _, r := range records {
		if match(r) {
			vals = append(vals, value(r))
		}
	}
	return stats.Mean(vals)
}

func firedSeverity(fired bool, severity string) string {
	if fired {
		return severity
	}
	return domain.SeverityLow
}

func belowAbove(fired bool) string {
	if fired {
		return "below"
	}
	return "above"
}

// statusDistribution formats status counts deterministically, most frequent
// first with alphabetical tie-break.
func statusDistribution(statuses []string) string {
	counts := make(map[string]int)
	for _, s := range statuses {
		counts[s]++
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, counts[k])
	}
	return strings.Join(parts, ", ")
}

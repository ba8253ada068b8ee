// Package validate cross-checks an analysis run after the fact: threshold
// directions on triggered rules, prediction value ranges, recommendation
// sanity, context completeness, and the scenario units-lost arithmetic.
package validate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/plantops/linesight/internal/domain"
	"github.com/plantops/linesight/internal/stats"
)

// maxRangeChecks caps the report size while iterating per-line breakdown
// probabilities; one noisy dataset should not produce dozens of checks.
const maxRangeChecks = 5

// maxRecChecks bounds how many recommendations get sanity notes.
const maxRecChecks = 5

// unitsLostTolerance is the allowed drift when recomputing the scenario
// units-lost figure.
const unitsLostTolerance = 0.1

// Validate audits a completed run. It never fails outright; the returned
// report carries per-check outcomes and an overall verdict that is false
// only when an error-severity check failed.
func Validate(ruleOut *domain.RuleEngineOutput, preds *domain.Predictions, recs []domain.Recommendation, ctx *domain.AnalysisContext) *domain.ValidationReport {
	report := domain.NewValidationReport()

	if ruleOut != nil {
		checkThresholdDirections(report, ruleOut)
	}
	if preds != nil {
		checkPredictionRanges(report, preds)
	}
	checkRecommendations(report, recs, ctx)
	checkContextCompleteness(report, ctx)
	checkUnitsLostFormula(report, ctx)

	return report
}

// checkThresholdDirections re-asserts that below-threshold rules really saw
// values below their threshold. A mismatch is a warning, not an error: the
// rule may have fired on a different record than the reported aggregate.
func checkThresholdDirections(report *domain.ValidationReport, ruleOut *domain.RuleEngineOutput) {
	for _, r := range ruleOut.TriggeredRules {
		name := strings.ToLower(r.Name)
		if !strings.Contains(name, "uptime") && !strings.Contains(name, "machine") &&
			!strings.Contains(name, "inventory") {
			continue
		}
		ok := r.Actual < r.Threshold
		severity := domain.CheckInfo
		if !ok {
			severity = domain.CheckWarning
		}
		report.Add(
			fmt.Sprintf("Rule '%s' threshold", r.Name),
			ok,
			fmt.Sprintf("Actual %.1f < threshold %g", r.Actual, r.Threshold),
			severity,
		)
	}
}

// checkPredictionRanges asserts every risk score and probability is in
// [0, 1]. Out-of-range values are errors: they indicate a model defect, not
// a data problem.
func checkPredictionRanges(report *domain.ValidationReport, preds *domain.Predictions) {
	if preds.WorstDelay != nil {
		risk := preds.WorstDelay.RiskScore
		ok := risk >= 0 && risk <= 1
		report.Add(
			"Delay risk in range [0, 1]",
			ok,
			fmt.Sprintf("Delay risk score = %.3f", risk),
			rangeSeverity(ok),
		)
	}
	for _, bp := range preds.Breakdown {
		ok := bp.Probability >= 0 && bp.Probability <= 1
		report.Add(
			fmt.Sprintf("Breakdown prob for %s in [0, 1]", bp.Line),
			ok,
			fmt.Sprintf("Probability = %.3f", bp.Probability),
			rangeSeverity(ok),
		)
		if len(report.Checks) >= maxRangeChecks {
			break
		}
	}
}

// checkRecommendations records sanity notes for the first few
// recommendations that touch production reallocation or shift overtime.
func checkRecommendations(report *domain.ValidationReport, recs []domain.Recommendation, ctx *domain.AnalysisContext) {
	if len(recs) > maxRecChecks {
		recs = recs[:maxRecChecks]
	}
	for i, rec := range recs {
		lower := strings.ToLower(rec.Action)
		if strings.Contains(lower, "production") || strings.Contains(lower, "realloc") {
			report.Add(
				fmt.Sprintf("Rec #%d production/realloc", i+1),
				true,
				fmt.Sprintf("Action: %s...", head(rec.Action, 60)),
				domain.CheckInfo,
			)
		}
		if strings.Contains(lower, "overtime") || strings.Contains(lower, "shift") {
			report.Add(
				fmt.Sprintf("Rec #%d overtime", i+1),
				true,
				fmt.Sprintf("Max overtime from master: %gh per shift", maxOvertime(ctx)),
				domain.CheckInfo,
			)
		}
	}
}

// checkContextCompleteness flags missing scenario, line master or demand
// sections. Missing context is a warning; the pipeline already ran without
// it.
func checkContextCompleteness(report *domain.ValidationReport, ctx *domain.AnalysisContext) {
	var missing []string
	if ctx == nil || ctx.Scenario == "" {
		missing = append(missing, "scenario")
	}
	if ctx == nil || len(ctx.LineMaster) == 0 {
		missing = append(missing, "line_master")
	}
	if ctx == nil || ctx.Demand == nil {
		missing = append(missing, "demand")
	}

	detail := "All required keys present"
	severity := domain.CheckInfo
	if len(missing) > 0 {
		detail = "Missing: " + strings.Join(missing, ", ")
		severity = domain.CheckWarning
	}
	report.Add("Context completeness", len(missing) == 0, detail, severity)
}

// checkUnitsLostFormula recomputes the outage units-lost figure as
// capacity × OEE × utilization × MTTR/24 and compares against the reported
// value. Runs only when the scenario carries all three inputs.
func checkUnitsLostFormula(report *domain.ValidationReport, ctx *domain.AnalysisContext) {
	if ctx == nil || ctx.ScenarioImpact == nil {
		return
	}
	si := ctx.ScenarioImpact
	if si.UnitsLost == nil || si.CapacityLost <= 0 || si.MTTRHours <= 0 {
		return
	}

	oee := si.OEEUsed
	if oee <= 0 {
		oee = 85
	}
	util := si.UtilizationUsed
	if util <= 0 {
		util = 100
	}

	expected := stats.Round2(si.CapacityLost * (oee / 100) * (util / 100) * (si.MTTRHours / 24))
	actual := *si.UnitsLost
	ok := abs(expected-actual) < unitsLostTolerance

	severity := domain.CheckInfo
	if !ok {
		severity = domain.CheckError
	}
	report.Add(
		"Units lost formula (capacity × OEE × utilization × MTTR/24)",
		ok,
		fmt.Sprintf("Expected %g, got %g (cap=%g, oee=%g%%, util=%g%%, mttr=%gh)",
			expected, actual, si.CapacityLost, oee, util, si.MTTRHours),
		severity,
	)
}

// maxOvertime scans the shift master for the largest permitted overtime,
// iterating shifts in sorted order for deterministic reports.
func maxOvertime(ctx *domain.AnalysisContext) float64 {
	if ctx == nil || len(ctx.ShiftMaster) == 0 {
		return 0
	}
	shifts := make([]string, 0, len(ctx.ShiftMaster))
	for name := range ctx.ShiftMaster {
		shifts = append(shifts, name)
	}
	sort.Strings(shifts)

	var max float64
	for _, name := range shifts {
		if ot := ctx.ShiftMaster[name].MaxOvertimeHours; ot > max {
			max = ot
		}
	}
	return max
}

func rangeSeverity(ok bool) string {
	if ok {
		return domain.CheckInfo
	}
	return domain.CheckError
}

func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// Package decisionlog fuses rule engine output, prediction output and the
// externally produced recommendations into a traceable, append-only audit
// log. Construction never fails: malformed recommendation fields are
// normalized to safe defaults.
package decisionlog

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/plantops/linesight/internal/domain"
)

// Build creates a DecisionLog with exactly one entry per recommendation,
// preserving input order. Nil rule or prediction output is treated as empty.
func Build(scenario string, ruleOut *domain.RuleEngineOutput, preds *domain.Predictions, recs []domain.Recommendation, ctx *domain.AnalysisContext) *domain.DecisionLog {
	if ruleOut == nil {
		ruleOut = &domain.RuleEngineOutput{OverallSeverity: domain.SeverityLow}
	}
	if preds == nil {
		preds = &domain.Predictions{}
	}

	log := &domain.DecisionLog{
		RunID:        uuid.NewString()[:8],
		RunTimestamp: time.Now().UTC(),
		Scenario:     scenario,
	}

	allRules := make([]domain.RuleExcerpt, 0, len(ruleOut.TriggeredRules))
	allBreaches := make([]string, 0, len(ruleOut.TriggeredRules))
	for _, r := range ruleOut.TriggeredRules {
		allRules = append(allRules, domain.RuleExcerpt{
			Name:      r.Name,
			Condition: r.Condition,
			Threshold: r.Threshold,
			Actual:    r.Actual,
			Action:    r.Action,
			Severity:  r.Severity,
		})
		allBreaches = append(allBreaches, r.Name+": "+r.Condition)
	}

	for i, rec := range recs {
		log.Entries = append(log.Entries, buildEntry(log, i, rec, ruleOut, preds, allRules, allBreaches, ctx))
	}
	return log
}

func buildEntry(log *domain.DecisionLog, index int, rec domain.Recommendation, ruleOut *domain.RuleEngineOutput, preds *domain.Predictions, allRules []domain.RuleExcerpt, allBreaches []string, ctx *domain.AnalysisContext) domain.DecisionEntry {
	action := rec.Action
	if action == "" {
		action = "N/A"
	}
	agent := rec.Agent
	if agent == "" {
		agent = "Orchestrator"
	}

	actionText := strings.ToLower(action)
	agentText := strings.ToLower(agent)

	kpi := rec.KPIImpact
	if kpi == "" {
		kpi = deriveKPIImpact(action, ruleOut, ctx)
	}

	// Rules relevant to this recommendation, with a highest-severity
	// fallback so provenance is never empty while anything triggered.
	var relevantRules []domain.RuleExcerpt
	var relevantBreaches []string
	for i, rx := range allRules {
		if ruleMatches(rx, actionText, agentText) {
			relevantRules = append(relevantRules, rx)
			relevantBreaches = append(relevantBreaches, allBreaches[i])
		}
	}
	if len(relevantRules) == 0 && len(allRules) > 0 {
		top := 0
		for i, rx := range allRules {
			if domain.SeverityRank(rx.Severity) > domain.SeverityRank(allRules[top].Severity) {
				top = i
			}
		}
		relevantRules = append(relevantRules, allRules[top])
		relevantBreaches = append(relevantBreaches, allBreaches[top])
	}

	excerpt := predictionExcerpt(preds, actionText, agentText)
	supporting := supportingIndicators(ruleOut, preds, actionText, agentText)
	trace := logicTrace(relevantRules, excerpt, ctx)

	return domain.DecisionEntry{
		ID:                   fmt.Sprintf("DEC-%s-%02d", log.RunID, index+1),
		Timestamp:            time.Now().UTC(),
		Scenario:             log.Scenario,
		RulesTriggered:       relevantRules,
		ThresholdsBreached:   relevantBreaches,
		Predictions:          excerpt,
		Recommendation:       action,
		Reasoning:            rec.Reasoning,
		SupportingIndicators: supporting,
		Agent:                agent,
		ExpectedKPIImpact:    kpi,
		LogicTrace:           trace,
	}
}

// predictionExcerpt filters the ML output down to what the recommendation
// text points at. When nothing matches, the top breakdown prediction and
// the worst-line delay risk stand in as defaults.
func predictionExcerpt(preds *domain.Predictions, actionText, agentText string) domain.PredictionExcerpt {
	ex := domain.PredictionExcerpt{ModelsTrained: preds.ModelsTrained}

	if breakdownKeywords.match(actionText, agentText) && len(preds.Breakdown) > 0 {
		for _, b := range topBreakdowns(preds.Breakdown, 3) {
			ex.Breakdown = append(ex.Breakdown, domain.BreakdownExcerpt{
				Line:        b.Line,
				Probability: b.Probability,
				Risk:        b.RiskLevel,
			})
		}
	}
	if delayKeywords.match(actionText, agentText) && preds.WorstDelay != nil {
		ex.Delay = &domain.DelayExcerpt{
			RiskScore: preds.WorstDelay.RiskScore,
			RiskLevel: preds.WorstDelay.RiskLevel,
			Factors:   preds.WorstDelay.Factors,
		}
	}
	if supplierKeywords.match(actionText, agentText) && len(preds.SupplierRisks) > 0 {
		top := preds.SupplierRisks
		if len(top) > 3 {
			top = top[:3]
		}
		for _, s := range top {
			ex.Suppliers = append(ex.Suppliers, domain.SupplierExcerpt{
				Name:  s.Name,
				Score: s.Score,
				Risk:  s.RiskLevel,
			})
		}
	}

	if ex.Breakdown == nil && ex.Delay == nil && ex.Suppliers == nil {
		if len(preds.Breakdown) > 0 {
			ex.TopBreakdown = &domain.BreakdownExcerpt{
				Line:        preds.Breakdown[0].Line,
				Probability: preds.Breakdown[0].Probability,
			}
		}
		if preds.WorstDelay != nil {
			risk := preds.WorstDelay.RiskScore
			ex.DelayRisk = &risk
		}
	}
	return ex
}

// supportingIndicators restates the matched rule conditions and numeric ML
// risk values. At least one indicator is present whenever any rules or
// predictions exist.
func supportingIndicators(ruleOut *domain.RuleEngineOutput, preds *domain.Predictions, actionText, agentText string) []string {
	var supporting []string

	for _, r := range ruleOut.TriggeredRules {
		if strings.Contains(actionText, domain.ActionWords(r.Action)) ||
			strings.Contains(actionText, strings.ToLower(r.Name)) {
			supporting = append(supporting, fmt.Sprintf("Rule '%s' fired: %s", r.Name, r.Condition))
		}
	}
	if len(preds.Breakdown) > 0 && breakdownKeywords.match(actionText, agentText) {
		top := preds.Breakdown[0]
		supporting = append(supporting, fmt.Sprintf("ML breakdown risk for %s: %.0f%%", top.Line, top.Probability*100))
	}
	if preds.WorstDelay != nil && delayKeywords.match(actionText, agentText) {
		supporting = append(supporting, fmt.Sprintf("ML delay risk: %.0f%%", preds.WorstDelay.RiskScore*100))
	}

	if len(supporting) == 0 {
		if len(preds.Breakdown) > 0 {
			supporting = append(supporting, fmt.Sprintf("ML breakdown risk (top): %.0f%%", preds.Breakdown[0].Probability*100))
		}
		if preds.WorstDelay != nil {
			supporting = append(supporting, fmt.Sprintf("ML delay risk: %.0f%%", preds.WorstDelay.RiskScore*100))
		}
	}
	return supporting
}

// logicTrace concatenates, in order, the matched rule conditions with
// actual/threshold values, the matched ML risk lines, and scenario-specific
// numeric context when present.
func logicTrace(relevantRules []domain.RuleExcerpt, ex domain.PredictionExcerpt, ctx *domain.AnalysisContext) []string {
	var trace []string

	for _, rx := range relevantRules {
		trace = append(trace, fmt.Sprintf("Rule '%s': %s (actual=%g, threshold=%g)", rx.Name, rx.Condition, rx.Actual, rx.Threshold))
	}
	for i, b := range ex.Breakdown {
		if i == 2 {
			break
		}
		trace = append(trace, fmt.Sprintf("ML breakdown: %s risk %.0f%%", b.Line, b.Probability*100))
	}
	if ex.Delay != nil {
		trace = append(trace, fmt.Sprintf("ML delay risk: %.0f%% (%s)", ex.Delay.RiskScore*100, ex.Delay.RiskLevel))
	}

	if ctx != nil && ctx.ScenarioImpact != nil {
		si := ctx.ScenarioImpact
		if si.MTTRHours > 0 || si.UnitsLost != nil {
			mttr := "N/A"
			if si.MTTRHours > 0 {
				mttr = fmt.Sprintf("%g", si.MTTRHours)
			}
			units := "N/A"
			if si.UnitsLost != nil {
				units = fmt.Sprintf("%g", *si.UnitsLost)
			}
			trace = append(trace, fmt.Sprintf("Scenario: MTTR %sh, units lost %s", mttr, units))
		}
	}
	return trace
}

// topBreakdowns returns up to n predictions ordered by descending
// probability, stable for equal probabilities.
func topBreakdowns(preds []domain.BreakdownPrediction, n int) []domain.BreakdownPrediction {
	sorted := make([]domain.BreakdownPrediction, len(preds))
	copy(sorted, preds)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j].Probability > sorted[j-1].Probability; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

package decisionlog

import (
	"fmt"
	"strings"

	"github.com/plantops/linesight/internal/domain"
)

// kpiFallback closes the derivation ladder; it is never empty.
const kpiFallback = "Refer to KPI Summary for projected impact"

// actionKPIOrder fixes the probe order for action-word matching so a
// recommendation naming two actions resolves deterministically.
var actionKPIOrder = []string{
	domain.ActionDispatchMaintenance,
	domain.ActionReallocateLine,
	domain.ActionSwitchSupplier,
	domain.ActionIncreaseShift,
	domain.ActionRaiseSupplyAlert,
}

var actionKPIImpact = map[string]string{
	domain.ActionDispatchMaintenance: "Line Downtime: +2-8 hrs; On-time Delivery: -5 to -15%",
	domain.ActionReallocateLine:      "On-time Delivery: -3 to -10%; Production Efficiency: -15 to -25%",
	domain.ActionSwitchSupplier:      "Lead Time: +2-5 days; Inventory Cost: +5 to +10%",
	domain.ActionIncreaseShift:       "Overtime Cost: +12 to +18%; Worker Availability: +2 to +5%",
	domain.ActionRaiseSupplyAlert:    "Inventory Risk: stockout within 2-4 days if not addressed",
}

// deriveKPIImpact estimates a KPI impact when the recommending agent did not
// supply one. Ladder: direct action-word match, then triggered-rule actions,
// then keyword buckets, then the generic fallback.
func deriveKPIImpact(action string, ruleOut *domain.RuleEngineOutput, ctx *domain.AnalysisContext) string {
	lower := strings.ToLower(action)

	var si *domain.ScenarioImpact
	var sens *domain.MTTRSensitivity
	if ctx != nil {
		si = ctx.ScenarioImpact
		sens = ctx.MTTRSensitivity
	}

	tag := ""
	for _, candidate := range actionKPIOrder {
		if strings.Contains(lower, domain.ActionWords(candidate)) {
			tag = candidate
			break
		}
	}
	if tag == "" && ruleOut != nil {
		for _, r := range ruleOut.TriggeredRules {
			if strings.Contains(lower, domain.ActionWords(r.Action)) {
				tag = r.Action
				break
			}
		}
	}

	if tag != "" {
		base := actionKPIImpact[tag]
		if si != nil && si.UnitsLost != nil && si.MTTRHours > 0 &&
			containsAny(lower, "maintenance", "breakdown", "repair") {
			base = fmt.Sprintf("%s | Units lost during %gh outage: ~%g", base, si.MTTRHours, *si.UnitsLost)
		}
		if sens != nil && len(sens.OrdersAtRisk) > 0 && strings.Contains(lower, "realloc") {
			base = fmt.Sprintf("%s | Orders at risk: %d", base, len(sens.OrdersAtRisk))
		}
		return base
	}

	switch {
	case containsAny(lower, "repair", "maintenance", "breakdown"):
		return enrich(actionKPIImpact[domain.ActionDispatchMaintenance], si, sens)
	case containsAny(lower, "realloc", "production", "line"):
		return enrich(actionKPIImpact[domain.ActionReallocateLine], si, sens)
	case containsAny(lower, "supplier", "expedit", "semiconductor"):
		return actionKPIImpact[domain.ActionSwitchSupplier]
	case containsAny(lower, "overtime", "shift", "workforce", "worker"):
		return actionKPIImpact[domain.ActionIncreaseShift]
	case containsAny(lower, "inventory", "reorder", "stock"):
		return actionKPIImpact[domain.ActionRaiseSupplyAlert]
	}
	return kpiFallback
}

// enrich appends scenario numbers to a keyword-bucket estimate when the
// context carries them, units lost taking priority over orders at risk.
func enrich(base string, si *domain.ScenarioImpact, sens *domain.MTTRSensitivity) string {
	if si != nil && si.UnitsLost != nil {
		return fmt.Sprintf("%s | Units lost: ~%g during outage", base, *si.UnitsLost)
	}
	if sens != nil && len(sens.OrdersAtRisk) > 0 {
		return fmt.Sprintf("%s | Orders at risk: %d", base, len(sens.OrdersAtRisk))
	}
	return base
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// Package domain defines the core types for Linesight.
package domain

import "strings"

// Severity levels for rule results, ordered LOW < MEDIUM < HIGH < CRITICAL.
const (
	SeverityLow      = "LOW"
	SeverityMedium   = "MEDIUM"
	SeverityHigh     = "HIGH"
	SeverityCritical = "CRITICAL"
)

// severityRank maps severities onto a total order for aggregation.
var severityRank = map[string]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// SeverityRank returns the position of a severity in the total order.
// Unknown severities rank below LOW.
func SeverityRank(severity string) int {
	if r, ok := severityRank[severity]; ok {
		return r
	}
	return -1
}

// Recommended action tags emitted by the rule engine.
const (
	ActionDispatchMaintenance = "DISPATCH_MAINTENANCE"
	ActionReallocateLine      = "REALLOCATE_LINE"
	ActionIncreaseShift       = "INCREASE_SHIFT"
	ActionRaiseSupplyAlert    = "RAISE_SUPPLY_ALERT"
	ActionSwitchSupplier      = "SWITCH_SUPPLIER"
)

// ActionWords returns an action tag as lowercase words for keyword matching
// against free-form recommendation text ("DISPATCH_MAINTENANCE" -> "dispatch maintenance").
func ActionWords(action string) string {
	return strings.ToLower(strings.ReplaceAll(action, "_", " "))
}

// RuleResult is one evaluated check, fired or not.
type RuleResult struct {
	Name      string  `json:"name"`
	Triggered bool    `json:"triggered"`
	Condition string  `json:"condition"` // human-readable condition
	Threshold float64 `json:"threshold"`
	Actual    float64 `json:"actual"`
	Action    string  `json:"action"`
	Severity  string  `json:"severity"`
	Details   string  `json:"details,omitempty"`
}

// RuleEngineOutput is the aggregate of one full rule pass.
type RuleEngineOutput struct {
	AllResults         []RuleResult `json:"allResults"`
	TriggeredRules     []RuleResult `json:"triggeredRules"`
	RecommendedActions []string     `json:"recommendedActions"`
	OverallSeverity    string       `json:"overallSeverity"`
}

// SummaryText renders the triggered rules as one human-readable block.
func (o *RuleEngineOutput) SummaryText() string {
	if len(o.TriggeredRules) == 0 {
		return "No rules triggered - all parameters within normal range."
	}

	var b strings.Builder
	for i, r := range o.TriggeredRules {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("[" + r.Severity + "] " + r.Name + ": " + r.Condition + " -> " + r.Action)
	}
	return b.String()
}

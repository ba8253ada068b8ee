package domain

import (
	"encoding/json"
	"time"
)

// RuleExcerpt is the slice of a rule result attached to a decision entry.
type RuleExcerpt struct {
	Name      string  `json:"rule"`
	Condition string  `json:"condition"`
	Threshold float64 `json:"threshold"`
	Actual    float64 `json:"actual"`
	Action    string  `json:"action"`
	Severity  string  `json:"severity"`
}

// BreakdownExcerpt is a trimmed breakdown prediction for provenance.
type BreakdownExcerpt struct {
	Line        string  `json:"line"`
	Probability float64 `json:"probability"`
	Risk        string  `json:"risk,omitempty"`
}

// DelayExcerpt is a trimmed delay prediction for provenance.
type DelayExcerpt struct {
	RiskScore float64  `json:"riskScore"`
	RiskLevel string   `json:"riskLevel"`
	Factors   []string `json:"factors,omitempty"`
}

// SupplierExcerpt is a trimmed supplier risk for provenance.
type SupplierExcerpt struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
	Risk  string  `json:"risk"`
}

// PredictionExcerpt holds the ML excerpts filtered down to what is relevant
// for one recommendation. TopBreakdown and DelayRisk are the defaults used
// when no keyword matched.
type PredictionExcerpt struct {
	ModelsTrained bool               `json:"modelsTrained"`
	Breakdown     []BreakdownExcerpt `json:"breakdown,omitempty"`
	Delay         *DelayExcerpt      `json:"delay,omitempty"`
	Suppliers     []SupplierExcerpt  `json:"supplierRisks,omitempty"`
	TopBreakdown  *BreakdownExcerpt  `json:"breakdownTop,omitempty"`
	DelayRisk     *float64           `json:"delayRisk,omitempty"`
}

// DecisionEntry is one recommendation with its full provenance.
type DecisionEntry struct {
	ID        string    `json:"decisionId"`
	Timestamp time.Time `json:"timestamp"`
	Scenario  string    `json:"scenario"`

	RulesTriggered     []RuleExcerpt     `json:"rulesTriggered"`
	ThresholdsBreached []string          `json:"thresholdsBreached"`
	Predictions        PredictionExcerpt `json:"mlPredictions"`

	Recommendation       string   `json:"recommendation"`
	Reasoning            string   `json:"reasoning"`
	SupportingIndicators []string `json:"supportingIndicators"`

	Agent             string `json:"agentSource"`
	ExpectedKPIImpact string `json:"expectedKpiImpact"`

	// LogicTrace links the recommendation back to the rules, ML values and
	// scenario context that justified it, in order.
	LogicTrace []string `json:"logicTrace"`
}

// DecisionLog is the full audit trail for one analysis run. It grows only
// during construction and is immutable afterward.
type DecisionLog struct {
	RunID        string          `json:"runId"`
	RunTimestamp time.Time       `json:"runTimestamp"`
	Scenario     string          `json:"scenario"`
	Entries      []DecisionEntry `json:"entries"`
}

// ToJSON serializes the full log, including logic traces, as indented JSON.
func (l *DecisionLog) ToJSON() ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

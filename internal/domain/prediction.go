package domain

// Risk bands shared by all prediction outputs.
const (
	RiskLow    = "LOW"
	RiskMedium = "MEDIUM"
	RiskHigh   = "HIGH"
)

// Calculation method tags carried on delay predictions.
const (
	MethodModel     = "ml"
	MethodHeuristic = "heuristic"
)

// BreakdownPrediction is the per-line failure-risk estimate.
type BreakdownPrediction struct {
	Line        string   `json:"line"`
	Probability float64  `json:"probability"` // 0-1
	RiskLevel   string   `json:"riskLevel"`
	Factors     []string `json:"contributingFactors,omitempty"`
}

// DelayPrediction is the per-line delivery-delay risk.
type DelayPrediction struct {
	Line      string   `json:"line"`
	RiskScore float64  `json:"riskScore"` // 0-1
	RiskLevel string   `json:"riskLevel"`
	Factors   []string `json:"factors,omitempty"`
	Method    string   `json:"method"` // "ml" or "heuristic"
}

// SupplierRisk is the per-supplier safety score. Higher is safer.
type SupplierRisk struct {
	Name         string  `json:"name"`
	Score        float64 `json:"score"` // 0-100
	RiskLevel    string  `json:"riskLevel"`
	LeadTimeDays int     `json:"leadTimeDays"`
	Reliability  float64 `json:"reliabilityPct"`
}

// Predictions is the aggregate prediction-layer output for one run.
// Breakdown and Delay always cover every canonical line in fixed order;
// WorstDelay is the max-risk delay entry kept for backward compatibility.
type Predictions struct {
	Breakdown     []BreakdownPrediction `json:"breakdownPredictions"`
	Delay         []DelayPrediction     `json:"delayPredictions"`
	WorstDelay    *DelayPrediction      `json:"delayPrediction,omitempty"`
	SupplierRisks []SupplierRisk        `json:"supplierRisks,omitempty"`
	ModelsTrained bool                  `json:"modelsTrained"`
}

package domain

import "time"

// AnalysisMetadata carries processing information for one run.
type AnalysisMetadata struct {
	TraceID       string `json:"traceId,omitempty"`
	RulesMs       int64  `json:"rulesMs"`
	PredictMs     int64  `json:"predictMs"`
	LogMs         int64  `json:"logMs"`
	ValidateMs    int64  `json:"validateMs"`
	TotalMs       int64  `json:"totalMs"`
	EngineVersion string `json:"engineVersion"`
}

// AnalysisResult is the complete, immutable result set of one analysis run.
type AnalysisResult struct {
	ID        string    `json:"analysisId"`
	Scenario  string    `json:"scenario"`
	Timestamp time.Time `json:"timestamp"`

	Rules       *RuleEngineOutput `json:"ruleEngine"`
	Predictions *Predictions      `json:"mlPredictions"`
	DecisionLog *DecisionLog      `json:"decisionLog"`
	Validation  *ValidationReport `json:"validation"`

	Metadata AnalysisMetadata `json:"metadata"`
}

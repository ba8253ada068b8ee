package decisionlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/plantops/linesight/internal/domain"
)

// maxReasoningLen bounds the reasoning column in flattened exports.
const maxReasoningLen = 120

// Row is one decision-log entry flattened for tabular export.
type Row struct {
	DecisionID         string `json:"decisionId"`
	Timestamp          string `json:"timestamp"`
	Scenario           string `json:"scenario"`
	Recommendation     string `json:"recommendation"`
	Agent              string `json:"agentSource"`
	RulesTriggered     int    `json:"rulesTriggered"`
	ThresholdsBreached string `json:"thresholdsBreached"`
	BreakdownRisk      string `json:"breakdownRisk"`
	DelayRisk          string `json:"delayRisk"`
	ExpectedKPIImpact  string `json:"expectedKpiImpact"`
	Reasoning          string `json:"reasoning"`
}

// Rows flattens the log, one row per entry in entry order. Missing risk
// values render as "N/A".
func Rows(l *domain.DecisionLog) []Row {
	rows := make([]Row, 0, len(l.Entries))
	for _, e := range l.Entries {
		rows = append(rows, Row{
			DecisionID:         e.ID,
			Timestamp:          e.Timestamp.Format(time.RFC3339),
			Scenario:           e.Scenario,
			Recommendation:     e.Recommendation,
			Agent:              e.Agent,
			RulesTriggered:     len(e.RulesTriggered),
			ThresholdsBreached: strings.Join(e.ThresholdsBreached, "; "),
			BreakdownRisk:      breakdownRisk(e.Predictions),
			DelayRisk:          delayRisk(e.Predictions),
			ExpectedKPIImpact:  e.ExpectedKPIImpact,
			Reasoning:          truncate(e.Reasoning, maxReasoningLen),
		})
	}
	return rows
}

// WriteCSV writes the flattened log with a header row.
func WriteCSV(w io.Writer, l *domain.DecisionLog) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"decision_id", "timestamp", "scenario", "recommendation", "agent_source",
		"rules_triggered", "thresholds_breached", "breakdown_risk", "delay_risk",
		"expected_kpi_impact", "reasoning",
	}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range Rows(l) {
		record := []string{
			r.DecisionID, r.Timestamp, r.Scenario, r.Recommendation, r.Agent,
			strconv.Itoa(r.RulesTriggered), r.ThresholdsBreached, r.BreakdownRisk,
			r.DelayRisk, r.ExpectedKPIImpact, r.Reasoning,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row %s: %w", r.DecisionID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func breakdownRisk(ex domain.PredictionExcerpt) string {
	if len(ex.Breakdown) > 0 {
		return fmt.Sprintf("%.1f%%", ex.Breakdown[0].Probability*100)
	}
	if ex.TopBreakdown != nil {
		return fmt.Sprintf("%.1f%%", ex.TopBreakdown.Probability*100)
	}
	return "N/A"
}

func delayRisk(ex domain.PredictionExcerpt) string {
	if ex.Delay != nil {
		return fmt.Sprintf("%.1f%%", ex.Delay.RiskScore*100)
	}
	if ex.DelayRisk != nil {
		return fmt.Sprintf("%.1f%%", *ex.DelayRisk*100)
	}
	return "N/A"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

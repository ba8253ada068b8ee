package rules

import (
	"strings"
	"testing"

	"github.com/plantops/linesight/internal/domain"
)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(domain.RulesConfig{})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return e
}

// healthyRecord returns a record that triggers no checks.
func healthyRecord(line, shift string) domain.PlantRecord {
	return domain.PlantRecord{
		Line:               line,
		Shift:              shift,
		Uptime:             90,
		Inventory:          85,
		WorkerAvailability: 95,
		DefectRate:         1.0,
		Demand:             100,
		Semiconductor:      domain.SemiconductorAvailable,
	}
}

func emptyContext() *domain.AnalysisContext {
	return &domain.AnalysisContext{}
}

func findResult(t *testing.T, results []domain.RuleResult, name string) domain.RuleResult {
	t.Helper()
	for _, r := range results {
		if r.Name == name {
			return r
		}
	}
	t.Fatalf("no result named %q in %d results", name, len(results))
	return domain.RuleResult{}
}

func TestEvaluateMissingData(t *testing.T) {
	engine := testEngine(t)

	tests := []struct {
		name    string
		records []domain.PlantRecord
		ctx     *domain.AnalysisContext
		field   string
	}{
		{
			name:    "empty records",
			records: nil,
			ctx:     emptyContext(),
			field:   "scenario_data",
		},
		{
			name:    "nil context",
			records: []domain.PlantRecord{healthyRecord("HighRange_1", "A")},
			ctx:     nil,
			field:   "context",
		},
		{
			name:    "missing line",
			records: []domain.PlantRecord{healthyRecord("", "A")},
			ctx:     emptyContext(),
			field:   "assemblyLine",
		},
		{
			name:    "missing shift",
			records: []domain.PlantRecord{healthyRecord("HighRange_1", "")},
			ctx:     emptyContext(),
			field:   "shift",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Evaluate(tt.records, tt.ctx)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !domain.IsMissingData(err) {
				t.Fatalf("expected MissingDataError, got %T: %v", err, err)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q does not mention field %q", err.Error(), tt.field)
			}
		})
	}
}

func TestHealthyScenarioTriggersNothing(t *testing.T) {
	engine := testEngine(t)

	records := []domain.PlantRecord{
		healthyRecord("HighRange_1", "A"),
		healthyRecord("HighRange_2", "B"),
		healthyRecord("MediumRange_1", "C"),
	}

	out, err := engine.Evaluate(records, emptyContext())
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	if len(out.TriggeredRules) != 0 {
		t.Errorf("expected no triggered rules, got %d: %v", len(out.TriggeredRules), out.SummaryText())
	}
	if out.OverallSeverity != domain.SeverityLow {
		t.Errorf("expected overall severity LOW, got %s", out.OverallSeverity)
	}
	if len(out.RecommendedActions) != 0 {
		t.Errorf("expected no actions, got %v", out.RecommendedActions)
	}
	if len(out.AllResults) == 0 {
		t.Error("expected untriggered results to be recorded")
	}
}

func TestMachineHealthCheck(t *testing.T) {
	engine := testEngine(t)

	sick := healthyRecord("HighRange_1", "A")
	sick.Uptime = 60
	records := []domain.PlantRecord{sick, healthyRecord("HighRange_2", "A")}

	out, err := engine.Evaluate(records, emptyContext())
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	r := findResult(t, out.TriggeredRules, "Low Machine Health")
	if r.Action != domain.ActionDispatchMaintenance {
		t.Errorf("expected action %s, got %s", domain.ActionDispatchMaintenance, r.Action)
	}
	if r.Severity != domain.SeverityHigh {
		t.Errorf("expected severity HIGH, got %s", r.Severity)
	}
	if r.Actual != 60 {
		t.Errorf("expected actual 60, got %v", r.Actual)
	}
	if r.Threshold != 75 {
		t.Errorf("expected threshold 75, got %v", r.Threshold)
	}

	// The healthy line's result exists but is untriggered.
	for _, res := range out.TriggeredRules {
		if res.Name == "Low Machine Health" && res.Actual == 90 {
			t.Error("healthy line should not trigger machine health")
		}
	}
}

func TestLineBreakdownEvent(t *testing.T) {
	engine := testEngine(t)

	ctx := &domain.AnalysisContext{
		Events: []domain.PlantEvent{{
			Type:        "equipment_failure",
			Description: "Hydraulic breakdown on HighRange_Line2",
			ImpactAreas: "Production",
		}},
		LineMaster: map[string]domain.LineMaster{
			"HighRange_Line2": {DailyCapacity: 900, Utilization: 80, MTTRHours: 6},
		},
	}
	records := []domain.PlantRecord{healthyRecord("HighRange_2", "A")}

	out, err := engine.Evaluate(records, ctx)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	breakdown := findResult(t, out.TriggeredRules, "Line Breakdown Detected")
	if breakdown.Severity != domain.SeverityCritical {
		t.Errorf("breakdown severity = %s, want CRITICAL", breakdown.Severity)
	}
	if !strings.Contains(breakdown.Condition, "HighRange_Line2") {
		t.Errorf("breakdown condition missing line name: %q", breakdown.Condition)
	}
	if !strings.Contains(breakdown.Condition, "6 hours (MTTR)") {
		t.Errorf("breakdown condition missing repair estimate: %q", breakdown.Condition)
	}

	realloc := findResult(t, out.TriggeredRules, "Line Reallocation Required")
	if realloc.Severity != domain.SeverityHigh {
		t.Errorf("reallocation severity = %s, want HIGH", realloc.Severity)
	}
	if realloc.Action != domain.ActionReallocateLine {
		t.Errorf("reallocation action = %s, want %s", realloc.Action, domain.ActionReallocateLine)
	}

	if out.OverallSeverity != domain.SeverityCritical {
		t.Errorf("overall severity = %s, want CRITICAL", out.OverallSeverity)
	}
}

func TestLineBreakdownIgnoresNonFailureEvents(t *testing.T) {
	engine := testEngine(t)

	ctx := &domain.AnalysisContext{
		Events: []domain.PlantEvent{{
			Type:        "demand_surge",
			Description: "Unexpected festival demand",
		}},
	}
	records := []domain.PlantRecord{healthyRecord("HighRange_1", "A")}

	out, err := engine.Evaluate(records, ctx)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	for _, r := range out.TriggeredRules {
		if r.Name == "Line Breakdown Detected" {
			t.Error("non-failure event should not trigger breakdown check")
		}
	}
}

func TestDemandSpikeCheck(t *testing.T) {
	engine := testEngine(t)

	t.Run("spike triggers", func(t *testing.T) {
		var records []domain.PlantRecord
		for i := 0; i < 9; i++ {
			records = append(records, healthyRecord("HighRange_1", "A"))
		}
		spike := healthyRecord("HighRange_1", "A")
		spike.Demand = 300
		records = append(records, spike)

		out, err := engine.Evaluate(records, emptyContext())
		if err != nil {
			t.Fatalf("Evaluate failed: %v", err)
		}
		r := findResult(t, out.TriggeredRules, "Demand Spike Detection")
		if r.Action != domain.ActionIncreaseShift {
			t.Errorf("spike action = %s, want %s", r.Action, domain.ActionIncreaseShift)
		}
		if r.Actual != 300 {
			t.Errorf("spike actual = %v, want 300", r.Actual)
		}
	})

	t.Run("flat demand does not trigger", func(t *testing.T) {
		records := []domain.PlantRecord{
			healthyRecord("HighRange_1", "A"),
			healthyRecord("HighRange_1", "A"),
			healthyRecord("HighRange_1", "A"),
		}
		out, err := engine.Evaluate(records, emptyContext())
		if err != nil {
			t.Fatalf("Evaluate failed: %v", err)
		}
		for _, r := range out.TriggeredRules {
			if r.Name == "Demand Spike Detection" {
				t.Error("flat demand should not trigger spike check")
			}
		}
	})
}

func TestInventoryCheck(t *testing.T) {
	engine := testEngine(t)

	low := healthyRecord("MediumRange_1", "A")
	low.Inventory = 55
	records := []domain.PlantRecord{low}

	out, err := engine.Evaluate(records, emptyContext())
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	r := findResult(t, out.TriggeredRules, "Low Inventory")
	if r.Action != domain.ActionRaiseSupplyAlert {
		t.Errorf("inventory action = %s, want %s", r.Action, domain.ActionRaiseSupplyAlert)
	}
	if r.Actual != 55 {
		t.Errorf("inventory actual = %v, want 55", r.Actual)
	}
}

func TestSupplyChainCheck(t *testing.T) {
	engine := testEngine(t)

	tests := []struct {
		name     string
		statuses []string
		want     bool
	}{
		{
			name:     "modal shortage triggers",
			statuses: []string{domain.SemiconductorShortage, domain.SemiconductorShortage, domain.SemiconductorAvailable},
			want:     true,
		},
		{
			name:     "modal critical triggers",
			statuses: []string{domain.SemiconductorCritical, domain.SemiconductorCritical, domain.SemiconductorAvailable},
			want:     true,
		},
		{
			name: "shortage fraction above 30 percent triggers",
			statuses: []string{
				domain.SemiconductorShortage, domain.SemiconductorShortage,
				domain.SemiconductorAvailable, domain.SemiconductorAvailable, domain.SemiconductorAvailable,
			},
			want: true,
		},
		{
			name:     "all available does not trigger",
			statuses: []string{domain.SemiconductorAvailable, domain.SemiconductorAvailable},
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var records []domain.PlantRecord
			for _, s := range tt.statuses {
				r := healthyRecord("HighRange_1", "A")
				r.Semiconductor = s
				records = append(records, r)
			}

			out, err := engine.Evaluate(records, emptyContext())
			if err != nil {
				t.Fatalf("Evaluate failed: %v", err)
			}

			fired := false
			for _, r := range out.TriggeredRules {
				if r.Name == "Semiconductor Supply Risk" {
					fired = true
					if r.Action != domain.ActionSwitchSupplier {
						t.Errorf("supply action = %s, want %s", r.Action, domain.ActionSwitchSupplier)
					}
				}
			}
			if fired != tt.want {
				t.Errorf("supply chain fired = %v, want %v", fired, tt.want)
			}
		})
	}
}

func TestSupplyChainSkippedWithoutStatusColumn(t *testing.T) {
	engine := testEngine(t)

	r := healthyRecord("HighRange_1", "A")
	r.Semiconductor = ""

	out, err := engine.Evaluate([]domain.PlantRecord{r}, emptyContext())
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	for _, res := range out.AllResults {
		if res.Name == "Semiconductor Supply Risk" {
			t.Error("supply chain check should be skipped when no record has a status")
		}
	}
}

func TestOverloadCheck(t *testing.T) {
	engine := testEngine(t)

	ctx := &domain.AnalysisContext{
		LineMaster: map[string]domain.LineMaster{
			"HighRange_Line1": {DailyCapacity: 1000, Utilization: 98, OEE: 85},
			"HighRange_Line2": {DailyCapacity: 900, Utilization: 70, OEE: 82},
		},
	}
	records := []domain.PlantRecord{
		healthyRecord("HighRange_1", "A"),
		healthyRecord("HighRange_2", "A"),
	}

	out, err := engine.Evaluate(records, ctx)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	r := findResult(t, out.TriggeredRules, "Line Overload")
	if r.Actual != 98 {
		t.Errorf("overload actual = %v, want 98", r.Actual)
	}
	if r.Action != domain.ActionReallocateLine {
		t.Errorf("overload action = %s, want %s", r.Action, domain.ActionReallocateLine)
	}

	count := 0
	for _, res := range out.TriggeredRules {
		if res.Name == "Line Overload" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected exactly 1 overload trigger, got %d", count)
	}
}

func TestOverloadSkipsAffectedLine(t *testing.T) {
	engine := testEngine(t)

	ctx := &domain.AnalysisContext{
		LineMaster: map[string]domain.LineMaster{
			"HighRange_Line1": {DailyCapacity: 1000, Utilization: 99, OEE: 85},
		},
		ScenarioImpact: &domain.ScenarioImpact{AffectedLine: "HighRange_Line1"},
	}
	records := []domain.PlantRecord{healthyRecord("HighRange_1", "A")}

	out, err := engine.Evaluate(records, ctx)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	for _, res := range out.AllResults {
		if res.Name == "Line Overload" {
			t.Error("affected line must be excluded from the overload check")
		}
	}
}

func TestWorkforceCheck(t *testing.T) {
	engine := testEngine(t)

	tired := healthyRecord("HighRange_1", "Night")
	tired.WorkerAvailability = 85
	records := []domain.PlantRecord{tired, healthyRecord("HighRange_1", "Day")}

	ctx := &domain.AnalysisContext{
		ShiftMaster: map[string]domain.ShiftMaster{
			"Night": {Workers: 40, MaxOvertimeHours: 3},
		},
	}

	out, err := engine.Evaluate(records, ctx)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	r := findResult(t, out.TriggeredRules, "Workforce Below Target")
	if r.Severity != domain.SeverityMedium {
		t.Errorf("workforce severity = %s, want MEDIUM", r.Severity)
	}
	if r.Action != domain.ActionIncreaseShift {
		t.Errorf("workforce action = %s, want %s", r.Action, domain.ActionIncreaseShift)
	}
	if !strings.Contains(r.Details, "Max overtime: 3h") {
		t.Errorf("workforce details missing overtime limit: %q", r.Details)
	}
	if !strings.Contains(r.Condition, "Night") {
		t.Errorf("workforce condition missing shift name: %q", r.Condition)
	}
}

func TestActionDeduplication(t *testing.T) {
	engine := testEngine(t)

	// Two lines below the uptime threshold produce two triggered rules but
	// only one DISPATCH_MAINTENANCE action.
	a := healthyRecord("HighRange_1", "A")
	a.Uptime = 60
	b := healthyRecord("HighRange_2", "A")
	b.Uptime = 65

	out, err := engine.Evaluate([]domain.PlantRecord{a, b}, emptyContext())
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	count := 0
	for _, action := range out.RecommendedActions {
		if action == domain.ActionDispatchMaintenance {
			count++
		}
	}
	if count != 1 {
		t.Errorf("DISPATCH_MAINTENANCE appears %d times in actions, want 1", count)
	}
}

func TestOverallSeverityIsMaximum(t *testing.T) {
	engine := testEngine(t)

	// Workforce triggers at MEDIUM; a breakdown event raises CRITICAL.
	tired := healthyRecord("HighRange_1", "A")
	tired.WorkerAvailability = 85

	ctx := &domain.AnalysisContext{
		Events: []domain.PlantEvent{{Description: "Conveyor malfunction on MedRange_Line1"}},
	}

	out, err := engine.Evaluate([]domain.PlantRecord{tired}, ctx)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if out.OverallSeverity != domain.SeverityCritical {
		t.Errorf("overall severity = %s, want CRITICAL", out.OverallSeverity)
	}
}

func TestExpressionOverride(t *testing.T) {
	cfg := domain.RulesConfig{
		Expressions: map[string]string{
			FamilyMachineHealth: "value < 50.0",
		},
	}
	engine, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	// 60% uptime is below the default 75 threshold but above the overridden
	// 50 cutoff.
	r := healthyRecord("HighRange_1", "A")
	r.Uptime = 60

	out, err := engine.Evaluate([]domain.PlantRecord{r}, emptyContext())
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	for _, res := range out.TriggeredRules {
		if res.Name == "Low Machine Health" {
			t.Error("overridden predicate should not fire at 60% uptime")
		}
	}
}

func TestNewEngineRejectsBadExpressions(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{name: "syntax error", expr: "value <"},
		{name: "non-bool result", expr: "value + threshold"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEngine(domain.RulesConfig{
				Expressions: map[string]string{FamilyInventory: tt.expr},
			})
			if err == nil {
				t.Fatal("expected compile error, got nil")
			}
		})
	}
}

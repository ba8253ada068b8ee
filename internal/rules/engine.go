// Package rules provides the deterministic rule engine. Trigger conditions
// are CEL predicates compiled once at engine construction, so the matching
// rules are data, not inline comparisons, and can be overridden per
// deployment through configuration.
package rules

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"

	"github.com/plantops/linesight/internal/domain"
)

// Check family names. Each family owns one compiled trigger predicate.
const (
	FamilyMachineHealth = "machine_health"
	FamilyDemandSpike   = "demand_spike"
	FamilyInventory     = "inventory"
	FamilySupplyChain   = "supply_chain"
	FamilyOverload      = "overload"
	FamilyWorkforce     = "workforce"
)

// defaultExpressions are the stock trigger predicates. Overrides come from
// RulesConfig.Expressions keyed by family name.
var defaultExpressions = map[string]string{
	FamilyMachineHealth: "value < threshold",
	FamilyInventory:     "value < threshold",
	FamilyWorkforce:     "value < threshold",
	FamilyOverload:      "value > threshold",
	FamilyDemandSpike:   "peak > mean + sigma * std",
	FamilySupplyChain:   `modal == "Shortage" || modal == "Critical" || fraction > threshold`,
}

// Engine evaluates the deterministic checks against scenario data plus
// aggregated master data. It is safe for concurrent use once constructed:
// all state is read-only after NewEngine returns.
type Engine struct {
	thresholds domain.Thresholds
	programs   map[string]cel.Program
}

// NewEngine compiles the trigger predicates and returns a ready engine.
func NewEngine(cfg domain.RulesConfig) (*Engine, error) {
	env, err := cel.NewEnv(
		cel.Variable("value", cel.DoubleType),
		cel.Variable("threshold", cel.DoubleType),
		cel.Variable("peak", cel.DoubleType),
		cel.Variable("mean", cel.DoubleType),
		cel.Variable("std", cel.DoubleType),
		cel.Variable("sigma", cel.DoubleType),
		cel.Variable("fraction", cel.DoubleType),
		cel.Variable("modal", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	thresholds := cfg.Thresholds
	if thresholds == (domain.Thresholds{}) {
		thresholds = domain.DefaultThresholds()
	}

	e := &Engine{
		thresholds: thresholds,
		programs:   make(map[string]cel.Program, len(defaultExpressions)),
	}

	for family, expr := range defaultExpressions {
		if override, ok := cfg.Expressions[family]; ok && override != "" {
			expr = override
		}
		prog, err := compilePredicate(env, family, expr)
		if err != nil {
			return nil, err
		}
		e.programs[family] = prog
	}

	return e, nil
}

func compilePredicate(env *cel.Env, family, expr string) (cel.Program, error) {
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile predicate for %s: %w", family, issues.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("predicate for %s: expression must return bool, got %s", family, ast.OutputType())
	}
	prog, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create program for %s: %w", family, err)
	}
	return prog, nil
}

// trigger evaluates a family's predicate against the given variables.
// Variables not set by the caller default to zero values so overridden
// expressions may reference any declared variable.
func (e *Engine) trigger(family string, vars map[string]any) (bool, error) {
	activation := map[string]any{
		"value":     0.0,
		"threshold": 0.0,
		"peak":      0.0,
		"mean":      0.0,
		"std":       0.0,
		"sigma":     0.0,
		"fraction":  0.0,
		"modal":     "",
	}
	for k, v := range vars {
		activation[k] = v
	}

	out, _, err := e.programs[family].Eval(activation)
	if err != nil {
		return false, fmt.Errorf("predicate %s: evaluation error: %w", family, err)
	}
	b, ok := out.(types.Bool)
	if !ok {
		return false, fmt.Errorf("predicate %s: non-bool result %v", family, out)
	}
	return bool(b), nil
}

// Thresholds returns the engine's effective thresholds.
func (e *Engine) Thresholds() domain.Thresholds {
	return e.thresholds
}

// Evaluate runs every check family and returns the aggregated output.
// The result preserves check-family order, then per-entity iteration order
// as encountered in the scenario data. It is deterministic for identical
// inputs and has no side effects.
func (e *Engine) Evaluate(records []domain.PlantRecord, ctx *domain.AnalysisContext) (*domain.RuleEngineOutput, error) {
	if len(records) == 0 {
		return nil, &domain.MissingDataError{Field: "scenario_data"}
	}
	if ctx == nil {
		return nil, &domain.MissingDataError{Field: "context"}
	}
	for _, r := range records {
		if r.Line == "" {
			return nil, &domain.MissingDataError{Field: "assemblyLine"}
		}
		if r.Shift == "" {
			return nil, &domain.MissingDataError{Field: "shift"}
		}
	}

	var results []domain.RuleResult
	checks := []func([]domain.PlantRecord, *domain.AnalysisContext) ([]domain.RuleResult, error){
		e.checkMachineHealth,
		e.checkLineBreakdown,
		e.checkDemandSpike,
		e.checkInventory,
		e.checkSupplyChain,
		e.checkOverload,
		e.checkWorkforce,
	}
	for _, check := range checks {
		rs, err := check(records, ctx)
		if err != nil {
			return nil, err
		}
		results = append(results, rs...)
	}

	triggered := make([]domain.RuleResult, 0, len(results))
	for _, r := range results {
		if r.Triggered {
			triggered = append(triggered, r)
		}
	}

	// Unique actions, first-trigger order.
	seen := make(map[string]bool, len(triggered))
	var actions []string
	for _, r := range triggered {
		if !seen[r.Action] {
			seen[r.Action] = true
			actions = append(actions, r.Action)
		}
	}

	overall := domain.SeverityLow
	for _, r := range triggered {
		if domain.SeverityRank(r.Severity) > domain.SeverityRank(overall) {
			overall = r.Severity
		}
	}

	return &domain.RuleEngineOutput{
		AllResults:         results,
		TriggeredRules:     triggered,
		RecommendedActions: actions,
		OverallSeverity:    overall,
	}, nil
}

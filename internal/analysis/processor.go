// Package analysis orchestrates one scenario run through the full pipeline:
// rule evaluation, prediction, decision log construction and validation.
package analysis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/plantops/linesight/internal/decisionlog"
	"github.com/plantops/linesight/internal/domain"
	"github.com/plantops/linesight/internal/predict"
	"github.com/plantops/linesight/internal/rules"
	"github.com/plantops/linesight/internal/validate"
)

var tracer = otel.Tracer("linesight-analysis")

// Processor wires the pipeline stages together. Construct once and share;
// the engine and predictor are safe for concurrent use.
type Processor struct {
	engine    *rules.Engine
	predictor *predict.Predictor
	version   string
}

// NewProcessor creates a processor around an already-built engine and
// predictor.
func NewProcessor(engine *rules.Engine, predictor *predict.Predictor, version string) *Processor {
	return &Processor{
		engine:    engine,
		predictor: predictor,
		version:   version,
	}
}

// Input carries everything one analysis run consumes.
type Input struct {
	Scenario        string
	Records         []domain.PlantRecord
	Context         *domain.AnalysisContext
	Recommendations []domain.Recommendation
	TraceID         string
	StartTime       time.Time
}

// Analyze runs the four stages in order. Only the rule engine's input
// preconditions can fail the run; every later stage accepts whatever the
// earlier stages produced.
func (p *Processor) Analyze(ctx context.Context, input *Input) (*domain.AnalysisResult, error) {
	if input.StartTime.IsZero() {
		input.StartTime = time.Now()
	}

	ctx, span := tracer.Start(ctx, "analysis.run")
	span.SetAttributes(
		attribute.String("scenario", input.Scenario),
		attribute.Int("records", len(input.Records)),
		attribute.Int("recommendations", len(input.Recommendations)),
	)
	defer span.End()

	result := &domain.AnalysisResult{
		ID:        uuid.New().String(),
		Scenario:  input.Scenario,
		Timestamp: time.Now().UTC(),
	}

	rulesStart := time.Now()
	_, stageSpan := tracer.Start(ctx, "analysis.rules")
	ruleOut, err := p.engine.Evaluate(input.Records, input.Context)
	stageSpan.End()
	if err != nil {
		return nil, err
	}
	result.Rules = ruleOut
	rulesMs := time.Since(rulesStart).Milliseconds()

	predictStart := time.Now()
	_, stageSpan = tracer.Start(ctx, "analysis.predict")
	result.Predictions = p.predictor.Predict(input.Records, input.Context)
	stageSpan.End()
	predictMs := time.Since(predictStart).Milliseconds()

	logStart := time.Now()
	_, stageSpan = tracer.Start(ctx, "analysis.decisionlog")
	result.DecisionLog = decisionlog.Build(input.Scenario, ruleOut, result.Predictions, input.Recommendations, input.Context)
	stageSpan.End()
	logMs := time.Since(logStart).Milliseconds()

	validateStart := time.Now()
	_, stageSpan = tracer.Start(ctx, "analysis.validate")
	result.Validation = validate.Validate(ruleOut, result.Predictions, input.Recommendations, input.Context)
	stageSpan.End()
	validateMs := time.Since(validateStart).Milliseconds()

	result.Metadata = domain.AnalysisMetadata{
		TraceID:       input.TraceID,
		RulesMs:       rulesMs,
		PredictMs:     predictMs,
		LogMs:         logMs,
		ValidateMs:    validateMs,
		TotalMs:       time.Since(input.StartTime).Milliseconds(),
		EngineVersion: p.version,
	}
	return result, nil
}

package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/plantops/linesight/internal/analysis"
	"github.com/plantops/linesight/internal/decisionlog"
	"github.com/plantops/linesight/internal/domain"
	"github.com/plantops/linesight/internal/predict"
	"github.com/plantops/linesight/internal/rules"
)

// Handler holds dependencies for API handlers.
type Handler struct {
	engine    *rules.Engine
	predictor *predict.Predictor
	processor *analysis.Processor
	version   string
}

// NewHandler creates a new API handler.
func NewHandler(engine *rules.Engine, predictor *predict.Predictor, processor *analysis.Processor, version string) *Handler {
	return &Handler{
		engine:    engine,
		predictor: predictor,
		processor: processor,
		version:   version,
	}
}

// AnalyzeRequest is the request body for POST /analyze.
type AnalyzeRequest struct {
	Scenario        string                  `json:"scenario"`
	Records         []domain.PlantRecord    `json:"records"`
	Context         *domain.AnalysisContext `json:"context"`
	Recommendations []domain.Recommendation `json:"recommendations,omitempty"`
}

// Analyze handles POST /analyze requests.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	traceID := GetTraceID(ctx)

	req, ok := h.decodeAnalyzeRequest(w, r)
	if !ok {
		return
	}

	result, err := h.processor.Analyze(ctx, &analysis.Input{
		Scenario:        req.Scenario,
		Records:         req.Records,
		Context:         req.Context,
		Recommendations: req.Recommendations,
		TraceID:         traceID,
		StartTime:       start,
	})
	if err != nil {
		h.writeAnalyzeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ExportDecisionLog handles POST /analyze/export: it runs the same pipeline
// but responds with the flattened decision log as CSV.
func (h *Handler) ExportDecisionLog(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	req, ok := h.decodeAnalyzeRequest(w, r)
	if !ok {
		return
	}

	result, err := h.processor.Analyze(ctx, &analysis.Input{
		Scenario:        req.Scenario,
		Records:         req.Records,
		Context:         req.Context,
		Recommendations: req.Recommendations,
		TraceID:         GetTraceID(ctx),
		StartTime:       start,
	})
	if err != nil {
		h.writeAnalyzeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="decision_log.csv"`)
	if err := decisionlog.WriteCSV(w, result.DecisionLog); err != nil {
		slog.Error("decision log export failed", "error", err)
	}
}

func (h *Handler) decodeAnalyzeRequest(w http.ResponseWriter, r *http.Request) (*AnalyzeRequest, bool) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return nil, false
	}

	if req.Scenario == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "scenario is required",
		})
		return nil, false
	}
	if len(req.Records) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "records must not be empty",
		})
		return nil, false
	}
	if req.Context == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "context is required",
		})
		return nil, false
	}
	return &req, true
}

func (h *Handler) writeAnalyzeError(w http.ResponseWriter, err error) {
	if domain.IsMissingData(err) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error": err.Error(),
		})
		return
	}
	slog.Error("analysis failed", "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "analysis failed",
	})
}

// TrainRequest is the request body for POST /train.
type TrainRequest struct {
	Records []domain.PlantRecord `json:"records"`
}

// Train handles POST /train: it refits the prediction models on the
// supplied historical records.
func (h *Handler) Train(w http.ResponseWriter, r *http.Request) {
	var req TrainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}
	if len(req.Records) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "records must not be empty",
		})
		return
	}

	trained := h.predictor.Train(req.Records)

	slog.Info("training request handled", "records", len(req.Records), "trained", trained)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"trained": trained,
		"records": len(req.Records),
	})
}

// Thresholds returns the rule engine's active threshold configuration.
func (h *Handler) Thresholds(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Thresholds())
}

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "healthy",
		"version":        h.version,
		"models_trained": h.predictor.Trained(),
	})
}

// Ready returns whether the server is ready to accept traffic.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

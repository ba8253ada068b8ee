package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/plantops/linesight/internal/analysis"
	"github.com/plantops/linesight/internal/domain"
	"github.com/plantops/linesight/internal/predict"
	"github.com/plantops/linesight/internal/rules"
)

// createTestServer creates a server with a default engine and an untrained
// predictor.
func createTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := domain.ServerConfig{
		Host:         "localhost",
		Port:         8080,
		ReadTimeout:  30,
		WriteTimeout: 30,
	}

	engine, err := rules.NewEngine(domain.RulesConfig{})
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	predictor := predict.NewPredictor()
	processor := analysis.NewProcessor(engine, predictor, "test-v1")

	return NewServer(cfg, engine, predictor, processor, "test-v1")
}

func breakdownScenarioRequest() AnalyzeRequest {
	return AnalyzeRequest{
		Scenario: "line_breakdown",
		Records: []domain.PlantRecord{
			{Line: "HighRange_1", Shift: "A", Uptime: 60, Inventory: 55, WorkerAvailability: 85, DefectRate: 2.5, Demand: 120, Semiconductor: domain.SemiconductorShortage},
			{Line: "HighRange_2", Shift: "B", Uptime: 92, Inventory: 85, WorkerAvailability: 95, DefectRate: 0.8, Demand: 100, Semiconductor: domain.SemiconductorAvailable},
		},
		Context: &domain.AnalysisContext{
			Scenario: "line_breakdown",
			Events: []domain.PlantEvent{{
				Type:        "equipment_failure",
				Description: "Hydraulic breakdown on HighRange_Line1",
			}},
			LineMaster: map[string]domain.LineMaster{
				"HighRange_Line1": {DailyCapacity: 1200, Utilization: 90, OEE: 85, MTTRHours: 6},
			},
		},
		Recommendations: []domain.Recommendation{
			{Action: "Dispatch maintenance crew", Agent: "Maintenance Agent", Reasoning: "Breakdown on HighRange_Line1"},
		},
	}
}

func postJSON(t *testing.T, server *Server, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBuffer(data))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	server.Router().ServeHTTP(rr, req)
	return rr
}

func TestAnalyzeEndpoint(t *testing.T) {
	server := createTestServer(t)

	t.Run("SuccessfulAnalysis", func(t *testing.T) {
		rr := postJSON(t, server, "/analyze", breakdownScenarioRequest())
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}

		var result domain.AnalysisResult
		if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}

		if result.Rules == nil || len(result.Rules.TriggeredRules) == 0 {
			t.Error("expected triggered rules for a breakdown scenario")
		}
		if result.Rules.OverallSeverity != domain.SeverityCritical {
			t.Errorf("overall severity = %s, want CRITICAL", result.Rules.OverallSeverity)
		}
		if result.Predictions == nil || len(result.Predictions.Breakdown) == 0 {
			t.Error("expected breakdown predictions")
		}
		if result.DecisionLog == nil || len(result.DecisionLog.Entries) != 1 {
			t.Error("expected one decision log entry per recommendation")
		}
		if result.Validation == nil {
			t.Error("expected a validation report")
		}
		if result.ID == "" {
			t.Error("expected a non-empty analysis id")
		}
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewBufferString("{not json"))
		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})

	t.Run("MissingScenario", func(t *testing.T) {
		body := breakdownScenarioRequest()
		body.Scenario = ""
		rr := postJSON(t, server, "/analyze", body)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})

	t.Run("MissingRecords", func(t *testing.T) {
		body := breakdownScenarioRequest()
		body.Records = nil
		rr := postJSON(t, server, "/analyze", body)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})

	t.Run("RecordMissingLine", func(t *testing.T) {
		body := breakdownScenarioRequest()
		body.Records[0].Line = ""
		rr := postJSON(t, server, "/analyze", body)
		if rr.Code != http.StatusUnprocessableEntity {
			t.Errorf("expected status 422, got %d: %s", rr.Code, rr.Body.String())
		}
	})
}

func TestExportEndpoint(t *testing.T) {
	server := createTestServer(t)

	rr := postJSON(t, server, "/analyze/export", breakdownScenarioRequest())
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("content type = %q, want text/csv", ct)
	}
	if !bytes.HasPrefix(rr.Body.Bytes(), []byte("decision_id,")) {
		t.Errorf("unexpected csv body: %q", rr.Body.String())
	}
}

func TestTrainEndpoint(t *testing.T) {
	server := createTestServer(t)

	t.Run("EmptyRecords", func(t *testing.T) {
		rr := postJSON(t, server, "/train", TrainRequest{})
		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})

	t.Run("InsufficientData", func(t *testing.T) {
		rr := postJSON(t, server, "/train", TrainRequest{
			Records: []domain.PlantRecord{{Line: "HighRange_1", Shift: "A", Uptime: 90}},
		})
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}

		var resp map[string]interface{}
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if trained, _ := resp["trained"].(bool); trained {
			t.Error("one record must not be enough to train")
		}
	})
}

func TestHealthEndpoints(t *testing.T) {
	server := createTestServer(t)

	for _, path := range []string{"/health", "/ready", "/thresholds"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, rr.Code)
		}
	}
}

func TestThresholdsEndpoint(t *testing.T) {
	server := createTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/thresholds", nil)
	rr := httptest.NewRecorder()
	server.Router().ServeHTTP(rr, req)

	var thr domain.Thresholds
	if err := json.Unmarshal(rr.Body.Bytes(), &thr); err != nil {
		t.Fatalf("failed to parse thresholds: %v", err)
	}
	if thr.MachineUptimeCritical != 75 {
		t.Errorf("machine uptime threshold = %v, want 75", thr.MachineUptimeCritical)
	}
}

// Package predict holds the optionally-trained statistical models and their
// closed-form heuristic fallbacks. Training failures never surface to the
// caller; the predictor degrades to heuristics and keeps serving.
package predict

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/plantops/linesight/internal/domain"
	"github.com/plantops/linesight/internal/stats"
)

// Risk band boundaries shared by breakdown and delay predictions.
const (
	bandMedium = 0.3
	bandHigh   = 0.6
)

// maxSuppliers bounds the supplier risk list.
const maxSuppliers = 15

// Predictor owns the trained models. Construct once, train at most once
// before serving, then treat as read-only; the mutex mirrors how the rule
// engine guards its compiled state and keeps concurrent Predict calls safe
// against a late Train.
type Predictor struct {
	mu        sync.RWMutex
	breakdown *logisticModel
	delay     *linearModel
	trained   bool
}

// NewPredictor returns an untrained predictor serving heuristic fallbacks.
func NewPredictor() *Predictor {
	return &Predictor{}
}

// Train fits the breakdown classifier and delay regressor on historical
// records. It is idempotent and never returns an error: insufficient data
// leaves the corresponding model unset and is only logged. Concurrent Train
// calls must be serialized by the caller.
func (p *Predictor) Train(historical []domain.PlantRecord) bool {
	breakdown := trainBreakdownModel(historical)
	if breakdown == nil {
		slog.Info("breakdown classifier not trained, falling back to heuristic",
			"records", len(historical),
		)
	}

	delay := trainDelayModel(historical)
	if delay == nil {
		slog.Info("delay regressor not trained, falling back to heuristic",
			"records", len(historical),
		)
	}

	p.mu.Lock()
	p.breakdown = breakdown
	p.delay = delay
	p.trained = breakdown != nil || delay != nil
	trained := p.trained
	p.mu.Unlock()

	if trained {
		slog.Info("prediction models trained",
			"breakdown_model", breakdown != nil,
			"delay_model", delay != nil,
		)
	}
	return trained
}

// Trained reports whether at least one model was fitted.
func (p *Predictor) Trained() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.trained
}

// Predict runs all predictions for a scenario. Every canonical line appears
// exactly once in both the breakdown and delay lists, in fixed order.
func (p *Predictor) Predict(records []domain.PlantRecord, ctx *domain.AnalysisContext) *domain.Predictions {
	p.mu.RLock()
	breakdown, delay, trained := p.breakdown, p.delay, p.trained
	p.mu.RUnlock()

	out := &domain.Predictions{
		ModelsTrained: trained,
		Breakdown:     predictBreakdown(breakdown, records),
		Delay:         predictDelay(delay, records),
		SupplierRisks: supplierRisks(ctx),
	}

	if len(out.Delay) > 0 {
		worst := out.Delay[0]
		for _, d := range out.Delay[1:] {
			if d.RiskScore > worst.RiskScore {
				worst = d
			}
		}
		out.WorstDelay = &worst
	}
	return out
}

// predictBreakdown estimates per-line failure risk. With a trained
// classifier the averaged feature vector is scored; otherwise the uptime
// heuristic clamp((100-uptime)/50, 0, 1) applies.
func predictBreakdown(model *logisticModel, records []domain.PlantRecord) []domain.BreakdownPrediction {
	preds := make([]domain.BreakdownPrediction, 0, len(domain.CanonicalLines))

	for _, line := range domain.CanonicalLines {
		use := rowsForLine(records, line)

		uptime := meanOf(use, func(r domain.PlantRecord) float64 { return r.Uptime })
		defect := meanOf(use, func(r domain.PlantRecord) float64 { return r.DefectRate })

		var prob float64
		if model != nil {
			prob = model.proba([]float64{
				uptime,
				meanOf(use, func(r domain.PlantRecord) float64 { return r.WorkerAvailability }),
				defect,
				meanOf(use, func(r domain.PlantRecord) float64 { return r.Energy }),
			})
		} else {
			prob = stats.Clamp((100-uptime)/50, 0, 1)
		}
		prob = stats.Round2(prob)

		var factors []string
		if uptime < 80 {
			factors = append(factors, fmt.Sprintf("Low uptime (%.1f%%)", uptime))
		}
		if defect > 1.5 {
			factors = append(factors, fmt.Sprintf("High defect rate (%.2f%%)", defect))
		}

		preds = append(preds, domain.BreakdownPrediction{
			Line:        line,
			Probability: prob,
			RiskLevel:   riskBand(prob),
			Factors:     factors,
		})
	}
	return preds
}

// predictDelay estimates per-line delivery-delay risk. A trained regressor
// predicts KPI impact which maps to clamp(1 - kpi/10, 0, 1); the heuristic
// accumulates inventory and semiconductor penalties from a 0.2 base.
func predictDelay(model *linearModel, records []domain.PlantRecord) []domain.DelayPrediction {
	preds := make([]domain.DelayPrediction, 0, len(domain.CanonicalLines))
	datasetSemi := modalSemiconductor(records)

	for _, line := range domain.CanonicalLines {
		use := rowsForLine(records, line)

		inv := meanOf(use, func(r domain.PlantRecord) float64 { return r.Inventory })
		semi := modalSemiconductor(use)
		if semi == "" {
			semi = datasetSemi
		}
		if semi == "" {
			semi = domain.SemiconductorAvailable
		}

		var score float64
		method := domain.MethodHeuristic
		if model != nil {
			kpi := model.predict([]float64{
				inv,
				meanOf(use, func(r domain.PlantRecord) float64 { return r.Uptime }),
				meanOf(use, func(r domain.PlantRecord) float64 { return r.WorkerAvailability }),
				meanOf(use, func(r domain.PlantRecord) float64 { return r.DefectRate }),
			})
			score = stats.Clamp(1-kpi/10, 0, 1)
			method = domain.MethodModel
		} else {
			score = 0.2
			if inv < 75 {
				score += 0.3
			}
			switch semi {
			case domain.SemiconductorShortage:
				score += 0.3
			case domain.SemiconductorDelayed:
				score += 0.15
			}
			score = stats.Clamp(score, 0, 1)
		}
		score = stats.Round2(score)

		preds = append(preds, domain.DelayPrediction{
			Line:      line,
			RiskScore: score,
			RiskLevel: riskBand(score),
			Factors: []string{
				fmt.Sprintf("Inventory at %.2f%%", inv),
				"Semiconductor: " + semi,
			},
			Method: method,
		})
	}
	return preds
}

// supplierRisks scores every known supplier heuristically; there is no
// trained supplier model. Result is sorted safest first.
func supplierRisks(ctx *domain.AnalysisContext) []domain.SupplierRisk {
	if ctx == nil || len(ctx.Suppliers) == 0 {
		return nil
	}

	suppliers := ctx.Suppliers
	if len(suppliers) > maxSuppliers {
		suppliers = suppliers[:maxSuppliers]
	}

	risks := make([]domain.SupplierRisk, 0, len(suppliers))
	for _, s := range suppliers {
		name := s.Name
		if name == "" {
			name = "Unknown"
		}
		reliability := s.Reliability
		if reliability <= 0 {
			reliability = 85
		}
		lead := s.LeadTimeDays
		if lead < 0 {
			lead = 0
		}

		score := stats.Round2(stats.Clamp(reliability-1.5*float64(lead), 0, 100))
		band := domain.RiskHigh
		switch {
		case score >= 80:
			band = domain.RiskLow
		case score >= 60:
			band = domain.RiskMedium
		}

		risks = append(risks, domain.SupplierRisk{
			Name:         name,
			Score:        score,
			RiskLevel:    band,
			LeadTimeDays: lead,
			Reliability:  reliability,
		})
	}

	// Safest first; stable so equal scores keep input order.
	sortSuppliersDesc(risks)
	return risks
}

// riskBand buckets a 0-1 score at the 0.3/0.6 boundaries.
func riskBand(score float64) string {
	switch {
	case score > bandHigh:
		return domain.RiskHigh
	case score > bandMedium:
		return domain.RiskMedium
	default:
		return domain.RiskLow
	}
}

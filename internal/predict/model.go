package predict

import (
	"math"

	"github.com/plantops/linesight/internal/domain"
)

// Training hyperparameters for the logistic breakdown classifier. Batch
// gradient descent with zero initialization keeps training deterministic.
const (
	logisticIterations = 500
	logisticRate       = 0.1

	// minPositiveLabels is the minimum count of maintenance-alert records
	// required to fit the breakdown classifier.
	minPositiveLabels = 5

	// ridge keeps the delay regressor's normal equations solvable when
	// features are collinear.
	ridge = 1e-6
)

// logisticModel is a standardized-feature logistic regression classifier.
type logisticModel struct {
	weights []float64
	bias    float64
	mean    []float64
	std     []float64
}

// linearModel is an ordinary-least-squares regressor; the last coefficient
// is the intercept.
type linearModel struct {
	coef []float64
}

// trainBreakdownModel fits the failure classifier on uptime, worker
// availability, defect rate and energy, with the maintenance-alert status
// as label. Returns nil when labels are absent or positives are too few.
func trainBreakdownModel(records []domain.PlantRecord) *logisticModel {
	var features [][]float64
	var labels []float64
	positives := 0

	for _, r := range records {
		if r.AlertStatus == "" {
			continue
		}
		y := 0.0
		if r.AlertStatus == domain.AlertMaintenanceAlert {
			y = 1.0
			positives++
		}
		features = append(features, []float64{r.Uptime, r.WorkerAvailability, r.DefectRate, r.Energy})
		labels = append(labels, y)
	}

	if positives < minPositiveLabels || positives == len(labels) {
		return nil
	}
	return fitLogistic(features, labels)
}

// trainDelayModel fits the KPI-impact regressor on inventory, uptime,
// worker availability and defect rate. Returns nil when too few records
// carry the KPI-impact label.
func trainDelayModel(records []domain.PlantRecord) *linearModel {
	var features [][]float64
	var targets []float64

	for _, r := range records {
		if r.KPIImpact == nil {
			continue
		}
		features = append(features, []float64{r.Inventory, r.Uptime, r.WorkerAvailability, r.DefectRate})
		targets = append(targets, *r.KPIImpact)
	}

	if len(targets) < 5 {
		return nil
	}
	return fitLinear(features, targets)
}

// fitLogistic runs deterministic batch gradient descent with balanced class
// weighting on standardized features.
func fitLogistic(x [][]float64, y []float64) *logisticModel {
	n := len(x)
	if n == 0 {
		return nil
	}
	d := len(x[0])

	mean, std := featureMoments(x)
	z := standardize(x, mean, std)

	positives := 0.0
	for _, yi := range y {
		positives += yi
	}
	negatives := float64(n) - positives
	wPos := float64(n) / (2 * positives)
	wNeg := float64(n) / (2 * negatives)

	weights := make([]float64, d)
	bias := 0.0

	for it := 0; it < logisticIterations; it++ {
		grad := make([]float64, d)
		gradBias := 0.0

		for i, xi := range z {
			pred := sigmoid(dot(weights, xi) + bias)
			sampleWeight := wNeg
			if y[i] == 1 {
				sampleWeight = wPos
			}
			err := (pred - y[i]) * sampleWeight
			for j, v := range xi {
				grad[j] += err * v
			}
			gradBias += err
		}

		for j := range weights {
			weights[j] -= logisticRate * grad[j] / float64(n)
		}
		bias -= logisticRate * gradBias / float64(n)
	}

	return &logisticModel{weights: weights, bias: bias, mean: mean, std: std}
}

// proba returns the positive-class probability, always within [0, 1].
func (m *logisticModel) proba(x []float64) float64 {
	z := m.bias
	for j, v := range x {
		z += m.weights[j] * (v - m.mean[j]) / m.std[j]
	}
	return sigmoid(z)
}

// fitLinear solves the ridge-stabilized normal equations for the
// least-squares coefficients plus intercept.
func fitLinear(x [][]float64, y []float64) *linearModel {
	n := len(x)
	if n == 0 {
		return nil
	}
	d := len(x[0]) + 1 // +1 intercept

	// Build X^T X and X^T y with an implicit trailing 1 per row.
	a := make([][]float64, d)
	b := make([]float64, d)
	for i := range a {
		a[i] = make([]float64, d)
	}
	for i, xi := range x {
		row := append(append([]float64{}, xi...), 1)
		for j := 0; j < d; j++ {
			for k := 0; k < d; k++ {
				a[j][k] += row[j] * row[k]
			}
			b[j] += row[j] * y[i]
		}
	}
	for j := 0; j < d; j++ {
		a[j][j] += ridge
	}

	coef, ok := solve(a, b)
	if !ok {
		return nil
	}
	return &linearModel{coef: coef}
}

// predict returns the fitted KPI-impact estimate.
func (m *linearModel) predict(x []float64) float64 {
	out := m.coef[len(m.coef)-1]
	for j, v := range x {
		out += m.coef[j] * v
	}
	return out
}

// solve performs Gaussian elimination with partial pivoting on a copy of
// the inputs. Returns ok=false for a singular system.
func solve(a [][]float64, b []float64) ([]float64, bool) {
	n := len(a)
	m := make([][]float64, n)
	for i := range a {
		m[i] = append(append([]float64{}, a[i]...), b[i])
	}

	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(m[r][col]) > math.Abs(m[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(m[pivot][col]) < 1e-12 {
			return nil, false
		}
		m[col], m[pivot] = m[pivot], m[col]

		for r := col + 1; r < n; r++ {
			factor := m[r][col] / m[col][col]
			for c := col; c <= n; c++ {
				m[r][c] -= factor * m[col][c]
			}
		}
	}

	out := make([]float64, n)
	for row := n - 1; row >= 0; row-- {
		sum := m[row][n]
		for c := row + 1; c < n; c++ {
			sum -= m[row][c] * out[c]
		}
		out[row] = sum / m[row][row]
	}
	return out, true
}

func featureMoments(x [][]float64) (mean, std []float64) {
	n := float64(len(x))
	d := len(x[0])
	mean = make([]float64, d)
	std = make([]float64, d)

	for _, xi := range x {
		for j, v := range xi {
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= n
	}
	for _, xi := range x {
		for j, v := range xi {
			dev := v - mean[j]
			std[j] += dev * dev
		}
	}
	for j := range std {
		std[j] = math.Sqrt(std[j] / n)
		if std[j] < 1e-9 {
			std[j] = 1
		}
	}
	return mean, std
}

func standardize(x [][]float64, mean, std []float64) [][]float64 {
	out := make([][]float64, len(x))
	for i, xi := range x {
		row := make([]float64, len(xi))
		for j, v := range xi {
			row[j] = (v - mean[j]) / std[j]
		}
		out[i] = row
	}
	return out
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

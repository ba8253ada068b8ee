package predict

import (
	"sort"

	"github.com/plantops/linesight/internal/domain"
	"github.com/plantops/linesight/internal/stats"
)

// rowsForLine returns the records whose line identifier resolves to the
// canonical line through the alias table. When no data matches, the whole
// dataset substitutes so every canonical line always yields a prediction.
func rowsForLine(records []domain.PlantRecord, canonical string) []domain.PlantRecord {
	var rows []domain.PlantRecord
	for _, r := range records {
		if domain.LineMatches(r.Line, canonical) {
			rows = append(rows, r)
		}
	}
	if len(rows) == 0 {
		return records
	}
	return rows
}

func meanOf(records []domain.PlantRecord, value func(domain.PlantRecord) float64) float64 {
	if len(records) == 0 {
		return 0
	}
	vals := make([]float64, len(records))
	for i, r := range records {
		vals[i] = value(r)
	}
	return stats.Mean(vals)
}

// modalSemiconductor returns the most frequent non-empty semiconductor
// status, or "" when no record carries one.
func modalSemiconductor(records []domain.PlantRecord) string {
	var statuses []string
	for _, r := range records {
		if r.Semiconductor != "" {
			statuses = append(statuses, r.Semiconductor)
		}
	}
	return stats.Mode(statuses)
}

func sortSuppliersDesc(risks []domain.SupplierRisk) {
	sort.SliceStable(risks, func(i, j int) bool {
		return risks[i].Score > risks[j].Score
	})
}

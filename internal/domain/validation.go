package domain

// Validation check severities.
const (
	CheckInfo    = "info"
	CheckWarning = "warning"
	CheckError   = "error"
)

// ValidationCheck is a single audit assertion over an analysis run.
type ValidationCheck struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Detail   string `json:"detail"`
	Severity string `json:"severity"`
}

// ValidationReport aggregates all checks for one run.
// OverallPassed is false iff any error-severity check failed.
type ValidationReport struct {
	Checks        []ValidationCheck `json:"checks"`
	OverallPassed bool              `json:"overallPassed"`
}

// NewValidationReport returns an empty passing report.
func NewValidationReport() *ValidationReport {
	return &ValidationReport{OverallPassed: true}
}

// Add appends a check and downgrades the overall result when an
// error-severity check fails.
func (r *ValidationReport) Add(name string, passed bool, detail, severity string) {
	r.Checks = append(r.Checks, ValidationCheck{
		Name:     name,
		Passed:   passed,
		Detail:   detail,
		Severity: severity,
	})
	if !passed && severity == CheckError {
		r.OverallPassed = false
	}
}

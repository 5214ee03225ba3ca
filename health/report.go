package health

import "net/http"

// Readiness statuses.
const (
	StatusReady    = "ready"
	StatusNotReady = "not_ready"
)

// ReadinessReport is the reduced outcome of one readiness evaluation.
type ReadinessReport struct {
	// Results holds one result per check, in evaluation order.
	Results []CheckResult

	// Healthy is true iff every result is healthy.
	Healthy bool

	// Errors holds "<label>: <cause>" for each failing check, in
	// evaluation order. Empty iff Healthy.
	Errors []string
}

// Reduce folds ordered check results into a report.
func Reduce(results []CheckResult) ReadinessReport {
	report := ReadinessReport{
		Results: results,
		Healthy: true,
	}
	for _, r := range results {
		if r.Healthy() {
			continue
		}
		report.Healthy = false
		report.Errors = append(report.Errors, r.Name().Label()+": "+r.Reason())
	}
	return report
}

// Checks returns the pass/fail state of each check.
func (r ReadinessReport) Checks() map[CheckName]bool {
	checks := make(map[CheckName]bool, len(r.Results))
	for _, res := range r.Results {
		checks[res.Name()] = res.Healthy()
	}
	return checks
}

// Status returns StatusReady or StatusNotReady.
func (r ReadinessReport) Status() string {
	if r.Healthy {
		return StatusReady
	}
	return StatusNotReady
}

// StatusCode maps the report to 200 or 503. There is no partial status.
func (r ReadinessReport) StatusCode() int {
	if r.Healthy {
		return http.StatusOK
	}
	return http.StatusServiceUnavailable
}

package health

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
)

// Evaluator produces a readiness report. ReadinessAggregator implements it.
type Evaluator interface {
	Run(ctx context.Context) (ReadinessReport, int)
}

// ReadinessResponse is the JSON body of a readiness response.
type ReadinessResponse struct {
	Status string        `json:"status"`
	Checks CheckStatuses `json:"checks"`
	Errors []string      `json:"errors,omitempty"`
}

// CheckStatus is one entry of the "checks" object.
type CheckStatus struct {
	Label   string
	Healthy bool
}

// CheckStatuses encodes as a JSON object whose keys keep evaluation order.
type CheckStatuses []CheckStatus

// MarshalJSON implements json.Marshaler.
func (c CheckStatuses) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, s := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(s.Label)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.FormatBool(s.Healthy))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// NewReadinessResponse shapes a report for the wire.
func NewReadinessResponse(report ReadinessReport) ReadinessResponse {
	checks := make(CheckStatuses, 0, len(report.Results))
	for _, r := range report.Results {
		checks = append(checks, CheckStatus{Label: r.Name().Label(), Healthy: r.Healthy()})
	}
	return ReadinessResponse{
		Status: report.Status(),
		Checks: checks,
		Errors: report.Errors,
	}
}

// LivenessHandler returns an HTTP handler for liveness probes.
func LivenessHandler(probe *LivenessProbe) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r) {
			return
		}
		writeJSON(w, http.StatusOK, probe.Check())
	}
}

// ReadinessHandler returns an HTTP handler for readiness probes.
func ReadinessHandler(eval Evaluator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r) {
			return
		}
		report, status := eval.Run(r.Context())
		writeJSON(w, status, NewReadinessResponse(report))
	}
}

// RegisterHandlers registers the probe handlers on the given mux.
func RegisterHandlers(mux *http.ServeMux, probe *LivenessProbe, eval Evaluator) {
	live := LivenessHandler(probe)
	ready := ReadinessHandler(eval)

	mux.HandleFunc("/health/live", live)
	mux.HandleFunc("/health/ready", ready)
	mux.HandleFunc("/healthz", live)
	mux.HandleFunc("/readyz", ready)
}

func allowMethod(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return true
	}
	w.Header().Set("Allow", "GET, HEAD")
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	return false
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

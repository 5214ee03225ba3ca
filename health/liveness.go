package health

// StatusAlive is the only liveness status.
const StatusAlive = "alive"

// LivenessReport is the body of a liveness response.
type LivenessReport struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// LivenessProbe reports that the process is running.
type LivenessProbe struct {
	report LivenessReport
}

// NewLivenessProbe creates a probe reporting the given service name.
func NewLivenessProbe(service string) *LivenessProbe {
	return &LivenessProbe{report: LivenessReport{Status: StatusAlive, Service: service}}
}

// Check returns the constant liveness report.
func (p *LivenessProbe) Check() LivenessReport {
	return p.report
}

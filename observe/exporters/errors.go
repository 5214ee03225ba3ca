package exporters

import "errors"

var (
	// ErrEndpointNotConfigured indicates no OTLP endpoint environment
	// variable is set.
	ErrEndpointNotConfigured = errors.New("exporters: endpoint not configured")

	// ErrUnknownExporter indicates an unsupported exporter name.
	ErrUnknownExporter = errors.New("exporters: unknown exporter")
)

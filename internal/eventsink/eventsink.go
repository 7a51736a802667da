// Package eventsink defines the rendition event-emission contract
// (spec.md §6) and a default logging-based implementation.
package eventsink

import "github.com/adobe/asset-compute-pipeline/internal/output"

// Event names recognized by the contract.
const (
	RenditionCreated = "rendition_created"
	RenditionFailed  = "rendition_failed"
)

// Payload carries a rendition event's fields. Instructions should
// already have secrets redacted by the caller before Emit is invoked.
type Payload struct {
	Instructions map[string]any
	Metadata     map[string]any
	EmbeddedData string // optional data URI
	ErrorReason  string
	ErrorMessage string
}

// Sink emits rendition lifecycle events.
type Sink interface {
	Emit(name string, payload Payload) error
}

// LoggingSink is the default Sink: structured keyval logging via
// internal/output, in the teacher's Debug/Info style.
type LoggingSink struct{}

// NewLoggingSink returns the default logging-based event sink.
func NewLoggingSink() *LoggingSink { return &LoggingSink{} }

// Emit implements Sink.
func (s *LoggingSink) Emit(name string, payload Payload) error {
	fields := []any{"event", name}
	if payload.ErrorReason != "" {
		fields = append(fields, "errorReason", payload.ErrorReason, "errorMessage", payload.ErrorMessage)
	}
	if t, ok := payload.Instructions["type"]; ok {
		fields = append(fields, "type", t)
	}

	switch name {
	case RenditionFailed:
		output.Warn("rendition event", fields...)
	default:
		output.Debug("rendition event", fields...)
	}
	return nil
}

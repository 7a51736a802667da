// Package metricsink defines the metrics-aggregation contract
// (spec.md §6) and a default Prometheus-backed implementation.
package metricsink

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Sink aggregates per-activation metrics: Add accumulates fields into
// the activation's running metrics, Send emits a named metric
// immediately, and HandleError records an error metric.
type Sink interface {
	Add(fields map[string]any)
	Send(kind string, fields map[string]any)
	HandleError(err error, context map[string]any)
}

// PrometheusSink is the default Sink, grounded on the teacher pack's
// use of prometheus/client_golang for process metrics.
type PrometheusSink struct {
	renditionDuration prometheus.Histogram
	stepDuration      *prometheus.HistogramVec
	uploadDuration    prometheus.Histogram
	errorsTotal       *prometheus.CounterVec

	accumulated map[string]any
}

// NewPrometheusSink registers the pipeline's metric collectors against
// reg (pass prometheus.DefaultRegisterer in production, a fresh
// registry in tests).
func NewPrometheusSink(reg prometheus.Registerer) *PrometheusSink {
	s := &PrometheusSink{
		renditionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "asset_pipeline_rendition_duration_seconds",
			Help: "Duration of a full rendition activation.",
		}),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "asset_pipeline_step_duration_seconds",
			Help: "Duration of a single transformer step.",
		}, []string{"transformer"}),
		uploadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "asset_pipeline_upload_duration_seconds",
			Help: "Duration of the final rendition upload.",
		}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "asset_pipeline_errors_total",
			Help: "Count of rendition errors by reason.",
		}, []string{"reason"}),
		accumulated: make(map[string]any),
	}
	reg.MustRegister(s.renditionDuration, s.stepDuration, s.uploadDuration, s.errorsTotal)
	return s
}

// Add implements Sink.
func (s *PrometheusSink) Add(fields map[string]any) {
	for k, v := range fields {
		s.accumulated[k] = v
	}
}

// Send implements Sink.
func (s *PrometheusSink) Send(kind string, fields map[string]any) {
	switch kind {
	case "rendition_duration":
		if d, ok := fields["duration"].(time.Duration); ok {
			s.renditionDuration.Observe(d.Seconds())
		}
	case "step_duration":
		name, _ := fields["transformer"].(string)
		if d, ok := fields["duration"].(time.Duration); ok {
			s.stepDuration.WithLabelValues(name).Observe(d.Seconds())
		}
	case "upload_duration":
		if d, ok := fields["duration"].(time.Duration); ok {
			s.uploadDuration.Observe(d.Seconds())
		}
	}
}

// HandleError implements Sink.
func (s *PrometheusSink) HandleError(err error, context map[string]any) {
	reason, _ := context["reason"].(string)
	if reason == "" {
		reason = "generic"
	}
	s.errorsTotal.WithLabelValues(reason).Inc()
}

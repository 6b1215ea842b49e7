// Package metrics provides custom Prometheus metrics for the detection
// pipeline and its escalation path.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics contains all Prometheus metrics for image analysis.
type PipelineMetrics struct {
	ImagesProcessedTotal prometheus.Counter       // total analyzed images/frames
	AnalysisDuration     prometheus.Histogram     // end-to-end analysis latency
	DetectionsTotal      *prometheus.CounterVec   // detections by type
	AlertsSavedTotal     *prometheus.CounterVec   // persisted alerts by type
	EscalationsTotal     *prometheus.CounterVec   // escalation dispatches by status
	ExtractorErrorsTotal *prometheus.CounterVec   // extractor failures by extractor

	registry *prometheus.Registry
}

// NewPipelineMetrics creates and registers the pipeline metrics on the
// given registry.
func NewPipelineMetrics(registry *prometheus.Registry) (*PipelineMetrics, error) {
	m := &PipelineMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register pipeline metrics: %w", err)
	}
	return m, nil
}

func (m *PipelineMetrics) initMetrics() {
	m.ImagesProcessedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "guardia_images_processed_total",
		Help: "Total number of images and frames run through the pipeline",
	})

	m.AnalysisDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "guardia_analysis_duration_seconds",
		Help:    "End-to-end analysis latency per image",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0},
	})

	m.DetectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guardia_detections_total",
			Help: "Total number of detections produced by the classifier, by type",
		},
		[]string{"type"},
	)

	m.AlertsSavedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guardia_alerts_saved_total",
			Help: "Total number of alerts persisted, by type",
		},
		[]string{"type"},
	)

	m.EscalationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guardia_escalations_total",
			Help: "Total number of escalation dispatches, by status",
		},
		[]string{"status"},
	)

	m.ExtractorErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guardia_extractor_errors_total",
			Help: "Total number of extractor failures, by extractor",
		},
		[]string{"extractor"},
	)
}

// RecordImageProcessed counts one analyzed image with its latency.
func (m *PipelineMetrics) RecordImageProcessed(duration time.Duration) {
	m.ImagesProcessedTotal.Inc()
	m.AnalysisDuration.Observe(duration.Seconds())
}

// RecordDetection counts one classifier detection.
func (m *PipelineMetrics) RecordDetection(detectionType string) {
	m.DetectionsTotal.WithLabelValues(detectionType).Inc()
}

// RecordAlertSaved counts one persisted alert.
func (m *PipelineMetrics) RecordAlertSaved(alertType string) {
	m.AlertsSavedTotal.WithLabelValues(alertType).Inc()
}

// RecordEscalation counts one escalation dispatch.
func (m *PipelineMetrics) RecordEscalation(status string) {
	m.EscalationsTotal.WithLabelValues(status).Inc()
}

// RecordExtractorError counts one extractor failure.
func (m *PipelineMetrics) RecordExtractorError(extractor string) {
	m.ExtractorErrorsTotal.WithLabelValues(extractor).Inc()
}

// Describe implements the prometheus.Collector interface.
func (m *PipelineMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.ImagesProcessedTotal.Describe(ch)
	m.AnalysisDuration.Describe(ch)
	m.DetectionsTotal.Describe(ch)
	m.AlertsSavedTotal.Describe(ch)
	m.EscalationsTotal.Describe(ch)
	m.ExtractorErrorsTotal.Describe(ch)
}

// Collect implements the prometheus.Collector interface.
func (m *PipelineMetrics) Collect(ch chan<- prometheus.Metric) {
	m.ImagesProcessedTotal.Collect(ch)
	m.AnalysisDuration.Collect(ch)
	m.DetectionsTotal.Collect(ch)
	m.AlertsSavedTotal.Collect(ch)
	m.EscalationsTotal.Collect(ch)
	m.ExtractorErrorsTotal.Collect(ch)
}

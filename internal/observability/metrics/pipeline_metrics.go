package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PipelineMetrics captures refresh-cycle health signals.
type PipelineMetrics struct {
	refreshRuns         *prometheus.CounterVec
	refreshDuration     prometheus.Histogram
	rowsNormalized      *prometheus.CounterVec
	normalizationErrors *prometheus.CounterVec
	flagsEmitted        *prometheus.CounterVec
	lotsIntegrated      prometheus.Gauge
}

var (
	pipelineOnce sync.Once
	pipeline     *PipelineMetrics
)

// Pipeline returns the process-wide pipeline metrics instance.
func Pipeline() *PipelineMetrics {
	pipelineOnce.Do(func() {
		pipeline = &PipelineMetrics{
			refreshRuns: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "opshub_refresh_runs_total",
				Help: "Refresh cycles by outcome.",
			}, []string{"status"}),
			refreshDuration: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "opshub_refresh_duration_seconds",
				Help:    "Duration of a full refresh cycle.",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
			}),
			rowsNormalized: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "opshub_rows_normalized_total",
				Help: "Rows normalized by source.",
			}, []string{"source"}),
			normalizationErrors: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "opshub_normalization_errors_total",
				Help: "Per-row normalization failures by source.",
			}, []string{"source"}),
			flagsEmitted: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "opshub_integrity_flags_emitted_total",
				Help: "Integrity flags emitted by severity.",
			}, []string{"severity"}),
			lotsIntegrated: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "opshub_lots_integrated",
				Help: "Lots in the most recently published snapshot.",
			}),
		}
	})
	return pipeline
}

func (m *PipelineMetrics) IncRefreshRun(status string) {
	m.refreshRuns.WithLabelValues(status).Inc()
}

func (m *PipelineMetrics) ObserveRefreshDuration(seconds float64) {
	m.refreshDuration.Observe(seconds)
}

func (m *PipelineMetrics) AddRowsNormalized(source string, n int) {
	m.rowsNormalized.WithLabelValues(source).Add(float64(n))
}

func (m *PipelineMetrics) AddNormalizationErrors(source string, n int) {
	m.normalizationErrors.WithLabelValues(source).Add(float64(n))
}

func (m *PipelineMetrics) AddFlagsEmitted(severity string, n int) {
	m.flagsEmitted.WithLabelValues(severity).Add(float64(n))
}

func (m *PipelineMetrics) SetLotsIntegrated(n int) {
	m.lotsIntegrated.Set(float64(n))
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	quotesResolved *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	breadthRatio   *prometheus.GaugeVec
	coverage       prometheus.Gauge
	eventsEmitted  *prometheus.CounterVec
	latency        *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		quotesResolved: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "breadthpulse_quotes_resolved_total",
				Help: "Quotes resolved per provider and price field",
			},
			[]string{"provider", "field"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "breadthpulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		breadthRatio: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "breadthpulse_breadth_ratio",
				Help: "Latest breadth ratio per evaluation day",
			},
			[]string{"day"},
		),
		coverage: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "breadthpulse_universe_coverage",
				Help: "Symbols with a usable series in the latest poll",
			},
		),
		eventsEmitted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "breadthpulse_alert_events_total",
				Help: "Alert events emitted by type",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "breadthpulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordQuote records a resolved quote with its provenance.
func (r *Recorder) RecordQuote(provider, field string) {
	r.quotesResolved.WithLabelValues(provider, field).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordBreadth records the latest breadth ratio for an evaluation day.
func (r *Recorder) RecordBreadth(day string, ratio float64) {
	r.breadthRatio.WithLabelValues(day).Set(ratio)
}

// RecordCoverage records the valid-symbol count of the latest poll.
func (r *Recorder) RecordCoverage(n int) {
	r.coverage.Set(float64(n))
}

// RecordEvent records an emitted alert event.
func (r *Recorder) RecordEvent(kind string) {
	r.eventsEmitted.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

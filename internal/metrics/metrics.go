// ABOUTME: Prometheus collectors for recovery engine operations.
// ABOUTME: A nil *Collector is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the engine's Prometheus metrics.
type Collector struct {
	ScoresComputed  *prometheus.CounterVec
	Confidence      prometheus.Histogram
	DecisionsLogged *prometheus.CounterVec
	TrendsDetected  *prometheus.CounterVec
	StoreErrors     *prometheus.CounterVec
	OpDuration      *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		ScoresComputed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recovery_scores_computed_total",
				Help: "Total number of recovery scores computed by category",
			},
			[]string{"category"},
		),

		Confidence: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "recovery_score_confidence",
				Help:    "Confidence of computed recovery scores (0.0 to 1.0)",
				Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
			},
		),

		DecisionsLogged: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recovery_decisions_logged_total",
				Help: "Total number of athlete decisions logged by action",
			},
			[]string{"action"},
		),

		TrendsDetected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recovery_trends_detected_total",
				Help: "Total number of trend reads by result",
			},
			[]string{"trend"},
		),

		StoreErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recovery_store_errors_total",
				Help: "Total number of storage failures by operation",
			},
			[]string{"op"},
		),

		OpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "recovery_operation_duration_seconds",
				Help:    "Duration of engine operations in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
			},
			[]string{"op"},
		),
	}

	for _, col := range []prometheus.Collector{
		c.ScoresComputed, c.Confidence, c.DecisionsLogged, c.TrendsDetected, c.StoreErrors, c.OpDuration,
	} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ObserveScore records one computed score.
func (c *Collector) ObserveScore(category string, confidence float64) {
	if c == nil {
		return
	}
	c.ScoresComputed.WithLabelValues(category).Inc()
	c.Confidence.Observe(confidence)
}

// ObserveDecision records one logged decision.
func (c *Collector) ObserveDecision(action string) {
	if c == nil {
		return
	}
	c.DecisionsLogged.WithLabelValues(action).Inc()
}

// ObserveTrend records a trend read; "none" when too few scores existed.
func (c *Collector) ObserveTrend(trend string) {
	if c == nil {
		return
	}
	if trend == "" {
		trend = "none"
	}
	c.TrendsDetected.WithLabelValues(trend).Inc()
}

// ObserveStoreError records a storage failure for op.
func (c *Collector) ObserveStoreError(op string) {
	if c == nil {
		return
	}
	c.StoreErrors.WithLabelValues(op).Inc()
}

// Timer starts timing op; call the returned func when the operation ends.
func (c *Collector) Timer(op string) func() {
	if c == nil {
		return func() {}
	}
	t := prometheus.NewTimer(c.OpDuration.WithLabelValues(op))
	return func() { t.ObserveDuration() }
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

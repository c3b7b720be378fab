package engine

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/daryltucker/variant-runner/internal/model"
)

// Metrics records per-unit dispatch statistics.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	units    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	tokens   *prometheus.CounterVec
	inFlight prometheus.Gauge
}

// NewMetrics registers the dispatcher metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		units: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "variant_runner",
			Name:      "units_total",
			Help:      "Experiment units completed, by model and status",
		}, []string{"model", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "variant_runner",
			Name:      "unit_duration_seconds",
			Help:      "Wall time of one generation call",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10), // 250ms to ~2m
		}, []string{"model"}),
		tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "variant_runner",
			Name:      "tokens_total",
			Help:      "Tokens consumed, by model and direction",
		}, []string{"model", "direction"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "variant_runner",
			Name:      "units_in_flight",
			Help:      "Generation calls currently running",
		}),
	}
	reg.MustRegister(m.units, m.duration, m.tokens, m.inFlight)
	return m
}

func (m *Metrics) started() {
	if m == nil {
		return
	}
	m.inFlight.Inc()
}

func (m *Metrics) observe(rec model.ResultRecord) {
	if m == nil {
		return
	}
	m.inFlight.Dec()

	status := "ok"
	if rec.Failed() {
		status = "error"
	}
	m.units.WithLabelValues(rec.Model, status).Inc()
	m.duration.WithLabelValues(rec.Model).Observe(rec.Elapsed.Seconds())
	m.tokens.WithLabelValues(rec.Model, "input").Add(float64(rec.InputTokens))
	m.tokens.WithLabelValues(rec.Model, "output").Add(float64(rec.OutputTokens))
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	analyses     *prometheus.CounterVec
	stageLatency *prometheus.HistogramVec
	cacheEvents  *prometheus.CounterVec
	upstream     *prometheus.CounterVec
	breakerState prometheus.Gauge
	errorsTotal  *prometheus.CounterVec
	lastPrice    *prometheus.GaugeVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		analyses: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockgate_analyses_total",
				Help: "Total number of analysis invocations by protocol and outcome",
			},
			[]string{"protocol", "outcome"},
		),
		stageLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockgate_stage_duration_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		cacheEvents: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockgate_cache_events_total",
				Help: "Quote cache events by kind and event",
			},
			[]string{"kind", "event"},
		),
		upstream: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockgate_upstream_attempts_total",
				Help: "Market data upstream attempts by operation and result",
			},
			[]string{"operation", "result"},
		),
		breakerState: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "stockgate_breaker_state",
				Help: "Circuit breaker state: 0 closed, 1 open, 2 half-open",
			},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockgate_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stockgate_last_price",
				Help: "Last observed price for a symbol",
			},
			[]string{"symbol"},
		),
	}
}

// RecordAnalysis records one completed pipeline invocation.
func (r *Recorder) RecordAnalysis(protocol, outcome string, seconds float64) {
	r.analyses.WithLabelValues(protocol, outcome).Inc()
	r.stageLatency.WithLabelValues("total").Observe(seconds)
}

// RecordStageLatency records one pipeline stage duration.
func (r *Recorder) RecordStageLatency(stage string, seconds float64) {
	r.stageLatency.WithLabelValues(stage).Observe(seconds)
}

// RecordCacheEvent records a quote cache hit, miss, or stale serve.
func (r *Recorder) RecordCacheEvent(kind, event string) {
	r.cacheEvents.WithLabelValues(kind, event).Inc()
}

// RecordUpstreamAttempt records one market data attempt outcome.
func (r *Recorder) RecordUpstreamAttempt(op, result string) {
	r.upstream.WithLabelValues(op, result).Inc()
}

// SetBreakerState publishes the circuit breaker state.
func (r *Recorder) SetBreakerState(state float64) {
	r.breakerState.Set(state)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

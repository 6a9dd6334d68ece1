// Package metrics exposes Prometheus collectors for the HTTP surface and the
// signal pipeline. Recording methods are safe on a nil *Registry so that
// metrics can be disabled without guarding every call site.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Signal lifecycle
	signalsCreated  *prometheus.CounterVec
	signalsClosed   *prometheus.CounterVec
	signalsRejected *prometheus.CounterVec
	signalsActive   *prometheus.GaugeVec

	// Pipeline
	samplesTotal     *prometheus.CounterVec
	analysisCycles   prometheus.Counter
	analysisDuration prometheus.Histogram
	confluenceScore  *prometheus.GaugeVec
	watchlistSymbols prometheus.Gauge

	// Event sinks
	eventsPublished *prometheus.CounterVec
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	r.signalsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentinel_signals_created_total",
			Help: "Total number of signals created",
		},
		[]string{"symbol", "type"},
	)
	r.signalsClosed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentinel_signals_closed_total",
			Help: "Total number of signals that reached a terminal status",
		},
		[]string{"status"},
	)
	r.signalsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentinel_signals_rejected_total",
			Help: "Candidate signals rejected by the factory or deduplication",
		},
		[]string{"reason"},
	)
	r.signalsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sentinel_signals_active",
			Help: "Number of active signals per symbol",
		},
		[]string{"symbol"},
	)
	r.samplesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentinel_samples_total",
			Help: "Price samples received, by validation result",
		},
		[]string{"symbol", "result"},
	)
	r.analysisCycles = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sentinel_analysis_cycles_total",
			Help: "Total number of polling cycles completed",
		},
	)
	r.analysisDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sentinel_analysis_duration_seconds",
			Help:    "Polling cycle duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
	r.confluenceScore = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sentinel_confluence_score",
			Help: "Latest bull/bear confluence percentage per symbol",
		},
		[]string{"symbol", "side"},
	)
	r.watchlistSymbols = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sentinel_watchlist_symbols",
			Help: "Number of symbols in watchlist",
		},
	)
	r.eventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentinel_events_published_total",
			Help: "Lifecycle events delivered to sinks",
		},
		[]string{"sink", "status"},
	)

	reg.MustRegister(r.signalsCreated)
	reg.MustRegister(r.signalsClosed)
	reg.MustRegister(r.signalsRejected)
	reg.MustRegister(r.signalsActive)
	reg.MustRegister(r.samplesTotal)
	reg.MustRegister(r.analysisCycles)
	reg.MustRegister(r.analysisDuration)
	reg.MustRegister(r.confluenceScore)
	reg.MustRegister(r.watchlistSymbols)
	reg.MustRegister(r.eventsPublished)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	if r == nil {
		return
	}
	r.httpRequestsTotal.WithLabelValues(method, path, statusToString(status)).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	if r == nil {
		return
	}
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	if r == nil {
		return
	}
	r.httpRequestsInFlight.Dec()
}

// RecordSignalCreated counts a registered signal.
func (r *Registry) RecordSignalCreated(symbol, signalType string) {
	if r == nil {
		return
	}
	r.signalsCreated.WithLabelValues(symbol, signalType).Inc()
}

// RecordSignalClosed counts a terminal transition.
func (r *Registry) RecordSignalClosed(status string) {
	if r == nil {
		return
	}
	r.signalsClosed.WithLabelValues(status).Inc()
}

// RecordSignalRejected counts a rejected candidate.
func (r *Registry) RecordSignalRejected(reason string) {
	if r == nil {
		return
	}
	r.signalsRejected.WithLabelValues(reason).Inc()
}

// SetActiveSignals sets the active signal gauge of a symbol.
func (r *Registry) SetActiveSignals(symbol string, n int) {
	if r == nil {
		return
	}
	r.signalsActive.WithLabelValues(symbol).Set(float64(n))
}

// RecordSample counts a received sample. result is accepted, invalid,
// duplicate or error.
func (r *Registry) RecordSample(symbol, result string) {
	if r == nil {
		return
	}
	r.samplesTotal.WithLabelValues(symbol, result).Inc()
}

// RecordAnalysisCycle records a polling cycle completion.
func (r *Registry) RecordAnalysisCycle(duration float64) {
	if r == nil {
		return
	}
	r.analysisCycles.Inc()
	r.analysisDuration.Observe(duration)
}

// SetConfluence publishes the latest bull and bear percentages.
func (r *Registry) SetConfluence(symbol string, bull, bear float64) {
	if r == nil {
		return
	}
	r.confluenceScore.WithLabelValues(symbol, "bull").Set(bull)
	r.confluenceScore.WithLabelValues(symbol, "bear").Set(bear)
}

// SetWatchlistSize sets the watchlist size.
func (r *Registry) SetWatchlistSize(size int) {
	if r == nil {
		return
	}
	r.watchlistSymbols.Set(float64(size))
}

// RecordEventPublished counts a sink delivery attempt.
func (r *Registry) RecordEventPublished(sink, status string) {
	if r == nil {
		return
	}
	r.eventsPublished.WithLabelValues(sink, status).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.Registry, promhttp.HandlerOpts{Registry: r.Registry})
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}

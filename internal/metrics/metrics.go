package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Business metrics
	fetchesTotal     *prometheus.CounterVec
	fetchDuration    *prometheus.HistogramVec
	cacheLookups     *prometheus.CounterVec
	conversionsTotal *prometheus.CounterVec
	compositions     *prometheus.CounterVec
	asksTotal        *prometheus.CounterVec
	askDuration      prometheus.Histogram
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

	// Business metrics
	r.fetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cryptodesk_upstream_fetches_total",
			Help: "Total number of upstream fetches by provider and outcome",
		},
		[]string{"provider", "kind", "outcome"},
	)
	r.fetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cryptodesk_upstream_fetch_duration_seconds",
			Help:    "Upstream fetch duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "kind"},
	)
	r.cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cryptodesk_cache_lookups_total",
			Help: "Total number of cache lookups by cache and result",
		},
		[]string{"cache", "result"},
	)
	r.conversionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cryptodesk_conversions_total",
			Help: "Total number of currency conversions by route",
		},
		[]string{"route"},
	)
	r.compositions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cryptodesk_compositions_total",
			Help: "Total number of composed responses by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)
	r.asksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cryptodesk_asks_total",
			Help: "Total number of answered queries by status",
		},
		[]string{"status"},
	)
	r.askDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cryptodesk_ask_duration_seconds",
			Help:    "End-to-end query duration in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)

	reg.MustRegister(r.fetchesTotal)
	reg.MustRegister(r.fetchDuration)
	reg.MustRegister(r.cacheLookups)
	reg.MustRegister(r.conversionsTotal)
	reg.MustRegister(r.compositions)
	reg.MustRegister(r.asksTotal)
	reg.MustRegister(r.askDuration)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordFetch records one upstream call. kind is price, pair, stats or news.
func (r *Registry) RecordFetch(provider, kind string, ok bool, duration float64) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	r.fetchesTotal.WithLabelValues(provider, kind, outcome).Inc()
	r.fetchDuration.WithLabelValues(provider, kind).Observe(duration)
}

// CacheHit implements cache.Recorder.
func (r *Registry) CacheHit(cache string) {
	r.cacheLookups.WithLabelValues(cache, "hit").Inc()
}

// CacheMiss implements cache.Recorder.
func (r *Registry) CacheMiss(cache string) {
	r.cacheLookups.WithLabelValues(cache, "miss").Inc()
}

// RecordConversion records a conversion attempt by route, "unsupported" on failure.
func (r *Registry) RecordConversion(route string) {
	r.conversionsTotal.WithLabelValues(route).Inc()
}

// RecordComposition records whether the LLM produced the answer or the
// fallback template did.
func (r *Registry) RecordComposition(provider string, generated bool) {
	outcome := "generated"
	if !generated {
		outcome = "fallback"
	}
	r.compositions.WithLabelValues(provider, outcome).Inc()
}

// RecordAsk records a completed query.
func (r *Registry) RecordAsk(status string, duration float64) {
	r.asksTotal.WithLabelValues(status).Inc()
	r.askDuration.Observe(duration)
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

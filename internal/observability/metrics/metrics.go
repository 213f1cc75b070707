package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics exposes request counters/histograms for the API surface.
type HTTPMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	m := &HTTPMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "realty",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests served",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "realty",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency of HTTP requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.requestDuration)
	return m
}

func (m *HTTPMetrics) ObserveRequest(method, route string, status int, seconds float64) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(seconds)
}

// PropertyMetrics tracks cache effectiveness and upstream provider health.
type PropertyMetrics struct {
	cacheLookups    *prometheus.CounterVec
	providerFetches *prometheus.CounterVec
	providerLatency *prometheus.HistogramVec
}

func NewPropertyMetrics(reg prometheus.Registerer) *PropertyMetrics {
	m := &PropertyMetrics{
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "realty",
			Subsystem: "properties",
			Name:      "cache_lookups_total",
			Help:      "Property search cache lookups by result",
		}, []string{"result"}),
		providerFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "realty",
			Subsystem: "properties",
			Name:      "provider_fetch_total",
			Help:      "Listing provider fetches by outcome",
		}, []string{"provider", "outcome"}),
		providerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "realty",
			Subsystem: "properties",
			Name:      "provider_fetch_seconds",
			Help:      "Latency of listing provider fetches",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60, 90, 120},
		}, []string{"provider"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.cacheLookups, m.providerFetches, m.providerLatency)
	return m
}

func (m *PropertyMetrics) ObserveCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

func (m *PropertyMetrics) ObserveProviderFetch(provider string, err error, seconds float64) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.providerFetches.WithLabelValues(provider, outcome).Inc()
	m.providerLatency.WithLabelValues(provider).Observe(seconds)
}

// Package metrics exposes Prometheus instruments for the HTTP server and
// the schedule cache.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "parsha"

// Metrics owns a private registry so tests and multiple servers in one
// process do not collide on the global one.
type Metrics struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec

	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
	cacheEvictions prometheus.Counter

	materialized *prometheus.CounterVec
}

// New registers every instrument, plus the Go runtime and process
// collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sedra_cache",
			Name:      "hits_total",
			Help:      "Schedule lookups answered from the cache.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sedra_cache",
			Name:      "misses_total",
			Help:      "Schedules built because they were not cached.",
		}),
		cacheEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sedra_cache",
			Name:      "evictions_total",
			Help:      "Schedules dropped to stay within the cache size.",
		}),
		materialized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "schedule",
			Name:      "years_materialized_total",
			Help:      "Years written to the schedule store, by location.",
		}, []string{"location"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.duration,
		m.cacheHits,
		m.cacheMisses,
		m.cacheEvictions,
		m.materialized,
	)
	return m
}

// Registry returns the registry the instruments live on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRequest records one finished HTTP request. route is the router
// pattern ("/api/v1/sedra/date/{date}"), never the raw path.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(d.Seconds())
}

// CacheHit implements sedra.Observer.
func (m *Metrics) CacheHit() { m.cacheHits.Inc() }

// CacheMiss implements sedra.Observer.
func (m *Metrics) CacheMiss() { m.cacheMisses.Inc() }

// CacheEvict implements sedra.Observer.
func (m *Metrics) CacheEvict() { m.cacheEvictions.Inc() }

// YearsMaterialized counts n years written to the schedule store.
func (m *Metrics) YearsMaterialized(il bool, n int) {
	m.materialized.WithLabelValues(Location(il)).Add(float64(n))
}

// Location is the label value for the Israel flag.
func Location(il bool) string {
	if il {
		return "israel"
	}
	return "diaspora"
}

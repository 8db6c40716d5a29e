package observability

import (
	"errors"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
		},
		[]string{"method", "route", "status"},
	)

	upstreamLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_latency_seconds",
			Help:    "Latency of upstream calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"upstream"},
	)

	townFetchErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "town_fetch_errors_total",
			Help: "Town data fetches that failed and left the map unchanged.",
		},
	)

	reloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "map_reloads_total",
			Help: "Map reloads by mode and outcome (applied, stale, error).",
		},
		[]string{"mode", "outcome"},
	)

	markersRendered = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "map_markers_rendered",
			Help: "Markers currently in the scene, by mode.",
		},
		[]string{"mode"},
	)

	renderDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "map_render_duration_seconds",
			Help:    "Time spent serializing the scene, by output format.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		},
		[]string{"format"},
	)

	cacheResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_results_total",
			Help: "Cache results by cache and outcome.",
		},
		[]string{"cache", "outcome"},
	)

	cacheOpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cache_op_duration_seconds",
			Help:    "Duration of redis cache operations.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"op", "result"},
	)
)

var registerOnce sync.Once

// Init registers the collectors with reg. Only the first call has an effect.
func Init(reg prometheus.Registerer) {
	if reg == nil {
		return
	}
	registerOnce.Do(func() {
		for _, c := range []prometheus.Collector{
			httpRequestsTotal,
			httpRequestDurationSeconds,
			upstreamLatencySeconds,
			townFetchErrors,
			reloadsTotal,
			markersRendered,
			renderDurationSeconds,
			cacheResults,
			cacheOpDurationSeconds,
		} {
			if err := reg.Register(c); err != nil {
				var are prometheus.AlreadyRegisteredError
				if !errors.As(err, &are) {
					panic(err)
				}
			}
		}
	})
}

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

func ObserveUpstreamLatency(upstream string, durationSeconds float64) {
	upstreamLatencySeconds.WithLabelValues(upstream).Observe(durationSeconds)
}

func IncTownFetchError() { townFetchErrors.Inc() }

func IncReload(mode, outcome string) {
	reloadsTotal.WithLabelValues(mode, outcome).Inc()
}

// SetMarkers records the marker count for the active mode and zeroes the others.
func SetMarkers(active string, n int, modes ...string) {
	for _, m := range modes {
		if m != active {
			markersRendered.WithLabelValues(m).Set(0)
		}
	}
	markersRendered.WithLabelValues(active).Set(float64(n))
}

func ObserveRender(format string, durationSeconds float64) {
	renderDurationSeconds.WithLabelValues(format).Observe(durationSeconds)
}

func IncCacheHit(cache string) {
	cacheResults.WithLabelValues(cache, "hit").Inc()
}

func IncCacheMiss(cache string) {
	cacheResults.WithLabelValues(cache, "miss").Inc()
}

func ObserveCacheOp(op string, err error, durationSeconds float64) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	cacheOpDurationSeconds.WithLabelValues(op, result).Observe(durationSeconds)
}

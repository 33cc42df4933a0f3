// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	planCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediagate_plan_cache_lookups_total",
		Help: "Plan cache lookups by result",
	}, []string{"result"})

	journalWriteTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediagate_journal_writes_total",
		Help: "Outcome journal writes by result",
	}, []string{"result"})

	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediagate_http_requests_total",
		Help: "HTTP requests by route pattern and status class",
	}, []string{"route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mediagate_http_request_duration_seconds",
		Help:    "HTTP request latency by route pattern",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	backendBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "mediagate_backend_breaker_state",
		Help: "Backend circuit breaker state (0 closed, 1 half-open, 2 open)",
	}, []string{"backend"})

	backendBreakerTrips = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediagate_backend_breaker_trips_total",
		Help: "Backend circuit breaker openings by cause (threshold, probe_failed)",
	}, []string{"backend", "cause"})

	backendBreakerRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediagate_backend_breaker_rejected_total",
		Help: "Backend calls short-circuited while the breaker was not accepting traffic",
	}, []string{"backend"})
)

var breakerStateValues = map[string]float64{"closed": 0, "half-open": 1, "open": 2}

// RecordPlanCache records a plan cache hit or miss.
func RecordPlanCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	planCacheTotal.WithLabelValues(result).Inc()
}

// RecordJournalWrite records the result of appending an outcome to the journal.
func RecordJournalWrite(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	journalWriteTotal.WithLabelValues(result).Inc()
}

// RecordHTTPRequest records one served request. route is the router pattern,
// never the raw path, to keep label cardinality bounded.
func RecordHTTPRequest(route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequestsTotal.WithLabelValues(route, statusClass(status)).Inc()
	httpRequestDuration.WithLabelValues(route).Observe(d.Seconds())
}

func statusClass(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return fmt.Sprintf("%dxx", status/100)
}

// SetBreakerState publishes the breaker state of a backend such as the Redis
// plan cache. Unknown states are ignored.
func SetBreakerState(backend, state string) {
	if v, ok := breakerStateValues[state]; ok {
		backendBreakerState.WithLabelValues(backend).Set(v)
	}
}

// RecordBreakerTrip counts a transition to open. probeFailed distinguishes a
// failed half-open probe from crossing the failure threshold.
func RecordBreakerTrip(backend string, probeFailed bool) {
	cause := "threshold"
	if probeFailed {
		cause = "probe_failed"
	}
	backendBreakerTrips.WithLabelValues(backend, cause).Inc()
}

// RecordBreakerRejected counts a call the breaker refused to make.
func RecordBreakerRejected(backend string) {
	backendBreakerRejected.WithLabelValues(backend).Inc()
}

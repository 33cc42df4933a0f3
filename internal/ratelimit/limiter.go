// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package ratelimit caps API throughput across all clients. Per-client
// limits are applied separately by the router.
package ratelimit

import (
	"net"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

// Route classes with their own budget.
const (
	RoutePlan      = "plan"
	RouteNegotiate = "negotiate"
)

var rateLimitExceeded = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "mediagate",
		Name:      "ratelimit_exceeded_total",
		Help:      "Total rate limit rejections",
	},
	[]string{"limit_type", "route"},
)

// Config holds token bucket settings.
type Config struct {
	GlobalRate  rate.Limit
	GlobalBurst int

	RouteRates map[string]rate.Limit
	RouteBurst map[string]int
}

// ConfigFromRPS builds a Config from requests-per-second budgets. Bursts
// are twice the rate.
func ConfigFromRPS(globalRPS, negotiateRPS int) Config {
	return Config{
		GlobalRate:  rate.Limit(globalRPS),
		GlobalBurst: 2 * globalRPS,
		RouteRates:  map[string]rate.Limit{RouteNegotiate: rate.Limit(negotiateRPS)},
		RouteBurst:  map[string]int{RouteNegotiate: 2 * negotiateRPS},
	}
}

// Limiter checks a global bucket and then a per-route bucket. It is
// immutable after New; build a new one to change limits.
type Limiter struct {
	global   *rate.Limiter
	perRoute map[string]*rate.Limiter
}

func New(cfg Config) *Limiter {
	l := &Limiter{
		global:   rate.NewLimiter(cfg.GlobalRate, cfg.GlobalBurst),
		perRoute: make(map[string]*rate.Limiter, len(cfg.RouteRates)),
	}
	for route, r := range cfg.RouteRates {
		l.perRoute[route] = rate.NewLimiter(r, cfg.RouteBurst[route])
	}
	return l
}

// Allow reports whether a request on route may proceed. Routes without a
// budget of their own only consume the global bucket.
func (l *Limiter) Allow(route string) bool {
	if !l.global.Allow() {
		rateLimitExceeded.WithLabelValues("global", route).Inc()
		return false
	}
	if rl, ok := l.perRoute[route]; ok && !rl.Allow() {
		rateLimitExceeded.WithLabelValues("per_route", route).Inc()
		return false
	}
	return true
}

// Middleware rejects requests over budget by calling onLimited instead of next.
func (l *Limiter) Middleware(route string, onLimited http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(route) {
				onLimited(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP extracts the client address, preferring the first
// X-Forwarded-For entry, then X-Real-IP, then the connection peer.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

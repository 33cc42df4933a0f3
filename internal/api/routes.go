// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ManuGH/mediagate/internal/config"
	"github.com/ManuGH/mediagate/internal/ratelimit"
)

func (s *Server) routes(limits config.APIConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(recoverer)
	r.Use(requestID)
	r.Use(tracing)
	r.Use(accessLog)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, codeNotFound, "no such endpoint")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, codeMethodNotAllowed, r.Method+" not allowed here")
	})

	r.Get("/healthz", s.health.ServeHealth)
	r.Get("/readyz", s.health.ServeReady)
	r.Handle("/metrics", promhttp.Handler())

	global := ratelimit.New(ratelimit.ConfigFromRPS(limits.GlobalRPS, limits.NegotiateRPS))
	onGlobalLimit := limited(time.Second)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/openapi.yaml", handleOpenAPI)

		r.Group(func(r chi.Router) {
			r.Use(perClientLimit(limits.RateLimit))

			r.With(global.Middleware(ratelimit.RoutePlan, onGlobalLimit)).Post("/plan", s.handlePlan)
			r.With(global.Middleware(ratelimit.RouteNegotiate, onGlobalLimit)).Post("/negotiate", s.handleNegotiate)
			r.Get("/outcomes", s.handleOutcomes)
			r.Get("/outcomes/summary", s.handleOutcomeSummary)
		})
	})
	return r
}

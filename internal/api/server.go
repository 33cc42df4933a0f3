// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package api exposes negotiation planning and simulated negotiations over HTTP.
package api

import (
	"context"
	"net/http"
	"sync/atomic"

	"github.com/ManuGH/mediagate/internal/cache"
	"github.com/ManuGH/mediagate/internal/config"
	"github.com/ManuGH/mediagate/internal/health"
	"github.com/ManuGH/mediagate/internal/journal"
	"github.com/ManuGH/mediagate/internal/log"
	"github.com/ManuGH/mediagate/internal/version"
)

// Journal records terminal outcomes. *journal.Store implements it.
type Journal interface {
	Record(ctx context.Context, e journal.Entry) error
	Recent(ctx context.Context, limit int) ([]journal.Entry, error)
	Counts(ctx context.Context) (map[string]int, error)
	Ping(ctx context.Context) error
}

// Server serves the HTTP API. The configuration and router are swapped
// atomically by Apply, so requests in flight finish on the router they
// started on.
type Server struct {
	cfg     atomic.Pointer[config.AppConfig]
	handler atomic.Pointer[http.Handler]

	plans   cache.Cache
	journal Journal
	health  *health.Manager
}

// Option configures a Server.
type Option func(*Server)

// WithPlanCache sets the plan cache. Without it plans are always computed.
func WithPlanCache(c cache.Cache) Option {
	return func(s *Server) { s.plans = c }
}

// WithJournal enables outcome recording and the outcome endpoints.
func WithJournal(j Journal) Option {
	return func(s *Server) { s.journal = j }
}

// New builds a server for cfg.
func New(cfg config.AppConfig, opts ...Option) *Server {
	s := &Server{plans: cache.NoOp{}}
	for _, opt := range opts {
		opt(s)
	}

	s.health = health.NewManager(version.Version)
	s.health.RegisterChecker(health.NewConfigChecker(s.Config))
	s.health.RegisterChecker(health.NewSelfTestChecker(s.Config))
	if s.journal != nil {
		s.health.RegisterChecker(health.NewPingChecker("journal", s.journal.Ping))
	}
	if p, ok := s.plans.(interface{ Ping(context.Context) error }); ok {
		s.health.RegisterChecker(health.NewPingChecker("plan_cache", p.Ping))
	}

	s.cfg.Store(&cfg)
	s.rebuild(cfg)
	return s
}

// Config returns the configuration requests are currently served with.
func (s *Server) Config() config.AppConfig {
	return *s.cfg.Load()
}

// Apply switches to cfg. Rate limiters are rebuilt only when the API
// limits changed, which resets their windows.
func (s *Server) Apply(cfg config.AppConfig) {
	old := s.cfg.Swap(&cfg)
	if old.API != cfg.API {
		s.rebuild(cfg)
		logger := log.WithComponent("api")
		logger.Info().
			Str(log.FieldEvent, "api.limits_applied").
			Int("rate_limit", cfg.API.RateLimit).
			Int("global_rps", cfg.API.GlobalRPS).
			Int("negotiate_rps", cfg.API.NegotiateRPS).
			Msg("rate limits updated")
	}
}

func (s *Server) rebuild(cfg config.AppConfig) {
	h := s.routes(cfg.API)
	s.handler.Store(&h)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	(*s.handler.Load()).ServeHTTP(w, r)
}

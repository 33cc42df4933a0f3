// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package playback runs negotiations for the CLI and the HTTP API: it turns
// a request plus the effective configuration into a probe, a device profile
// and a simulated runtime, and collects the single terminal outcome.
package playback

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/mediagate/internal/config"
	"github.com/ManuGH/mediagate/internal/log"
	"github.com/ManuGH/mediagate/internal/media"
	"github.com/ManuGH/mediagate/internal/negotiation"
	"github.com/ManuGH/mediagate/internal/surface"
	"github.com/ManuGH/mediagate/internal/telemetry"
)

const tracerName = "github.com/ManuGH/mediagate/internal/playback"

// ErrNoOutcome is returned when a simulated runtime settles without the
// negotiator reaching a terminal state.
var ErrNoOutcome = errors.New("negotiation finished without an outcome")

// Request describes one negotiation.
type Request struct {
	Category  media.Category
	UserAgent string
	Sources   []media.Source
	// CanPlay holds native type-query answers keyed by MIME type. Empty
	// means the runtime is described by the configured client only.
	CanPlay map[string]string
	// Failing lists candidate URIs the simulated runtime fails to play.
	Failing []string
	Family  surface.Family
	// DefaultSource, when set and valid, replaces Sources.
	DefaultSource *media.Source
	BaseURL       string
}

// Result is the terminal outcome plus what the simulated runtime saw.
type Result struct {
	negotiation.Outcome
	Family   string `json:"family"`
	Platform string `json:"platform,omitempty"`
	// PlayRequests counts explicit play requests made on user activation.
	PlayRequests int `json:"play_requests,omitempty"`
}

// Plan runs only the synchronous probe and pruning steps.
func Plan(ctx context.Context, cfg config.AppConfig, req Request) (negotiation.Plan, error) {
	ctx, span := telemetry.Tracer(tracerName).Start(ctx, "playback.plan",
		trace.WithAttributes(telemetry.RequestAttributes(string(req.Category), "", len(req.Sources))...))
	defer span.End()

	n, err := newNegotiator(ctx, cfg, req, negotiation.Config{})
	if err != nil {
		failSpan(span, err, "config")
		return negotiation.Plan{}, err
	}
	plan := n.Plan(req.Category, req.DefaultSource, req.Sources)
	span.SetAttributes(telemetry.PlanAttributes(len(plan.Candidates), len(plan.Pruned), plan.LastResortURI)...)
	return plan, nil
}

// Negotiate runs a full negotiation against a simulated runtime.
func Negotiate(ctx context.Context, cfg config.AppConfig, req Request) (Result, error) {
	ctx, span := telemetry.Tracer(tracerName).Start(ctx, "playback.negotiate",
		trace.WithAttributes(telemetry.RequestAttributes(string(req.Category), req.Family.String(), len(req.Sources))...))
	defer span.End()

	res, err := negotiate(ctx, cfg, req)
	if err != nil {
		failSpan(span, err, errorType(err))
		return Result{}, err
	}

	selected := ""
	if res.Selected != nil {
		selected = res.Selected.URI
	}
	span.SetAttributes(telemetry.OutcomeAttributes(string(res.Kind), res.SessionID, selected)...)
	return res, nil
}

func negotiate(ctx context.Context, cfg config.AppConfig, req Request) (Result, error) {
	var (
		out  negotiation.Outcome
		done bool
	)
	record := func(o negotiation.Outcome) {
		out = o
		done = true
	}
	n, err := newNegotiator(ctx, cfg, req, negotiation.Config{
		OnReady:        record,
		OnUnsupported:  record,
		OnNoCapability: record,
	})
	if err != nil {
		return Result{}, err
	}

	opts := []surface.Option{surface.WithFailing(req.Failing...)}
	if req.DefaultSource != nil {
		opts = append(opts, surface.WithDefaultSource(*req.DefaultSource))
	}
	if req.BaseURL != "" {
		base, err := NormalizeBaseURL(req.BaseURL)
		if err != nil {
			return Result{}, err
		}
		opts = append(opts, surface.WithBaseURL(base))
	}
	sim := surface.NewSimulated(req.Category, req.Family, opts...)

	if err := n.Load(sim, req.Sources); err != nil {
		return Result{}, fmt.Errorf("load: %w", err)
	}
	device := cfg.DeviceFor(req.UserAgent)
	trace.SpanFromContext(ctx).SetAttributes(
		telemetry.DeviceAttributes(device.Platform, device.UnreliableTypeProbe, device.RequiresActivation)...)
	if !done && device.RequiresActivation {
		sim.Activate()
	}
	sim.Run()

	if !done {
		n.Cancel()
		return Result{}, ErrNoOutcome
	}
	return Result{
		Outcome:      out,
		Family:       req.Family.String(),
		Platform:     device.Platform,
		PlayRequests: sim.Plays(),
	}, nil
}

func newNegotiator(ctx context.Context, cfg config.AppConfig, req Request, base negotiation.Config) (*negotiation.Negotiator, error) {
	device := cfg.DeviceFor(req.UserAgent)
	logger := log.WithComponentFromContext(ctx, "negotiation")
	if device.Platform != "" {
		logger = logger.With().Str(log.FieldPlatform, device.Platform).Logger()
	}

	base.Probe = cfg.Probe(req.CanPlay)
	base.Device = device
	base.Extensions = cfg.ExtensionTable()
	base.Logger = &logger
	return negotiation.New(base)
}

func failSpan(span trace.Span, err error, errType string) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(telemetry.ErrorAttributes(err, errType)...)
}

func errorType(err error) string {
	switch {
	case errors.Is(err, ErrNoOutcome):
		return "no_outcome"
	case errors.Is(err, ErrInvalidBaseURL):
		return "invalid_base_url"
	default:
		return "negotiation"
	}
}

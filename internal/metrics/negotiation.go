// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	negotiationOutcomeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediagate_negotiation_outcome_total",
		Help: "Terminal negotiation outcomes by outcome and media category",
	}, []string{"outcome", "category"})

	negotiationCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mediagate_negotiation_cancelled_total",
		Help: "Negotiation sessions cancelled before a terminal outcome",
	})

	prunedSourcesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediagate_negotiation_pruned_total",
		Help: "Candidate sources dropped before readiness observation, by reason",
	}, []string{"reason"})

	quirkOverrideTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mediagate_negotiation_quirk_override_total",
		Help: "Candidates kept despite a negative type probe on devices with an unreliable probe",
	})

	runtimeErrorTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediagate_negotiation_runtime_error_total",
		Help: "Runtime playback errors by disposition (ignored while candidates remain, terminal on exhaustion, stale after the session ended)",
	}, []string{"disposition"})

	transitionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediagate_negotiation_transition_total",
		Help: "Negotiation state machine transitions",
	}, []string{"from", "to"})

	illegalTransitionTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mediagate_negotiation_illegal_transition_total",
		Help: "Rejected negotiation state machine transitions",
	})
)

// RecordNegotiationOutcome records one terminal outcome.
func RecordNegotiationOutcome(outcome, category string) {
	negotiationOutcomeTotal.WithLabelValues(
		normalizeLabel(outcome, "ready", "unsupported", "no_capability"),
		normalizeLabel(category, "audio", "video"),
	).Inc()
}

// RecordNegotiationCancelled records a session cancelled before completion.
func RecordNegotiationCancelled() {
	negotiationCancelledTotal.Inc()
}

// RecordPrunedSources records n candidates dropped for reason.
func RecordPrunedSources(reason string, n int) {
	if n <= 0 {
		return
	}
	prunedSourcesTotal.WithLabelValues(normalizeLabel(reason, "invalid_uri", "not_playable")).Add(float64(n))
}

// RecordQuirkOverrides records candidates kept by the device-quirk override.
func RecordQuirkOverrides(n int) {
	if n <= 0 {
		return
	}
	quirkOverrideTotal.Add(float64(n))
}

// RecordRuntimeError records how a runtime playback error was handled.
func RecordRuntimeError(disposition string) {
	runtimeErrorTotal.WithLabelValues(normalizeLabel(disposition, "ignored", "terminal", "stale")).Inc()
}

// RecordTransition records one applied state transition.
func RecordTransition(from, to string) {
	transitionTotal.WithLabelValues(normalizeState(from), normalizeState(to)).Inc()
}

// RecordIllegalTransition records a transition rejected by the decision table.
func RecordIllegalTransition() {
	illegalTransitionTotal.Inc()
}

func normalizeState(state string) string {
	return normalizeLabel(state,
		"idle", "probing_category", "pruning_sources", "awaiting_readiness",
		"ready", "unsupported", "no_capability", "cancelled",
	)
}

func normalizeLabel(value string, allowed ...string) string {
	v := strings.ToLower(strings.TrimSpace(value))
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	return "unknown"
}

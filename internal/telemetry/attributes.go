// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys shared by negotiation spans.
const (
	NegotiationCategoryKey   = "negotiation.category"
	NegotiationOutcomeKey    = "negotiation.outcome"
	NegotiationSessionKey    = "negotiation.session_id"
	NegotiationCandidatesKey = "negotiation.candidates"
	NegotiationPrunedKey     = "negotiation.pruned"
	NegotiationLastResortKey = "negotiation.last_resort_uri"
	NegotiationSelectedKey   = "negotiation.selected_uri"
	NegotiationSourcesKey    = "negotiation.sources"

	DevicePlatformKey           = "device.platform"
	DeviceUnreliableProbeKey    = "device.unreliable_type_probe"
	DeviceRequiresActivationKey = "device.requires_activation"

	RuntimeFamilyKey = "runtime.family"
	CacheHitKey      = "cache.hit"

	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// RequestAttributes describes a negotiation before it runs.
func RequestAttributes(category, family string, sources int) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(NegotiationCategoryKey, category),
		attribute.Int(NegotiationSourcesKey, sources),
	}
	if family != "" {
		attrs = append(attrs, attribute.String(RuntimeFamilyKey, family))
	}
	return attrs
}

// PlanAttributes describes the pruning result.
func PlanAttributes(candidates, pruned int, lastResortURI string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(NegotiationCandidatesKey, candidates),
		attribute.Int(NegotiationPrunedKey, pruned),
		attribute.String(NegotiationLastResortKey, lastResortURI),
	}
}

// OutcomeAttributes describes the terminal outcome. selectedURI is omitted
// when nothing was selected.
func OutcomeAttributes(outcome, sessionID, selectedURI string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(NegotiationOutcomeKey, outcome),
		attribute.String(NegotiationSessionKey, sessionID),
	}
	if selectedURI != "" {
		attrs = append(attrs, attribute.String(NegotiationSelectedKey, selectedURI))
	}
	return attrs
}

// DeviceAttributes describes the detected device profile.
func DeviceAttributes(platform string, unreliableTypeProbe, requiresActivation bool) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 3)
	if platform != "" {
		attrs = append(attrs, attribute.String(DevicePlatformKey, platform))
	}
	return append(attrs,
		attribute.Bool(DeviceUnreliableProbeKey, unreliableTypeProbe),
		attribute.Bool(DeviceRequiresActivationKey, requiresActivation),
	)
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(_ error, errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package telemetry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func attrMap(attrs []attribute.KeyValue) map[string]attribute.Value {
	out := make(map[string]attribute.Value, len(attrs))
	for _, kv := range attrs {
		out[string(kv.Key)] = kv.Value
	}
	return out
}

func TestRequestAttributes(t *testing.T) {
	m := attrMap(RequestAttributes("video", "final-only", 3))
	assert.Equal(t, "video", m[NegotiationCategoryKey].AsString())
	assert.Equal(t, int64(3), m[NegotiationSourcesKey].AsInt64())
	assert.Equal(t, "final-only", m[RuntimeFamilyKey].AsString())

	_, ok := attrMap(RequestAttributes("audio", "", 1))[RuntimeFamilyKey]
	assert.False(t, ok)
}

func TestPlanAttributes(t *testing.T) {
	m := attrMap(PlanAttributes(2, 1, "b.webm"))
	assert.Equal(t, int64(2), m[NegotiationCandidatesKey].AsInt64())
	assert.Equal(t, int64(1), m[NegotiationPrunedKey].AsInt64())
	assert.Equal(t, "b.webm", m[NegotiationLastResortKey].AsString())
}

func TestOutcomeAttributes(t *testing.T) {
	assert.Len(t, OutcomeAttributes("unsupported", "sid", ""), 2)

	m := attrMap(OutcomeAttributes("ready", "sid", "a.webm"))
	assert.Equal(t, "ready", m[NegotiationOutcomeKey].AsString())
	assert.Equal(t, "a.webm", m[NegotiationSelectedKey].AsString())
}

func TestDeviceAttributes(t *testing.T) {
	assert.Len(t, DeviceAttributes("", false, false), 2)

	m := attrMap(DeviceAttributes("Linux; Android 13", true, true))
	assert.Equal(t, "Linux; Android 13", m[DevicePlatformKey].AsString())
	assert.True(t, m[DeviceUnreliableProbeKey].AsBool())
	assert.True(t, m[DeviceRequiresActivationKey].AsBool())
}

func TestErrorAttributes(t *testing.T) {
	m := attrMap(ErrorAttributes(errors.New("boom"), "no_outcome"))
	assert.True(t, m[ErrorKey].AsBool())
	assert.Equal(t, "no_outcome", m[ErrorTypeKey].AsString())
}

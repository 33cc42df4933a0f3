// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package playback

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/ManuGH/mediagate/internal/config"
	"github.com/ManuGH/mediagate/internal/media"
	"github.com/ManuGH/mediagate/internal/telemetry"
)

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func spanAttrs(s sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := map[attribute.Key]attribute.Value{}
	for _, kv := range s.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestNegotiate_RecordsSpan(t *testing.T) {
	sr := recordSpans(t)

	res, err := Negotiate(context.Background(), config.Defaults(), Request{
		Category: media.CategoryVideo,
		Sources:  movWebm(),
		CanPlay:  map[string]string{"video/webm": "probably"},
	})
	require.NoError(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "playback.negotiate", spans[0].Name())

	attrs := spanAttrs(spans[0])
	assert.Equal(t, "video", attrs[telemetry.NegotiationCategoryKey].AsString())
	assert.Equal(t, "ready", attrs[telemetry.NegotiationOutcomeKey].AsString())
	assert.Equal(t, res.SessionID, attrs[telemetry.NegotiationSessionKey].AsString())
	assert.Equal(t, "b.webm", attrs[telemetry.NegotiationSelectedKey].AsString())
	assert.False(t, attrs[telemetry.DeviceUnreliableProbeKey].AsBool())
}

func TestNegotiate_SpanMarksErrors(t *testing.T) {
	sr := recordSpans(t)

	_, err := Negotiate(context.Background(), config.Defaults(), Request{
		Category: media.CategoryVideo,
		Sources:  movWebm(),
		BaseURL:  "not a url",
	})
	require.Error(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "invalid_base_url", spanAttrs(spans[0])[telemetry.ErrorTypeKey].AsString())
}

func TestPlan_RecordsSpan(t *testing.T) {
	sr := recordSpans(t)

	_, err := Plan(context.Background(), config.Defaults(), Request{
		Category: media.CategoryVideo,
		Sources:  movWebm(),
		CanPlay:  map[string]string{"video/webm": "probably"},
	})
	require.NoError(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	attrs := spanAttrs(spans[0])
	assert.Equal(t, int64(1), attrs[telemetry.NegotiationCandidatesKey].AsInt64())
	assert.Equal(t, int64(1), attrs[telemetry.NegotiationPrunedKey].AsInt64())
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_ListenAddr(t *testing.T) {
	tests := []struct {
		name    string
		addr    string
		wantErr bool
	}{
		{"all interfaces", ":8089", false},
		{"loopback", "127.0.0.1:8089", false},
		{"ipv6", "[::1]:8089", false},
		{"empty", "", true},
		{"missing port", "localhost", true},
		{"empty port", "localhost:", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.ListenAddr("api.listen", tt.addr)
			assert.Equal(t, tt.wantErr, !v.IsValid(), "err: %v", v.Err())
		})
	}
}

func TestValidator_MimeType(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"plain", "video/mp4", false},
		{"with codecs", `video/mp4; codecs="avc1.42E01E, mp4a.40.2"`, false},
		{"vendor", "application/vnd.apple.mpegurl", false},
		{"no subtype", "video", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.MimeType("extensions.mkv", tt.value)
			assert.Equal(t, tt.wantErr, !v.IsValid(), "err: %v", v.Err())
		})
	}
}

func TestValidator_RangeAndPositive(t *testing.T) {
	v := New()
	v.Range("api.rate_limit", 0, 1, 10000)
	v.Range("api.rate_limit", 120, 1, 10000)
	v.Positive("count", 0)
	v.Positive("count", 3)

	require.Len(t, v.Errors(), 2)
	assert.Equal(t, "api.rate_limit", v.Errors()[0].Field)
	assert.Equal(t, "count", v.Errors()[1].Field)
}

func TestValidator_OneOf(t *testing.T) {
	v := New()
	v.OneOf("log.level", "INFO", []string{"debug", "info"})
	assert.True(t, v.IsValid())

	v.OneOf("log.level", "verbose", []string{"debug", "info"})
	assert.False(t, v.IsValid())
}

func TestValidator_NotEmptyAndFraction(t *testing.T) {
	v := New()
	v.NotEmpty("tracing.endpoint", "  ")
	v.Fraction("tracing.sampling_rate", 0.25)
	v.Fraction("tracing.sampling_rate", 1.5)
	require.Len(t, v.Errors(), 2)
	assert.Equal(t, "tracing.sampling_rate", v.Errors()[1].Field)
	assert.Contains(t, v.Errors()[1].Message, "got 1.5")
}

func TestValidator_HostPort(t *testing.T) {
	tests := []struct {
		addr  string
		valid bool
	}{
		{"localhost:6379", true},
		{"[::1]:6379", true},
		{":6379", false},
		{"localhost", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			v := New()
			v.HostPort("cache.redis_addr", tt.addr)
			assert.Equal(t, tt.valid, v.IsValid())
		})
	}
}

func TestValidationError_Aggregates(t *testing.T) {
	v := New()
	assert.NoError(t, v.Err())

	v.AddError("a", "first", 1)
	err := v.Err()
	require.Error(t, err)
	assert.Equal(t, "validation failed for a: first", err.Error())

	v.AddError("b", "second", 2)
	err = v.Err()

	var ve ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Len(t, ve.Errors(), 2)
	assert.Equal(t, "validation failed for a: first; validation failed for b: second", err.Error())
}

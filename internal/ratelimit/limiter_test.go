// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func allowed(l *Limiter, route string, n int) int {
	ok := 0
	for i := 0; i < n; i++ {
		if l.Allow(route) {
			ok++
		}
	}
	return ok
}

func TestLimiter_GlobalBurst(t *testing.T) {
	l := New(ConfigFromRPS(10, 1000))

	got := allowed(l, RoutePlan, 40)
	// Burst is 20; a token or so may refill while the loop runs.
	assert.GreaterOrEqual(t, got, 20)
	assert.LessOrEqual(t, got, 21)
}

func TestLimiter_RouteBudget(t *testing.T) {
	l := New(ConfigFromRPS(1000, 5))

	got := allowed(l, RouteNegotiate, 30)
	assert.GreaterOrEqual(t, got, 10)
	assert.LessOrEqual(t, got, 11)

	// Plan has no budget of its own and is unaffected.
	assert.True(t, l.Allow(RoutePlan))
}

func TestLimiter_Middleware(t *testing.T) {
	l := New(ConfigFromRPS(1, 1))
	h := l.Middleware(RoutePlan, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := map[int]int{}
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/plan", nil))
		codes[rec.Code]++
	}
	assert.GreaterOrEqual(t, codes[http.StatusNoContent], 2)
	assert.GreaterOrEqual(t, codes[http.StatusTooManyRequests], 1)
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		header map[string]string
		remote string
		want   string
	}{
		{name: "remote addr", remote: "10.0.0.1:5555", want: "10.0.0.1"},
		{name: "remote without port", remote: "10.0.0.1", want: "10.0.0.1"},
		{name: "forwarded chain", header: map[string]string{"X-Forwarded-For": " 203.0.113.7 , 10.0.0.2"}, remote: "10.0.0.1:1", want: "203.0.113.7"},
		{name: "real ip", header: map[string]string{"X-Real-IP": "198.51.100.4"}, remote: "10.0.0.1:1", want: "198.51.100.4"},
		{name: "empty forwarded falls through", header: map[string]string{"X-Forwarded-For": " ,x"}, remote: "10.0.0.1:1", want: "10.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.header {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIP(r))
		})
	}
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ManuGH/mediagate/internal/log"
	"github.com/ManuGH/mediagate/internal/metrics"
	"github.com/ManuGH/mediagate/internal/ratelimit"
	"github.com/ManuGH/mediagate/internal/telemetry"
)

// HeaderRequestID carries the request correlation ID in both directions.
const HeaderRequestID = "X-Request-ID"

const maxRequestIDLen = 128

// recoverer turns handler panics into a logged 500 JSON response.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				buf := make([]byte, 8192)
				n := runtime.Stack(buf, false)

				path := r.URL.Path
				if !utf8.ValidString(path) {
					path = strings.ToValidUTF8(path, "")
				}

				logger := log.WithComponentFromContext(r.Context(), "panic-recovery")
				logger.Error().
					Str(log.FieldEvent, "panic.recovered").
					Str("method", r.Method).
					Str(log.FieldPath, path).
					Interface("panic_value", rec).
					Str("stack_trace", string(buf[:n])).
					Msg("panic recovered in HTTP handler")

				writeError(w, r, http.StatusInternalServerError, codeInternal, "an unexpected error occurred")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// requestID propagates a caller-supplied X-Request-ID or mints a UUID.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(HeaderRequestID))
		if id == "" || len(id) > maxRequestIDLen || !utf8.ValidString(id) {
			id = uuid.New().String()
		}
		w.Header().Set(HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(log.ContextWithRequestID(r.Context(), id)))
	})
}

// tracing starts a server span per request. Probes and scrapes are skipped.
func tracing(next http.Handler) http.Handler {
	return otelhttp.NewHandler(next, telemetry.ServiceName,
		otelhttp.WithFilter(shouldTrace),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

func shouldTrace(r *http.Request) bool {
	switch r.URL.Path {
	case "/healthz", "/readyz", "/metrics":
		return false
	}
	return true
}

// accessLog logs and measures each request by its route pattern.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		route := ""
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			route = rctx.RoutePattern()
		}
		elapsed := time.Since(start)
		metrics.RecordHTTPRequest(route, sw.status, elapsed)

		logger := log.WithComponentFromContext(r.Context(), "api")
		ev := logger.Debug()
		if sw.status >= http.StatusInternalServerError {
			ev = logger.Warn()
		}
		ev.Str(log.FieldEvent, "http.request").
			Str("method", r.Method).
			Str(log.FieldPath, r.URL.Path).
			Str("route", route).
			Int("status", sw.status).
			Int("bytes", sw.bytes).
			Dur("duration", elapsed).
			Msg("request served")
	})
}

// statusWriter captures the status code and body size.
type statusWriter struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func (sw *statusWriter) WriteHeader(code int) {
	if !sw.wroteHeader {
		sw.status = code
		sw.wroteHeader = true
	}
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	if !sw.wroteHeader {
		sw.WriteHeader(http.StatusOK)
	}
	n, err := sw.ResponseWriter.Write(b)
	sw.bytes += n
	return n, err
}

func (sw *statusWriter) Unwrap() http.ResponseWriter {
	return sw.ResponseWriter
}

// perClientLimit allows requestLimit requests per minute per client IP.
func perClientLimit(requestLimit int) func(http.Handler) http.Handler {
	return httprate.Limit(
		requestLimit,
		time.Minute,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return ratelimit.ClientIP(r), nil
		}),
		httprate.WithLimitHandler(limited(time.Minute)),
	)
}

// limited writes a 429 with a Retry-After hint.
func limited(retryAfter time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
		writeError(w, r, http.StatusTooManyRequests, codeRateLimitExceeded, "too many requests, try again later")
	}
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/ManuGH/mediagate/internal/log"
)

// Environment overrides. Each one wins over the file value of the same key.
const (
	EnvLogLevel            = log.EnvLevel
	EnvUserAgent           = "MEDIAGATE_USER_AGENT"
	EnvUnreliableTypeProbe = "MEDIAGATE_UNRELIABLE_TYPE_PROBE"
	EnvRequiresActivation  = "MEDIAGATE_REQUIRES_ACTIVATION"
	EnvListen              = "MEDIAGATE_LISTEN"
	EnvRateLimit           = "MEDIAGATE_RATE_LIMIT"
	EnvGlobalRPS           = "MEDIAGATE_GLOBAL_RPS"
	EnvNegotiateRPS        = "MEDIAGATE_NEGOTIATE_RPS"
	EnvTracingEnabled      = "MEDIAGATE_TRACING_ENABLED"
	EnvTracingExporter     = "MEDIAGATE_TRACING_EXPORTER"
	EnvTracingEndpoint     = "MEDIAGATE_TRACING_ENDPOINT"
	EnvTracingSamplingRate = "MEDIAGATE_TRACING_SAMPLING_RATE"
	EnvPlanTTL             = "MEDIAGATE_PLAN_TTL"
	EnvRedisAddr           = "MEDIAGATE_REDIS_ADDR"
	EnvJournalPath         = "MEDIAGATE_JOURNAL_PATH"
)

// lookupEnv returns the parsed value of key, or def when the variable is
// unset, blank or unparsable. Bad values are logged and otherwise ignored so
// a typo in one variable never blocks startup.
func lookupEnv[T any](key string, def T, parse func(string) (T, error)) T {
	raw, ok := os.LookupEnv(key)
	raw = strings.TrimSpace(raw)
	if !ok || raw == "" {
		return def
	}
	logger := log.WithComponent("config")
	v, err := parse(raw)
	if err != nil {
		logger.Warn().
			Str(log.FieldEvent, "config.env_invalid").
			Str("key", key).
			Str("value", raw).
			Err(err).
			Msg("ignoring unparsable environment override")
		return def
	}
	logger.Debug().
		Str(log.FieldEvent, "config.env_override").
		Str("key", key).
		Msg("using environment override")
	return v
}

func parseString(s string) (string, error) { return s, nil }

func parseFloat(s string) (float64, error) { return strconv.ParseFloat(s, 64) }

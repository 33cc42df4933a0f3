// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ManuGH/mediagate/internal/media"
	"github.com/ManuGH/mediagate/internal/validate"
)

// Validate checks an effective configuration and reports every problem at once.
func Validate(cfg AppConfig) error {
	v := validate.New()

	if _, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel)); err != nil || cfg.LogLevel == "" {
		v.AddError("log.level", "must be a zerolog level (trace, debug, info, warn, error, fatal, panic, disabled)", cfg.LogLevel)
	}

	if len(cfg.Runtime.Categories) == 0 {
		v.AddError("runtime.categories", "at least one category is required", cfg.Runtime.Categories)
	}
	for i, raw := range cfg.Runtime.Categories {
		if _, err := media.ParseCategory(raw); err != nil {
			v.AddError(fmt.Sprintf("runtime.categories[%d]", i), err.Error(), raw)
		}
	}

	for ext, mt := range cfg.Extensions {
		field := "extensions." + ext
		if strings.TrimSpace(strings.TrimPrefix(ext, ".")) == "" {
			v.AddError(field, "extension cannot be empty", ext)
			continue
		}
		v.MimeType(field, mt)
	}

	v.ListenAddr("api.listen", cfg.API.Listen)
	v.Range("api.rate_limit", cfg.API.RateLimit, 1, 100000)
	v.Range("api.global_rps", cfg.API.GlobalRPS, 1, 100000)
	v.Range("api.negotiate_rps", cfg.API.NegotiateRPS, 1, 100000)

	if cfg.Tracing.Enabled {
		v.OneOf("tracing.exporter", cfg.Tracing.Exporter, []string{"grpc", "http"})
		v.NotEmpty("tracing.endpoint", cfg.Tracing.Endpoint)
	}
	v.Fraction("tracing.sampling_rate", cfg.Tracing.SamplingRate)

	if cfg.Cache.PlanTTL < 0 {
		v.AddError("cache.plan_ttl", "cannot be negative", cfg.Cache.PlanTTL.String())
	}
	if cfg.Cache.RedisAddr != "" {
		v.HostPort("cache.redis_addr", cfg.Cache.RedisAddr)
		v.Range("cache.redis_db", cfg.Cache.RedisDB, 0, 15)
	}

	if cfg.Journal.Path != "" {
		v.Positive("journal.retain", cfg.Journal.Retain)
	}

	return v.Err()
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package health

import (
	"context"
	"fmt"
	"time"

	"github.com/ManuGH/mediagate/internal/config"
	"github.com/ManuGH/mediagate/internal/media"
	"github.com/ManuGH/mediagate/internal/negotiation"
	"github.com/ManuGH/mediagate/internal/playback"
)

const pingTimeout = 2 * time.Second

// ConfigChecker re-validates the live configuration.
type ConfigChecker struct {
	get func() config.AppConfig
}

func NewConfigChecker(get func() config.AppConfig) *ConfigChecker {
	return &ConfigChecker{get: get}
}

func (c *ConfigChecker) Name() string { return "config" }

func (c *ConfigChecker) Check(_ context.Context) CheckResult {
	if err := config.Validate(c.get()); err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	return CheckResult{Status: StatusHealthy, Message: "configuration valid"}
}

// SelfTestChecker runs a canary negotiation for every configured category
// against a runtime that claims to play the canary type.
type SelfTestChecker struct {
	get func() config.AppConfig
}

func NewSelfTestChecker(get func() config.AppConfig) *SelfTestChecker {
	return &SelfTestChecker{get: get}
}

func (c *SelfTestChecker) Name() string { return "negotiation_selftest" }

func (c *SelfTestChecker) Check(ctx context.Context) CheckResult {
	cfg := c.get()
	categories := cfg.Categories()
	if len(categories) == 0 {
		return CheckResult{Status: StatusUnhealthy, Error: "no runtime categories configured"}
	}

	for _, cat := range categories {
		mimeType := string(cat) + "/webm"
		res, err := playback.Negotiate(ctx, cfg, playback.Request{
			Category: cat,
			Sources:  []media.Source{{URI: "selftest.webm", MimeType: mimeType}},
			CanPlay:  map[string]string{mimeType: "probably"},
		})
		if err != nil {
			return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
		}
		if res.Kind != negotiation.OutcomeReady {
			return CheckResult{
				Status:  StatusDegraded,
				Message: fmt.Sprintf("canary %s negotiation ended %s", cat, res.Kind),
			}
		}
	}
	return CheckResult{Status: StatusHealthy, Message: "canary negotiations ready"}
}

// PingChecker reports a backing store unhealthy when its ping fails.
type PingChecker struct {
	name string
	ping func(context.Context) error
}

func NewPingChecker(name string, ping func(context.Context) error) *PingChecker {
	return &PingChecker{name: name, ping: ping}
}

func (c *PingChecker) Name() string { return c.name }

func (c *PingChecker) Check(ctx context.Context) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := c.ping(ctx); err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	return CheckResult{Status: StatusHealthy, Message: "reachable"}
}

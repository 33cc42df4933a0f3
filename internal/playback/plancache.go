// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package playback

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ManuGH/mediagate/internal/cache"
	"github.com/ManuGH/mediagate/internal/config"
	"github.com/ManuGH/mediagate/internal/log"
	"github.com/ManuGH/mediagate/internal/media"
	"github.com/ManuGH/mediagate/internal/metrics"
	"github.com/ManuGH/mediagate/internal/negotiation"
)

// planKey is everything a plan depends on. Runtime failure simulation and
// the base URL only matter once a runtime walks the candidates.
type planKey struct {
	Category      media.Category      `json:"category"`
	UserAgent     string              `json:"user_agent"`
	Sources       []media.Source      `json:"sources"`
	DefaultSource *media.Source       `json:"default_source,omitempty"`
	CanPlay       map[string]string   `json:"can_play,omitempty"`
	Device        config.DeviceConfig `json:"device"`
	Client        config.ClientConfig `json:"client"`
	Categories    []string            `json:"categories"`
	Extensions    map[string]string   `json:"extensions,omitempty"`
}

// Fingerprint returns a stable key for the plan of req under cfg.
func Fingerprint(cfg config.AppConfig, req Request) (string, error) {
	data, err := json.Marshal(planKey{
		Category:      req.Category,
		UserAgent:     req.UserAgent,
		Sources:       req.Sources,
		DefaultSource: req.DefaultSource,
		CanPlay:       req.CanPlay,
		Device:        cfg.Device,
		Client:        cfg.Client,
		Categories:    cfg.Runtime.Categories,
		Extensions:    cfg.Extensions,
	})
	if err != nil {
		return "", fmt.Errorf("fingerprint plan request: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// CachedPlan returns the plan for req from c when present and computes and
// stores it otherwise. The boolean reports a cache hit.
func CachedPlan(ctx context.Context, c cache.Cache, ttl time.Duration, cfg config.AppConfig, req Request) (negotiation.Plan, bool, error) {
	key, err := Fingerprint(cfg, req)
	if err != nil {
		return negotiation.Plan{}, false, err
	}

	if data, ok := c.Get(ctx, key); ok {
		var plan negotiation.Plan
		if err := json.Unmarshal(data, &plan); err == nil {
			metrics.RecordPlanCache(true)
			return plan, true, nil
		}
		// A corrupt entry is recomputed and overwritten.
		c.Delete(ctx, key)
	}
	metrics.RecordPlanCache(false)

	plan, err := Plan(ctx, cfg, req)
	if err != nil {
		return negotiation.Plan{}, false, err
	}
	data, err := json.Marshal(plan)
	if err != nil {
		logger := log.WithComponentFromContext(ctx, "playback")
		logger.Warn().Err(err).Str(log.FieldEvent, "plan_cache.encode_failed").Msg("plan not cached")
		return plan, false, nil
	}
	c.Set(ctx, key, data, ttl)
	return plan, false, nil
}

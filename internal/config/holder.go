// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/ManuGH/mediagate/internal/log"
)

const reloadDebounce = 500 * time.Millisecond

// Holder holds configuration with atomic reloading capability.
// Readers always see either the old or the new configuration in full.
type Holder struct {
	mu      sync.RWMutex
	current AppConfig
	loader  *Loader
	logger  zerolog.Logger

	listenersMu sync.RWMutex
	listeners   []chan<- AppConfig
}

// NewHolder creates a holder with an already loaded initial config.
func NewHolder(initial AppConfig, loader *Loader) *Holder {
	return &Holder{
		current: initial,
		loader:  loader,
		logger:  log.WithComponent("config"),
	}
}

// Get returns the current configuration (thread-safe read).
func (h *Holder) Get() AppConfig {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Reload loads and validates the configuration again. On failure the old
// configuration stays in place.
func (h *Holder) Reload(_ context.Context) error {
	h.logger.Info().Str(log.FieldEvent, "config.reload_start").Msg("reloading configuration")

	newCfg, err := h.loader.Load()
	if err != nil {
		h.logger.Error().
			Err(err).
			Str(log.FieldEvent, "config.reload_failed").
			Msg("failed to load new configuration")
		return fmt.Errorf("load config: %w", err)
	}

	h.mu.Lock()
	oldCfg := h.current
	h.current = newCfg
	h.mu.Unlock()

	h.notifyListeners(newCfg)
	h.logChanges(oldCfg, newCfg)

	h.logger.Info().
		Str(log.FieldEvent, "config.reload_success").
		Msg("configuration reloaded successfully")
	return nil
}

// StartWatcher watches the config file and reloads on change. Without a
// config file it is a no-op. The watcher stops when ctx is done.
func (h *Holder) StartWatcher(ctx context.Context) error {
	path := h.loader.Path()
	if path == "" {
		h.logger.Info().
			Str(log.FieldEvent, "config.watcher_disabled").
			Msg("config file watcher disabled (using ENV-only configuration)")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch config file: %w", err)
	}

	h.logger.Info().
		Str(log.FieldEvent, "config.watcher_started").
		Str(log.FieldPath, path).
		Msg("watching config file for changes")

	go h.watchLoop(ctx, watcher)
	return nil
}

func (h *Holder) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
		_ = watcher.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info().Str(log.FieldEvent, "config.watcher_stopped").Msg("config watcher stopped")
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			// Write and Create cover in-place edits and editors that replace the file.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			h.logger.Debug().
				Str(log.FieldEvent, "config.file_changed").
				Str("op", event.Op.String()).
				Msg("config file changed")

			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(reloadDebounce, func() {
				if err := h.Reload(ctx); err != nil {
					h.logger.Error().
						Err(err).
						Str(log.FieldEvent, "config.auto_reload_failed").
						Msg("automatic config reload failed")
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().
				Err(err).
				Str(log.FieldEvent, "config.watcher_error").
				Msg("config watcher error")
		}
	}
}

// RegisterListener registers a channel to receive the config after every
// successful reload. Sends never block; a full channel misses the update.
func (h *Holder) RegisterListener(ch chan<- AppConfig) {
	h.listenersMu.Lock()
	defer h.listenersMu.Unlock()
	h.listeners = append(h.listeners, ch)
}

func (h *Holder) notifyListeners(cfg AppConfig) {
	h.listenersMu.RLock()
	defer h.listenersMu.RUnlock()

	for _, ch := range h.listeners {
		select {
		case ch <- cfg:
		default:
			h.logger.Warn().
				Str(log.FieldEvent, "config.listener_skip").
				Msg("skipped notifying listener (channel full)")
		}
	}
}

func (h *Holder) logChanges(old, cfg AppConfig) {
	if old.LogLevel != cfg.LogLevel {
		h.logger.Info().Str("old", old.LogLevel).Str("new", cfg.LogLevel).Msg("config changed: log.level")
	}
	if old.Device != cfg.Device {
		h.logger.Info().
			Bool("unreliable_type_probe", cfg.Device.UnreliableTypeProbe).
			Bool("requires_activation", cfg.Device.RequiresActivation).
			Msg("config changed: device")
	}
	if !reflect.DeepEqual(old.Client, cfg.Client) {
		h.logger.Info().
			Strs("containers", cfg.Client.Containers).
			Strs("video_codecs", cfg.Client.VideoCodecs).
			Strs("audio_codecs", cfg.Client.AudioCodecs).
			Msg("config changed: client")
	}
	if !reflect.DeepEqual(old.Runtime, cfg.Runtime) {
		h.logger.Info().Strs("categories", cfg.Runtime.Categories).Msg("config changed: runtime.categories")
	}
	if !reflect.DeepEqual(old.Extensions, cfg.Extensions) {
		h.logger.Info().Int("count", len(cfg.Extensions)).Msg("config changed: extensions")
	}
	if old.API != cfg.API {
		// The listener is bound at startup; only the rate limits apply live.
		h.logger.Info().
			Str("listen", cfg.API.Listen).
			Int("rate_limit", cfg.API.RateLimit).
			Int("global_rps", cfg.API.GlobalRPS).
			Int("negotiate_rps", cfg.API.NegotiateRPS).
			Msg("config changed: api")
	}
	if old.Cache.PlanTTL != cfg.Cache.PlanTTL {
		h.logger.Info().Dur("plan_ttl", cfg.Cache.PlanTTL).Msg("config changed: cache.plan_ttl")
	}
	oldStore, newStore := old.Cache, cfg.Cache
	oldStore.PlanTTL, newStore.PlanTTL = 0, 0
	if old.Tracing != cfg.Tracing || old.Journal != cfg.Journal || oldStore != newStore {
		h.logger.Warn().
			Str(log.FieldEvent, "config.restart_required").
			Msg("startup-only settings changed; restart to apply")
	}
}

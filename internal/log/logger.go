// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package log wraps zerolog with the process-wide logger used by every
// mediagate component.
package log

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// EnvLevel is consulted when Config.Level is empty.
const EnvLevel = "MEDIAGATE_LOG_LEVEL"

const defaultService = "mediagate"

// Config describes the global logger.
type Config struct {
	Level   string
	Output  io.Writer // defaults to os.Stderr
	Service string
	Version string
	// Console renders human-readable lines instead of JSON; the one-shot
	// CLI uses it for stderr.
	Console bool
}

var (
	mu         sync.Mutex
	configured bool
	base       zerolog.Logger
)

// Configure installs the global logger once. Later calls are no-ops so
// library code can call it without clobbering the CLI's choice.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	if !configured {
		install(cfg)
	}
}

// Reconfigure replaces the global logger unconditionally, e.g. after a
// config reload changed log.level.
func Reconfigure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	install(cfg)
}

func install(cfg Config) {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))
	zerolog.TimeFieldFormat = time.RFC3339

	var w io.Writer = os.Stderr
	if cfg.Output != nil {
		w = cfg.Output
	}
	if cfg.Console {
		w = zerolog.ConsoleWriter{Out: w, NoColor: true, TimeFormat: time.TimeOnly}
	}

	service := cfg.Service
	if service == "" {
		service = defaultService
	}
	ctx := zerolog.New(w).With().Timestamp().Str(FieldService, service)
	if cfg.Version != "" {
		ctx = ctx.Str(FieldVersion, cfg.Version)
	}
	base = ctx.Logger()
	configured = true
}

func parseLevel(raw string) zerolog.Level {
	if raw == "" {
		raw = os.Getenv(EnvLevel)
	}
	if raw == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(raw)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

// Base returns the global logger, installing defaults on first use.
func Base() zerolog.Logger {
	Configure(Config{})
	mu.Lock()
	defer mu.Unlock()
	return base
}

// WithComponent returns a child logger annotated with the given component name.
func WithComponent(component string) zerolog.Logger {
	return Base().With().Str(FieldComponent, component).Logger()
}

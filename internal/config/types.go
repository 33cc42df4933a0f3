// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package config loads mediagate configuration from defaults, a strict YAML
// file and environment variables, in that order of increasing precedence.
package config

import "time"

// FileConfig is the on-disk YAML shape. Pointer fields distinguish "unset"
// from an explicit zero value so the file only overrides what it names.
type FileConfig struct {
	Log        *LogFileConfig     `yaml:"log,omitempty"`
	Device     *DeviceFileConfig  `yaml:"device,omitempty"`
	Client     *ClientFileConfig  `yaml:"client,omitempty"`
	Runtime    *RuntimeFileConfig `yaml:"runtime,omitempty"`
	Extensions map[string]string  `yaml:"extensions,omitempty"`
	API        *APIFileConfig     `yaml:"api,omitempty"`
	Tracing    *TracingFileConfig `yaml:"tracing,omitempty"`
	Cache      *CacheFileConfig   `yaml:"cache,omitempty"`
	Journal    *JournalFileConfig `yaml:"journal,omitempty"`
}

type LogFileConfig struct {
	Level string `yaml:"level,omitempty"`
}

type DeviceFileConfig struct {
	UserAgent           *string `yaml:"user_agent,omitempty"`
	UnreliableTypeProbe *bool   `yaml:"unreliable_type_probe,omitempty"`
	RequiresActivation  *bool   `yaml:"requires_activation,omitempty"`
}

type ClientFileConfig struct {
	Containers  []string `yaml:"containers,omitempty"`
	VideoCodecs []string `yaml:"video_codecs,omitempty"`
	AudioCodecs []string `yaml:"audio_codecs,omitempty"`
}

type RuntimeFileConfig struct {
	Categories []string `yaml:"categories,omitempty"`
}

type APIFileConfig struct {
	Listen       string `yaml:"listen,omitempty"`
	RateLimit    *int   `yaml:"rate_limit,omitempty"`
	GlobalRPS    *int   `yaml:"global_rps,omitempty"`
	NegotiateRPS *int   `yaml:"negotiate_rps,omitempty"`
}

type TracingFileConfig struct {
	Enabled      *bool    `yaml:"enabled,omitempty"`
	Exporter     string   `yaml:"exporter,omitempty"`
	Endpoint     string   `yaml:"endpoint,omitempty"`
	SamplingRate *float64 `yaml:"sampling_rate,omitempty"`
	Environment  string   `yaml:"environment,omitempty"`
}

type CacheFileConfig struct {
	PlanTTL       *time.Duration `yaml:"plan_ttl,omitempty"`
	RedisAddr     *string        `yaml:"redis_addr,omitempty"`
	RedisPassword *string        `yaml:"redis_password,omitempty"`
	RedisDB       *int           `yaml:"redis_db,omitempty"`
}

type JournalFileConfig struct {
	Path   *string `yaml:"path,omitempty"`
	Retain *int    `yaml:"retain,omitempty"`
}

// AppConfig is the effective configuration after defaults, file and
// environment have been merged and validated.
type AppConfig struct {
	LogLevel   string
	Device     DeviceConfig
	Client     ClientConfig
	Runtime    RuntimeConfig
	Extensions map[string]string
	API        APIConfig
	Tracing    TracingConfig
	Cache      CacheConfig
	Journal    JournalConfig
}

// DeviceConfig forces device quirks on top of what the user agent implies.
type DeviceConfig struct {
	UserAgent           string
	UnreliableTypeProbe bool
	RequiresActivation  bool
}

// ClientConfig declares what the playback client can decode. Empty lists
// declare nothing, which keeps type verdicts optimistic.
type ClientConfig struct {
	Containers  []string
	VideoCodecs []string
	AudioCodecs []string
}

// RuntimeConfig lists the media categories the runtime exposes a type query for.
type RuntimeConfig struct {
	Categories []string
}

type APIConfig struct {
	Listen string
	// RateLimit is requests per minute per client IP.
	RateLimit int
	// GlobalRPS caps requests per second across all clients.
	GlobalRPS int
	// NegotiateRPS caps full negotiations per second across all clients.
	NegotiateRPS int
}

// TracingConfig controls OpenTelemetry span export.
type TracingConfig struct {
	Enabled      bool
	Exporter     string // grpc or http
	Endpoint     string
	SamplingRate float64
	Environment  string
}

// CacheConfig controls the plan cache. Without a Redis address plans are
// cached in memory; a zero TTL disables caching.
type CacheConfig struct {
	PlanTTL       time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// JournalConfig controls the SQLite outcome journal. An empty path disables it.
type JournalConfig struct {
	Path string
	// Retain is the number of most recent outcomes kept.
	Retain int
}

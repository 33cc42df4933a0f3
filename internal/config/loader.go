// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultLogLevel        = "info"
	DefaultListen          = ":8089"
	DefaultRateLimit       = 120
	DefaultGlobalRPS       = 200
	DefaultNegotiateRPS    = 50
	DefaultTracingExporter = "grpc"
	DefaultTracingEndpoint = "localhost:4317"
	DefaultPlanTTL         = 5 * time.Minute
	DefaultJournalRetain   = 1000
)

// DefaultCategories are the categories a runtime is assumed to query by default.
var DefaultCategories = []string{"audio", "video"}

// Loader handles configuration loading with precedence
type Loader struct {
	configPath      string
	ConsumedEnvKeys map[string]struct{}
}

// NewLoader creates a new configuration loader. An empty path loads
// defaults and environment only.
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath:      configPath,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

// Path returns the config file path, or "".
func (l *Loader) Path() string { return l.configPath }

func (l *Loader) envString(key, defaultVal string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return lookupEnv(key, defaultVal, parseString)
}

func (l *Loader) envBool(key string, defaultVal bool) bool {
	l.ConsumedEnvKeys[key] = struct{}{}
	return lookupEnv(key, defaultVal, strconv.ParseBool)
}

func (l *Loader) envInt(key string, defaultVal int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return lookupEnv(key, defaultVal, strconv.Atoi)
}

func (l *Loader) envFloat(key string, defaultVal float64) float64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return lookupEnv(key, defaultVal, parseFloat)
}

func (l *Loader) envDuration(key string, defaultVal time.Duration) time.Duration {
	l.ConsumedEnvKeys[key] = struct{}{}
	return lookupEnv(key, defaultVal, time.ParseDuration)
}

// Load loads configuration with precedence: ENV > File > Defaults.
// Order: defaults, strict file parse, env overrides, validation.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()

	if l.configPath != "" {
		fileCfg, err := l.loadFile(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		mergeFileConfig(&cfg, fileCfg)
	}

	l.mergeEnvConfig(&cfg)

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Defaults returns the built-in configuration.
func Defaults() AppConfig {
	return AppConfig{
		LogLevel:   DefaultLogLevel,
		Runtime:    RuntimeConfig{Categories: append([]string(nil), DefaultCategories...)},
		Extensions: map[string]string{},
		API: APIConfig{
			Listen:       DefaultListen,
			RateLimit:    DefaultRateLimit,
			GlobalRPS:    DefaultGlobalRPS,
			NegotiateRPS: DefaultNegotiateRPS,
		},
		Tracing: TracingConfig{
			Exporter:     DefaultTracingExporter,
			Endpoint:     DefaultTracingEndpoint,
			SamplingRate: 1.0,
			Environment:  "production",
		},
		Cache:   CacheConfig{PlanTTL: DefaultPlanTTL},
		Journal: JournalConfig{Retain: DefaultJournalRetain},
	}
}

// loadFile loads configuration from a YAML file with STRICT parsing.
// Unknown fields are rejected as ErrUnknownConfigField.
func (l *Loader) loadFile(path string) (*FileConfig, error) {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("%w: %s (only YAML supported)", ErrUnsupportedFormat, ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return parseFile(data)
}

func parseFile(data []byte) (*FileConfig, error) {
	var fileCfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&fileCfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &FileConfig{}, nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return nil, fmt.Errorf("strict config parse error: %w: %w", ErrUnknownConfigField, err)
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return &fileCfg, nil
}

func mergeFileConfig(dst *AppConfig, src *FileConfig) {
	if src.Log != nil && src.Log.Level != "" {
		dst.LogLevel = src.Log.Level
	}
	if d := src.Device; d != nil {
		if d.UserAgent != nil {
			dst.Device.UserAgent = *d.UserAgent
		}
		if d.UnreliableTypeProbe != nil {
			dst.Device.UnreliableTypeProbe = *d.UnreliableTypeProbe
		}
		if d.RequiresActivation != nil {
			dst.Device.RequiresActivation = *d.RequiresActivation
		}
	}
	if c := src.Client; c != nil {
		if c.Containers != nil {
			dst.Client.Containers = append([]string(nil), c.Containers...)
		}
		if c.VideoCodecs != nil {
			dst.Client.VideoCodecs = append([]string(nil), c.VideoCodecs...)
		}
		if c.AudioCodecs != nil {
			dst.Client.AudioCodecs = append([]string(nil), c.AudioCodecs...)
		}
	}
	if src.Runtime != nil && src.Runtime.Categories != nil {
		dst.Runtime.Categories = append([]string(nil), src.Runtime.Categories...)
	}
	for ext, mt := range src.Extensions {
		dst.Extensions[ext] = mt
	}
	if a := src.API; a != nil {
		if a.Listen != "" {
			dst.API.Listen = a.Listen
		}
		if a.RateLimit != nil {
			dst.API.RateLimit = *a.RateLimit
		}
		if a.GlobalRPS != nil {
			dst.API.GlobalRPS = *a.GlobalRPS
		}
		if a.NegotiateRPS != nil {
			dst.API.NegotiateRPS = *a.NegotiateRPS
		}
	}
	if t := src.Tracing; t != nil {
		if t.Enabled != nil {
			dst.Tracing.Enabled = *t.Enabled
		}
		if t.Exporter != "" {
			dst.Tracing.Exporter = t.Exporter
		}
		if t.Endpoint != "" {
			dst.Tracing.Endpoint = t.Endpoint
		}
		if t.SamplingRate != nil {
			dst.Tracing.SamplingRate = *t.SamplingRate
		}
		if t.Environment != "" {
			dst.Tracing.Environment = t.Environment
		}
	}
	if c := src.Cache; c != nil {
		if c.PlanTTL != nil {
			dst.Cache.PlanTTL = *c.PlanTTL
		}
		if c.RedisAddr != nil {
			dst.Cache.RedisAddr = *c.RedisAddr
		}
		if c.RedisPassword != nil {
			dst.Cache.RedisPassword = *c.RedisPassword
		}
		if c.RedisDB != nil {
			dst.Cache.RedisDB = *c.RedisDB
		}
	}
	if j := src.Journal; j != nil {
		if j.Path != nil {
			dst.Journal.Path = *j.Path
		}
		if j.Retain != nil {
			dst.Journal.Retain = *j.Retain
		}
	}
}

func (l *Loader) mergeEnvConfig(cfg *AppConfig) {
	cfg.LogLevel = l.envString(EnvLogLevel, cfg.LogLevel)
	cfg.Device.UserAgent = l.envString(EnvUserAgent, cfg.Device.UserAgent)
	cfg.Device.UnreliableTypeProbe = l.envBool(EnvUnreliableTypeProbe, cfg.Device.UnreliableTypeProbe)
	cfg.Device.RequiresActivation = l.envBool(EnvRequiresActivation, cfg.Device.RequiresActivation)
	cfg.API.Listen = l.envString(EnvListen, cfg.API.Listen)
	cfg.API.RateLimit = l.envInt(EnvRateLimit, cfg.API.RateLimit)
	cfg.API.GlobalRPS = l.envInt(EnvGlobalRPS, cfg.API.GlobalRPS)
	cfg.API.NegotiateRPS = l.envInt(EnvNegotiateRPS, cfg.API.NegotiateRPS)
	cfg.Tracing.Enabled = l.envBool(EnvTracingEnabled, cfg.Tracing.Enabled)
	cfg.Tracing.Exporter = l.envString(EnvTracingExporter, cfg.Tracing.Exporter)
	cfg.Tracing.Endpoint = l.envString(EnvTracingEndpoint, cfg.Tracing.Endpoint)
	cfg.Tracing.SamplingRate = l.envFloat(EnvTracingSamplingRate, cfg.Tracing.SamplingRate)
	cfg.Cache.PlanTTL = l.envDuration(EnvPlanTTL, cfg.Cache.PlanTTL)
	cfg.Cache.RedisAddr = l.envString(EnvRedisAddr, cfg.Cache.RedisAddr)
	cfg.Journal.Path = l.envString(EnvJournalPath, cfg.Journal.Path)
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/mediagate/internal/api"
	"github.com/ManuGH/mediagate/internal/cache"
	"github.com/ManuGH/mediagate/internal/config"
	"github.com/ManuGH/mediagate/internal/journal"
	"github.com/ManuGH/mediagate/internal/log"
	"github.com/ManuGH/mediagate/internal/telemetry"
	"github.com/ManuGH/mediagate/internal/version"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

// runServe implements "negotiate serve" and returns the exit code.
func runServe(args []string) int {
	fs := flag.NewFlagSet("negotiate serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var file, listen string
	fs.StringVar(&file, "file", "", "path to YAML configuration file")
	fs.StringVar(&file, "f", "", "path to YAML configuration file (shorthand)")
	fs.StringVar(&listen, "listen", "", "listen address, overrides api.listen")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitReady
		}
		return exitUsage
	}

	log.Configure(log.Config{Level: "info", Service: telemetry.ServiceName})
	logger := log.WithComponent("daemon")

	loader := config.NewLoader(file)
	cfg, err := loader.Load()
	if err != nil {
		logger.Error().
			Err(err).
			Str(log.FieldEvent, "config.load_failed").
			Str("config_path", file).
			Msg("failed to load configuration")
		return exitError
	}
	if listen != "" {
		cfg.API.Listen = listen
	}
	log.Reconfigure(log.Config{Level: cfg.LogLevel, Service: telemetry.ServiceName, Version: version.Version})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, loader, cfg); err != nil {
		logger.Error().Err(err).Str(log.FieldEvent, "server.failed").Msg("server stopped with error")
		return exitError
	}
	logger.Info().Str(log.FieldEvent, "server.stopped").Msg("server stopped")
	return exitReady
}

func serve(ctx context.Context, loader *config.Loader, cfg config.AppConfig) error {
	logger := log.WithComponent("daemon")

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Tracing.Enabled,
		ServiceVersion: version.Version,
		Environment:    cfg.Tracing.Environment,
		ExporterType:   cfg.Tracing.Exporter,
		Endpoint:       cfg.Tracing.Endpoint,
		SamplingRate:   cfg.Tracing.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Str(log.FieldEvent, "telemetry.shutdown_failed").Msg("failed to flush spans")
		}
	}()

	plans, err := cache.Open(ctx, cfg.Cache.PlanTTL, cache.RedisConfig{
		Addr:     cfg.Cache.RedisAddr,
		Password: cfg.Cache.RedisPassword,
		DB:       cfg.Cache.RedisDB,
	}, log.WithComponent("cache"))
	if err != nil {
		return fmt.Errorf("open plan cache: %w", err)
	}
	defer func() { _ = plans.Close() }()

	opts := []api.Option{api.WithPlanCache(plans)}
	if cfg.Journal.Path != "" {
		store, err := journal.Open(cfg.Journal.Path, cfg.Journal.Retain)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer func() { _ = store.Close() }()
		opts = append(opts, api.WithJournal(store))
		logger.Info().
			Str(log.FieldEvent, "journal.opened").
			Str(log.FieldPath, cfg.Journal.Path).
			Int("retain", cfg.Journal.Retain).
			Msg("outcome journal enabled")
	}

	srv := api.New(cfg, opts...)

	holder := config.NewHolder(cfg, loader)
	updates := make(chan config.AppConfig, 1)
	holder.RegisterListener(updates)
	if err := holder.StartWatcher(ctx); err != nil {
		return fmt.Errorf("start config watcher: %w", err)
	}

	httpSrv := &http.Server{
		Addr:              cfg.API.Listen,
		Handler:           srv,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().
			Str(log.FieldEvent, "server.listening").
			Str(log.FieldListen, cfg.API.Listen).
			Str("version", version.String()).
			Msg("serving negotiation API")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case next := <-updates:
				// The listen address is startup-only.
				next.API.Listen = cfg.API.Listen
				log.Reconfigure(log.Config{Level: next.LogLevel, Service: telemetry.ServiceName, Version: version.Version})
				srv.Apply(next)
			}
		}
	})
	return g.Wait()
}

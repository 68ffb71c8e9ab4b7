// Tuskwatch - Wildlife Geofence Monitoring and Alert Dispatch
// Copyright 2026 D. Hapuarachchi
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hapuarachchi/tuskwatch

// Package main is the entry point for the Tuskwatch evaluation engine.
//
// Tuskwatch evaluates collared-animal positions against geofenced zones
// and dispatches alerts to subscribed authorities. It has two modes:
//
//   - run (default): perform one evaluation run, print the run summary
//     as JSON to stdout and exit. Intended to be invoked by cron or a
//     systemd timer every few minutes. Exit code 0 means the run
//     completed, including runs with per-animal errors; exit code 1 is
//     reserved for infrastructure failures (store unreachable) and
//     startup errors.
//
//   - serve: host the administrative HTTP surface (manual evaluation,
//     zone containment probes, health, Prometheus metrics) until
//     SIGINT/SIGTERM.
//
// Configuration is loaded via koanf with layered sources (highest
// priority wins): TUSKWATCH_* environment variables, an optional YAML
// config file, built-in defaults. A .env file in the working directory
// is read into the environment first if present.
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

	json "github.com/goccy/go-json"
	"github.com/joho/godotenv"

	"github.com/hapuarachchi/tuskwatch/internal/api"
	"github.com/hapuarachchi/tuskwatch/internal/config"
	"github.com/hapuarachchi/tuskwatch/internal/engine"
	"github.com/hapuarachchi/tuskwatch/internal/logging"
	"github.com/hapuarachchi/tuskwatch/internal/notify"
	"github.com/hapuarachchi/tuskwatch/internal/store"
)

func main() {
	serve := flag.Bool("serve", false, "host the admin HTTP API instead of performing one run")
	flag.Parse()

	// Optional .env for local development; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "tuskwatch: %v\n", err)
		os.Exit(1)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	if err := run(cfg, *serve); err != nil {
		logging.Error().Err(err).Msg("tuskwatch exiting with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, serve bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	pg, err := store.Connect(connectCtx, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("%w: %w", engine.ErrInfrastructure, err)
	}
	defer pg.Close()

	if cfg.Database.EnsureSchema {
		if err := pg.EnsureSchema(connectCtx); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	runner := engine.NewRunner(cfg.Engine, pg, pg, buildFanout(cfg))

	if serve {
		return serveAPI(ctx, cfg, runner, pg)
	}
	return runOnce(ctx, runner)
}

// buildFanout wires every configured delivery channel, each behind a
// circuit breaker. Unconfigured channels are simply absent; the
// recipient matcher skips targets whose channel has no sender.
func buildFanout(cfg *config.Config) *engine.Fanout {
	var senders []engine.ChannelSender

	if cfg.SMTP.Configured() {
		senders = append(senders, notify.WithBreaker(notify.NewEmailSender(cfg.SMTP)))
	} else {
		logging.Warn().Msg("SMTP not configured, email delivery disabled")
	}

	if cfg.SMS.Configured() {
		senders = append(senders, notify.WithBreaker(notify.NewSMSSender(cfg.SMS)))
	} else {
		logging.Warn().Msg("SMS gateway not configured, SMS delivery disabled")
	}

	return engine.NewFanout(senders, cfg.Engine.DeliveryTimeout)
}

// runOnce performs a single evaluation run and prints the summary as
// JSON to stdout for the invoking scheduler.
func runOnce(ctx context.Context, runner *engine.Runner) error {
	summary, err := runner.Run(ctx)
	if err != nil {
		if errors.Is(err, engine.ErrInfrastructure) {
			return err
		}
		return fmt.Errorf("evaluation run: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("encode run summary: %w", err)
	}
	return nil
}

// serveAPI hosts the admin HTTP surface until the context is canceled.
func serveAPI(ctx context.Context, cfg *config.Config, runner *engine.Runner, pg *store.PostgresStore) error {
	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           api.NewRouter(runner, pg, cfg.Server.Timeout),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", srv.Addr).Msg("admin API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logging.Info().Msg("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

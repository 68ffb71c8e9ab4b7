// Tuskwatch - Wildlife Geofence Monitoring and Alert Dispatch
// Copyright 2026 D. Hapuarachchi
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hapuarachchi/tuskwatch

// Package api exposes the small administrative HTTP surface: manual
// evaluation runs, ad-hoc zone containment tests, health and metrics.
// The scheduled run path does not pass through this package.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hapuarachchi/tuskwatch/internal/engine"
)

// Evaluator triggers one evaluation run. Satisfied by engine.Runner.
type Evaluator interface {
	Run(ctx context.Context) (*engine.RunSummary, error)
}

// Pinger reports store reachability for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Router holds the handler dependencies.
type Router struct {
	evaluator Evaluator
	pinger    Pinger
	timeout   time.Duration
}

// NewRouter builds the chi router with all routes mounted.
func NewRouter(evaluator Evaluator, pinger Pinger, timeout time.Duration) http.Handler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	router := &Router{
		evaluator: evaluator,
		pinger:    pinger,
		timeout:   timeout,
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(timeout))

	r.Get("/api/v1/health", router.handleHealth)
	r.Post("/api/v1/evaluate", router.handleEvaluate)
	r.Post("/api/v1/zones/test", router.handleZoneTest)

	r.Handle("/metrics", promhttp.Handler())

	return r
}

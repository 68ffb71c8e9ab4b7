// Tuskwatch - Wildlife Geofence Monitoring and Alert Dispatch
// Copyright 2026 D. Hapuarachchi
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hapuarachchi/tuskwatch

package api

import (
	"errors"
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"github.com/hapuarachchi/tuskwatch/internal/engine"
	"github.com/hapuarachchi/tuskwatch/internal/geo"
	"github.com/hapuarachchi/tuskwatch/internal/logging"
	"github.com/hapuarachchi/tuskwatch/internal/validation"
)

// healthResponse reports service and store status.
type healthResponse struct {
	Status    string    `json:"status"`
	Store     string    `json:"store"`
	Timestamp time.Time `json:"timestamp"`
}

// handleHealth reports liveness plus store reachability. Returns 503
// when the store is unreachable so orchestrators can gate on it.
func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:    "ok",
		Store:     "ok",
		Timestamp: time.Now().UTC(),
	}

	if err := rt.pinger.Ping(r.Context()); err != nil {
		logging.Warn().Err(err).Msg("health check: store unreachable")
		resp.Status = "degraded"
		resp.Store = "unreachable"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleEvaluate triggers a full evaluation run and returns its summary.
// The run is synchronous; the request context bounds it.
func (rt *Router) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	summary, err := rt.evaluator.Run(r.Context())
	if err != nil {
		logging.Error().Err(err).Msg("manual evaluation run failed")
		if errors.Is(err, engine.ErrInfrastructure) {
			writeError(w, http.StatusServiceUnavailable, "tracking store unavailable")
			return
		}
		writeError(w, http.StatusInternalServerError, "evaluation run failed")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// zoneTestRequest is a manual "would this position alert" probe. It
// evaluates containment without persisting or notifying anything.
type zoneTestRequest struct {
	Lat  float64 `json:"lat" validate:"latitude_deg"`
	Lon  float64 `json:"lon" validate:"longitude_deg"`
	Zone struct {
		Kind    engine.ZoneKind `json:"kind" validate:"oneof=restricted safe monitoring"`
		Lat     float64         `json:"lat" validate:"latitude_deg"`
		Lon     float64         `json:"lon" validate:"longitude_deg"`
		RadiusM float64         `json:"radius_m" validate:"gt=0"`
	} `json:"zone"`
}

func (rt *Router) handleZoneTest(w http.ResponseWriter, r *http.Request) {
	var req zoneTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := validation.ValidateStruct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := engine.EvaluateContainment(
		engine.Position{
			Coordinate: geo.Coordinate{Lat: req.Lat, Lon: req.Lon},
			RecordedAt: time.Now().UTC(),
		},
		engine.Zone{
			Name:    "probe",
			Kind:    req.Zone.Kind,
			Center:  geo.Coordinate{Lat: req.Zone.Lat, Lon: req.Zone.Lon},
			RadiusM: req.Zone.RadiusM,
			Active:  true,
		},
	)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

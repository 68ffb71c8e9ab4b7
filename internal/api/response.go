// Tuskwatch - Wildlife Geofence Monitoring and Alert Dispatch
// Copyright 2026 D. Hapuarachchi
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hapuarachchi/tuskwatch

package api

import (
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/hapuarachchi/tuskwatch/internal/logging"
)

// errorResponse is the uniform error envelope.
type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON encodes v as JSON with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("failed to encode response")
	}
}

// writeError encodes an error envelope with the given status code.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

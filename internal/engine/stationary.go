// Tuskwatch - Wildlife Geofence Monitoring and Alert Dispatch
// Copyright 2026 D. Hapuarachchi
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hapuarachchi/tuskwatch

package engine

import (
	"time"

	"github.com/hapuarachchi/tuskwatch/internal/geo"
)

// StationaryConfig tunes abnormal stationary behavior detection.
type StationaryConfig struct {
	// Lookback is how far back position history is fetched.
	Lookback time.Duration `koanf:"lookback"`

	// MinDuration is the minimum span the history must cover before an
	// animal can be flagged stationary.
	MinDuration time.Duration `koanf:"min_duration"`

	// MovementThresholdM is the distance all samples must stay within
	// for the animal to count as not moving.
	MovementThresholdM float64 `koanf:"movement_threshold_m"`

	// Severity assigned to stationary alerts.
	Severity Severity `koanf:"severity"`
}

// DefaultStationaryConfig returns sensible defaults.
func DefaultStationaryConfig() StationaryConfig {
	return StationaryConfig{
		Lookback:           6 * time.Hour,
		MinDuration:        4 * time.Hour,
		MovementThresholdM: 50,
		Severity:           SeverityHigh,
	}
}

// StationaryResult is the outcome of a stationary check.
type StationaryResult struct {
	// Stationary is true when the animal has not moved beyond the
	// threshold for at least the minimum duration.
	Stationary bool `json:"stationary"`

	// Indeterminate is true when the window held fewer than two
	// samples; no conclusion is drawn and no alert is raised.
	Indeterminate bool `json:"indeterminate"`

	// SpreadM is the maximum distance of any sample from the first.
	SpreadM float64 `json:"spread_m"`

	// Span is the time covered by the window.
	Span time.Duration `json:"span"`
}

// DetectStationary examines an ascending-ordered position history window
// and reports whether the animal is stuck. Fewer than two samples is
// indeterminate, not an error.
func DetectStationary(history []Position, cfg StationaryConfig) StationaryResult {
	if len(history) < 2 {
		return StationaryResult{Indeterminate: true}
	}

	origin := history[0].Coordinate
	if err := origin.Validate(); err != nil {
		return StationaryResult{Indeterminate: true}
	}

	var spread float64
	for _, p := range history[1:] {
		if err := p.Coordinate.Validate(); err != nil {
			// Malformed samples cannot prove movement either way.
			return StationaryResult{Indeterminate: true}
		}
		if d := geo.DistanceMeters(origin, p.Coordinate); d > spread {
			spread = d
		}
	}

	span := history[len(history)-1].RecordedAt.Sub(history[0].RecordedAt)

	return StationaryResult{
		Stationary: spread <= cfg.MovementThresholdM && span >= cfg.MinDuration,
		SpreadM:    spread,
		Span:       span,
	}
}

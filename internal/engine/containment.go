// Tuskwatch - Wildlife Geofence Monitoring and Alert Dispatch
// Copyright 2026 D. Hapuarachchi
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hapuarachchi/tuskwatch

package engine

import (
	"fmt"

	"github.com/hapuarachchi/tuskwatch/internal/geo"
)

// EvaluateContainment computes the containment status of a position
// against a single zone. Pure: the transition check against the previous
// status lives in the run, so the same evaluation serves both the
// scheduled run and the manual test-location action.
func EvaluateContainment(pos Position, zone Zone) (ContainmentResult, error) {
	if err := pos.Coordinate.Validate(); err != nil {
		return ContainmentResult{}, fmt.Errorf("position for animal %d: %w", pos.AnimalID, err)
	}
	if err := zone.Center.Validate(); err != nil {
		return ContainmentResult{}, fmt.Errorf("zone %q center: %w", zone.Name, err)
	}
	if zone.RadiusM <= 0 {
		return ContainmentResult{}, fmt.Errorf("zone %q: %w: radius must be positive, got %f",
			zone.Name, ErrValidation, zone.RadiusM)
	}

	distance := geo.DistanceMeters(pos.Coordinate, zone.Center)

	status := StatusOutside
	if distance <= zone.RadiusM {
		status = StatusInside
	}

	return ContainmentResult{
		Status:    status,
		DistanceM: distance,
		Severity:  severityFor(zone.Kind, status),
	}, nil
}

// severityFor maps a zone kind and the freshly computed containment
// status to an alert severity, in priority order:
//
//  1. restricted + inside  -> critical
//  2. safe + outside       -> high
//  3. monitoring change    -> medium
//  4. any other change     -> low
func severityFor(kind ZoneKind, status ContainmentStatus) Severity {
	switch {
	case kind == ZoneKindRestricted && status == StatusInside:
		return SeverityCritical
	case kind == ZoneKindSafe && status == StatusOutside:
		return SeverityHigh
	case kind == ZoneKindMonitoring:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// transitionKind maps the new containment status to the alert kind
// raised for the transition into that status.
func transitionKind(status ContainmentStatus) AlertKind {
	if status == StatusInside {
		return AlertKindZoneEnter
	}
	return AlertKindZoneExit
}

// contradictedKind returns the open-alert kind that the current status
// invalidates: an animal observed outside contradicts an open zone_enter
// alert and vice versa. Used for auto-resolution.
func contradictedKind(status ContainmentStatus) AlertKind {
	if status == StatusInside {
		return AlertKindZoneExit
	}
	return AlertKindZoneEnter
}

// Tuskwatch - Wildlife Geofence Monitoring and Alert Dispatch
// Copyright 2026 D. Hapuarachchi
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hapuarachchi/tuskwatch

package engine

import "errors"

var (
	// ErrValidation marks malformed input (coordinates, radius,
	// severity) rejected before evaluation. Recorded per animal/zone in
	// the run summary, never run-fatal.
	ErrValidation = errors.New("validation error")

	// ErrInfrastructure marks a failure that prevents the orchestration
	// loop from starting at all, the only run-fatal condition.
	ErrInfrastructure = errors.New("infrastructure failure")
)

// Tuskwatch - Wildlife Geofence Monitoring and Alert Dispatch
// Copyright 2026 D. Hapuarachchi
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hapuarachchi/tuskwatch

// Package engine implements the geofence evaluation and alert dispatch
// pipeline for tracked wildlife.
//
// Evaluation Architecture:
//
//	Positions + Zones + Authorities -> EvaluationRun -> Alert -> Fan-out
//	                                    |                |
//	                                    v                v
//	                      Containment / Stationary   SMS / Email
//
// One run iterates all trackable animals on a bounded worker pool. For
// each animal it evaluates the latest position against every applicable
// zone, raising an alert only on containment transitions, and runs the
// stationary detector over the recent position history. Alerts pass
// through the store's idempotent dedup upsert (at most one open alert
// per animal, zone-or-none and kind), so overlapping scheduled runs
// never double-alert. Newly created alerts fan out to every matched
// authority/channel pair with per-target timeouts; a single failed
// delivery is recorded and never fails the run.
//
// All per-animal, per-zone and per-delivery failures are downgraded to
// entries in the RunSummary. Only persistence being unreachable at run
// start aborts a run.
package engine

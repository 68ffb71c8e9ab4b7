// Tuskwatch - Wildlife Geofence Monitoring and Alert Dispatch
// Copyright 2026 D. Hapuarachchi
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hapuarachchi/tuskwatch

package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema creates the engine-owned alert table plus the upstream-owned
// tables it reads. The partial unique index on the dedup tuple is what
// makes UpsertIfAbsent safe under concurrent runs: the insert either
// wins or conflicts, and a conflict means the alert already exists.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS animals (
		id         BIGSERIAL PRIMARY KEY,
		name       TEXT NOT NULL,
		collar_id  TEXT NOT NULL DEFAULT '',
		trackable  BOOLEAN NOT NULL DEFAULT TRUE
	)`,

	`CREATE TABLE IF NOT EXISTS positions (
		id          BIGSERIAL PRIMARY KEY,
		animal_id   BIGINT NOT NULL REFERENCES animals(id),
		latitude    DOUBLE PRECISION NOT NULL,
		longitude   DOUBLE PRECISION NOT NULL,
		recorded_at TIMESTAMPTZ NOT NULL,
		speed_kmh   DOUBLE PRECISION,
		accuracy_m  DOUBLE PRECISION
	)`,

	`CREATE INDEX IF NOT EXISTS positions_animal_time
		ON positions (animal_id, recorded_at DESC)`,

	`CREATE TABLE IF NOT EXISTS zones (
		id                 BIGSERIAL PRIMARY KEY,
		name               TEXT NOT NULL,
		kind               TEXT NOT NULL,
		center_lat         DOUBLE PRECISION NOT NULL,
		center_lng         DOUBLE PRECISION NOT NULL,
		radius_m           DOUBLE PRECISION NOT NULL CHECK (radius_m > 0),
		assigned_animal_id BIGINT REFERENCES animals(id),
		active             BOOLEAN NOT NULL DEFAULT TRUE
	)`,

	`CREATE TABLE IF NOT EXISTS authorities (
		id            BIGSERIAL PRIMARY KEY,
		name          TEXT NOT NULL,
		email         TEXT NOT NULL DEFAULT '',
		phone         TEXT NOT NULL DEFAULT '',
		email_enabled BOOLEAN NOT NULL DEFAULT FALSE,
		sms_enabled   BOOLEAN NOT NULL DEFAULT FALSE,
		severities    TEXT[] NOT NULL DEFAULT '{}',
		active        BOOLEAN NOT NULL DEFAULT TRUE
	)`,

	`CREATE TABLE IF NOT EXISTS alerts (
		id          BIGSERIAL PRIMARY KEY,
		animal_id   BIGINT NOT NULL REFERENCES animals(id),
		zone_id     BIGINT REFERENCES zones(id),
		kind        TEXT NOT NULL,
		severity    TEXT NOT NULL,
		status      TEXT NOT NULL DEFAULT 'active',
		message     TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		resolved_at TIMESTAMPTZ
	)`,

	// At most one non-resolved alert per (animal, zone-or-none, kind).
	// Stationary alerts carry NULL zone_id and collapse onto 0.
	`CREATE UNIQUE INDEX IF NOT EXISTS alerts_open_dedup
		ON alerts (animal_id, (COALESCE(zone_id, 0)), kind)
		WHERE status <> 'resolved'`,
}

// EnsureSchema creates the tables and indexes if they do not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

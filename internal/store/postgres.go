// Tuskwatch - Wildlife Geofence Monitoring and Alert Dispatch
// Copyright 2026 D. Hapuarachchi
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hapuarachchi/tuskwatch

// Package store provides Postgres-backed persistence for the evaluation
// engine, plus an in-memory implementation for development and tests.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hapuarachchi/tuskwatch/internal/engine"
	"github.com/hapuarachchi/tuskwatch/internal/metrics"
)

// PostgresStore implements engine.TrackingStore and engine.AlertStore
// on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an existing pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Connect opens a pool against the DSN and verifies connectivity.
func Connect(ctx context.Context, dsn string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// EnsureSchema creates the tables and indexes if they do not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	return EnsureSchema(ctx, s.pool)
}

// Close releases the underlying pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping verifies the store is reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// ListAnimals returns all trackable animals.
func (s *PostgresStore) ListAnimals(ctx context.Context) ([]engine.Animal, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, collar_id FROM animals WHERE trackable ORDER BY id`)
	if err != nil {
		metrics.StoreErrors.WithLabelValues("list_animals").Inc()
		return nil, fmt.Errorf("list animals: %w", err)
	}
	defer rows.Close()

	var animals []engine.Animal
	for rows.Next() {
		var a engine.Animal
		if err := rows.Scan(&a.ID, &a.Name, &a.CollarID); err != nil {
			return nil, fmt.Errorf("scan animal: %w", err)
		}
		animals = append(animals, a)
	}
	return animals, rows.Err()
}

// LatestPosition returns the most recent position for an animal, or nil
// if none has been ingested.
func (s *PostgresStore) LatestPosition(ctx context.Context, animalID int64) (*engine.Position, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT animal_id, latitude, longitude, recorded_at, speed_kmh, accuracy_m
		 FROM positions WHERE animal_id = $1
		 ORDER BY recorded_at DESC LIMIT 1`, animalID)

	p, err := scanPosition(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		metrics.StoreErrors.WithLabelValues("latest_position").Inc()
		return nil, fmt.Errorf("latest position for animal %d: %w", animalID, err)
	}
	return p, nil
}

// PositionHistory returns positions recorded at or after since, ascending.
func (s *PostgresStore) PositionHistory(ctx context.Context, animalID int64, since time.Time) ([]engine.Position, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT animal_id, latitude, longitude, recorded_at, speed_kmh, accuracy_m
		 FROM positions WHERE animal_id = $1 AND recorded_at >= $2
		 ORDER BY recorded_at ASC`, animalID, since)
	if err != nil {
		metrics.StoreErrors.WithLabelValues("position_history").Inc()
		return nil, fmt.Errorf("position history for animal %d: %w", animalID, err)
	}
	defer rows.Close()

	var history []engine.Position
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		history = append(history, *p)
	}
	return history, rows.Err()
}

// ActiveZones returns all active zones.
func (s *PostgresStore) ActiveZones(ctx context.Context) ([]engine.Zone, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, kind, center_lat, center_lng, radius_m, assigned_animal_id, active
		 FROM zones WHERE active ORDER BY id`)
	if err != nil {
		metrics.StoreErrors.WithLabelValues("active_zones").Inc()
		return nil, fmt.Errorf("active zones: %w", err)
	}
	defer rows.Close()

	var zones []engine.Zone
	for rows.Next() {
		var z engine.Zone
		if err := rows.Scan(&z.ID, &z.Name, &z.Kind, &z.Center.Lat, &z.Center.Lon,
			&z.RadiusM, &z.AssignedAnimalID, &z.Active); err != nil {
			return nil, fmt.Errorf("scan zone: %w", err)
		}
		zones = append(zones, z)
	}
	return zones, rows.Err()
}

// ActiveAuthorities returns all active authorities.
func (s *PostgresStore) ActiveAuthorities(ctx context.Context) ([]engine.Authority, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, email, phone, email_enabled, sms_enabled, severities, active
		 FROM authorities WHERE active ORDER BY id`)
	if err != nil {
		metrics.StoreErrors.WithLabelValues("active_authorities").Inc()
		return nil, fmt.Errorf("active authorities: %w", err)
	}
	defer rows.Close()

	var authorities []engine.Authority
	for rows.Next() {
		var a engine.Authority
		var severities []string
		if err := rows.Scan(&a.ID, &a.Name, &a.Email, &a.Phone,
			&a.EmailEnabled, &a.SMSEnabled, &severities, &a.Active); err != nil {
			return nil, fmt.Errorf("scan authority: %w", err)
		}
		a.Severities = make([]engine.Severity, len(severities))
		for i, sev := range severities {
			a.Severities[i] = engine.Severity(sev)
		}
		authorities = append(authorities, a)
	}
	return authorities, rows.Err()
}

// UpsertIfAbsent inserts the candidate unless an open alert with the
// same dedup key exists. The partial unique index arbitrates races:
// a conflicting insert loses and reads back the winner.
func (s *PostgresStore) UpsertIfAbsent(ctx context.Context, candidate *engine.Alert) (*engine.Alert, bool, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO alerts (animal_id, zone_id, kind, severity, status, message, created_at)
		 VALUES ($1, $2, $3, $4, 'active', $5, $6)
		 ON CONFLICT (animal_id, (COALESCE(zone_id, 0)), kind) WHERE status <> 'resolved'
		 DO NOTHING
		 RETURNING id, created_at`,
		candidate.AnimalID, candidate.ZoneID, candidate.Kind,
		candidate.Severity, candidate.Message, candidate.CreatedAt)

	inserted := *candidate
	inserted.Status = engine.AlertStatusActive
	err := row.Scan(&inserted.ID, &inserted.CreatedAt)
	if err == nil {
		return &inserted, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		metrics.StoreErrors.WithLabelValues("upsert_alert").Inc()
		return nil, false, fmt.Errorf("insert alert: %w", err)
	}

	// Lost the race or the alert was already open: return the winner.
	existing, err := s.OpenAlert(ctx, candidate.AnimalID, candidate.ZoneID, candidate.Kind)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		// The open alert vanished between insert and read; one more
		// run-through will converge.
		return nil, false, fmt.Errorf("alert %s: concurrent resolve during upsert", candidate.DedupKey())
	}
	return existing, false, nil
}

// OpenAlert returns the open alert for the dedup key, or nil if none.
func (s *PostgresStore) OpenAlert(ctx context.Context, animalID int64, zoneID *int64, kind engine.AlertKind) (*engine.Alert, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, animal_id, zone_id, kind, severity, status, message, created_at, resolved_at
		 FROM alerts
		 WHERE animal_id = $1 AND COALESCE(zone_id, 0) = COALESCE($2, 0)
		   AND kind = $3 AND status <> 'resolved'`,
		animalID, zoneID, kind)

	var a engine.Alert
	err := row.Scan(&a.ID, &a.AnimalID, &a.ZoneID, &a.Kind, &a.Severity,
		&a.Status, &a.Message, &a.CreatedAt, &a.ResolvedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		metrics.StoreErrors.WithLabelValues("open_alert").Inc()
		return nil, fmt.Errorf("open alert lookup: %w", err)
	}
	return &a, nil
}

// Resolve transitions an alert to resolved and stamps resolved_at.
func (s *PostgresStore) Resolve(ctx context.Context, alertID int64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE alerts SET status = 'resolved', resolved_at = now()
		 WHERE id = $1 AND status <> 'resolved'`, alertID)
	if err != nil {
		metrics.StoreErrors.WithLabelValues("resolve_alert").Inc()
		return fmt.Errorf("resolve alert %d: %w", alertID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("resolve alert %d: not found or already resolved", alertID)
	}
	return nil
}

// scanPosition scans one position row.
func scanPosition(row pgx.Row) (*engine.Position, error) {
	var p engine.Position
	if err := row.Scan(&p.AnimalID, &p.Coordinate.Lat, &p.Coordinate.Lon,
		&p.RecordedAt, &p.SpeedKmH, &p.AccuracyM); err != nil {
		return nil, err
	}
	return &p, nil
}

// Tuskwatch - Wildlife Geofence Monitoring and Alert Dispatch
// Copyright 2026 D. Hapuarachchi
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hapuarachchi/tuskwatch

package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/hapuarachchi/tuskwatch/internal/engine"
	"github.com/hapuarachchi/tuskwatch/internal/geo"
)

func TestMemoryStore_UpsertIfAbsentIdempotent(t *testing.T) {
	s := NewMemoryStore()
	zoneID := int64(10)
	candidate := &engine.Alert{
		AnimalID: 1,
		ZoneID:   &zoneID,
		Kind:     engine.AlertKindZoneEnter,
		Severity: engine.SeverityCritical,
	}

	first, created, err := s.UpsertIfAbsent(context.Background(), candidate)
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if !created {
		t.Fatal("first upsert should create")
	}
	if first.Status != engine.AlertStatusActive {
		t.Errorf("status = %s, want active", first.Status)
	}

	second, created, err := s.UpsertIfAbsent(context.Background(), candidate)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if created {
		t.Fatal("second upsert must not create")
	}
	if second.ID != first.ID {
		t.Errorf("second upsert returned alert %d, want %d", second.ID, first.ID)
	}
	if s.OpenAlertCount() != 1 {
		t.Errorf("open alerts = %d, want exactly 1", s.OpenAlertCount())
	}
}

func TestMemoryStore_DedupKeySeparatesKindsAndZones(t *testing.T) {
	s := NewMemoryStore()
	zoneA, zoneB := int64(1), int64(2)

	candidates := []*engine.Alert{
		{AnimalID: 1, ZoneID: &zoneA, Kind: engine.AlertKindZoneEnter, Severity: engine.SeverityCritical},
		{AnimalID: 1, ZoneID: &zoneA, Kind: engine.AlertKindZoneExit, Severity: engine.SeverityLow},
		{AnimalID: 1, ZoneID: &zoneB, Kind: engine.AlertKindZoneEnter, Severity: engine.SeverityHigh},
		{AnimalID: 1, ZoneID: nil, Kind: engine.AlertKindStationary, Severity: engine.SeverityHigh},
		{AnimalID: 2, ZoneID: &zoneA, Kind: engine.AlertKindZoneEnter, Severity: engine.SeverityCritical},
	}

	for _, c := range candidates {
		if _, created, err := s.UpsertIfAbsent(context.Background(), c); err != nil || !created {
			t.Fatalf("upsert %s: created=%v err=%v", c.DedupKey(), created, err)
		}
	}
	if s.OpenAlertCount() != len(candidates) {
		t.Errorf("open alerts = %d, want %d distinct dedup keys", s.OpenAlertCount(), len(candidates))
	}
}

func TestMemoryStore_UpsertRace(t *testing.T) {
	s := NewMemoryStore()
	zoneID := int64(10)

	var wg sync.WaitGroup
	createdCount := make(chan bool, 16)
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, created, err := s.UpsertIfAbsent(context.Background(), &engine.Alert{
				AnimalID: 1, ZoneID: &zoneID, Kind: engine.AlertKindZoneEnter,
				Severity: engine.SeverityCritical,
			})
			if err != nil {
				t.Errorf("upsert: %v", err)
				return
			}
			createdCount <- created
		}()
	}
	wg.Wait()
	close(createdCount)

	var winners int
	for created := range createdCount {
		if created {
			winners++
		}
	}
	if winners != 1 {
		t.Errorf("race produced %d winners, want exactly 1", winners)
	}
	if s.OpenAlertCount() != 1 {
		t.Errorf("open alerts = %d, want 1", s.OpenAlertCount())
	}
}

func TestMemoryStore_ResolveReopensDedupKey(t *testing.T) {
	s := NewMemoryStore()
	zoneID := int64(10)
	candidate := &engine.Alert{
		AnimalID: 1, ZoneID: &zoneID, Kind: engine.AlertKindZoneEnter,
		Severity: engine.SeverityCritical,
	}

	first, _, err := s.UpsertIfAbsent(context.Background(), candidate)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := s.Resolve(context.Background(), first.ID); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if open, _ := s.OpenAlert(context.Background(), 1, &zoneID, engine.AlertKindZoneEnter); open != nil {
		t.Fatal("resolved alert should not be open")
	}

	// The dedup constraint only covers non-resolved alerts, so a fresh
	// alert for the same condition can now be created.
	second, created, err := s.UpsertIfAbsent(context.Background(), candidate)
	if err != nil || !created {
		t.Fatalf("upsert after resolve: created=%v err=%v", created, err)
	}
	if second.ID == first.ID {
		t.Error("new alert should have a new id")
	}
}

func TestMemoryStore_ResolveErrors(t *testing.T) {
	s := NewMemoryStore()
	if err := s.Resolve(context.Background(), 42); err == nil {
		t.Error("resolving a missing alert should error")
	}

	zoneID := int64(10)
	alert, _, _ := s.UpsertIfAbsent(context.Background(), &engine.Alert{
		AnimalID: 1, ZoneID: &zoneID, Kind: engine.AlertKindZoneEnter,
	})
	if err := s.Resolve(context.Background(), alert.ID); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if err := s.Resolve(context.Background(), alert.ID); err == nil {
		t.Error("double resolve should error")
	}
}

func TestMemoryStore_PositionQueries(t *testing.T) {
	s := NewMemoryStore()
	base := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	// Inserted out of order; the store keeps per-animal order.
	for _, offset := range []time.Duration{2 * time.Hour, 0, time.Hour} {
		s.AddPosition(engine.Position{
			AnimalID:   1,
			Coordinate: geo.Coordinate{Lat: 6.26, Lon: 81.51},
			RecordedAt: base.Add(offset),
		})
	}

	latest, err := s.LatestPosition(context.Background(), 1)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if !latest.RecordedAt.Equal(base.Add(2 * time.Hour)) {
		t.Errorf("latest recorded_at = %s, want %s", latest.RecordedAt, base.Add(2*time.Hour))
	}

	history, err := s.PositionHistory(context.Background(), 1, base.Add(30*time.Minute))
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}
	if history[0].RecordedAt.After(history[1].RecordedAt) {
		t.Error("history must be ascending")
	}

	if latest, _ := s.LatestPosition(context.Background(), 99); latest != nil {
		t.Error("unknown animal should have nil latest position")
	}
}

func TestMemoryStore_ActiveFiltering(t *testing.T) {
	s := NewMemoryStore()
	s.AddZone(engine.Zone{ID: 1, Name: "a", Kind: engine.ZoneKindSafe, Center: geo.Coordinate{Lat: 6, Lon: 81}, RadiusM: 100, Active: true})
	s.AddZone(engine.Zone{ID: 2, Name: "b", Kind: engine.ZoneKindSafe, Center: geo.Coordinate{Lat: 6, Lon: 81}, RadiusM: 100, Active: false})
	s.AddAuthority(engine.Authority{ID: 1, Active: true})
	s.AddAuthority(engine.Authority{ID: 2, Active: false})

	zones, _ := s.ActiveZones(context.Background())
	if len(zones) != 1 || zones[0].ID != 1 {
		t.Errorf("active zones = %v, want only zone 1", zones)
	}
	authorities, _ := s.ActiveAuthorities(context.Background())
	if len(authorities) != 1 || authorities[0].ID != 1 {
		t.Errorf("active authorities = %v, want only authority 1", authorities)
	}
}

// Tuskwatch - Wildlife Geofence Monitoring and Alert Dispatch
// Copyright 2026 D. Hapuarachchi
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hapuarachchi/tuskwatch

package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hapuarachchi/tuskwatch/internal/engine"
)

// MemoryStore is an in-memory implementation of engine.TrackingStore
// and engine.AlertStore. It preserves the same dedup semantics as the
// Postgres store and backs local development and tests.
type MemoryStore struct {
	mu          sync.Mutex
	animals     []engine.Animal
	positions   map[int64][]engine.Position // ascending per animal
	zones       []engine.Zone
	authorities []engine.Authority

	nextAlertID int64
	alerts      map[int64]*engine.Alert
	openByKey   map[string]int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		positions: make(map[int64][]engine.Position),
		alerts:    make(map[int64]*engine.Alert),
		openByKey: make(map[string]int64),
	}
}

// AddAnimal registers a trackable animal.
func (s *MemoryStore) AddAnimal(a engine.Animal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.animals = append(s.animals, a)
}

// AddPosition appends a position sample, keeping per-animal order.
func (s *MemoryStore) AddPosition(p engine.Position) {
	s.mu.Lock()
	defer s.mu.Unlock()
	history := append(s.positions[p.AnimalID], p)
	sort.Slice(history, func(i, j int) bool {
		return history[i].RecordedAt.Before(history[j].RecordedAt)
	})
	s.positions[p.AnimalID] = history
}

// AddZone registers a zone.
func (s *MemoryStore) AddZone(z engine.Zone) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zones = append(s.zones, z)
}

// AddAuthority registers an authority.
func (s *MemoryStore) AddAuthority(a engine.Authority) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authorities = append(s.authorities, a)
}

// Ping always succeeds for the in-memory store.
func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

// ListAnimals returns all trackable animals.
func (s *MemoryStore) ListAnimals(ctx context.Context) ([]engine.Animal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]engine.Animal, len(s.animals))
	copy(out, s.animals)
	return out, nil
}

// LatestPosition returns the most recent position, or nil if none.
func (s *MemoryStore) LatestPosition(ctx context.Context, animalID int64) (*engine.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	history := s.positions[animalID]
	if len(history) == 0 {
		return nil, nil
	}
	p := history[len(history)-1]
	return &p, nil
}

// PositionHistory returns positions recorded at or after since, ascending.
func (s *MemoryStore) PositionHistory(ctx context.Context, animalID int64, since time.Time) ([]engine.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []engine.Position
	for _, p := range s.positions[animalID] {
		if !p.RecordedAt.Before(since) {
			out = append(out, p)
		}
	}
	return out, nil
}

// ActiveZones returns all active zones.
func (s *MemoryStore) ActiveZones(ctx context.Context) ([]engine.Zone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []engine.Zone
	for _, z := range s.zones {
		if z.Active {
			out = append(out, z)
		}
	}
	return out, nil
}

// ActiveAuthorities returns all active authorities.
func (s *MemoryStore) ActiveAuthorities(ctx context.Context) ([]engine.Authority, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []engine.Authority
	for _, a := range s.authorities {
		if a.Active {
			out = append(out, a)
		}
	}
	return out, nil
}

// UpsertIfAbsent inserts the candidate unless an open alert with the
// same dedup key exists; the check-and-insert happens under one lock,
// mirroring the Postgres partial unique index.
func (s *MemoryStore) UpsertIfAbsent(ctx context.Context, candidate *engine.Alert) (*engine.Alert, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := candidate.DedupKey()
	if id, ok := s.openByKey[key]; ok {
		existing := *s.alerts[id]
		return &existing, false, nil
	}

	s.nextAlertID++
	stored := *candidate
	stored.ID = s.nextAlertID
	stored.Status = engine.AlertStatusActive
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	s.alerts[stored.ID] = &stored
	s.openByKey[key] = stored.ID

	created := stored
	return &created, true, nil
}

// OpenAlert returns the open alert for the dedup key, or nil if none.
func (s *MemoryStore) OpenAlert(ctx context.Context, animalID int64, zoneID *int64, kind engine.AlertKind) (*engine.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := engine.Alert{AnimalID: animalID, ZoneID: zoneID, Kind: kind}.DedupKey()
	id, ok := s.openByKey[key]
	if !ok {
		return nil, nil
	}
	a := *s.alerts[id]
	return &a, nil
}

// Resolve transitions an alert to resolved and stamps resolved_at.
func (s *MemoryStore) Resolve(ctx context.Context, alertID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.alerts[alertID]
	if !ok {
		return fmt.Errorf("resolve alert %d: not found", alertID)
	}
	if a.Status == engine.AlertStatusResolved {
		return fmt.Errorf("resolve alert %d: already resolved", alertID)
	}
	now := time.Now()
	a.Status = engine.AlertStatusResolved
	a.ResolvedAt = &now
	delete(s.openByKey, a.DedupKey())
	return nil
}

// OpenAlertCount reports the number of currently open alerts.
func (s *MemoryStore) OpenAlertCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.openByKey)
}

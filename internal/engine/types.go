// Tuskwatch - Wildlife Geofence Monitoring and Alert Dispatch
// Copyright 2026 D. Hapuarachchi
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hapuarachchi/tuskwatch

package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/hapuarachchi/tuskwatch/internal/geo"
)

// ZoneKind classifies a geofenced zone.
type ZoneKind string

const (
	// ZoneKindRestricted marks zones animals must stay out of
	// (villages, crop fields, railway corridors).
	ZoneKindRestricted ZoneKind = "restricted"

	// ZoneKindSafe marks zones animals are expected to stay within
	// (park boundaries, reserves).
	ZoneKindSafe ZoneKind = "safe"

	// ZoneKindMonitoring marks zones tracked for observation only.
	ZoneKindMonitoring ZoneKind = "monitoring"
)

// AlertKind identifies the condition an alert reports.
type AlertKind string

const (
	AlertKindZoneEnter  AlertKind = "zone_enter"
	AlertKindZoneExit   AlertKind = "zone_exit"
	AlertKindStationary AlertKind = "stationary"
)

// Severity indicates the priority level of an alert.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// AlertStatus is the lifecycle state of an alert.
type AlertStatus string

const (
	AlertStatusPending  AlertStatus = "pending"
	AlertStatusActive   AlertStatus = "active"
	AlertStatusResolved AlertStatus = "resolved"
)

// Channel identifies a notification delivery channel.
type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
)

// ContainmentStatus is the result of a zone containment test.
type ContainmentStatus string

const (
	StatusInside  ContainmentStatus = "inside"
	StatusOutside ContainmentStatus = "outside"
)

// Animal is a collared animal eligible for evaluation.
type Animal struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	CollarID string `json:"collar_id,omitempty"`
}

// Position is one immutable location sample for an animal.
type Position struct {
	AnimalID   int64          `json:"animal_id"`
	Coordinate geo.Coordinate `json:"coordinate"`
	RecordedAt time.Time      `json:"recorded_at"`
	SpeedKmH   *float64       `json:"speed_kmh,omitempty"`
	AccuracyM  *float64       `json:"accuracy_m,omitempty"`
}

// Zone is a circular geofence.
type Zone struct {
	ID               int64          `json:"id"`
	Name             string         `json:"name"`
	Kind             ZoneKind       `json:"kind"`
	Center           geo.Coordinate `json:"center"`
	RadiusM          float64        `json:"radius_m"`
	AssignedAnimalID *int64         `json:"assigned_animal_id,omitempty"`
	Active           bool           `json:"active"`
}

// AppliesTo reports whether the zone is evaluated for the given animal.
// A zone with no assigned animal applies to all animals.
func (z Zone) AppliesTo(animalID int64) bool {
	return z.AssignedAnimalID == nil || *z.AssignedAnimalID == animalID
}

// Authority is a notification recipient configured by the administrative
// subsystem. Read-only to the engine.
type Authority struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email,omitempty"`
	Phone        string     `json:"phone,omitempty"`
	EmailEnabled bool       `json:"email_enabled"`
	SMSEnabled   bool       `json:"sms_enabled"`
	Severities   []Severity `json:"severities"`
	Active       bool       `json:"active"`
}

// SubscribedTo reports whether the authority is subscribed to the severity.
func (a Authority) SubscribedTo(severity Severity) bool {
	for _, s := range a.Severities {
		if s == severity {
			return true
		}
	}
	return false
}

// Alert is a persisted alert record.
type Alert struct {
	ID         int64       `json:"id"`
	AnimalID   int64       `json:"animal_id"`
	ZoneID     *int64      `json:"zone_id,omitempty"`
	Kind       AlertKind   `json:"kind"`
	Severity   Severity    `json:"severity"`
	Status     AlertStatus `json:"status"`
	Message    string      `json:"message"`
	CreatedAt  time.Time   `json:"created_at"`
	ResolvedAt *time.Time  `json:"resolved_at,omitempty"`
}

// DedupKey returns the uniqueness key enforcing at most one open alert
// per (animal, zone-or-none, kind). Stationary alerts carry no zone and
// collapse onto zone 0.
func (a Alert) DedupKey() string {
	var zone int64
	if a.ZoneID != nil {
		zone = *a.ZoneID
	}
	return fmt.Sprintf("%d:%d:%s", a.AnimalID, zone, a.Kind)
}

// Open reports whether the alert has not been resolved.
func (a Alert) Open() bool {
	return a.Status != AlertStatusResolved
}

// ContainmentResult is the outcome of evaluating one position against
// one zone.
type ContainmentResult struct {
	Status    ContainmentStatus `json:"status"`
	DistanceM float64           `json:"distance_m"`
	Severity  Severity          `json:"severity"`
}

// DeliveryTarget pairs an authority with one of its enabled channels.
type DeliveryTarget struct {
	Authority Authority `json:"authority"`
	Channel   Channel   `json:"channel"`
	Contact   string    `json:"contact"`
}

// DeliveryOutcome records the result of one delivery attempt.
type DeliveryOutcome struct {
	AlertID     int64   `json:"alert_id"`
	AuthorityID int64   `json:"authority_id"`
	Channel     Channel `json:"channel"`
	Success     bool    `json:"success"`
	Error       string  `json:"error,omitempty"`
}

// RunSummary is the contract returned to the scheduler after one run.
type RunSummary struct {
	RunID            string        `json:"run_id"`
	StartedAt        time.Time     `json:"started_at"`
	Duration         time.Duration `json:"duration"`
	AnimalsChecked   int           `json:"animals_checked"`
	AlertsGenerated  int           `json:"alerts_generated"`
	AlertsSent       int           `json:"alerts_sent"`
	AlertsResolved   int           `json:"alerts_resolved"`
	DeliveriesFailed int           `json:"deliveries_failed"`
	Errors           []string      `json:"errors"`
}

// TrackingStore provides read access to the animal, position, zone and
// authority data owned by the upstream ingestion and administrative
// subsystems.
type TrackingStore interface {
	// Ping verifies the store is reachable. Called at run start; a
	// failure here is the only run-fatal condition.
	Ping(ctx context.Context) error

	// ListAnimals returns all trackable animals.
	ListAnimals(ctx context.Context) ([]Animal, error)

	// LatestPosition returns the most recent position for an animal,
	// or nil if none has been ingested.
	LatestPosition(ctx context.Context, animalID int64) (*Position, error)

	// PositionHistory returns positions recorded at or after since,
	// ordered by recording time ascending.
	PositionHistory(ctx context.Context, animalID int64, since time.Time) ([]Position, error)

	// ActiveZones returns all active zones.
	ActiveZones(ctx context.Context) ([]Zone, error)

	// ActiveAuthorities returns all active authorities.
	ActiveAuthorities(ctx context.Context) ([]Authority, error)
}

// AlertStore persists alerts and enforces the dedup invariant.
type AlertStore interface {
	// UpsertIfAbsent atomically persists the candidate as active unless
	// an open alert with the same dedup key already exists, in which
	// case the existing alert is returned with created=false. Safe
	// under concurrent runs: a conflicting insert means already exists.
	UpsertIfAbsent(ctx context.Context, candidate *Alert) (*Alert, bool, error)

	// OpenAlert returns the open alert for the dedup key, or nil if none.
	OpenAlert(ctx context.Context, animalID int64, zoneID *int64, kind AlertKind) (*Alert, error)

	// Resolve transitions an alert to resolved and stamps resolved_at.
	Resolve(ctx context.Context, alertID int64) error
}

// ChannelSender delivers one message over a single channel. The concrete
// transport (SMTP, SMS gateway) is a black box to the engine.
type ChannelSender interface {
	// Channel returns the channel this sender serves.
	Channel() Channel

	// Send delivers the message to the contact address for this channel.
	Send(ctx context.Context, contact, subject, body string) error
}

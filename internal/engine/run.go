// Tuskwatch - Wildlife Geofence Monitoring and Alert Dispatch
// Copyright 2026 D. Hapuarachchi
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hapuarachchi/tuskwatch

package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hapuarachchi/tuskwatch/internal/logging"
	"github.com/hapuarachchi/tuskwatch/internal/metrics"
)

// Config tunes one evaluation run.
type Config struct {
	// Workers bounds the per-animal worker pool.
	Workers int `koanf:"workers"`

	// DeliveryTimeout bounds each notification delivery attempt.
	DeliveryTimeout time.Duration `koanf:"delivery_timeout"`

	// Stationary configures abnormal stationary behavior detection.
	Stationary StationaryConfig `koanf:"stationary"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Workers:         4,
		DeliveryTimeout: DefaultDeliveryTimeout,
		Stationary:      DefaultStationaryConfig(),
	}
}

// Runner orchestrates one evaluation run across all trackable animals.
// Correctness under overlapping runs relies entirely on the alert
// store's idempotent upsert, not on run-level locking.
type Runner struct {
	cfg      Config
	tracking TrackingStore
	alerts   AlertStore
	fanout   *Fanout

	now func() time.Time
}

// NewRunner creates an evaluation runner.
func NewRunner(cfg Config, tracking TrackingStore, alerts AlertStore, fanout *Fanout) *Runner {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig().Workers
	}
	if cfg.Stationary.Severity == "" {
		cfg.Stationary.Severity = SeverityHigh
	}
	return &Runner{
		cfg:      cfg,
		tracking: tracking,
		alerts:   alerts,
		fanout:   fanout,
		now:      time.Now,
	}
}

// runState accumulates the summary for one run under a mutex, since
// per-animal evaluation is parallelized.
type runState struct {
	mu          sync.Mutex
	summary     RunSummary
	authorities []Authority
}

func (s *runState) addError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary.Errors = append(s.summary.Errors, msg)
}

// Run executes one evaluation across all trackable animals and returns
// the run summary. Per-animal failures are downgraded to summary errors;
// the returned error is non-nil only when the orchestration loop could
// not start at all (persistence unreachable, configuration unloadable).
func (r *Runner) Run(ctx context.Context) (*RunSummary, error) {
	runID := uuid.NewString()
	start := r.now()

	runLog := logging.With().Str("run_id", runID).Logger()
	runLog.Info().Msg("evaluation run started")

	if err := r.tracking.Ping(ctx); err != nil {
		return nil, fmt.Errorf("%w: tracking store unreachable: %v", ErrInfrastructure, err)
	}

	zones, err := r.tracking.ActiveZones(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: load zones: %v", ErrInfrastructure, err)
	}
	authorities, err := r.tracking.ActiveAuthorities(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: load authorities: %v", ErrInfrastructure, err)
	}
	animals, err := r.tracking.ListAnimals(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list animals: %v", ErrInfrastructure, err)
	}

	state := &runState{
		summary:     RunSummary{RunID: runID, StartedAt: start, Errors: []string{}},
		authorities: authorities,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)

	for _, animal := range animals {
		g.Go(func() error {
			r.processAnimal(gctx, animal, zones, state)
			return nil
		})
	}

	// Workers never return errors; per-animal failures land in the summary.
	_ = g.Wait()

	state.summary.Duration = r.now().Sub(start)
	metrics.RunDuration.Observe(state.summary.Duration.Seconds())

	runLog.Info().
		Int("animals_checked", state.summary.AnimalsChecked).
		Int("alerts_generated", state.summary.AlertsGenerated).
		Int("alerts_sent", state.summary.AlertsSent).
		Int("errors", len(state.summary.Errors)).
		Dur("duration", state.summary.Duration).
		Msg("evaluation run completed")

	return &state.summary, nil
}

// processAnimal evaluates one animal against all applicable zones plus
// the stationary check. All failures, including panics, are confined to
// this animal and recorded in the summary.
func (r *Runner) processAnimal(ctx context.Context, animal Animal, zones []Zone, state *runState) {
	defer func() {
		if rec := recover(); rec != nil {
			metrics.AnimalErrors.Inc()
			state.addError(fmt.Sprintf("animal %d (%s): panic: %v", animal.ID, animal.Name, rec))
		}
	}()

	state.mu.Lock()
	state.summary.AnimalsChecked++
	state.mu.Unlock()
	metrics.AnimalsChecked.Inc()

	pos, err := r.tracking.LatestPosition(ctx, animal.ID)
	if err != nil {
		metrics.AnimalErrors.Inc()
		state.addError(fmt.Sprintf("animal %d (%s): latest position: %v", animal.ID, animal.Name, err))
		return
	}

	if pos != nil {
		if err := pos.Coordinate.Validate(); err != nil {
			metrics.AnimalErrors.Inc()
			state.addError(fmt.Sprintf("animal %d (%s): %v", animal.ID, animal.Name, err))
			return
		}
		for _, zone := range zones {
			if !zone.AppliesTo(animal.ID) {
				continue
			}
			if err := r.evaluateZone(ctx, animal, pos, zone, state); err != nil {
				metrics.AnimalErrors.Inc()
				state.addError(fmt.Sprintf("animal %d (%s) zone %q: %v", animal.ID, animal.Name, zone.Name, err))
			}
		}
	} else {
		logging.Debug().Int64("animal_id", animal.ID).Msg("no position ingested yet, skipping zones")
	}

	if err := r.checkStationary(ctx, animal, state); err != nil {
		metrics.AnimalErrors.Inc()
		state.addError(fmt.Sprintf("animal %d (%s): stationary check: %v", animal.ID, animal.Name, err))
	}
}

// evaluateZone runs the containment check for one (animal, zone) pair,
// raising an alert on a transition and auto-resolving the reverted one.
func (r *Runner) evaluateZone(ctx context.Context, animal Animal, pos *Position, zone Zone, state *runState) error {
	result, err := EvaluateContainment(*pos, zone)
	if err != nil {
		return err
	}

	openEnter, err := r.alerts.OpenAlert(ctx, animal.ID, &zone.ID, AlertKindZoneEnter)
	if err != nil {
		return fmt.Errorf("open enter alert lookup: %w", err)
	}
	openExit, err := r.alerts.OpenAlert(ctx, animal.ID, &zone.ID, AlertKindZoneExit)
	if err != nil {
		return fmt.Errorf("open exit alert lookup: %w", err)
	}

	// Previous containment status derives from the open alert of that
	// kind; with no open alert the animal is assumed outside.
	prev := StatusOutside
	if openEnter != nil {
		prev = StatusInside
	}

	// Auto-resolution: the current status contradicts the open alert of
	// the opposite kind, so the condition it reported has reverted.
	contradicted := openExit
	if contradictedKind(result.Status) == AlertKindZoneEnter {
		contradicted = openEnter
	}
	if contradicted != nil {
		if err := r.alerts.Resolve(ctx, contradicted.ID); err != nil {
			metrics.StoreErrors.WithLabelValues("resolve").Inc()
			return fmt.Errorf("resolve alert %d: %w", contradicted.ID, err)
		}
		metrics.AlertsResolved.Inc()
		state.mu.Lock()
		state.summary.AlertsResolved++
		state.mu.Unlock()
		logging.Info().
			Int64("alert_id", contradicted.ID).
			Int64("animal_id", animal.ID).
			Str("zone", zone.Name).
			Msg("containment reverted, alert resolved")
	}

	if result.Status == prev {
		return nil
	}

	kind := transitionKind(result.Status)
	candidate := &Alert{
		AnimalID:  animal.ID,
		ZoneID:    &zone.ID,
		Kind:      kind,
		Severity:  result.Severity,
		Status:    AlertStatusActive,
		CreatedAt: r.now(),
		Message: fmt.Sprintf("%s is %s %s zone %q (%.0f m from center)",
			animal.Name, result.Status, zone.Kind, zone.Name, result.DistanceM),
	}

	return r.raiseAlert(ctx, candidate, animal, &zone, pos, state)
}

// checkStationary runs the stationary detector once per animal,
// independently of zones.
func (r *Runner) checkStationary(ctx context.Context, animal Animal, state *runState) error {
	since := r.now().Add(-r.cfg.Stationary.Lookback)
	history, err := r.tracking.PositionHistory(ctx, animal.ID, since)
	if err != nil {
		return fmt.Errorf("position history: %w", err)
	}

	res := DetectStationary(history, r.cfg.Stationary)
	if res.Indeterminate {
		return nil
	}

	if !res.Stationary {
		// Movement resumed: resolve a lingering stationary alert.
		open, err := r.alerts.OpenAlert(ctx, animal.ID, nil, AlertKindStationary)
		if err != nil {
			return fmt.Errorf("open stationary alert lookup: %w", err)
		}
		if open != nil {
			if err := r.alerts.Resolve(ctx, open.ID); err != nil {
				metrics.StoreErrors.WithLabelValues("resolve").Inc()
				return fmt.Errorf("resolve alert %d: %w", open.ID, err)
			}
			metrics.AlertsResolved.Inc()
			state.mu.Lock()
			state.summary.AlertsResolved++
			state.mu.Unlock()
			logging.Info().
				Int64("alert_id", open.ID).
				Int64("animal_id", animal.ID).
				Msg("movement resumed, stationary alert resolved")
		}
		return nil
	}

	last := history[len(history)-1]
	candidate := &Alert{
		AnimalID:  animal.ID,
		Kind:      AlertKindStationary,
		Severity:  r.cfg.Stationary.Severity,
		Status:    AlertStatusActive,
		CreatedAt: r.now(),
		Message: fmt.Sprintf("%s has moved less than %.0f m in %s (spread %.0f m)",
			animal.Name, r.cfg.Stationary.MovementThresholdM,
			res.Span.Round(time.Minute), res.SpreadM),
	}

	return r.raiseAlert(ctx, candidate, animal, nil, &last, state)
}

// raiseAlert persists the candidate through the dedup upsert and, when
// it is newly created, fans it out to the matched recipients. A lost
// dedup race counts as already-exists, not an error.
func (r *Runner) raiseAlert(ctx context.Context, candidate *Alert, animal Animal, zone *Zone, pos *Position, state *runState) error {
	alert, created, err := r.alerts.UpsertIfAbsent(ctx, candidate)
	if err != nil {
		metrics.StoreErrors.WithLabelValues("upsert").Inc()
		return fmt.Errorf("upsert alert: %w", err)
	}
	if !created {
		logging.Debug().
			Int64("alert_id", alert.ID).
			Str("dedup_key", alert.DedupKey()).
			Msg("alert already open, skipping dispatch")
		return nil
	}

	metrics.AlertsGenerated.WithLabelValues(string(alert.Kind), string(alert.Severity)).Inc()
	state.mu.Lock()
	state.summary.AlertsGenerated++
	authorities := state.authorities
	state.mu.Unlock()

	logging.Info().
		Int64("alert_id", alert.ID).
		Int64("animal_id", animal.ID).
		Str("kind", string(alert.Kind)).
		Str("severity", string(alert.Severity)).
		Msg("alert created")

	targets := MatchRecipients(authorities, alert.Severity, r.fanout.Channels())
	if len(targets) == 0 {
		logging.Debug().Int64("alert_id", alert.ID).Msg("no recipients matched")
		return nil
	}

	subject := alertSubject(alert, animal, zone)
	body := alertBody(alert, animal, zone, pos)
	outcomes := r.fanout.Dispatch(ctx, alert, targets, subject, body)

	state.mu.Lock()
	defer state.mu.Unlock()
	for _, o := range outcomes {
		if o.Success {
			state.summary.AlertsSent++
			continue
		}
		state.summary.DeliveriesFailed++
		state.summary.Errors = append(state.summary.Errors,
			fmt.Sprintf("alert %d: %s delivery to authority %d failed: %s",
				o.AlertID, o.Channel, o.AuthorityID, o.Error))
	}

	return nil
}

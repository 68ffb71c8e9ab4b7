// Tuskwatch - Wildlife Geofence Monitoring and Alert Dispatch
// Copyright 2026 D. Hapuarachchi
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hapuarachchi/tuskwatch

package notify

import (
	"context"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/hapuarachchi/tuskwatch/internal/engine"
	"github.com/hapuarachchi/tuskwatch/internal/logging"
	"github.com/hapuarachchi/tuskwatch/internal/metrics"
)

// BreakerSender wraps a ChannelSender with a circuit breaker so a dead
// channel fails fast instead of burning the per-target timeout on every
// delivery. An open breaker is an ordinary delivery failure to the
// engine, never run-fatal.
type BreakerSender struct {
	inner engine.ChannelSender
	cb    *gobreaker.CircuitBreaker[struct{}]
}

// WithBreaker wraps the sender with a per-channel circuit breaker that
// opens after a 60% failure rate over at least 5 requests and probes
// again after 2 minutes.
func WithBreaker(inner engine.ChannelSender) *BreakerSender {
	name := string(inner.Channel())
	metrics.BreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("channel", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("channel circuit breaker state change")
			metrics.BreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})

	return &BreakerSender{inner: inner, cb: cb}
}

// Channel returns the wrapped sender's channel.
func (b *BreakerSender) Channel() engine.Channel {
	return b.inner.Channel()
}

// Send delivers through the breaker; when the circuit is open the
// attempt fails immediately with gobreaker.ErrOpenState.
func (b *BreakerSender) Send(ctx context.Context, contact, subject, body string) error {
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, b.inner.Send(ctx, contact, subject, body)
	})
	return err
}

// stateToFloat maps breaker states onto the gauge scale.
func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}

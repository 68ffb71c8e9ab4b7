// Tuskwatch - Wildlife Geofence Monitoring and Alert Dispatch
// Copyright 2026 D. Hapuarachchi
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hapuarachchi/tuskwatch

package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hapuarachchi/tuskwatch/internal/metrics"
)

// DefaultDeliveryTimeout bounds a single delivery attempt so a stuck
// channel cannot stall the whole fan-out.
const DefaultDeliveryTimeout = 5 * time.Second

// Fanout dispatches one alert to N delivery targets over their channels.
// Each target is attempted independently and concurrently; one failure
// never blocks or rolls back the others. A single best-effort attempt is
// made per target; retries, if any, belong to the channel collaborator.
type Fanout struct {
	senders map[Channel]ChannelSender
	timeout time.Duration
}

// NewFanout creates a fan-out over the given channel senders.
func NewFanout(senders []ChannelSender, timeout time.Duration) *Fanout {
	if timeout <= 0 {
		timeout = DefaultDeliveryTimeout
	}
	byChannel := make(map[Channel]ChannelSender, len(senders))
	for _, s := range senders {
		byChannel[s.Channel()] = s
	}
	return &Fanout{senders: byChannel, timeout: timeout}
}

// Channels returns the channels that have a configured sender, sorted
// for deterministic matching.
func (f *Fanout) Channels() []Channel {
	channels := make([]Channel, 0, len(f.senders))
	for c := range f.senders {
		channels = append(channels, c)
	}
	sort.Slice(channels, func(i, j int) bool { return channels[i] < channels[j] })
	return channels
}

// Dispatch sends the alert to every target and joins the per-target
// outcomes before returning. Timeouts and send errors are recorded in
// the outcome, never raised.
func (f *Fanout) Dispatch(ctx context.Context, alert *Alert, targets []DeliveryTarget, subject, body string) []DeliveryOutcome {
	if len(targets) == 0 {
		return nil
	}

	outcomes := make([]DeliveryOutcome, len(targets))
	var wg sync.WaitGroup

	for i, target := range targets {
		wg.Add(1)
		go func(i int, target DeliveryTarget) {
			defer wg.Done()
			outcomes[i] = f.deliver(ctx, alert, target, subject, body)
		}(i, target)
	}
	wg.Wait()

	return outcomes
}

// deliver attempts a single delivery with a bounded timeout.
func (f *Fanout) deliver(ctx context.Context, alert *Alert, target DeliveryTarget, subject, body string) DeliveryOutcome {
	outcome := DeliveryOutcome{
		AlertID:     alert.ID,
		AuthorityID: target.Authority.ID,
		Channel:     target.Channel,
	}

	sender, ok := f.senders[target.Channel]
	if !ok {
		outcome.Error = fmt.Sprintf("no sender configured for channel %s", target.Channel)
		metrics.RecordDelivery(string(target.Channel), false)
		return outcome
	}

	sendCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	if err := sender.Send(sendCtx, target.Contact, subject, body); err != nil {
		outcome.Error = err.Error()
		metrics.RecordDelivery(string(target.Channel), false)
		return outcome
	}

	outcome.Success = true
	metrics.RecordDelivery(string(target.Channel), true)
	return outcome
}

// Tuskwatch - Wildlife Geofence Monitoring and Alert Dispatch
// Copyright 2026 D. Hapuarachchi
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hapuarachchi/tuskwatch

package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// mockSender is a scriptable ChannelSender for fan-out tests.
type mockSender struct {
	channel Channel
	err     error
	delay   time.Duration

	mu    sync.Mutex
	sends []string // contacts in send order
}

func (m *mockSender) Channel() Channel { return m.channel }

func (m *mockSender) Send(ctx context.Context, contact, subject, body string) error {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	m.mu.Lock()
	m.sends = append(m.sends, contact)
	m.mu.Unlock()
	return m.err
}

func fanoutTargets(n int, channel Channel) []DeliveryTarget {
	targets := make([]DeliveryTarget, n)
	for i := range n {
		targets[i] = DeliveryTarget{
			Authority: Authority{ID: int64(i + 1)},
			Channel:   channel,
			Contact:   "ranger@example.org",
		}
	}
	return targets
}

func TestFanout_AllSucceed(t *testing.T) {
	email := &mockSender{channel: ChannelEmail}
	f := NewFanout([]ChannelSender{email}, time.Second)

	alert := &Alert{ID: 7, Severity: SeverityCritical}
	outcomes := f.Dispatch(context.Background(), alert, fanoutTargets(3, ChannelEmail), "s", "b")

	if len(outcomes) != 3 {
		t.Fatalf("got %d outcomes, want 3", len(outcomes))
	}
	for _, o := range outcomes {
		if !o.Success {
			t.Errorf("outcome for authority %d failed: %s", o.AuthorityID, o.Error)
		}
		if o.AlertID != 7 {
			t.Errorf("alert id = %d, want 7", o.AlertID)
		}
	}
}

func TestFanout_PartialFailureIsolation(t *testing.T) {
	email := &mockSender{channel: ChannelEmail}
	sms := &mockSender{channel: ChannelSMS, err: errors.New("gateway down")}
	f := NewFanout([]ChannelSender{email, sms}, time.Second)

	targets := []DeliveryTarget{
		{Authority: Authority{ID: 1}, Channel: ChannelEmail, Contact: "a@example.org"},
		{Authority: Authority{ID: 2}, Channel: ChannelSMS, Contact: "+94770000001"},
		{Authority: Authority{ID: 3}, Channel: ChannelEmail, Contact: "c@example.org"},
	}

	outcomes := f.Dispatch(context.Background(), &Alert{ID: 1}, targets, "s", "b")

	var succeeded, failed int
	for _, o := range outcomes {
		if o.Success {
			succeeded++
		} else {
			failed++
			if o.Error == "" {
				t.Error("failed outcome should carry an error")
			}
		}
	}
	if succeeded != 2 {
		t.Errorf("succeeded = %d, want 2", succeeded)
	}
	if failed != 1 {
		t.Errorf("failed = %d, want 1", failed)
	}
}

func TestFanout_TimeoutRecordedAsFailure(t *testing.T) {
	slow := &mockSender{channel: ChannelEmail, delay: 500 * time.Millisecond}
	f := NewFanout([]ChannelSender{slow}, 20*time.Millisecond)

	start := time.Now()
	outcomes := f.Dispatch(context.Background(), &Alert{ID: 1}, fanoutTargets(1, ChannelEmail), "s", "b")
	elapsed := time.Since(start)

	if len(outcomes) != 1 || outcomes[0].Success {
		t.Fatal("stuck channel should be recorded as a failed outcome")
	}
	if elapsed > 400*time.Millisecond {
		t.Errorf("dispatch took %s, per-target timeout did not bound it", elapsed)
	}
}

func TestFanout_MissingSender(t *testing.T) {
	f := NewFanout([]ChannelSender{&mockSender{channel: ChannelEmail}}, time.Second)

	outcomes := f.Dispatch(context.Background(), &Alert{ID: 1}, fanoutTargets(1, ChannelSMS), "s", "b")
	if len(outcomes) != 1 || outcomes[0].Success {
		t.Fatal("target on a channel without a sender should fail")
	}
}

func TestFanout_NoTargets(t *testing.T) {
	f := NewFanout(nil, time.Second)
	if outcomes := f.Dispatch(context.Background(), &Alert{ID: 1}, nil, "s", "b"); outcomes != nil {
		t.Errorf("no targets should yield nil outcomes, got %v", outcomes)
	}
}

func TestFanout_Channels(t *testing.T) {
	f := NewFanout([]ChannelSender{
		&mockSender{channel: ChannelSMS},
		&mockSender{channel: ChannelEmail},
	}, time.Second)

	channels := f.Channels()
	if len(channels) != 2 || channels[0] != ChannelEmail || channels[1] != ChannelSMS {
		t.Errorf("Channels() = %v, want sorted [email sms]", channels)
	}
}

// Tuskwatch - Wildlife Geofence Monitoring and Alert Dispatch
// Copyright 2026 D. Hapuarachchi
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hapuarachchi/tuskwatch

package engine

import "testing"

func testAuthority(id int64, email, sms bool, severities ...Severity) Authority {
	return Authority{
		ID:           id,
		Name:         "ranger",
		Email:        "ranger@example.org",
		Phone:        "+94771234567",
		EmailEnabled: email,
		SMSEnabled:   sms,
		Severities:   severities,
		Active:       true,
	}
}

func TestMatchRecipients_SeverityFilter(t *testing.T) {
	criticalOnly := testAuthority(1, true, true, SeverityCritical)
	all := []Authority{criticalOnly}
	channels := []Channel{ChannelEmail, ChannelSMS}

	if targets := MatchRecipients(all, SeverityMedium, channels); len(targets) != 0 {
		t.Errorf("critical-only authority matched medium alert: %d targets", len(targets))
	}

	targets := MatchRecipients(all, SeverityCritical, channels)
	if len(targets) != 2 {
		t.Fatalf("critical alert should yield one target per enabled channel, got %d", len(targets))
	}
}

func TestMatchRecipients_ChannelExpansion(t *testing.T) {
	tests := []struct {
		name  string
		auth  Authority
		want  int
		wants []Channel
	}{
		{"both channels", testAuthority(1, true, true, SeverityHigh), 2, []Channel{ChannelEmail, ChannelSMS}},
		{"email only", testAuthority(2, true, false, SeverityHigh), 1, []Channel{ChannelEmail}},
		{"sms only", testAuthority(3, false, true, SeverityHigh), 1, []Channel{ChannelSMS}},
		{"no channels", testAuthority(4, false, false, SeverityHigh), 0, nil},
	}

	channels := []Channel{ChannelEmail, ChannelSMS}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			targets := MatchRecipients([]Authority{tt.auth}, SeverityHigh, channels)
			if len(targets) != tt.want {
				t.Fatalf("got %d targets, want %d", len(targets), tt.want)
			}
			for i, c := range tt.wants {
				if targets[i].Channel != c {
					t.Errorf("target %d channel = %s, want %s", i, targets[i].Channel, c)
				}
			}
		})
	}
}

func TestMatchRecipients_InactiveAuthoritySkipped(t *testing.T) {
	inactive := testAuthority(1, true, true, SeverityCritical)
	inactive.Active = false

	targets := MatchRecipients([]Authority{inactive}, SeverityCritical, []Channel{ChannelEmail, ChannelSMS})
	if len(targets) != 0 {
		t.Errorf("inactive authority must not match, got %d targets", len(targets))
	}
}

func TestMatchRecipients_UnavailableChannelSkipped(t *testing.T) {
	auth := testAuthority(1, true, true, SeverityCritical)

	// Only email has a configured sender.
	targets := MatchRecipients([]Authority{auth}, SeverityCritical, []Channel{ChannelEmail})
	if len(targets) != 1 {
		t.Fatalf("got %d targets, want 1", len(targets))
	}
	if targets[0].Channel != ChannelEmail {
		t.Errorf("channel = %s, want email", targets[0].Channel)
	}
}

func TestMatchRecipients_MissingContactSkipped(t *testing.T) {
	auth := testAuthority(1, true, true, SeverityCritical)
	auth.Phone = ""

	targets := MatchRecipients([]Authority{auth}, SeverityCritical, []Channel{ChannelEmail, ChannelSMS})
	if len(targets) != 1 {
		t.Fatalf("got %d targets, want 1 (email only)", len(targets))
	}
	if targets[0].Contact != auth.Email {
		t.Errorf("contact = %s, want %s", targets[0].Contact, auth.Email)
	}
}

func TestMatchRecipients_EmptyIsValid(t *testing.T) {
	if targets := MatchRecipients(nil, SeverityCritical, []Channel{ChannelEmail}); targets != nil {
		t.Errorf("no authorities should yield nil targets, got %v", targets)
	}
}

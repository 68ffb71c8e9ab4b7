// Tuskwatch - Wildlife Geofence Monitoring and Alert Dispatch
// Copyright 2026 D. Hapuarachchi
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hapuarachchi/tuskwatch

package engine

// MatchRecipients filters the authority list down to delivery targets for
// an alert of the given severity. An active authority subscribed to the
// severity yields one target per enabled channel that is both available
// (has a configured sender) and has a contact address. An empty result is
// valid and simply means zero deliveries.
func MatchRecipients(authorities []Authority, severity Severity, available []Channel) []DeliveryTarget {
	avail := make(map[Channel]bool, len(available))
	for _, c := range available {
		avail[c] = true
	}

	var targets []DeliveryTarget
	for _, a := range authorities {
		if !a.Active || !a.SubscribedTo(severity) {
			continue
		}
		if a.EmailEnabled && a.Email != "" && avail[ChannelEmail] {
			targets = append(targets, DeliveryTarget{Authority: a, Channel: ChannelEmail, Contact: a.Email})
		}
		if a.SMSEnabled && a.Phone != "" && avail[ChannelSMS] {
			targets = append(targets, DeliveryTarget{Authority: a, Channel: ChannelSMS, Contact: a.Phone})
		}
	}
	return targets
}

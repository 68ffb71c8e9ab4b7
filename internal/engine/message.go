// Tuskwatch - Wildlife Geofence Monitoring and Alert Dispatch
// Copyright 2026 D. Hapuarachchi
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hapuarachchi/tuskwatch

package engine

import (
	"fmt"
	"strings"
)

// alertSubject builds the one-line notification subject.
func alertSubject(alert *Alert, animal Animal, zone *Zone) string {
	switch alert.Kind {
	case AlertKindZoneEnter:
		return fmt.Sprintf("[Tuskwatch %s] %s entered %s", strings.ToUpper(string(alert.Severity)), animal.Name, zone.Name)
	case AlertKindZoneExit:
		return fmt.Sprintf("[Tuskwatch %s] %s left %s", strings.ToUpper(string(alert.Severity)), animal.Name, zone.Name)
	default:
		return fmt.Sprintf("[Tuskwatch %s] %s has stopped moving", strings.ToUpper(string(alert.Severity)), animal.Name)
	}
}

// alertBody builds the notification body shared by all channels.
func alertBody(alert *Alert, animal Animal, zone *Zone, pos *Position) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Animal: %s", animal.Name)
	if animal.CollarID != "" {
		fmt.Fprintf(&b, " (collar %s)", animal.CollarID)
	}
	fmt.Fprintf(&b, "\nCondition: %s\nSeverity: %s\n", alert.Kind, alert.Severity)
	if zone != nil {
		fmt.Fprintf(&b, "Zone: %s (%s)\n", zone.Name, zone.Kind)
	}
	if pos != nil {
		fmt.Fprintf(&b, "Location: %.6f, %.6f\nObserved: %s\n",
			pos.Coordinate.Lat, pos.Coordinate.Lon,
			pos.RecordedAt.UTC().Format("2006-01-02 15:04:05 UTC"))
	}
	fmt.Fprintf(&b, "\n%s", alert.Message)

	return b.String()
}

// Tuskwatch - Wildlife Geofence Monitoring and Alert Dispatch
// Copyright 2026 D. Hapuarachchi
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hapuarachchi/tuskwatch

// Package geo provides great-circle distance and circular geofence
// containment math on WGS84 coordinates.
package geo

import (
	"fmt"
	"math"
)

// EarthRadiusMeters is the mean Earth radius used for haversine distance.
const EarthRadiusMeters = 6371000.0

// Coordinate is a WGS84 latitude/longitude pair in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ErrInvalidCoordinate reports a coordinate outside the valid
// latitude/longitude ranges.
type ErrInvalidCoordinate struct {
	Lat float64
	Lon float64
}

func (e *ErrInvalidCoordinate) Error() string {
	return fmt.Sprintf("invalid coordinate: lat=%f lon=%f", e.Lat, e.Lon)
}

// Validate returns an error if the coordinate is outside
// [-90,90] latitude or [-180,180] longitude.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) ||
		c.Lat < -90 || c.Lat > 90 || c.Lon < -180 || c.Lon > 180 {
		return &ErrInvalidCoordinate{Lat: c.Lat, Lon: c.Lon}
	}
	return nil
}

// DistanceMeters returns the great-circle distance between two coordinates
// using the haversine formula. Symmetric, and zero for identical points.
func DistanceMeters(a, b Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180.0
	lon1 := a.Lon * math.Pi / 180.0
	lat2 := b.Lat * math.Pi / 180.0
	lon2 := b.Lon * math.Pi / 180.0

	dLat := lat2 - lat1
	dLon := lon2 - lon1

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	// Floating-point overshoot near antipodal points can push h a hair
	// above 1, which would take Sqrt(1-h) out of domain.
	h = math.Min(1, math.Max(0, h))

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMeters * c
}

// IsInside reports whether point is within radiusM meters of center.
// The boundary is inclusive: a point at exactly radiusM counts as inside.
func IsInside(point, center Coordinate, radiusM float64) bool {
	return DistanceMeters(point, center) <= radiusM
}

// Showfinder - Card Show Discovery and Geo-Radius Query Backend
// Copyright 2026 Card Show Finder
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cardshowfinder/showfinder

// Package geo implements great-circle distance math for show proximity
// filtering and per-result distance reporting.
//
// All public distances are in statute miles because that is what the mobile
// app displays. Internally the haversine formula works in meters and the
// result is converted once, so SQL-side and Go-side computations that share
// these constants agree to floating-point precision.
package geo

import (
	"fmt"
	"math"
)

const (
	// EarthRadiusMeters is the mean Earth radius used by the haversine formula.
	EarthRadiusMeters = 6371000.0

	// MetersPerMile converts meters to statute miles.
	MetersPerMile = 1609.34

	// DistanceEpsilonMiles pads radius comparisons so points exactly on the
	// boundary are always included despite floating-point rounding.
	DistanceEpsilonMiles = 1e-9
)

// Point is a WGS84 coordinate pair.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate checks that the point lies within valid WGS84 bounds.
func (p Point) Validate() error {
	if math.IsNaN(p.Latitude) || math.IsNaN(p.Longitude) {
		return fmt.Errorf("coordinate is NaN: lat=%v lon=%v", p.Latitude, p.Longitude)
	}
	if p.Latitude < -90 || p.Latitude > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", p.Latitude)
	}
	if p.Longitude < -180 || p.Longitude > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", p.Longitude)
	}
	return nil
}

// DistanceMiles returns the great-circle distance between two points in
// statute miles using the haversine formula.
//
// The function is total over all float inputs: coincident points yield 0,
// antipodal points yield half the Earth's circumference, and no input
// combination panics. Callers needing range validation use Point.Validate
// before computing.
func DistanceMiles(a, b Point) float64 {
	lat1 := radians(a.Latitude)
	lat2 := radians(b.Latitude)
	dLat := radians(b.Latitude - a.Latitude)
	dLon := radians(b.Longitude - a.Longitude)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)

	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon

	// Clamp guards against h marginally exceeding 1 from rounding, which
	// would make Sqrt/Asin produce NaN for near-antipodal points.
	h = math.Min(h, 1)

	meters := 2 * EarthRadiusMeters * math.Asin(math.Sqrt(h))
	return meters / MetersPerMile
}

// WithinRadius reports whether b lies within radiusMiles of a. The boundary
// is inclusive: a point exactly at the radius is within.
func WithinRadius(a, b Point, radiusMiles float64) bool {
	return DistanceMiles(a, b) <= radiusMiles+DistanceEpsilonMiles
}

// BoundingBox returns a latitude/longitude box guaranteed to contain every
// point within radiusMiles of the center. The box is padded and intentionally
// loose near the poles and the antimeridian, so it can only over-select;
// exact haversine filtering happens afterwards.
type BoundingBox struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// BoundingBoxFor computes the padded bounding box for a radius query.
func BoundingBoxFor(center Point, radiusMiles float64) BoundingBox {
	radiusMeters := radiusMiles * MetersPerMile

	// 1 degree of latitude is ~111,320 m everywhere.
	latDelta := radiusMeters / 111320.0

	// Longitude degrees shrink with latitude. Near the poles cosine
	// approaches zero; fall back to the full longitude span.
	cosLat := math.Cos(radians(center.Latitude))
	lonDelta := 180.0
	if cosLat > 1e-6 {
		lonDelta = radiusMeters / (111320.0 * cosLat)
	}

	// 10% padding absorbs the spherical approximation error.
	latDelta *= 1.1
	lonDelta *= 1.1

	return BoundingBox{
		MinLat: math.Max(center.Latitude-latDelta, -90),
		MaxLat: math.Min(center.Latitude+latDelta, 90),
		MinLon: math.Max(center.Longitude-lonDelta, -180),
		MaxLon: math.Min(center.Longitude+lonDelta, 180),
	}
}

func radians(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// EarthRadius is the spherical earth radius used for every distance,
// bearing and destination computation in meters.
const EarthRadius = 6372797.6

// Point is a geographic position in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Orb returns the point in orb's (lon, lat) order.
func (p Point) Orb() orb.Point {
	return orb.Point{p.Lon, p.Lat}
}

// FromOrb converts an orb point back to a Point.
func FromOrb(p orb.Point) Point {
	return Point{Lat: p.Lat(), Lon: p.Lon()}
}

func toRadians(deg float64) float64 { return deg * math.Pi / 180.0 }
func toDegrees(rad float64) float64 { return rad * 180.0 / math.Pi }

// Distance returns the great-circle (haversine) distance between a and b
// in meters.
func Distance(a, b Point) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := lat2 - lat1
	dLon := toRadians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadius * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Bearing returns the initial bearing from one point to another along the
// great circle, in radians clockwise from north (range -π..π).
func Bearing(from, to Point) float64 {
	lat1 := toRadians(from.Lat)
	lon1 := toRadians(from.Lon)
	lat2 := toRadians(to.Lat)
	lon2 := toRadians(to.Lon)

	dLon := lon2 - lon1

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	return math.Atan2(y, x)
}

// Destination returns the point reached by travelling distance meters from
// origin along the given initial bearing (radians).
//
//	lat2 = asin(sin(lat1)·cos(d/R) + cos(lat1)·sin(d/R)·cos(θ))
//	lon2 = lon1 + atan2(sin(θ)·sin(d/R)·cos(lat1), cos(d/R) − sin(lat1)·sin(lat2))
func Destination(origin Point, bearing, distance float64) Point {
	dr := distance / EarthRadius

	lat1 := toRadians(origin.Lat)
	lon1 := toRadians(origin.Lon)

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(dr) + math.Cos(lat1)*math.Sin(dr)*math.Cos(bearing))
	lon2 := lon1 + math.Atan2(math.Sin(bearing)*math.Sin(dr)*math.Cos(lat1), math.Cos(dr)-math.Sin(lat1)*math.Sin(lat2))

	return Point{Lat: toDegrees(lat2), Lon: toDegrees(lon2)}
}

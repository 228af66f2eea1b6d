// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"math"
	"time"

	"github.com/relabs-tech/ontrack/internal/geo"
	"github.com/relabs-tech/ontrack/internal/route"
)

const knotsPerMeterPerSecond = 1.943844

// MockSource walks along a track at a fixed speed, optionally shifted
// sideways, so the monitor can be exercised without a receiver.
type MockSource struct {
	points []geo.Point
	speed  float64 // m/s
	offset float64 // meters to the right of travel

	leg      int
	along    float64
	finished bool
}

// NewMockSource flattens all segments of t into one walk.
func NewMockSource(t route.Track, speed, offset float64) *MockSource {
	var pts []geo.Point
	for _, s := range t.Segments {
		pts = append(pts, s...)
	}
	return &MockSource{points: pts, speed: speed, offset: offset}
}

// Done reports whether the walk has reached the last point.
func (m *MockSource) Done() bool {
	return m.finished || len(m.points) == 0
}

// Next advances by dt and returns the fix at the new position.
func (m *MockSource) Next(dt time.Duration, now time.Time) (Fix, bool) {
	if len(m.points) == 0 {
		return Fix{}, false
	}
	if len(m.points) == 1 {
		m.finished = true
		return m.fix(m.points[0], 0, now), true
	}

	m.along += m.speed * dt.Seconds()
	for m.leg < len(m.points)-1 {
		legLen := geo.Distance(m.points[m.leg], m.points[m.leg+1])
		if m.along < legLen {
			break
		}
		m.along -= legLen
		m.leg++
	}

	if m.leg >= len(m.points)-1 {
		m.finished = true
		last := m.points[len(m.points)-1]
		prev := m.points[len(m.points)-2]
		return m.fix(last, geo.Bearing(prev, last), now), true
	}

	from, to := m.points[m.leg], m.points[m.leg+1]
	bearing := geo.Bearing(from, to)
	return m.fix(geo.Destination(from, bearing, m.along), bearing, now), true
}

func (m *MockSource) fix(p geo.Point, bearing float64, now time.Time) Fix {
	if m.offset != 0 {
		p = geo.Destination(p, bearing+math.Pi/2, m.offset)
	}
	course := math.Mod(bearing*180/math.Pi+360, 360)
	now = now.UTC()
	return Fix{
		Time:       now.Format("15:04:05"),
		Date:       now.Format("02/01/06"),
		Latitude:   p.Lat,
		Longitude:  p.Lon,
		SpeedKnots: m.speed * knotsPerMeterPerSecond,
		CourseDeg:  course,
		Validity:   "A",
	}
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package route

import (
	"github.com/relabs-tech/ontrack/internal/geo"
)

// DefaultStep is the default interpolation spacing in meters.
const DefaultStep = 5.0

// Path is the densified reference set used for off-track checks.
type Path []geo.Point

// Interpolate samples every segment of t at step meters. For each pair of
// consecutive points it emits the points at step, 2·step, ... along the
// initial bearing, stopping before the full pair distance. Neither end of a
// pair is emitted and no sampling crosses a segment boundary.
func Interpolate(t Track, step float64) Path {
	if step <= 0 {
		return Path{}
	}

	out := Path{}
	for _, seg := range t.Segments {
		for i := 1; i < len(seg); i++ {
			from, to := seg[i-1], seg[i]
			distance := geo.Distance(from, to)
			bearing := geo.Bearing(from, to)
			for k := 1; float64(k)*step < distance; k++ {
				out = append(out, geo.Destination(from, bearing, float64(k)*step))
			}
		}
	}
	return out
}

// InterpolateAsync runs Interpolate on its own goroutine and delivers the
// result on the returned channel.
func InterpolateAsync(t Track, step float64) <-chan Path {
	ch := make(chan Path, 1)
	go func() {
		ch <- Interpolate(t, step)
	}()
	return ch
}

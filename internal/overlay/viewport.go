// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package overlay

import (
	"github.com/paulmach/orb"

	"github.com/relabs-tech/ontrack/internal/geo"
)

// ZoomMode selects what the viewport frames.
type ZoomMode string

const (
	ZoomAll ZoomMode = "All" // whole track plus the user
	ZoomYou ZoomMode = "You" // follow the user
)

// YouSpan is the half-width in degrees of the viewport in ZoomYou mode.
const YouSpan = 0.005

// Viewport returns the rectangle the map should show. ok is false when
// there is nothing to frame.
func Viewport(o *Overlay, user *geo.Point, mode ZoomMode) (orb.Bound, bool) {
	if mode == ZoomYou {
		if user == nil {
			return orb.Bound{}, false
		}
		c := user.Orb()
		return orb.Bound{
			Min: orb.Point{c[0] - YouSpan, c[1] - YouSpan},
			Max: orb.Point{c[0] + YouSpan, c[1] + YouSpan},
		}, true
	}

	var (
		b    orb.Bound
		have bool
	)
	if user != nil {
		b = user.Orb().Bound()
		have = true
	}
	for _, ls := range o.Segments {
		if len(ls) == 0 {
			continue
		}
		if have {
			b = b.Union(ls.Bound())
		} else {
			b = ls.Bound()
			have = true
		}
	}
	if !have {
		return orb.Bound{}, false
	}

	// Grow by half the width and height on every side.
	w := b.Max[0] - b.Min[0]
	h := b.Max[1] - b.Min[1]
	return orb.Bound{
		Min: orb.Point{b.Min[0] - w/2, b.Min[1] - h/2},
		Max: orb.Point{b.Max[0] + w/2, b.Max[1] + h/2},
	}, true
}

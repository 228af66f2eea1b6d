// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package proximity

import (
	"fmt"
	"math"

	"github.com/relabs-tech/ontrack/internal/cue"
	"github.com/relabs-tech/ontrack/internal/geo"
	"github.com/relabs-tech/ontrack/internal/route"
)

// DefaultThreshold is the off-track distance in meters.
const DefaultThreshold = 100.0

// Status is the monitor's two-state machine.
type Status int

const (
	OffTrack Status = iota
	OnTrack
)

func (s Status) String() string {
	if s == OnTrack {
		return "on_track"
	}
	return "off_track"
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	switch string(b) {
	case "on_track":
		*s = OnTrack
	case "off_track":
		*s = OffTrack
	default:
		return fmt.Errorf("unknown status %q", b)
	}
	return nil
}

// Result is the outcome of one check.
type Result struct {
	OK          bool // false when the path was empty and nothing was computed
	MinDistance float64
	Closest     geo.Point
	Crossed     bool // MinDistance <= threshold
	Status      Status
	Cue         cue.Kind
}

// State is the proximity state kept between checks.
type State struct {
	Current     geo.Point
	MinDistance float64
	Closest     geo.Point
	Status      Status
	Checked     bool
}

// Monitor decides which cue, if any, a check should play.
//
//	OffTrack --(d <= threshold)--> OnTrack      plays BackOnTrack
//	OnTrack  --(d <= threshold)--> OnTrack      silent
//	any      --(d >  threshold)--> OffTrack     plays OffTrack, every check
type Monitor struct {
	threshold float64
	state     State
}

// NewMonitor returns a monitor in the OffTrack state. A non-positive
// threshold selects DefaultThreshold.
func NewMonitor(threshold float64) *Monitor {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Monitor{threshold: threshold}
}

func (m *Monitor) Threshold() float64 { return m.threshold }

// SetThreshold changes the threshold for subsequent checks. Non-positive
// values are ignored.
func (m *Monitor) SetThreshold(meters float64) {
	if meters > 0 {
		m.threshold = meters
	}
}

// State returns a copy of the current state.
func (m *Monitor) State() State { return m.state }

// Reset forgets the previous check and returns to OffTrack.
func (m *Monitor) Reset() {
	m.state = State{}
}

// Update checks current against path. An empty path is a no-op: no
// distance, no cue, state untouched.
func (m *Monitor) Update(current geo.Point, path route.Path) Result {
	if len(path) == 0 {
		return Result{Status: m.state.Status}
	}

	minDistance := math.Inf(1)
	var closest geo.Point
	for _, p := range path {
		if d := geo.Distance(current, p); d < minDistance {
			minDistance = d
			closest = p
		}
	}

	res := Result{
		OK:          true,
		MinDistance: minDistance,
		Closest:     closest,
		Crossed:     minDistance <= m.threshold,
	}

	if res.Crossed {
		if m.state.Status == OffTrack {
			res.Cue = cue.BackOnTrack
		}
		m.state.Status = OnTrack
	} else {
		res.Cue = cue.OffTrack
		m.state.Status = OffTrack
	}
	res.Status = m.state.Status

	m.state.Current = current
	m.state.MinDistance = minDistance
	m.state.Closest = closest
	m.state.Checked = true
	return res
}

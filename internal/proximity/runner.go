// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package proximity

import (
	"context"
	"log"
	"time"

	"github.com/relabs-tech/ontrack/internal/cue"
	"github.com/relabs-tech/ontrack/internal/geo"
	"github.com/relabs-tech/ontrack/internal/overlay"
	"github.com/relabs-tech/ontrack/internal/route"
)

// Report is the snapshot published after every check and route change.
type Report struct {
	Time        time.Time  `json:"time"`
	Route       string     `json:"route"`
	TrackPoints int        `json:"track_points"`
	PathPoints  int        `json:"path_points"`
	Position    *geo.Point `json:"position,omitempty"`
	Checked     bool       `json:"checked"`
	Distance    float64    `json:"distance_m"`
	Closest     *geo.Point `json:"closest,omitempty"`
	Status      Status     `json:"status"`
	Threshold   float64    `json:"threshold_m"`
	Cue         cue.Kind   `json:"cue,omitempty"`
}

// Sink receives every published report together with a copy of the
// overlay it describes.
type Sink interface {
	Publish(Report, overlay.Overlay)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Report, overlay.Overlay)

func (f SinkFunc) Publish(r Report, o overlay.Overlay) { f(r, o) }

// Options configure a Runner.
type Options struct {
	Threshold float64 // meters; DefaultThreshold when zero
	Step      float64 // interpolation step; route.DefaultStep when zero
	Ticker    Ticker  // NewTicker(DefaultInterval) when nil
	Player    cue.Player
	Sink      Sink

	// Background moves interpolation of new tracks off the loop. Checks
	// that run before the path arrives are no-ops.
	Background bool
}

// Runner owns the track, the interpolated path, the proximity state and
// the overlay. All of them are touched only by the Run goroutine; other
// goroutines talk to it through the Set* methods and Check.
type Runner struct {
	monitor    *Monitor
	step       float64
	ticker     Ticker
	player     cue.Player
	sink       Sink
	background bool

	locations  chan geo.Point
	tracks     chan route.Track
	thresholds chan float64
	checks     chan chan Report
	done       chan struct{}

	track       route.Track
	path        route.Path
	pending     <-chan route.Path
	overlay     overlay.Overlay
	current     geo.Point
	haveCurrent bool
}

func NewRunner(opts Options) *Runner {
	step := opts.Step
	if step <= 0 {
		step = route.DefaultStep
	}
	ticker := opts.Ticker
	if ticker == nil {
		ticker = NewTicker(DefaultInterval)
	}
	return &Runner{
		monitor:    NewMonitor(opts.Threshold),
		step:       step,
		ticker:     ticker,
		player:     opts.Player,
		sink:       opts.Sink,
		background: opts.Background,
		locations:  make(chan geo.Point),
		tracks:     make(chan route.Track),
		thresholds: make(chan float64),
		checks:     make(chan chan Report),
		done:       make(chan struct{}),
	}
}

// SetLocation records the latest live position. It does not trigger a
// check; the next tick does.
func (r *Runner) SetLocation(p geo.Point) {
	select {
	case r.locations <- p:
	case <-r.done:
	}
}

// SetTrack replaces the track. The previous path and proximity state are
// discarded.
func (r *Runner) SetTrack(t route.Track) {
	select {
	case r.tracks <- t:
	case <-r.done:
	}
}

// SetThreshold changes the off-track distance for later checks.
func (r *Runner) SetThreshold(meters float64) {
	select {
	case r.thresholds <- meters:
	case <-r.done:
	}
}

// Check runs one check immediately, as a tick would, and returns its
// report. ok is false once the runner has stopped.
func (r *Runner) Check() (rep Report, ok bool) {
	reply := make(chan Report, 1)
	select {
	case r.checks <- reply:
	case <-r.done:
		return Report{}, false
	}
	select {
	case rep = <-reply:
		return rep, true
	case <-r.done:
		return Report{}, false
	}
}

// Run processes location updates, track changes and ticks until ctx is
// cancelled.
func (r *Runner) Run(ctx context.Context) error {
	defer close(r.done)
	defer r.ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case p := <-r.locations:
			r.current = p
			r.haveCurrent = true

		case t := <-r.tracks:
			r.installTrack(t)

		case path := <-r.pending:
			r.pending = nil
			r.path = path
			log.Printf("monitor: %s interpolated to %d points", r.track.Name, len(path))
			r.publish(r.report(time.Now()))

		case m := <-r.thresholds:
			r.monitor.SetThreshold(m)

		case now := <-r.ticker.C():
			r.check(now)

		case reply := <-r.checks:
			reply <- r.check(time.Now())
		}
	}
}

func (r *Runner) installTrack(t route.Track) {
	r.track = t
	r.path = nil
	r.pending = nil
	r.monitor.Reset()
	r.overlay.SetTrack(t)

	if r.background {
		r.pending = route.InterpolateAsync(t, r.step)
		log.Printf("monitor: loading %s (%d points) in background", t.Name, t.PointCount())
		r.publish(r.report(time.Now()))
		return
	}
	r.path = route.Interpolate(t, r.step)
	log.Printf("monitor: loaded %s (%d points, %d interpolated)", t.Name, t.PointCount(), len(r.path))
	r.publish(r.report(time.Now()))
}

func (r *Runner) check(now time.Time) Report {
	if !r.haveCurrent {
		return r.report(now)
	}

	res := r.monitor.Update(r.current, r.path)
	if res.OK {
		r.overlay.SetConnector(r.current, res.Closest)
		if res.Cue != cue.None && r.player != nil {
			r.player.Play(cue.NewEvent(res.Cue, res.MinDistance))
		}
	} else {
		r.overlay.ClearConnector()
	}

	rep := r.report(now)
	rep.Cue = res.Cue
	r.publish(rep)
	return rep
}

func (r *Runner) report(now time.Time) Report {
	st := r.monitor.State()
	rep := Report{
		Time:        now,
		Route:       r.track.Name,
		TrackPoints: r.track.PointCount(),
		PathPoints:  len(r.path),
		Checked:     st.Checked,
		Status:      st.Status,
		Threshold:   r.monitor.Threshold(),
	}
	if r.haveCurrent {
		p := r.current
		rep.Position = &p
	}
	if st.Checked {
		c := st.Closest
		rep.Closest = &c
		rep.Distance = st.MinDistance
	}
	return rep
}

func (r *Runner) publish(rep Report) {
	if r.sink != nil {
		r.sink.Publish(rep, r.overlay.Clone())
	}
}

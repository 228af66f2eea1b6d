// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"sync"

	"github.com/paulmach/orb"

	"github.com/relabs-tech/ontrack/internal/bus"
	"github.com/relabs-tech/ontrack/internal/overlay"
	"github.com/relabs-tech/ontrack/internal/prefs"
	"github.com/relabs-tech/ontrack/internal/proximity"
	"github.com/relabs-tech/ontrack/internal/route"
)

// ErrUnknownRoute is returned when a route name is not in the library.
var ErrUnknownRoute = errors.New("unknown route")

// RouteSetter is the part of the runner a session drives.
type RouteSetter interface {
	SetTrack(route.Track)
	SetThreshold(meters float64)
	Check() (proximity.Report, bool)
}

// Session ties preferences, the route library and the runner together and
// keeps the latest published report for the web API.
type Session struct {
	prefs     *prefs.Store
	lib       *route.Library
	runner    RouteSetter
	threshold float64 // configured fallback when preferences leave it unset

	mu      sync.RWMutex
	report  proximity.Report
	overlay overlay.Overlay
	have    bool
}

func NewSession(p *prefs.Store, lib *route.Library, threshold float64) *Session {
	return &Session{prefs: p, lib: lib, threshold: threshold}
}

// Attach sets the runner the session controls.
func (s *Session) Attach(r RouteSetter) {
	s.runner = r
}

// Publish implements proximity.Sink by storing the snapshot.
func (s *Session) Publish(rep proximity.Report, ov overlay.Overlay) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.report = rep
	s.overlay = ov
	s.have = true
}

// Snapshot returns the latest report and overlay. ok is false before the
// first report.
func (s *Session) Snapshot() (proximity.Report, overlay.Overlay, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report, s.overlay, s.have
}

// Viewport frames the latest overlay according to the zoom preference.
func (s *Session) Viewport() (orb.Bound, overlay.ZoomMode, bool) {
	rep, ov, ok := s.Snapshot()
	zoom := s.prefs.Get().Zoom
	if !ok {
		return orb.Bound{}, zoom, false
	}
	b, ok := overlay.Viewport(&ov, rep.Position, zoom)
	return b, zoom, ok
}

// AudioOn reports the off-track audio toggle.
func (s *Session) AudioOn() bool {
	return s.prefs.Get().OffTrackAudioOn
}

// Threshold is the effective off-track distance.
func (s *Session) Threshold() float64 {
	return s.prefs.Get().Threshold(s.threshold)
}

// LoadSelected loads the route named in the preferences. A missing file
// gives an empty track.
func (s *Session) LoadSelected() {
	name := s.prefs.Get().File
	log.Printf("monitor: loading selected route %s", name)
	s.runner.SetTrack(s.lib.Load(name))
}

// SelectRoute makes name the current route and remembers it.
func (s *Session) SelectRoute(name string) error {
	p, err := s.lib.Path(name)
	if err != nil {
		return err
	}
	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrUnknownRoute, name)
		}
		return err
	}
	if _, err := s.prefs.Update(func(p *prefs.Preferences) { p.File = name }); err != nil {
		return err
	}
	s.runner.SetTrack(s.lib.Load(name))
	return nil
}

// ImportRoute stores a new route file and selects it.
func (s *Session) ImportRoute(name string, r io.Reader) error {
	if err := s.lib.Import(name, r); err != nil {
		return err
	}
	return s.SelectRoute(name)
}

// SetAudio switches the off-track audio cues on or off.
func (s *Session) SetAudio(on bool) error {
	_, err := s.prefs.Update(func(p *prefs.Preferences) { p.OffTrackAudioOn = on })
	return err
}

// SetOffTrackDistance stores a new threshold and applies it to the runner.
func (s *Session) SetOffTrackDistance(meters float64) error {
	if _, err := s.prefs.Update(func(p *prefs.Preferences) { p.OffTrackMeters = &meters }); err != nil {
		return err
	}
	s.runner.SetThreshold(meters)
	return nil
}

// HandleAction executes a browser command.
func (s *Session) HandleAction(msg WSMessage) error {
	switch msg.Action {
	case "check":
		if _, ok := s.runner.Check(); !ok {
			return fmt.Errorf("monitor stopped")
		}
		return nil
	case "select":
		return s.SelectRoute(msg.File)
	case "maptype":
		_, err := s.prefs.CycleMapType()
		return err
	case "zoom":
		_, err := s.prefs.ToggleZoom()
		return err
	}
	return fmt.Errorf("unknown action %q", msg.Action)
}

// sinks publishes to every sink in order.
type sinks []proximity.Sink

func (ss sinks) Publish(rep proximity.Report, ov overlay.Overlay) {
	for _, s := range ss {
		s.Publish(rep, ov)
	}
}

// statusPublisher sends reports to the MQTT status topic.
type statusPublisher struct {
	pub   bus.Publisher
	topic string
}

func (p statusPublisher) Publish(rep proximity.Report, _ overlay.Overlay) {
	if err := p.pub.PublishJSON(p.topic, rep, true); err != nil {
		log.Printf("monitor: status %v", err)
	}
}

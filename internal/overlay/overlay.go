// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package overlay

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/relabs-tech/ontrack/internal/geo"
	"github.com/relabs-tech/ontrack/internal/route"
)

// Feature kinds written to the "kind" property.
const (
	KindTrack     = "track"
	KindConnector = "connector"
)

// Overlay is what the map surface draws: one polyline per track segment
// plus a single dynamic line joining the user to the nearest path point.
type Overlay struct {
	Segments  []orb.LineString
	Connector orb.LineString // nil when there is no connector
}

// SetTrack replaces the segment polylines with those of t and drops the
// connector.
func (o *Overlay) SetTrack(t route.Track) {
	o.Segments = make([]orb.LineString, 0, len(t.Segments))
	for _, seg := range t.Segments {
		ls := make(orb.LineString, 0, len(seg))
		for _, p := range seg {
			ls = append(ls, p.Orb())
		}
		o.Segments = append(o.Segments, ls)
	}
	o.Connector = nil
}

// SetConnector fills the connector slot, replacing whatever was there.
func (o *Overlay) SetConnector(from, to geo.Point) {
	o.Connector = orb.LineString{from.Orb(), to.Orb()}
}

func (o *Overlay) ClearConnector() {
	o.Connector = nil
}

// Clone returns a deep copy safe to hand to another goroutine.
func (o *Overlay) Clone() Overlay {
	c := Overlay{Segments: make([]orb.LineString, len(o.Segments))}
	for i, ls := range o.Segments {
		c.Segments[i] = ls.Clone()
	}
	if o.Connector != nil {
		c.Connector = o.Connector.Clone()
	}
	return c
}

// FeatureCollection renders the overlay as GeoJSON. Segments come first in
// track order, the connector (if any) last.
func (o *Overlay) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i, ls := range o.Segments {
		f := geojson.NewFeature(ls)
		f.Properties["kind"] = KindTrack
		f.Properties["segment"] = i
		fc.Append(f)
	}
	if o.Connector != nil {
		f := geojson.NewFeature(o.Connector)
		f.Properties["kind"] = KindConnector
		fc.Append(f)
	}
	return fc
}

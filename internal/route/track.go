// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package route

import (
	"fmt"
	"log"

	"github.com/tkrajina/gpxgo/gpx"

	"github.com/relabs-tech/ontrack/internal/geo"
)

// Segment is one ordered run of points: a GPX track segment or a GPX route.
type Segment []geo.Point

// Track is the loaded GPS path. A Track is never modified after it has been
// built; reloading a file produces a new Track.
type Track struct {
	Name     string
	Segments []Segment
}

// Empty reports whether the track holds no points at all.
func (t Track) Empty() bool {
	for _, s := range t.Segments {
		if len(s) > 0 {
			return false
		}
	}
	return true
}

// PointCount returns the total number of points across all segments.
func (t Track) PointCount() int {
	n := 0
	for _, s := range t.Segments {
		n += len(s)
	}
	return n
}

// Load parses the GPX file at path. Missing or malformed files are logged
// and yield an empty Track.
func Load(path string) Track {
	t, err := Parse(path)
	if err != nil {
		log.Printf("route: %v", err)
		return Track{Name: path}
	}
	return t
}

// Parse reads the GPX file at path into a Track. Every track segment becomes
// one Segment, followed by one Segment per route.
func Parse(path string) (Track, error) {
	g, err := gpx.ParseFile(path)
	if err != nil {
		return Track{}, fmt.Errorf("parse GPX %s: %w", path, err)
	}
	t := FromGPX(g)
	t.Name = path
	return t, nil
}

// ParseBytes is Parse for an in-memory GPX document.
func ParseBytes(name string, data []byte) (Track, error) {
	g, err := gpx.ParseBytes(data)
	if err != nil {
		return Track{}, fmt.Errorf("parse GPX %s: %w", name, err)
	}
	t := FromGPX(g)
	t.Name = name
	return t, nil
}

// FromGPX flattens a parsed GPX document: tracks (segment by segment) first,
// then routes.
func FromGPX(g *gpx.GPX) Track {
	var t Track
	for _, trk := range g.Tracks {
		for _, seg := range trk.Segments {
			s := make(Segment, 0, len(seg.Points))
			for _, p := range seg.Points {
				s = append(s, geo.Point{Lat: p.Latitude, Lon: p.Longitude})
			}
			t.Segments = append(t.Segments, s)
		}
	}
	for _, rte := range g.Routes {
		s := make(Segment, 0, len(rte.Points))
		for _, p := range rte.Points {
			s = append(s, geo.Point{Lat: p.Latitude, Lon: p.Longitude})
		}
		t.Segments = append(t.Segments, s)
	}
	return t
}

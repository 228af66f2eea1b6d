// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package prefs

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/relabs-tech/ontrack/internal/overlay"
)

// DefaultFile is the route selected on first launch.
const DefaultFile = "PennineBridleway.gpx"

// MapType is the base map style shown under the track.
type MapType string

const (
	MapStandard  MapType = "Std"
	MapSatellite MapType = "Sat"
	MapHybrid    MapType = "Mix"
)

// Next cycles Std -> Sat -> Mix -> Std.
func (m MapType) Next() MapType {
	switch m {
	case MapStandard:
		return MapSatellite
	case MapSatellite:
		return MapHybrid
	default:
		return MapStandard
	}
}

// Preferences is the persisted user state.
type Preferences struct {
	File            string           `yaml:"file" json:"file" validate:"required"`
	OffTrackAudioOn bool             `yaml:"off_track_audio_on" json:"off_track_audio_on"`
	OffTrackMeters  *float64         `yaml:"off_track_distance,omitempty" json:"off_track_distance,omitempty" validate:"omitempty,gt=0"`
	MapType         MapType          `yaml:"map_type" json:"map_type" validate:"oneof=Std Sat Mix"`
	Zoom            overlay.ZoomMode `yaml:"zoom" json:"zoom" validate:"oneof=All You"`
	HasCopiedFiles  bool             `yaml:"has_copied_files" json:"has_copied_files"`
}

// Defaults returns the first-launch preferences. The off-track distance is
// left unset so the configured alert threshold applies.
func Defaults() Preferences {
	return Preferences{
		File:            DefaultFile,
		OffTrackAudioOn: true,
		MapType:         MapStandard,
		Zoom:            overlay.ZoomAll,
	}
}

// Threshold returns the stored off-track distance, or fallback when none
// has been chosen.
func (p Preferences) Threshold(fallback float64) float64 {
	if p.OffTrackMeters != nil {
		return *p.OffTrackMeters
	}
	return fallback
}

var validate = validator.New()

// Validate checks field values.
func (p Preferences) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid preferences: %w", err)
	}
	return nil
}

// Store is a YAML-backed Preferences file safe for concurrent use.
type Store struct {
	path string

	mu    sync.RWMutex
	prefs Preferences
}

// Open loads the preferences at path. A missing file is created with
// Defaults.
func Open(path string) (*Store, error) {
	s := &Store{path: path, prefs: Defaults()}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Printf("prefs: %s not found, writing defaults", path)
		if err := s.save(); err != nil {
			return nil, err
		}
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("read preferences: %w", err)
	}

	if err := yaml.Unmarshal(data, &s.prefs); err != nil {
		return nil, fmt.Errorf("parse preferences %s: %w", path, err)
	}
	if err := s.prefs.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Get returns a copy of the current preferences.
func (s *Store) Get() Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs
}

// Update applies fn to a copy of the preferences, validates the result and
// persists it. On any error the stored value is left unchanged.
func (s *Store) Update(fn func(*Preferences)) (Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.prefs
	next := old
	fn(&next)
	if err := next.Validate(); err != nil {
		return old, err
	}
	s.prefs = next
	if err := s.save(); err != nil {
		s.prefs = old
		return old, err
	}
	return next, nil
}

// CycleMapType advances the map type and returns the new value.
func (s *Store) CycleMapType() (MapType, error) {
	p, err := s.Update(func(p *Preferences) { p.MapType = p.MapType.Next() })
	return p.MapType, err
}

// ToggleZoom switches between ZoomAll and ZoomYou.
func (s *Store) ToggleZoom() (overlay.ZoomMode, error) {
	p, err := s.Update(func(p *Preferences) {
		if p.Zoom == overlay.ZoomAll {
			p.Zoom = overlay.ZoomYou
		} else {
			p.Zoom = overlay.ZoomAll
		}
	})
	return p.Zoom, err
}

// save writes the preferences atomically. Callers hold mu.
func (s *Store) save() error {
	data, err := yaml.Marshal(s.prefs)
	if err != nil {
		return fmt.Errorf("marshal preferences: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create preferences dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}
	return nil
}

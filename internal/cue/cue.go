// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package cue

import (
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/relabs-tech/ontrack/internal/bus"
)

// Kind names one of the two alert sounds.
type Kind string

const (
	None        Kind = ""
	OffTrack    Kind = "off_track"
	BackOnTrack Kind = "back_on_track"
)

// SystemSound returns the platform system sound id historically bound to
// the cue (1033 off track, 1028 back on track).
func (k Kind) SystemSound() int {
	switch k {
	case OffTrack:
		return 1033
	case BackOnTrack:
		return 1028
	}
	return 0
}

// Event is one cue to be played.
type Event struct {
	ID       string    `json:"id"`
	Kind     Kind      `json:"kind"`
	Sound    int       `json:"sound"`
	Distance float64   `json:"distance_m"`
	Time     time.Time `json:"time"`
}

// NewEvent stamps a cue of kind with a fresh id and the current time.
func NewEvent(kind Kind, distance float64) Event {
	return Event{
		ID:       uuid.NewString(),
		Kind:     kind,
		Sound:    kind.SystemSound(),
		Distance: distance,
		Time:     time.Now(),
	}
}

// Player plays cues.
type Player interface {
	Play(Event)
}

// PlayerFunc adapts a function to Player.
type PlayerFunc func(Event)

func (f PlayerFunc) Play(e Event) { f(e) }

// Multi plays every cue on each of its players in order.
type Multi []Player

func (m Multi) Play(e Event) {
	for _, p := range m {
		p.Play(e)
	}
}

// Gate forwards cues to Next only while Enabled reports true.
type Gate struct {
	Enabled func() bool
	Next    Player
}

func (g Gate) Play(e Event) {
	if g.Enabled != nil && !g.Enabled() {
		return
	}
	g.Next.Play(e)
}

// MQTTPlayer publishes cues as JSON so any subscriber with a speaker can
// play them.
type MQTTPlayer struct {
	Pub   bus.Publisher
	Topic string
}

func (p MQTTPlayer) Play(e Event) {
	if err := p.Pub.PublishJSON(p.Topic, e, false); err != nil {
		log.Printf("cue: %v", err)
	}
}

// BellPlayer rings the terminal bell: once for off track, twice for back on
// track.
type BellPlayer struct {
	mu sync.Mutex
	W  io.Writer
}

func (b *BellPlayer) Play(e Event) {
	var bell string
	switch e.Kind {
	case OffTrack:
		bell = "\a"
	case BackOnTrack:
		bell = "\a\a"
	default:
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := fmt.Fprintf(b.W, "%s[CUE] %s %.2fm\n", bell, e.Kind, e.Distance); err != nil {
		log.Printf("cue: bell write error: %v", err)
	}
}

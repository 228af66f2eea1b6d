// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/paulmach/orb/geojson"

	"github.com/relabs-tech/ontrack/internal/cue"
	"github.com/relabs-tech/ontrack/internal/overlay"
	"github.com/relabs-tech/ontrack/internal/proximity"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

const (
	wsSendBuffer   = 16
	wsWriteTimeout = 5 * time.Second
)

// WSMessage is a command sent by a browser.
type WSMessage struct {
	Action string `json:"action"` // check, select, maptype, zoom
	File   string `json:"file,omitempty"`
}

// WSResponse is pushed to browsers.
type WSResponse struct {
	Type    string                     `json:"type"` // status, cue, error
	Report  *proximity.Report          `json:"report,omitempty"`
	Overlay *geojson.FeatureCollection `json:"overlay,omitempty"`
	Cue     *cue.Event                 `json:"cue,omitempty"`
	Message string                     `json:"message,omitempty"`
}

type wsClient struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub fans status and cue messages out to every connected browser. It
// doubles as a proximity.Sink and a cue.Player.
type Hub struct {
	mu      sync.Mutex
	clients map[*wsClient]struct{}

	// OnAction handles commands received from browsers.
	OnAction func(WSMessage) error
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*wsClient]struct{})}
}

// Clients returns the number of connected browsers.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Publish implements proximity.Sink.
func (h *Hub) Publish(rep proximity.Report, ov overlay.Overlay) {
	h.broadcast(WSResponse{Type: "status", Report: &rep, Overlay: ov.FeatureCollection()})
}

// Play implements cue.Player.
func (h *Hub) Play(e cue.Event) {
	h.broadcast(WSResponse{Type: "cue", Cue: &e})
}

func (h *Hub) broadcast(msg WSResponse) {
	payload, err := json.Marshal(msg)
	if err != nil {
		log.Printf("hub: marshal %s: %v", msg.Type, err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			log.Printf("hub: client %s too slow, dropping %s", c.id, msg.Type)
		}
	}
}

// ServeWS upgrades the request and serves one browser until it goes away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("hub: websocket upgrade error: %v", err)
		return
	}

	c := &wsClient{id: uuid.NewString(), conn: conn, send: make(chan []byte, wsSendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	log.Printf("hub: client %s connected from %s", c.id, r.RemoteAddr)

	done := make(chan struct{})
	go h.writeLoop(c, done)

	h.readLoop(c)

	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	close(done)
	conn.Close()
	log.Printf("hub: client %s disconnected", c.id)
}

func (h *Hub) readLoop(c *wsClient) {
	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("hub: websocket error: %v", err)
			}
			return
		}
		if h.OnAction == nil {
			continue
		}
		if err := h.OnAction(msg); err != nil {
			h.sendTo(c, WSResponse{Type: "error", Message: err.Error()})
		}
	}
}

func (h *Hub) writeLoop(c *wsClient, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case payload := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Printf("hub: write to %s: %v", c.id, err)
				c.conn.Close()
				return
			}
		}
	}
}

func (h *Hub) sendTo(c *wsClient, msg WSResponse) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}

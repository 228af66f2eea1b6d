// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/relabs-tech/ontrack/internal/label"
)

const maxRouteUpload = 32 << 20

// NewWebHandler serves the JSON API, the websocket feed and the static map
// page from staticDir.
func NewWebHandler(s *Session, hub *Hub, staticDir string) http.Handler {
	mux := http.NewServeMux()

	// Latest report
	mux.HandleFunc("GET /api/status", func(w http.ResponseWriter, r *http.Request) {
		rep, _, ok := s.Snapshot()
		if !ok {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, rep)
	})

	// Track polylines plus the nearest-point connector as GeoJSON
	mux.HandleFunc("GET /api/overlay", func(w http.ResponseWriter, r *http.Request) {
		_, ov, ok := s.Snapshot()
		if !ok {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/geo+json")
		if err := json.NewEncoder(w).Encode(ov.FeatureCollection()); err != nil {
			log.Printf("web: json encode error: %v", err)
		}
	})

	mux.HandleFunc("GET /api/viewport", func(w http.ResponseWriter, r *http.Request) {
		b, zoom, ok := s.Viewport()
		if !ok {
			http.Error(w, "nothing to show", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, map[string]any{
			"zoom": zoom,
			"min":  []float64{b.Min.Lon(), b.Min.Lat()},
			"max":  []float64{b.Max.Lon(), b.Max.Lat()},
		})
	})

	// Distance label
	mux.HandleFunc("GET /api/label.png", func(w http.ResponseWriter, r *http.Request) {
		rep, _, _ := s.Snapshot()
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		if err := label.WritePNG(w, rep); err != nil {
			log.Printf("web: %v", err)
		}
	})

	mux.HandleFunc("GET /api/routes", func(w http.ResponseWriter, r *http.Request) {
		names, err := s.lib.List()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if names == nil {
			names = []string{}
		}
		writeJSON(w, map[string]any{"routes": names, "selected": s.prefs.Get().File})
	})

	mux.HandleFunc("POST /api/routes/{name}", func(w http.ResponseWriter, r *http.Request) {
		body := http.MaxBytesReader(w, r.Body, maxRouteUpload)
		if err := s.ImportRoute(r.PathValue("name"), body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusCreated)
	})

	mux.HandleFunc("POST /api/select/{name}", func(w http.ResponseWriter, r *http.Request) {
		err := s.SelectRoute(r.PathValue("name"))
		switch {
		case errors.Is(err, ErrUnknownRoute):
			http.Error(w, err.Error(), http.StatusNotFound)
		case err != nil:
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	})

	mux.HandleFunc("GET /api/prefs", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, s.prefs.Get())
	})

	mux.HandleFunc("POST /api/maptype", func(w http.ResponseWriter, r *http.Request) {
		m, err := s.prefs.CycleMapType()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]any{"map_type": m})
	})

	mux.HandleFunc("POST /api/zoom", func(w http.ResponseWriter, r *http.Request) {
		z, err := s.prefs.ToggleZoom()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]any{"zoom": z})
	})

	mux.HandleFunc("POST /api/audio", func(w http.ResponseWriter, r *http.Request) {
		on, err := strconv.ParseBool(r.URL.Query().Get("on"))
		if err != nil {
			http.Error(w, "on must be true or false", http.StatusBadRequest)
			return
		}
		if err := s.SetAudio(on); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("POST /api/threshold", func(w http.ResponseWriter, r *http.Request) {
		meters, err := strconv.ParseFloat(r.URL.Query().Get("meters"), 64)
		if err != nil || meters <= 0 {
			http.Error(w, "meters must be a positive number", http.StatusBadRequest)
			return
		}
		if err := s.SetOffTrackDistance(meters); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("POST /api/check", func(w http.ResponseWriter, r *http.Request) {
		rep, ok := s.runner.Check()
		if !ok {
			http.Error(w, "monitor stopped", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, rep)
	})

	mux.HandleFunc("GET /ws", hub.ServeWS)

	// Static files from staticDir as the root
	mux.Handle("/", http.FileServer(http.Dir(staticDir)))

	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("web: json encode error: %v", err)
	}
}

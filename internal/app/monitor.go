// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/relabs-tech/ontrack/internal/bus"
	"github.com/relabs-tech/ontrack/internal/config"
	"github.com/relabs-tech/ontrack/internal/cue"
	"github.com/relabs-tech/ontrack/internal/gps"
	"github.com/relabs-tech/ontrack/internal/prefs"
	"github.com/relabs-tech/ontrack/internal/proximity"
	"github.com/relabs-tech/ontrack/internal/route"
)

// RunMonitor loads the selected route, follows GPS fixes from MQTT, plays
// cues when the user leaves or rejoins the track, and serves the map page.
func RunMonitor(ctx context.Context) error {
	cfg := config.Get()

	// ---- 1) Preferences and route library ----
	store, err := prefs.Open(cfg.PrefsFile)
	if err != nil {
		return err
	}
	lib, err := route.NewLibrary(cfg.DocumentsDir)
	if err != nil {
		return err
	}
	if !store.Get().HasCopiedFiles && cfg.BundledDir != "" {
		lib.CopyBundled(cfg.BundledDir, cfg.BundledRoutes)
		if _, err := store.Update(func(p *prefs.Preferences) { p.HasCopiedFiles = true }); err != nil {
			log.Printf("monitor: %v", err)
		}
	}

	// ---- 2) Connect to MQTT broker ----
	client, err := bus.Connect(cfg.MQTTBroker, cfg.MQTTClientIDMonitor)
	if err != nil {
		return err
	}
	defer client.Close()

	// ---- 3) Wire the runner ----
	hub := NewHub()
	session := NewSession(store, lib, cfg.AlertThreshold)

	players := cue.Multi{cue.MQTTPlayer{Pub: client, Topic: cfg.TopicCue}, hub}
	if cfg.BellEnabled {
		players = append(players, &cue.BellPlayer{W: os.Stdout})
	}

	runner := proximity.NewRunner(proximity.Options{
		Threshold:  session.Threshold(),
		Step:       cfg.InterpolationStep,
		Ticker:     proximity.NewTicker(time.Duration(cfg.CheckInterval) * time.Millisecond),
		Player:     cue.Gate{Enabled: session.AudioOn, Next: players},
		Sink:       sinks{session, hub, statusPublisher{pub: client, topic: cfg.TopicStatus}},
		Background: true,
	})
	session.Attach(runner)
	hub.OnAction = session.HandleAction

	runErr := make(chan error, 1)
	go func() { runErr <- runner.Run(ctx) }()

	session.LoadSelected()

	// ---- 4) Subscribe to GPS fixes ----
	err = bus.SubscribeJSON(client, cfg.TopicGPS, func(f gps.Fix) {
		if !f.Valid() {
			return
		}
		runner.SetLocation(f.Point())
	})
	if err != nil {
		return err
	}

	// ---- 5) Web server ----
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.WebServerPort),
		Handler: NewWebHandler(session, hub, cfg.WebStaticDir),
	}
	srvErr := make(chan error, 1)
	go func() {
		log.Printf("web server listening on %s", srv.Addr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-srvErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("web server: %w", err)
		}
	case err := <-runErr:
		return err
	}

	log.Println("monitor: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("web: shutdown error: %v", err)
	}
	<-runErr
	return nil
}

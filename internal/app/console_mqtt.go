// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/relabs-tech/ontrack/internal/bus"
	"github.com/relabs-tech/ontrack/internal/config"
	"github.com/relabs-tech/ontrack/internal/cue"
	"github.com/relabs-tech/ontrack/internal/gps"
	"github.com/relabs-tech/ontrack/internal/label"
	"github.com/relabs-tech/ontrack/internal/proximity"
)

// RunConsoleMQTT prints GPS fixes, monitor reports and cues as they arrive.
func RunConsoleMQTT(ctx context.Context) error {
	cfg := config.Get()

	client, err := bus.Connect(cfg.MQTTBroker, cfg.MQTTClientIDConsole)
	if err != nil {
		return err
	}
	defer client.Close()

	out := os.Stdout
	bell := &cue.BellPlayer{W: out}

	if err := bus.SubscribeJSON(client, cfg.TopicGPS, func(f gps.Fix) { printFix(out, f) }); err != nil {
		return err
	}
	if err := bus.SubscribeJSON(client, cfg.TopicStatus, func(r proximity.Report) { printReport(out, r) }); err != nil {
		return err
	}
	if err := bus.SubscribeJSON(client, cfg.TopicCue, bell.Play); err != nil {
		return err
	}

	<-ctx.Done()
	log.Println("console: shutting down")
	return nil
}

func printFix(w io.Writer, f gps.Fix) {
	fmt.Fprintf(w,
		"[GPS ]  time=%s date=%s lat=%.6f lon=%.6f speed=%.1fkn course=%.1f° validity=%s\n",
		f.Time, f.Date, f.Latitude, f.Longitude, f.SpeedKnots, f.CourseDeg, f.Validity,
	)
}

func printReport(w io.Writer, r proximity.Report) {
	if !r.Checked {
		fmt.Fprintf(w, "[TRK ]  route=%s points=%d interpolated=%d\n", r.Route, r.TrackPoints, r.PathPoints)
		return
	}
	fmt.Fprintf(w, "[TRK ]  %-9s distance=%s threshold=%.0fm route=%s\n",
		r.Status, label.Distance(r), r.Threshold, r.Route)
}

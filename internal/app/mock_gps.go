// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/relabs-tech/ontrack/internal/bus"
	"github.com/relabs-tech/ontrack/internal/config"
	"github.com/relabs-tech/ontrack/internal/gps"
	"github.com/relabs-tech/ontrack/internal/route"
)

// RunMockGPS walks the named route from the library and publishes fixes
// as if a receiver were attached.
func RunMockGPS(ctx context.Context, name string) error {
	cfg := config.Get()

	lib, err := route.NewLibrary(cfg.DocumentsDir)
	if err != nil {
		return err
	}
	t := lib.Load(name)
	if t.Empty() {
		return fmt.Errorf("route %s has no points", name)
	}

	client, err := bus.Connect(cfg.MQTTBroker, cfg.MQTTClientIDGPS+"-mock")
	if err != nil {
		return err
	}
	defer client.Close()

	interval := time.Duration(cfg.MockInterval) * time.Millisecond
	src := gps.NewMockSource(t, cfg.MockSpeed, cfg.MockOffset)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("mock GPS: walking %s at %.1fm/s, %.0fm offset", name, cfg.MockSpeed, cfg.MockOffset)
	return walk(ctx, src, interval, ticker.C, publishFix(client, cfg.TopicGPS))
}

func walk(ctx context.Context, src *gps.MockSource, step time.Duration, ticks <-chan time.Time, emit func(gps.Fix)) error {
	for !src.Done() {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticks:
			if fix, ok := src.Next(step, now); ok {
				emit(fix)
			}
		}
	}
	log.Println("mock GPS: reached end of route")
	return nil
}

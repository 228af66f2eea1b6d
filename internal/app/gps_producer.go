// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"log"

	"github.com/relabs-tech/ontrack/internal/bus"
	"github.com/relabs-tech/ontrack/internal/config"
	"github.com/relabs-tech/ontrack/internal/gps"
)

// RunGPSProducer opens the GPS serial port, parses NMEA sentences, and
// publishes RMC fixes as JSON to the GPS topic.
func RunGPSProducer(ctx context.Context) error {
	cfg := config.Get()
	if err := cfg.ValidateGPS(); err != nil {
		return err
	}

	// ---- 1) Connect to MQTT broker ----
	client, err := bus.Connect(cfg.MQTTBroker, cfg.MQTTClientIDGPS)
	if err != nil {
		return err
	}
	defer client.Close()

	// ---- 2) Open GPS serial port ----
	port, err := gps.OpenSerial(cfg.GPSSerialPort, cfg.GPSBaudRate)
	if err != nil {
		return err
	}
	defer port.Close()

	// Closing the port unblocks the reader on shutdown.
	go func() {
		<-ctx.Done()
		port.Close()
	}()

	err = gps.ReadFixes(ctx, port, publishFix(client, cfg.TopicGPS))
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func publishFix(pub bus.Publisher, topic string) func(gps.Fix) {
	return func(f gps.Fix) {
		if err := pub.PublishJSON(topic, f, true); err != nil {
			log.Printf("GPS %v", err)
			return
		}
		log.Printf("published GPS fix: %+v", f)
	}
}

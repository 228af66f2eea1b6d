// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/relabs-tech/ontrack/internal/app"
	"github.com/relabs-tech/ontrack/internal/config"
	"github.com/relabs-tech/ontrack/internal/logging"
)

func main() {
	log.Println("starting ontrack monitor and web server")

	// Load configuration
	if err := config.InitGlobal(config.DefaultPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	defer logging.Init(config.Get().LogFile).Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunMonitor(ctx); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/relabs-tech/ontrack/internal/app"
	"github.com/relabs-tech/ontrack/internal/config"
	"github.com/relabs-tech/ontrack/internal/logging"
	"github.com/relabs-tech/ontrack/internal/prefs"
)

func main() {
	routeName := flag.String("route", prefs.DefaultFile, "route file in DOCUMENTS_DIR to walk")
	flag.Parse()

	log.Println("starting ontrack mock GPS producer")

	if err := config.InitGlobal(config.DefaultPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	defer logging.Init(config.Get().LogFile).Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunMockGPS(ctx, *routeName); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package logging

import (
	"io"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Init sends the standard logger to stdout and, when file is set, to a
// rotating log file as well. The returned closer flushes the file.
func Init(file string) io.Closer {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	if file == "" {
		log.SetOutput(os.Stdout)
		return io.NopCloser(nil)
	}

	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		log.SetOutput(os.Stdout)
		log.Printf("logging: %v; logging to stdout only", err)
		return io.NopCloser(nil)
	}

	w := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    16, // MB
		MaxBackups: 3,
		MaxAge:     14,
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stdout, w))
	return w
}

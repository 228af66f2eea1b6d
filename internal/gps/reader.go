// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	nmea "github.com/adrianmo/go-nmea"
	serial "github.com/jacobsa/go-serial/serial"
)

// OpenSerial opens the GPS receiver's serial port at baud, 8N1.
func OpenSerial(portName string, baud int) (io.ReadWriteCloser, error) {
	serialOpts := serial.OpenOptions{
		PortName:              portName,
		BaudRate:              uint(baud),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return nil, fmt.Errorf("open GPS serial port %s: %w", portName, err)
	}
	log.Printf("GPS serial port opened on %s at %d baud", portName, baud)
	return port, nil
}

// ParseRMC turns one NMEA line into a Fix. ok is false for anything that
// is not a well-formed RMC sentence.
func ParseRMC(line string) (fix Fix, ok bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "$") {
		return Fix{}, false
	}

	sentence, err := nmea.Parse(line)
	if err != nil {
		// noisy GPS or partial sentences
		return Fix{}, false
	}
	if sentence.DataType() != nmea.TypeRMC {
		return Fix{}, false
	}

	m := sentence.(nmea.RMC)
	return Fix{
		Time:       m.Time.String(),
		Date:       m.Date.String(),
		Latitude:   m.Latitude,
		Longitude:  m.Longitude,
		SpeedKnots: m.Speed,
		CourseDeg:  m.Course,
		Validity:   string(m.Validity),
	}, true
}

// ReadFixes scans NMEA lines from r and calls emit for every RMC fix until
// r is exhausted, a read fails, or ctx is cancelled.
func ReadFixes(ctx context.Context, r io.Reader, emit func(Fix)) error {
	reader := bufio.NewReader(r)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, err := reader.ReadString('\n')
		if fix, ok := ParseRMC(line); ok {
			emit(fix)
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("GPS read error: %w", err)
		}
	}
}

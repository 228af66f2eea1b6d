// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// DefaultPath is the config file the binaries read from the working
// directory.
const DefaultPath = "ontrack_config.txt"

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker          string
	MQTTClientIDGPS     string
	MQTTClientIDMonitor string
	MQTTClientIDConsole string

	// Topics
	TopicGPS    string
	TopicStatus string
	TopicCue    string

	// GPS
	GPSSerialPort string
	GPSBaudRate   int

	// Monitor
	CheckInterval     int     // milliseconds
	InterpolationStep float64 // meters
	AlertThreshold    float64 // meters
	BellEnabled       bool

	// Routes and preferences
	DocumentsDir  string
	BundledDir    string
	BundledRoutes []string
	PrefsFile     string

	// Mock GPS
	MockInterval int     // milliseconds
	MockSpeed    float64 // meters per second
	MockOffset   float64 // meters east of the track

	// Web Server
	WebServerPort int
	WebStaticDir  string

	// Logging
	LogFile string
}

// Package-level singleton. InitGlobal sets it once, Get reads it.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Defaults returns a Config with every optional value filled in.
func Defaults() *Config {
	return &Config{
		MQTTClientIDGPS:     "ontrack-gps-producer",
		MQTTClientIDMonitor: "ontrack-monitor",
		MQTTClientIDConsole: "ontrack-console",

		TopicGPS:    "ontrack/gps",
		TopicStatus: "ontrack/status",
		TopicCue:    "ontrack/cue",

		GPSBaudRate: 9600,

		CheckInterval:     5000,
		InterpolationStep: 5,
		AlertThreshold:    100,

		BundledRoutes: []string{"PennineBridleway.gpx"},

		MockInterval: 1000,
		MockSpeed:    1.4,

		WebServerPort: 8080,
		WebStaticDir:  "web",
	}
}

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := Defaults()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_GPS":
		c.MQTTClientIDGPS = value
	case "MQTT_CLIENT_ID_MONITOR":
		c.MQTTClientIDMonitor = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value

	// Topics
	case "TOPIC_GPS":
		c.TopicGPS = value
	case "TOPIC_STATUS":
		c.TopicStatus = value
	case "TOPIC_CUE":
		c.TopicCue = value

	// GPS
	case "GPS_SERIAL_PORT":
		c.GPSSerialPort = value
	case "GPS_BAUD_RATE":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid GPS_BAUD_RATE %q: %w", value, err)
		}
		c.GPSBaudRate = rate

	// Monitor
	case "CHECK_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid CHECK_INTERVAL %q: %w", value, err)
		}
		if interval <= 0 {
			return fmt.Errorf("CHECK_INTERVAL must be positive, got %d", interval)
		}
		c.CheckInterval = interval
	case "INTERPOLATION_STEP":
		step, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid INTERPOLATION_STEP %q: %w", value, err)
		}
		if step <= 0 {
			return fmt.Errorf("INTERPOLATION_STEP must be positive, got %g", step)
		}
		c.InterpolationStep = step
	case "ALERT_THRESHOLD":
		meters, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid ALERT_THRESHOLD %q: %w", value, err)
		}
		if meters <= 0 {
			return fmt.Errorf("ALERT_THRESHOLD must be positive, got %g", meters)
		}
		c.AlertThreshold = meters
	case "BELL_ENABLED":
		on, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid BELL_ENABLED %q: %w", value, err)
		}
		c.BellEnabled = on

	// Routes and preferences
	case "DOCUMENTS_DIR":
		c.DocumentsDir = value
	case "BUNDLED_DIR":
		c.BundledDir = value
	case "BUNDLED_ROUTES":
		c.BundledRoutes = nil
		for _, name := range strings.Split(value, ",") {
			if name = strings.TrimSpace(name); name != "" {
				c.BundledRoutes = append(c.BundledRoutes, name)
			}
		}
	case "PREFS_FILE":
		c.PrefsFile = value

	// Mock GPS
	case "MOCK_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid MOCK_INTERVAL %q: %w", value, err)
		}
		if interval <= 0 {
			return fmt.Errorf("MOCK_INTERVAL must be positive, got %d", interval)
		}
		c.MockInterval = interval
	case "MOCK_SPEED":
		speed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid MOCK_SPEED %q: %w", value, err)
		}
		c.MockSpeed = speed
	case "MOCK_OFFSET":
		offset, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid MOCK_OFFSET %q: %w", value, err)
		}
		c.MockOffset = offset

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		if port < 1 || port > 65535 {
			return fmt.Errorf("WEB_SERVER_PORT must be 1-65535, got %d", port)
		}
		c.WebServerPort = port
	case "WEB_STATIC_DIR":
		c.WebStaticDir = value

	// Logging
	case "LOG_FILE":
		c.LogFile = value

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.DocumentsDir == "" {
		return fmt.Errorf("DOCUMENTS_DIR is required")
	}
	if c.PrefsFile == "" {
		return fmt.Errorf("PREFS_FILE is required")
	}
	return nil
}

// ValidateGPS checks the settings the serial GPS producer needs.
func (c *Config) ValidateGPS() error {
	if c.GPSSerialPort == "" {
		return fmt.Errorf("GPS_SERIAL_PORT is required")
	}
	if c.GPSBaudRate == 0 {
		return fmt.Errorf("GPS_BAUD_RATE is required")
	}
	return nil
}

// InitGlobal initializes the global configuration from file. Only the
// first call has any effect.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}

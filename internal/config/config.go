// Package config loads the server's tuning knobs from an optional YAML
// file, layered over built-in defaults. The listen port is deliberately
// not part of this struct: it is the one required CLI flag (-p) and is
// wired separately in cmd/tttserver.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the server's non-CLI tuning knobs.
type Config struct {
	// ReadTimeout bounds how long a frame may take to finish arriving
	// once its first byte has shown up; it never bounds the idle wait
	// for the next frame, so a logged-in client with nothing to send
	// (waiting on an invitation, waiting on a peer's move) is never
	// disconnected for it. Durations are stored as strings in the YAML
	// file ("120s", "2m") and parsed on load.
	ReadTimeout string `yaml:"read_timeout"`
	// WriteTimeout bounds how long a single frame write may take.
	WriteTimeout string `yaml:"write_timeout"`
	// RegistryCapacity is the hard cap on concurrently registered
	// sessions (spec: 64).
	RegistryCapacity int `yaml:"registry_capacity"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ReadTimeout:      "120s",
		WriteTimeout:     "5s",
		RegistryCapacity: 64,
		LogLevel:         "info",
	}
}

// Load reads cfg from a YAML file at path, falling back to Default
// values for any field the file omits. A missing file is not an error:
// it simply yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// ReadTimeoutDuration parses ReadTimeout (the per-frame, not per-idle-
// wait, bound — see the field comment), falling back to Default's
// value if it is empty or malformed.
func (c Config) ReadTimeoutDuration() time.Duration {
	return parseDurationOr(c.ReadTimeout, 120*time.Second)
}

// WriteTimeoutDuration parses WriteTimeout, falling back to Default's
// value if it is empty or malformed.
func (c Config) WriteTimeoutDuration() time.Duration {
	return parseDurationOr(c.WriteTimeout, 5*time.Second)
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// ParseLogLevel maps a config log level string onto a slog.Level,
// defaulting to Info for anything unrecognised.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/camprobe/internal/log"
)

// Environment keys. The prefix is shared by every variable the loader reads.
const (
	EnvPrefix               = "CAMPROBE_"
	EnvConfigPath           = "CAMPROBE_CONFIG"
	EnvEnvFile              = "CAMPROBE_ENV_FILE"
	EnvFFprobeBin           = "CAMPROBE_FFPROBE_BIN"
	EnvFFmpegBin            = "CAMPROBE_FFMPEG_BIN"
	EnvProtocolConfig       = "CAMPROBE_PROTOCOL_CONFIG"
	EnvInterval             = "CAMPROBE_INTERVAL"
	EnvStreamTimeout        = "CAMPROBE_STREAM_TIMEOUT"
	EnvONVIFTimeout         = "CAMPROBE_ONVIF_TIMEOUT"
	EnvRTSPTransport        = "CAMPROBE_RTSP_TRANSPORT"
	EnvMaxConcurrentDevices = "CAMPROBE_MAX_CONCURRENT_DEVICES"
	EnvProbeSpawnRate       = "CAMPROBE_PROBE_SPAWN_RATE"
	EnvMetricsListen        = "CAMPROBE_METRICS_LISTEN"
	EnvLogLevel             = "CAMPROBE_LOG_LEVEL"
	EnvLogFile              = "CAMPROBE_LOG_FILE"
	EnvTelemetryEnabled     = "CAMPROBE_TELEMETRY_ENABLED"
	EnvTelemetryExporter    = "CAMPROBE_TELEMETRY_EXPORTER"
	EnvTelemetryEndpoint    = "CAMPROBE_TELEMETRY_ENDPOINT"
	EnvTelemetrySampling    = "CAMPROBE_TELEMETRY_SAMPLING_RATE"
)

// ParseString reads a string from environment variable or returns default value.
// It logs the source (environment or default) for observability.
func ParseString(key, defaultValue string) string {
	return parseStringWithLogger(log.WithComponent("config"), key, defaultValue)
}

func parseStringWithLogger(logger zerolog.Logger, key, defaultValue string) string {
	value, exists := os.LookupEnv(key)
	switch {
	case !exists:
		logger.Debug().Str("key", key).Str("source", "default").Msg("using default value")
		return defaultValue
	case value == "":
		logger.Debug().Str("key", key).Str("source", "default").Msg("using default value (environment variable is empty)")
		return defaultValue
	case isSensitive(key):
		logger.Debug().Str("key", key).Str("source", "environment").Bool("sensitive", true).Msg("using environment variable")
	default:
		logger.Debug().Str("key", key).Str("value", value).Str("source", "environment").Msg("using environment variable")
	}
	return value
}

// ParseInt reads an integer from environment variable or returns default value.
// It validates the input and falls back to default on parse errors.
func ParseInt(key string, defaultValue int) int {
	return parseTyped(key, defaultValue, strconv.Atoi)
}

// ParseFloat reads a float; invalid input falls back to the default.
func ParseFloat(key string, defaultValue float64) float64 {
	return parseTyped(key, defaultValue, func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
}

// ParseBool reads a boolean in any form strconv.ParseBool accepts.
func ParseBool(key string, defaultValue bool) bool {
	return parseTyped(key, defaultValue, strconv.ParseBool)
}

// ParseDuration reads a duration from environment variable in Go duration format (e.g. "5s").
// It falls back to default on parse errors or empty variables and logs the choice.
func ParseDuration(key string, defaultValue time.Duration) time.Duration {
	return parseTyped(key, defaultValue, time.ParseDuration)
}

func parseTyped[T any](key string, defaultValue T, parse func(string) (T, error)) T {
	logger := log.WithComponent("config")
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		logger.Debug().Str("key", key).Interface("default", defaultValue).Str("source", "default").Msg("using default value")
		return defaultValue
	}
	v, err := parse(strings.TrimSpace(raw))
	if err != nil {
		logger.Warn().
			Str("key", key).
			Str("value", raw).
			Interface("default", defaultValue).
			Msg("invalid value in environment variable, using default")
		return defaultValue
	}
	logger.Debug().Str("key", key).Interface("value", v).Str("source", "environment").Msg("using environment variable")
	return v
}

func isSensitive(key string) bool {
	k := strings.ToLower(key)
	return strings.Contains(k, "password") || strings.Contains(k, "token") || strings.Contains(k, "secret")
}

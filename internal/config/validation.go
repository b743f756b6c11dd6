// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ManuGH/camprobe/internal/validate"
)

var streamSchemes = []string{"rtsp", "rtsps", "rtmp", "http", "https"}

// Validate checks the effective configuration and reports every problem at once.
func Validate(cfg Config) error {
	v := validate.New()

	v.NotEmpty("ffprobe_path", cfg.FFprobePath)
	v.PositiveDuration("interval", cfg.Interval)
	v.PositiveDuration("stream_timeout", cfg.StreamTimeout)
	v.PositiveDuration("onvif_timeout", cfg.ONVIFTimeout)
	v.OneOf("rtsp_transport", cfg.RTSPTransport, []string{"tcp", "udp", "udp_multicast", "http", ""})
	v.NonNegative("max_concurrent_devices", float64(cfg.MaxConcurrentDevices))
	v.NonNegative("probe_spawn_rate", cfg.ProbeSpawnRate)
	v.ListenAddr("metrics_listen", cfg.MetricsListen)

	if _, err := zerolog.ParseLevel(cfg.Log.Level); err != nil {
		v.AddError("log.level", err.Error(), cfg.Log.Level)
	}
	if cfg.Telemetry.Enabled {
		v.OneOf("telemetry.exporter", cfg.Telemetry.Exporter, []string{"grpc", "http"})
		v.NotEmpty("telemetry.endpoint", cfg.Telemetry.Endpoint)
	}
	v.FloatRange("telemetry.sampling_rate", cfg.Telemetry.SamplingRate, 0, 1)

	if len(cfg.Hosts) == 0 {
		v.AddError("hosts", "at least one host is required", nil)
	}
	seen := make(map[string]struct{}, len(cfg.Hosts))
	for i, h := range cfg.Hosts {
		prefix := fmt.Sprintf("hosts[%d]", i)
		v.IP(prefix+".ip", h.IP)
		v.Unique("hosts.ip", h.IP, seen)
		v.Port(prefix+".onvif_port", h.ONVIFPort)
		for j, u := range h.RTSPURLs {
			v.URL(fmt.Sprintf("%s.rtsp_url[%d]", prefix, j), u, streamSchemes)
		}
	}

	if err := v.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

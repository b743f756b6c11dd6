// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/ManuGH/camprobe/internal/log"
)

func mergeFileConfig(dst *Config, src *FileConfig) error {
	protocol, err := resolveProtocolAlias(src)
	if err != nil {
		return err
	}

	setIf(&dst.FFprobePath, src.FFprobePath)
	setIf(&dst.FFmpegPath, src.FFmpegPath)
	setIf(&dst.ProtocolConfig, protocol)
	setIf(&dst.Interval, src.Interval)
	setIf(&dst.StreamTimeout, src.StreamTimeout)
	setIf(&dst.ONVIFTimeout, src.ONVIFTimeout)
	setIf(&dst.RTSPTransport, src.RTSPTransport)
	setIf(&dst.MaxConcurrentDevices, src.MaxConcurrentDevices)
	setIf(&dst.ProbeSpawnRate, src.ProbeSpawnRate)
	setIf(&dst.MetricsListen, src.MetricsListen)

	if src.Log != nil {
		setIf(&dst.Log.Level, src.Log.Level)
		setIf(&dst.Log.File, src.Log.File)
		setIf(&dst.Log.Service, src.Log.Service)
	}
	if src.Telemetry != nil {
		setIf(&dst.Telemetry.Enabled, src.Telemetry.Enabled)
		setIf(&dst.Telemetry.Exporter, src.Telemetry.Exporter)
		setIf(&dst.Telemetry.Endpoint, src.Telemetry.Endpoint)
		setIf(&dst.Telemetry.SamplingRate, src.Telemetry.SamplingRate)
	}

	if src.Hosts != nil {
		dst.Hosts = make([]HostConfig, 0, len(src.Hosts))
		for _, h := range src.Hosts {
			dst.Hosts = append(dst.Hosts, hostFromFile(h))
		}
	}
	return nil
}

func hostFromFile(h FileHostConfig) HostConfig {
	out := HostConfig{
		Name:          strings.TrimSpace(h.Name),
		IP:            strings.TrimSpace(h.IP),
		ONVIFPort:     DefaultONVIFPort,
		ONVIFUsername: h.ONVIFUsername,
		ONVIFPassword: h.ONVIFPassword,
	}
	if out.Name == "" {
		out.Name = DefaultHostName
	}
	if h.ONVIFPort != nil {
		out.ONVIFPort = *h.ONVIFPort
	}
	for _, u := range h.RTSPURLs {
		if u = strings.TrimSpace(u); u != "" {
			out.RTSPURLs = append(out.RTSPURLs, u)
		}
	}
	return out
}

// resolveProtocolAlias folds wstl_path/wsdl_path into protocol_config.
// Setting more than one of them to different values is an error. A legacy
// alias pointing at a directory of WSDL files is dropped in favour of the
// default protocol profile.
func resolveProtocolAlias(src *FileConfig) (*string, error) {
	var (
		chosen     *string
		chosenName string
	)
	for _, c := range []struct {
		name string
		val  *string
	}{
		{"protocol_config", src.ProtocolConfig},
		{"wstl_path", src.WSTLPath},
		{"wsdl_path", src.WSDLPath},
	} {
		if c.val == nil {
			continue
		}
		if chosen != nil && *chosen != *c.val {
			return nil, fmt.Errorf("%w: %s=%q vs %s=%q", ErrAliasConflict, chosenName, *chosen, c.name, *c.val)
		}
		if chosen == nil {
			chosen, chosenName = c.val, c.name
		}
	}
	if chosen != nil && chosenName != "protocol_config" {
		if info, err := os.Stat(*chosen); err == nil && info.IsDir() {
			logger := log.WithComponent("config")
			logger.Warn().
				Str(log.FieldEvent, "config.legacy_wsdl_dir").
				Str(log.FieldPath, *chosen).
				Str("key", chosenName).
				Msg("legacy WSDL directory ignored, using the default ONVIF protocol profile")
			none := ""
			return &none, nil
		}
	}
	return chosen, nil
}

func mergeEnvConfig(cfg *Config) {
	cfg.FFprobePath = ParseString(EnvFFprobeBin, cfg.FFprobePath)
	cfg.FFmpegPath = ParseString(EnvFFmpegBin, cfg.FFmpegPath)
	cfg.ProtocolConfig = ParseString(EnvProtocolConfig, cfg.ProtocolConfig)
	cfg.Interval = ParseDuration(EnvInterval, cfg.Interval)
	cfg.StreamTimeout = ParseDuration(EnvStreamTimeout, cfg.StreamTimeout)
	cfg.ONVIFTimeout = ParseDuration(EnvONVIFTimeout, cfg.ONVIFTimeout)
	cfg.RTSPTransport = ParseString(EnvRTSPTransport, cfg.RTSPTransport)
	cfg.MaxConcurrentDevices = ParseInt(EnvMaxConcurrentDevices, cfg.MaxConcurrentDevices)
	cfg.ProbeSpawnRate = ParseFloat(EnvProbeSpawnRate, cfg.ProbeSpawnRate)
	cfg.MetricsListen = ParseString(EnvMetricsListen, cfg.MetricsListen)
	cfg.Log.Level = ParseString(EnvLogLevel, cfg.Log.Level)
	cfg.Log.File = ParseString(EnvLogFile, cfg.Log.File)
	cfg.Telemetry.Enabled = ParseBool(EnvTelemetryEnabled, cfg.Telemetry.Enabled)
	cfg.Telemetry.Exporter = ParseString(EnvTelemetryExporter, cfg.Telemetry.Exporter)
	cfg.Telemetry.Endpoint = ParseString(EnvTelemetryEndpoint, cfg.Telemetry.Endpoint)
	cfg.Telemetry.SamplingRate = ParseFloat(EnvTelemetrySampling, cfg.Telemetry.SamplingRate)
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

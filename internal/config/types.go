// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config loads the monitor configuration with precedence
// ENV > file > defaults.
package config

import "time"

// Config is the effective, validated configuration.
type Config struct {
	FFprobePath          string
	FFmpegPath           string
	ProtocolConfig       string
	Interval             time.Duration
	StreamTimeout        time.Duration
	ONVIFTimeout         time.Duration
	RTSPTransport        string
	MaxConcurrentDevices int
	ProbeSpawnRate       float64
	MetricsListen        string
	Log                  LogConfig
	Telemetry            TelemetryConfig
	Hosts                []HostConfig

	// Version is injected from the binary, never read from file.
	Version string
}

type LogConfig struct {
	Level   string
	File    string
	Service string
}

type TelemetryConfig struct {
	Enabled      bool
	Exporter     string
	Endpoint     string
	SamplingRate float64
}

// HostConfig is one device entry.
type HostConfig struct {
	Name          string
	IP            string
	RTSPURLs      []string
	ONVIFPort     int
	ONVIFUsername string
	ONVIFPassword string
}

// FileConfig mirrors the on-disk document. Pointers distinguish "unset"
// from zero values so the file only overrides what it names.
type FileConfig struct {
	FFprobePath    *string `yaml:"ffprobe_path"`
	FFmpegPath     *string `yaml:"ffmpeg_path"`
	ProtocolConfig *string `yaml:"protocol_config"`
	// legacy names of protocol_config
	WSTLPath *string `yaml:"wstl_path"`
	WSDLPath *string `yaml:"wsdl_path"`

	Interval             *time.Duration `yaml:"interval"`
	StreamTimeout        *time.Duration `yaml:"stream_timeout"`
	ONVIFTimeout         *time.Duration `yaml:"onvif_timeout"`
	RTSPTransport        *string        `yaml:"rtsp_transport"`
	MaxConcurrentDevices *int           `yaml:"max_concurrent_devices"`
	ProbeSpawnRate       *float64       `yaml:"probe_spawn_rate"`
	MetricsListen        *string        `yaml:"metrics_listen"`

	Log       *FileLogConfig       `yaml:"log"`
	Telemetry *FileTelemetryConfig `yaml:"telemetry"`
	Hosts     []FileHostConfig     `yaml:"hosts"`
}

type FileLogConfig struct {
	Level   *string `yaml:"level"`
	File    *string `yaml:"file"`
	Service *string `yaml:"service"`
}

type FileTelemetryConfig struct {
	Enabled      *bool    `yaml:"enabled"`
	Exporter     *string  `yaml:"exporter"`
	Endpoint     *string  `yaml:"endpoint"`
	SamplingRate *float64 `yaml:"sampling_rate"`
}

type FileHostConfig struct {
	Name          string   `yaml:"name"`
	IP            string   `yaml:"ip"`
	RTSPURLs      []string `yaml:"rtsp_url"`
	ONVIFPort     *int     `yaml:"onvif_port"`
	ONVIFUsername string   `yaml:"onvif_username"`
	ONVIFPassword string   `yaml:"onvif_password"`
}

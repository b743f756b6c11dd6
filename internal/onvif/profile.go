// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package onvif

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Profile tunes how the client talks to devices. It is loaded from the
// optional protocol configuration file; the zero value is not usable, start
// from DefaultProfile.
type Profile struct {
	DeviceServicePath string `yaml:"device_service_path"`
	Stream            string `yaml:"stream"`    // RTP-Unicast | RTP-Multicast
	Transport         string `yaml:"transport"` // RTSP | UDP | HTTP
	Auth              string `yaml:"auth"`      // digest | none
	SyncClock         bool   `yaml:"sync_clock"`
}

// DefaultProfile matches what virtually every Profile S camera expects.
func DefaultProfile() Profile {
	return Profile{
		DeviceServicePath: "/onvif/device_service",
		Stream:            "RTP-Unicast",
		Transport:         "RTSP",
		Auth:              "digest",
		SyncClock:         true,
	}
}

// LoadProfile reads a protocol configuration file on top of DefaultProfile.
// An empty path returns the defaults.
func LoadProfile(path string) (Profile, error) {
	p := DefaultProfile()
	if strings.TrimSpace(path) == "" {
		return p, nil
	}
	// #nosec G304 -- path is supplied by the operator via config
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return p, fmt.Errorf("read protocol config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return p, fmt.Errorf("parse protocol config %s: %w", path, err)
	}
	return p, p.Validate()
}

// Validate rejects values the client cannot put on the wire.
func (p Profile) Validate() error {
	var errs []error
	if !strings.HasPrefix(p.DeviceServicePath, "/") {
		errs = append(errs, fmt.Errorf("device_service_path must start with '/': %q", p.DeviceServicePath))
	}
	switch p.Stream {
	case "RTP-Unicast", "RTP-Multicast":
	default:
		errs = append(errs, fmt.Errorf("unsupported stream type %q", p.Stream))
	}
	switch p.Transport {
	case "RTSP", "UDP", "HTTP":
	default:
		errs = append(errs, fmt.Errorf("unsupported transport %q", p.Transport))
	}
	switch p.Auth {
	case "digest", "none":
	default:
		errs = append(errs, fmt.Errorf("unsupported auth mode %q", p.Auth))
	}
	return errors.Join(errs...)
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package monitor runs the periodic device and stream checks and hands every
// result to a Publisher as soon as it is known.
package monitor

import (
	"context"
	"time"

	"github.com/ManuGH/camprobe/internal/camera"
	"github.com/ManuGH/camprobe/internal/probe"
	"github.com/ManuGH/camprobe/internal/status"
)

// Publisher receives status updates. Implementations must be safe for
// concurrent use.
type Publisher interface {
	PublishDevice(ip, username string, s status.Status)
	PublishStream(ip, endpoint string, s status.Status)
	ResetStreams(ip string) int
}

// DeviceProber queries a device over ONVIF.
type DeviceProber interface {
	Discover(ctx context.Context, dev camera.Device) probe.Discovery
}

// StreamProber checks a single stream endpoint.
type StreamProber interface {
	Probe(ctx context.Context, endpoint string) probe.Outcome
}

// Observer receives timings. metrics.Runtime implements it.
type Observer interface {
	ObserveProbe(kind string, d time.Duration)
	ObserveRound(d time.Duration, finished time.Time)
}

type nopObserver struct{}

func (nopObserver) ObserveProbe(string, time.Duration) {}
func (nopObserver) ObserveRound(time.Duration, time.Time) {}

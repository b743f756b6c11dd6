// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package monitor

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/camprobe/internal/camera"
	xglog "github.com/ManuGH/camprobe/internal/log"
	"github.com/ManuGH/camprobe/internal/metrics"
	"github.com/ManuGH/camprobe/internal/probe"
	"github.com/ManuGH/camprobe/internal/status"
	"github.com/ManuGH/camprobe/internal/telemetry"
)

// Unit checks one device and all of its stream endpoints.
type Unit struct {
	device   camera.Device
	devices  DeviceProber
	streams  StreamProber
	pub      Publisher
	observer Observer
	tracer   trace.Tracer
}

// UnitOption customises a Unit.
type UnitOption func(*Unit)

// WithObserver reports probe timings to o.
func WithObserver(o Observer) UnitOption {
	return func(u *Unit) {
		if o != nil {
			u.observer = o
		}
	}
}

// WithTracer replaces the global monitor tracer.
func WithTracer(t trace.Tracer) UnitOption {
	return func(u *Unit) {
		if t != nil {
			u.tracer = t
		}
	}
}

// NewUnit binds a device to its probers and publisher.
func NewUnit(dev camera.Device, devices DeviceProber, streams StreamProber, pub Publisher, opts ...UnitOption) *Unit {
	u := &Unit{
		device:   dev,
		devices:  devices,
		streams:  streams,
		pub:      pub,
		observer: nopObserver{},
		tracer:   telemetry.Tracer(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Device returns the device this unit checks.
func (u *Unit) Device() camera.Device { return u.device }

// StreamReport is the result of one endpoint in a round.
type StreamReport struct {
	Endpoint string
	Status   status.Status
}

// Report summarises one CheckAll.
type Report struct {
	Name    string
	IP      string
	Device  status.Status
	Streams []StreamReport // sorted by endpoint
}

// CheckAll resets the device's stream series, discovers the device,
// publishes its status and then probes every endpoint concurrently. Each
// result is published as soon as it is known. It returns once every probe
// has resolved and never panics.
func (u *Unit) CheckAll(ctx context.Context) Report {
	dev := u.device
	logger := xglog.WithComponentFromContext(ctx, "monitor").With().
		Str(xglog.FieldDeviceName, dev.Name).
		Str(xglog.FieldDeviceIP, dev.IP).
		Logger()

	ctx, span := u.tracer.Start(ctx, "device.check",
		trace.WithAttributes(telemetry.DeviceAttributes(dev.Name, dev.IP)...))
	defer span.End()

	report := Report{Name: dev.Name, IP: dev.IP}

	removed := u.pub.ResetStreams(dev.IP)

	disc := u.discover(ctx)
	u.pub.PublishDevice(dev.IP, dev.Username, disc.Status)
	report.Device = disc.Status
	telemetry.RecordStatus(span, disc.Status)

	logger.Debug().
		Str(xglog.FieldEvent, "device.checked").
		Str(xglog.FieldStatus, disc.Status.Code.String()).
		Str("message", disc.Status.Message).
		Int("stale_streams_removed", removed).
		Int("endpoints", disc.Endpoints.Len()).
		Msg("device status published")

	if !disc.Reachable {
		return report
	}

	endpoints := disc.Endpoints.Slice()
	span.SetAttributes(attribute.Int(telemetry.EndpointCountKey, len(endpoints)))

	var (
		mu      sync.Mutex
		results = make([]StreamReport, 0, len(endpoints))
		g       errgroup.Group
	)
	for _, ep := range endpoints {
		g.Go(func() error {
			s := u.probeStream(ctx, ep)
			u.pub.PublishStream(dev.IP, ep, s)

			logger.Debug().
				Str(xglog.FieldEvent, "stream.checked").
				Str(xglog.FieldEndpoint, xglog.MaskURL(ep)).
				Str(xglog.FieldStatus, s.Code.String()).
				Str("message", s.Message).
				Msg("stream status published")

			mu.Lock()
			results = append(results, StreamReport{Endpoint: ep, Status: s})
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Endpoint < results[j].Endpoint })
	report.Streams = results
	return report
}

func (u *Unit) discover(ctx context.Context) (disc probe.Discovery) {
	ctx, span := u.tracer.Start(ctx, "onvif.discover")
	defer span.End()

	start := time.Now()
	defer func() {
		u.observer.ObserveProbe(metrics.KindONVIF, time.Since(start))
		if r := recover(); r != nil {
			disc = probe.Discovery{Status: internalError(r)}
			telemetry.RecordStatus(span, disc.Status)
		}
	}()

	return u.devices.Discover(ctx, u.device)
}

func (u *Unit) probeStream(ctx context.Context, endpoint string) (s status.Status) {
	ctx, span := u.tracer.Start(ctx, "rtsp.probe",
		trace.WithAttributes(attribute.String(telemetry.StreamEndpointKey, xglog.MaskURL(endpoint))))
	defer span.End()

	start := time.Now()
	defer func() {
		u.observer.ObserveProbe(metrics.KindRTSP, time.Since(start))
		if r := recover(); r != nil {
			s = internalError(r)
		}
		telemetry.RecordStatus(span, s)
	}()

	return u.streams.Probe(ctx, endpoint).Status()
}

func internalError(r any) status.Status {
	return status.Unknown(fmt.Sprintf("internal error: %v", r))
}

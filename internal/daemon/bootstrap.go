// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/time/rate"

	"github.com/ManuGH/camprobe/internal/config"
	"github.com/ManuGH/camprobe/internal/health"
	xglog "github.com/ManuGH/camprobe/internal/log"
	"github.com/ManuGH/camprobe/internal/metrics"
	"github.com/ManuGH/camprobe/internal/monitor"
	"github.com/ManuGH/camprobe/internal/onvif"
	"github.com/ManuGH/camprobe/internal/probe"
	"github.com/ManuGH/camprobe/internal/telemetry"
)

const (
	metricsRequestLimit = 120
	metricsWindow       = time.Minute
)

// Services is the fully wired object graph built from a Config.
type Services struct {
	Config       config.Config
	Registry     *prometheus.Registry
	Publisher    *metrics.Publisher
	Runtime      *metrics.Runtime
	Orchestrator *monitor.Orchestrator
	Health       *health.Manager
	Handler      http.Handler
	Telemetry    *telemetry.Provider
}

// BuildOption customises Build, mostly for tests.
type BuildOption func(*buildOptions)

type buildOptions struct {
	deviceOpts       []probe.DeviceOption
	streamOpts       []probe.StreamOption
	processCollector bool
}

// WithDeviceOptions appends options to the ONVIF prober.
func WithDeviceOptions(opts ...probe.DeviceOption) BuildOption {
	return func(b *buildOptions) { b.deviceOpts = append(b.deviceOpts, opts...) }
}

// WithStreamOptions appends options to the ffprobe prober.
func WithStreamOptions(opts ...probe.StreamOption) BuildOption {
	return func(b *buildOptions) { b.streamOpts = append(b.streamOpts, opts...) }
}

// WithoutProcessCollectors skips the go_ and process_ collectors.
func WithoutProcessCollectors() BuildOption {
	return func(b *buildOptions) { b.processCollector = false }
}

// Build wires metrics, probers, the orchestrator, health checks, the HTTP
// router and tracing. Every configured device is published as Unknown
// before Build returns so a scrape never sees a missing camera.
func Build(ctx context.Context, cfg config.Config, opts ...BuildOption) (*Services, error) {
	bo := buildOptions{processCollector: true}
	for _, opt := range opts {
		opt(&bo)
	}
	logger := xglog.WithComponent("bootstrap")

	profile, err := onvif.LoadProfile(cfg.ProtocolConfig)
	if err != nil {
		return nil, fmt.Errorf("load protocol config: %w", err)
	}

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.Log.Service,
		ServiceVersion: cfg.Version,
		Exporter:       cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	reg := prometheus.NewRegistry()
	if bo.processCollector {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	pub := metrics.NewPublisher(reg)
	rt := metrics.NewRuntime(reg)

	devices := cfg.Devices()
	rt.SetDevicesConfigured(len(devices))
	for _, d := range devices {
		pub.InitDevice(d.IP, d.Username)
	}

	streamOpts := []probe.StreamOption{
		probe.WithRTSPTransport(cfg.RTSPTransport),
		probe.WithTerminationRecorder(rt),
	}
	if cfg.ProbeSpawnRate > 0 {
		burst := int(math.Max(1, math.Ceil(cfg.ProbeSpawnRate)))
		streamOpts = append(streamOpts, probe.WithSpawnLimiter(rate.NewLimiter(rate.Limit(cfg.ProbeSpawnRate), burst)))
	}
	streamOpts = append(streamOpts, bo.streamOpts...)

	deviceProber := probe.NewDeviceProber(profile, cfg.ONVIFTimeout, bo.deviceOpts...)
	streamProber := probe.NewStreamProber(cfg.FFprobePath, cfg.StreamTimeout, streamOpts...)

	tracer := telemetry.Tracer()
	units := make([]*monitor.Unit, 0, len(devices))
	for _, d := range devices {
		units = append(units, monitor.NewUnit(d, deviceProber, streamProber, pub,
			monitor.WithObserver(rt),
			monitor.WithTracer(tracer),
		))
	}
	orch := monitor.NewOrchestrator(units,
		monitor.WithInterval(cfg.Interval),
		monitor.WithMaxConcurrentDevices(cfg.MaxConcurrentDevices),
		monitor.WithRoundObserver(rt),
		monitor.WithRoundTracer(tracer),
	)

	hm := health.NewManager(cfg.Version)
	hm.RegisterChecker(health.NewBinaryChecker("ffprobe", cfg.FFprobePath))
	if cfg.ProtocolConfig != "" {
		hm.RegisterChecker(health.NewFileChecker("protocol_config", cfg.ProtocolConfig))
	}
	hm.RegisterChecker(health.NewRoundChecker(orch.LastCompleted, orch.Interval()))

	handler := NewRouter(RouterConfig{
		Gatherer:     reg,
		Health:       hm,
		RequestLimit: metricsRequestLimit,
		WindowSize:   metricsWindow,
	})

	logger.Info().
		Str(xglog.FieldEvent, "bootstrap.complete").
		Int("devices", len(devices)).
		Str(xglog.FieldListen, cfg.MetricsListen).
		Bool("tracing", cfg.Telemetry.Enabled).
		Msg("services wired")

	return &Services{
		Config:       cfg,
		Registry:     reg,
		Publisher:    pub,
		Runtime:      rt,
		Orchestrator: orch,
		Health:       hm,
		Handler:      handler,
		Telemetry:    tp,
	}, nil
}

// NewDaemon builds the App serving the metrics listener and running rounds
// until ctx is cancelled. Tracing is flushed on shutdown.
func (s *Services) NewDaemon() (*App, error) {
	logger := xglog.WithComponent("daemon")
	mgr, err := NewManager(DefaultServerConfig(s.Config.MetricsListen), Deps{
		Logger:  logger,
		Handler: s.Handler,
	})
	if err != nil {
		return nil, err
	}
	mgr.RegisterShutdownHook("telemetry", s.Telemetry.Shutdown)
	return NewApp(logger, mgr, s.Orchestrator), nil
}

// RunOnce runs a single round without serving HTTP and flushes tracing.
func (s *Services) RunOnce(ctx context.Context) monitor.RoundReport {
	report := s.Orchestrator.RunRound(ctx)
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.Telemetry.Shutdown(shutdownCtx); err != nil {
		logger := xglog.WithComponent("daemon")
		logger.Warn().Err(err).Msg("tracing shutdown failed")
	}
	return report
}

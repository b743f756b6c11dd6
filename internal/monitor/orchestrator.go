// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	xglog "github.com/ManuGH/camprobe/internal/log"
	"github.com/ManuGH/camprobe/internal/status"
	"github.com/ManuGH/camprobe/internal/telemetry"
)

const DefaultInterval = 60 * time.Second

// Orchestrator runs rounds over all units until its context is cancelled.
type Orchestrator struct {
	units         []*Unit
	interval      time.Duration
	maxConcurrent int
	observer      Observer
	tracer        trace.Tracer
	now           func() time.Time
	logger        zerolog.Logger

	mu        sync.RWMutex
	lastRound RoundReport
}

// Option customises an Orchestrator.
type Option func(*Orchestrator)

// WithInterval sets the pause between the end of one round and the start of the next.
func WithInterval(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.interval = d
		}
	}
}

// WithMaxConcurrentDevices caps how many units run at once. 0 means unlimited.
func WithMaxConcurrentDevices(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxConcurrent = n
		}
	}
}

// WithRoundObserver reports round timings to obs.
func WithRoundObserver(obs Observer) Option {
	return func(o *Orchestrator) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// WithRoundTracer replaces the global monitor tracer for round spans.
func WithRoundTracer(t trace.Tracer) Option {
	return func(o *Orchestrator) {
		if t != nil {
			o.tracer = t
		}
	}
}

// NewOrchestrator creates an orchestrator over units.
func NewOrchestrator(units []*Unit, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		units:    units,
		interval: DefaultInterval,
		observer: nopObserver{},
		tracer:   telemetry.Tracer(),
		now:      time.Now,
		logger:   xglog.WithComponent("orchestrator"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RoundReport summarises one round.
type RoundReport struct {
	ID       string
	Started  time.Time
	Finished time.Time
	Devices  []Report // in unit order
}

// Counts tallies device statuses in the round.
func (r RoundReport) Counts() map[status.Code]int {
	out := make(map[status.Code]int, 3)
	for _, d := range r.Devices {
		out[d.Device.Code]++
	}
	return out
}

// Run executes rounds back to back, sleeping the interval in between, until
// ctx is cancelled. A round in flight when ctx is cancelled still completes;
// its probes observe the cancellation and are reaped.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.logger.Info().
		Str(xglog.FieldEvent, "orchestrator.start").
		Int("devices", len(o.units)).
		Dur("interval", o.interval).
		Int("max_concurrent_devices", o.maxConcurrent).
		Msg("starting check rounds")

	for {
		o.RunRound(ctx)

		timer := time.NewTimer(o.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			o.logger.Info().Str(xglog.FieldEvent, "orchestrator.stop").Msg("check rounds stopped")
			return nil
		case <-timer.C:
		}
	}
}

// RunRound runs CheckAll for every unit concurrently and returns when all
// of them have finished.
func (o *Orchestrator) RunRound(ctx context.Context) RoundReport {
	id := uuid.NewString()
	ctx = xglog.ContextWithRoundID(ctx, id)
	ctx, span := o.tracer.Start(ctx, "round", trace.WithAttributes(
		attribute.String(telemetry.RoundIDKey, id),
		attribute.Int(telemetry.RoundDevicesKey, len(o.units)),
	))
	defer span.End()

	logger := xglog.WithContext(ctx, o.logger)
	report := RoundReport{ID: id, Started: o.now(), Devices: make([]Report, len(o.units))}

	var g errgroup.Group
	if o.maxConcurrent > 0 {
		g.SetLimit(o.maxConcurrent)
	}
	for i, u := range o.units {
		g.Go(func() error {
			report.Devices[i] = u.CheckAll(ctx)
			return nil
		})
	}
	_ = g.Wait()

	report.Finished = o.now()
	elapsed := report.Finished.Sub(report.Started)
	o.observer.ObserveRound(elapsed, report.Finished)

	o.mu.Lock()
	o.lastRound = report
	o.mu.Unlock()

	counts := report.Counts()
	logger.Info().
		Str(xglog.FieldEvent, "round.complete").
		Dur(xglog.FieldDuration, elapsed).
		Int("active", counts[status.CodeActive]).
		Int("unknown", counts[status.CodeUnknown]).
		Int("error", counts[status.CodeError]).
		Msg("check round complete")

	return report
}

// LastRound returns the most recent completed round, if any.
func (o *Orchestrator) LastRound() (RoundReport, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.lastRound, !o.lastRound.Finished.IsZero()
}

// LastCompleted returns when the last round finished. Zero before the first round.
func (o *Orchestrator) LastCompleted() time.Time {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.lastRound.Finished
}

// Interval is the configured pause between rounds.
func (o *Orchestrator) Interval() time.Duration { return o.interval }

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Probe kinds used as the "kind" label.
const (
	KindONVIF = "onvif"
	KindRTSP  = "rtsp"
)

// Runtime holds the monitor's own operational metrics.
type Runtime struct {
	roundDuration     prometheus.Histogram
	roundsTotal       prometheus.Counter
	probeDuration     *prometheus.HistogramVec
	terminations      *prometheus.CounterVec
	devicesConfigured prometheus.Gauge
	lastRound         prometheus.Gauge
}

func NewRuntime(reg prometheus.Registerer) *Runtime {
	factory := promauto.With(reg)
	return &Runtime{
		roundDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "round_duration_seconds",
			Help:      "Wall time of a full check round across all devices",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}),
		roundsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_total",
			Help:      "Total number of completed check rounds",
		}),
		probeDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "probe_duration_seconds",
			Help:      "Duration of a single ONVIF discovery or stream probe",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"kind"}), // kind=onvif|rtsp
		terminations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probe_process_terminations_total",
			Help:      "Signals sent to timed-out ffprobe process groups",
		}, []string{"signal", "result"}), // result=sent|esrch|error
		devicesConfigured: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "devices_configured",
			Help:      "Number of devices in the loaded configuration",
		}),
		lastRound: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_round_timestamp_seconds",
			Help:      "Unix time the last round completed",
		}),
	}
}

// ObserveRound records a finished round.
func (r *Runtime) ObserveRound(d time.Duration, finished time.Time) {
	r.roundDuration.Observe(d.Seconds())
	r.roundsTotal.Inc()
	r.lastRound.Set(float64(finished.Unix()))
}

func (r *Runtime) ObserveProbe(kind string, d time.Duration) {
	r.probeDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// ObserveTermination implements procgroup.Recorder.
func (r *Runtime) ObserveTermination(signal, result string) {
	r.terminations.WithLabelValues(signal, result).Inc()
}

func (r *Runtime) SetDevicesConfigured(n int) {
	r.devicesConfigured.Set(float64(n))
}

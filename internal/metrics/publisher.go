// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package metrics exposes device and stream health, plus the monitor's own
// operational counters, as Prometheus series.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ManuGH/camprobe/internal/status"
)

const namespace = "camera"

// NotCheckedMessage is the diagnostic of a device that has not finished a round yet.
const NotCheckedMessage = "not checked yet"

// Publisher owns the status gauges. Values are -1 (Error), 0 (Unknown), 1 (Active).
type Publisher struct {
	onvif *prometheus.GaugeVec
	rtsp  *prometheus.GaugeVec

	// serialises delete+set so a device never shows two tuples at once
	mu sync.Mutex
}

// NewPublisher registers the status gauges on reg.
func NewPublisher(reg prometheus.Registerer) *Publisher {
	factory := promauto.With(reg)
	return &Publisher{
		onvif: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "onvif_status",
			Help:      "ONVIF device status (1 active, 0 unknown, -1 error)",
		}, []string{"ip", "status", "error", "username"}),
		rtsp: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rtsp_status",
			Help:      "Stream endpoint status as seen by ffprobe (1 active, 0 unknown, -1 error)",
		}, []string{"ip", "status", "error", "endpoint"}),
	}
}

// InitDevice creates the device series before its first round completes.
func (p *Publisher) InitDevice(ip, username string) {
	p.PublishDevice(ip, username, status.Unknown(NotCheckedMessage))
}

// PublishDevice replaces the device tuple for ip.
func (p *Publisher) PublishDevice(ip, username string, s status.Status) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onvif.DeletePartialMatch(prometheus.Labels{"ip": ip})
	p.onvif.WithLabelValues(ip, s.Code.String(), s.Message, username).Set(s.Value())
}

// PublishStream sets the tuple of one endpoint.
func (p *Publisher) PublishStream(ip, endpoint string, s status.Status) {
	p.rtsp.WithLabelValues(ip, s.Code.String(), s.Message, endpoint).Set(s.Value())
}

// ResetStreams drops every stream tuple of ip and returns how many were removed.
func (p *Publisher) ResetStreams(ip string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rtsp.DeletePartialMatch(prometheus.Labels{"ip": ip})
}

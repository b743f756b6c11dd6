// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/camprobe/internal/status"
)

const (
	RoundIDKey        = "camera.round_id"
	RoundDevicesKey   = "camera.round.devices"
	DeviceNameKey     = "camera.device.name"
	DeviceIPKey       = "camera.device.ip"
	StreamEndpointKey = "camera.stream.endpoint"
	StatusKey         = "camera.status"
	StatusMessageKey  = "camera.status.message"
	EndpointCountKey  = "camera.endpoints"
)

// DeviceAttributes identifies the device a span works on.
func DeviceAttributes(name, ip string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(DeviceNameKey, name),
		attribute.String(DeviceIPKey, ip),
	}
}

// RecordStatus annotates span with s. Non-active statuses mark the span as errored.
func RecordStatus(span trace.Span, s status.Status) {
	span.SetAttributes(attribute.String(StatusKey, s.Code.String()))
	if s.IsActive() {
		span.SetStatus(codes.Ok, "")
		return
	}
	span.SetAttributes(attribute.String(StatusMessageKey, s.Message))
	span.SetStatus(codes.Error, s.Message)
}

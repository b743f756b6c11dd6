// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package probe adapts the ONVIF client and the ffprobe binary into
// outcome values the monitor turns into published statuses.
package probe

import (
	"github.com/ManuGH/camprobe/internal/camera"
	"github.com/ManuGH/camprobe/internal/onvif"
	"github.com/ManuGH/camprobe/internal/status"
)

// OutcomeKind is the result class of a stream probe.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeFailure
	OutcomeTimeout
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	case OutcomeTimeout:
		return "timeout"
	default:
		return "invalid"
	}
}

// TimeoutMessage is the diagnostic attached to a probe that hit its deadline.
const TimeoutMessage = "Timeout"

// Outcome is what a single stream probe produced.
type Outcome struct {
	Kind    OutcomeKind
	Message string
}

func Success() Outcome { return Outcome{Kind: OutcomeSuccess} }
func Failure(message string) Outcome { return Outcome{Kind: OutcomeFailure, Message: message} }
func Timeout() Outcome { return Outcome{Kind: OutcomeTimeout, Message: TimeoutMessage} }

// Status converts the outcome to the published health value.
func (o Outcome) Status() status.Status {
	switch o.Kind {
	case OutcomeSuccess:
		return status.Active()
	case OutcomeTimeout:
		msg := o.Message
		if msg == "" {
			msg = TimeoutMessage
		}
		return status.Unknown(msg)
	default:
		return status.Failed(o.Message)
	}
}

// Discovery is the result of querying a device over ONVIF.
type Discovery struct {
	Status    status.Status
	Endpoints camera.EndpointSet // endpoints to probe this round
	Reachable bool               // false: device never answered, skip stream probes
	Info      onvif.DeviceInfo   // populated on success
}

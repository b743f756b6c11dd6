// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRoundID    = "round_id"
	FieldDeviceName = "device"
	FieldDeviceIP   = "ip"
	FieldUsername   = "username"

	// Process / pipeline fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldPID       = "pid"

	// Probe fields
	FieldEndpoint = "endpoint"
	FieldOutcome  = "outcome"
	FieldStatus   = "status"
	FieldDuration = "duration"

	// Path / URL fields
	FieldPath       = "path"
	FieldConfigPath = "config_path"
	FieldListen     = "listen"
)

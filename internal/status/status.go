// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package status defines the tri-state health value published for devices and streams.
package status

import (
	"fmt"
	"strings"
)

// Code is the numeric health code exported as the gauge value.
type Code int

const (
	CodeError   Code = -1
	CodeUnknown Code = 0
	CodeActive  Code = 1
)

// DefaultMessage is attached to non-active statuses created without a message.
const DefaultMessage = "unknown error"

// FromCode converts a numeric code. Values outside {-1, 0, 1} are rejected.
func FromCode(v int) (Code, error) {
	switch Code(v) {
	case CodeError, CodeUnknown, CodeActive:
		return Code(v), nil
	default:
		return CodeUnknown, fmt.Errorf("status: invalid code %d", v)
	}
}

// Parse converts a symbolic code ("Active", "error", ...) or its numeric form.
func Parse(s string) (Code, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "active", "1":
		return CodeActive, nil
	case "error", "-1":
		return CodeError, nil
	case "unknown", "0":
		return CodeUnknown, nil
	default:
		return CodeUnknown, fmt.Errorf("status: invalid code %q", s)
	}
}

// String returns the display text used as the "status" label.
func (c Code) String() string {
	switch c {
	case CodeActive:
		return "Active"
	case CodeError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Status is a health code plus its diagnostic message.
// Active statuses never carry a message; the others always do.
type Status struct {
	Code    Code
	Message string
}

// New builds a Status, enforcing the message invariant.
func New(code Code, message string) Status {
	if code == CodeActive {
		return Status{Code: CodeActive}
	}
	message = strings.TrimSpace(message)
	if message == "" {
		message = DefaultMessage
	}
	return Status{Code: code, Message: message}
}

func Active() Status { return New(CodeActive, "") }
func Unknown(message string) Status { return New(CodeUnknown, message) }
func Failed(message string) Status { return New(CodeError, message) }

// Value is the gauge value for the status.
func (s Status) Value() float64 { return float64(s.Code) }

func (s Status) IsActive() bool { return s.Code == CodeActive }

func (s Status) String() string {
	if s.Message == "" {
		return s.Code.String()
	}
	return s.Code.String() + ": " + s.Message
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package onvif

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// Sentinel errors for errors.Is checks at the boundary.
	ErrUnreachable      = errors.New("host unreachable")
	ErrTransport        = errors.New("transport failure")
	ErrUnauthorized     = errors.New("not authorized")
	ErrFault            = errors.New("soap fault")
	ErrBadResponse      = errors.New("invalid response format or malformed data")
	ErrUnexpectedStatus = errors.New("unexpected http status")
)

const maxBodyInError = 512

// Error wraps a sentinel with the failing operation and diagnostic context.
type Error struct {
	Sentinel  error
	Operation string
	Status    int
	Body      string
	Err       error // lower-level cause (net.Error, xml.SyntaxError, ...)
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("onvif: %s: %v", e.Operation, e.Sentinel)
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Body != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Body)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Sentinel
}

// IsUnreachable reports whether err means no connection to the device could
// be established before it had answered anything.
func IsUnreachable(err error) bool {
	return errors.Is(err, ErrUnreachable)
}

func unreachable(op string, cause error) error {
	return &Error{Sentinel: ErrUnreachable, Operation: op, Err: cause}
}

// wrapError classifies a failed exchange. transportErr is set when the
// exchange broke down on a connection that was established (or after the
// device had already answered); f is the decoded SOAP fault, if any.
func wrapError(op string, transportErr error, status int, f *fault, body []byte) error {
	e := &Error{Operation: op, Status: status, Err: transportErr}
	switch {
	case transportErr != nil:
		e.Sentinel = ErrTransport
	case f != nil:
		e.Sentinel = ErrFault
		if f.notAuthorized() {
			e.Sentinel = ErrUnauthorized
		}
		e.Body = f.String()
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		e.Sentinel = ErrUnauthorized
	case status < 200 || status > 299:
		e.Sentinel = ErrUnexpectedStatus
		e.Body = truncate(strings.TrimSpace(string(body)), maxBodyInError)
	default:
		e.Sentinel = ErrBadResponse
		e.Body = truncate(strings.TrimSpace(string(body)), maxBodyInError)
	}
	return e
}

func badResponse(op string, cause error) error {
	return &Error{Sentinel: ErrBadResponse, Operation: op, Err: cause}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var (
	errNoMediaService = errors.New("device advertises no media service")
	errEmptyURI       = errors.New("empty stream uri")
)

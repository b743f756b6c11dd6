// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package procgroup starts external probes in their own process group and
// tears the whole group down again, so no child outlives its probe.
package procgroup

import (
	"errors"
	"os/exec"
	"syscall"
	"time"
)

// ErrNotStarted is returned by Terminate for a command that never started.
var ErrNotStarted = errors.New("procgroup: process not started")

// Recorder observes termination steps. A nil Recorder is allowed.
type Recorder interface {
	ObserveTermination(signal, result string)
}

// Terminate stops the process group of cmd and waits for it to be reaped.
// It sends SIGTERM, waits up to grace for waitCh, then sends SIGKILL and
// always drains waitCh before returning its error. waitCh must deliver the
// result of cmd.Wait exactly once.
func Terminate(cmd *exec.Cmd, waitCh <-chan error, grace time.Duration, rec Recorder) error {
	if cmd == nil || cmd.Process == nil {
		return ErrNotStarted
	}

	observe(rec, "SIGTERM", Kill(cmd, syscall.SIGTERM))

	select {
	case err := <-waitCh:
		return err
	case <-time.After(grace):
	}

	observe(rec, "SIGKILL", Kill(cmd, syscall.SIGKILL))
	return <-waitCh
}

func observe(rec Recorder, signal string, err error) {
	if rec == nil {
		return
	}
	result := "sent"
	switch {
	case err == nil:
	case errors.Is(err, syscall.ESRCH), errors.Is(err, errProcessDone):
		result = "esrch"
	default:
		result = "error"
	}
	rec.ObserveTermination(signal, result)
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package probe

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	xglog "github.com/ManuGH/camprobe/internal/log"
	"github.com/ManuGH/camprobe/internal/procgroup"
)

const (
	DefaultStreamTimeout = 5 * time.Second
	defaultKillGrace     = 500 * time.Millisecond
	maxStderrBytes       = 4096
)

// StreamProber checks stream endpoints by running ffprobe against them.
type StreamProber struct {
	binary    string
	timeout   time.Duration
	transport string
	grace     time.Duration
	limiter   *rate.Limiter
	recorder  procgroup.Recorder
	logger    zerolog.Logger
}

// StreamOption customises a StreamProber.
type StreamOption func(*StreamProber)

// WithRTSPTransport sets -rtsp_transport for rtsp:// endpoints ("" disables the flag).
func WithRTSPTransport(transport string) StreamOption {
	return func(p *StreamProber) { p.transport = transport }
}

// WithKillGrace sets how long a timed-out probe gets between SIGTERM and SIGKILL.
func WithKillGrace(d time.Duration) StreamOption {
	return func(p *StreamProber) {
		if d > 0 {
			p.grace = d
		}
	}
}

// WithSpawnLimiter throttles process launches across all callers.
func WithSpawnLimiter(l *rate.Limiter) StreamOption {
	return func(p *StreamProber) { p.limiter = l }
}

// WithTerminationRecorder reports SIGTERM/SIGKILL steps of timed-out probes.
func WithTerminationRecorder(r procgroup.Recorder) StreamOption {
	return func(p *StreamProber) { p.recorder = r }
}

// NewStreamProber creates a prober for the given ffprobe binary and deadline.
func NewStreamProber(binary string, timeout time.Duration, opts ...StreamOption) *StreamProber {
	if binary == "" {
		binary = "ffprobe"
	}
	if timeout <= 0 {
		timeout = DefaultStreamTimeout
	}
	p := &StreamProber{
		binary:    binary,
		timeout:   timeout,
		transport: "tcp",
		grace:     defaultKillGrace,
		logger:    xglog.WithComponent("stream_probe"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Timeout is the hard deadline applied to each probe.
func (p *StreamProber) Timeout() time.Duration { return p.timeout }

// Probe runs one ffprobe against endpoint. The process (and anything it
// forked) is always reaped before Probe returns.
func (p *StreamProber) Probe(ctx context.Context, endpoint string) Outcome {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return Outcome{Kind: OutcomeTimeout, Message: "probe cancelled before start: " + err.Error()}
		}
	}

	// #nosec G204 -- binary comes from operator config; endpoint is passed as a single argument
	cmd := exec.Command(p.binary, p.args(endpoint)...)
	procgroup.Set(cmd)
	stderr := &tailBuffer{max: maxStderrBytes}
	cmd.Stderr = stderr
	cmd.WaitDelay = p.grace

	if err := cmd.Start(); err != nil {
		return Failure("start ffprobe: " + err.Error())
	}

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	select {
	case err := <-waitCh:
		p.killLeftovers(cmd, endpoint)
		if exitedCleanly(cmd, err) {
			return Success()
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return Failure(msg)
	case <-timer.C:
		p.terminate(cmd, waitCh, endpoint, "deadline")
		return Timeout()
	case <-ctx.Done():
		p.terminate(cmd, waitCh, endpoint, "cancelled")
		return Outcome{Kind: OutcomeTimeout, Message: "probe cancelled: " + ctx.Err().Error()}
	}
}

func (p *StreamProber) terminate(cmd *exec.Cmd, waitCh <-chan error, endpoint, reason string) {
	pid := cmd.Process.Pid
	err := procgroup.Terminate(cmd, waitCh, p.grace, p.recorder)
	p.logger.Debug().
		Str(xglog.FieldEvent, "stream_probe.terminated").
		Str(xglog.FieldEndpoint, xglog.MaskURL(endpoint)).
		Int(xglog.FieldPID, pid).
		Str("reason", reason).
		AnErr("exit", err).
		Msg("ffprobe terminated")
}

// exitedCleanly reports success also when ffprobe exited 0 but a forked
// child kept stderr open past the wait delay.
func exitedCleanly(cmd *exec.Cmd, err error) bool {
	if err == nil {
		return true
	}
	return errors.Is(err, exec.ErrWaitDelay) && cmd.ProcessState != nil && cmd.ProcessState.Success()
}

// killLeftovers signals whatever is still running in ffprobe's process
// group after ffprobe itself has exited.
func (p *StreamProber) killLeftovers(cmd *exec.Cmd, endpoint string) {
	if err := procgroup.Kill(cmd, syscall.SIGKILL); err != nil {
		p.logger.Debug().
			Err(err).
			Str(xglog.FieldEvent, "stream_probe.leftover_kill_failed").
			Str(xglog.FieldEndpoint, xglog.MaskURL(endpoint)).
			Msg("could not signal leftover ffprobe children")
	}
}

func (p *StreamProber) args(endpoint string) []string {
	args := []string{"-v", "error"}
	if p.transport != "" && strings.HasPrefix(strings.ToLower(endpoint), "rtsp") {
		args = append(args, "-rtsp_transport", p.transport)
	}
	return append(args, "-i", endpoint)
}

// tailBuffer keeps the last max bytes written to it. ffprobe reports the
// decisive error at the end of its output.
type tailBuffer struct {
	max int
	buf []byte
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.max; over > 0 {
		b.buf = append(b.buf[:0], b.buf[over:]...)
	}
	return len(p), nil
}

func (b *tailBuffer) String() string { return string(b.buf) }

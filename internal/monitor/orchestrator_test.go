// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/camprobe/internal/probe"
	"github.com/ManuGH/camprobe/internal/status"
)

func newUnits(devices DeviceProber, streams StreamProber, pub Publisher, ips ...string) []*Unit {
	units := make([]*Unit, 0, len(ips))
	for _, ip := range ips {
		units = append(units, NewUnit(testDevice(ip, "rtsp://"+ip+"/1"), devices, streams, pub))
	}
	return units
}

func TestRunRoundChecksEveryDeviceConcurrently(t *testing.T) {
	pub := newRecordingPublisher(&journal{})
	devices := &fakeDevices{delay: 50 * time.Millisecond, results: map[string]probe.Discovery{
		"10.0.0.3": {Status: status.Unknown("connection refused")},
	}}
	obs := &countingObserver{}
	o := NewOrchestrator(newUnits(devices, &fakeStreams{}, pub, "10.0.0.1", "10.0.0.2", "10.0.0.3"), WithRoundObserver(obs))

	_, ok := o.LastRound()
	assert.False(t, ok)
	assert.True(t, o.LastCompleted().IsZero())

	report := o.RunRound(t.Context())

	require.Len(t, report.Devices, 3)
	assert.Equal(t, "10.0.0.1", report.Devices[0].IP)
	assert.Equal(t, map[status.Code]int{status.CodeActive: 2, status.CodeUnknown: 1}, report.Counts())
	assert.Equal(t, int32(3), devices.peak.Load())
	assert.NotEmpty(t, report.ID)
	assert.Equal(t, 1, obs.rounds)

	last, ok := o.LastRound()
	require.True(t, ok)
	assert.Equal(t, report.ID, last.ID)
	assert.Equal(t, report.Finished, o.LastCompleted())
}

// gatedStreams holds every endpoint in slow until gate closes or ctx ends.
type gatedStreams struct {
	slow map[string]bool
	gate chan struct{}
}

func (g *gatedStreams) Probe(ctx context.Context, endpoint string) probe.Outcome {
	if !g.slow[endpoint] {
		return probe.Success()
	}
	select {
	case <-g.gate:
		return probe.Success()
	case <-ctx.Done():
		return probe.Timeout()
	}
}

func TestRunRoundPublishesFastDeviceWhileSlowDeviceBlocks(t *testing.T) {
	pub := newRecordingPublisher(&journal{})
	streams := &gatedStreams{slow: map[string]bool{"rtsp://10.0.0.2/1": true}, gate: make(chan struct{})}
	o := NewOrchestrator(newUnits(&fakeDevices{}, streams, pub, "10.0.0.1", "10.0.0.2"))

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()

	done := make(chan RoundReport, 1)
	go func() { done <- o.RunRound(ctx) }()

	require.Eventually(t, func() bool {
		s, ok := pub.stream("10.0.0.1", "rtsp://10.0.0.1/1")
		return ok && s == status.Active() && pub.device("10.0.0.1") == status.Active()
	}, 2*time.Second, 10*time.Millisecond)

	select {
	case <-done:
		t.Fatal("round finished while the slow stream was still blocked")
	default:
	}
	_, ok := pub.stream("10.0.0.2", "rtsp://10.0.0.2/1")
	assert.False(t, ok, "slow stream must not be published yet")

	close(streams.gate)
	report := <-done
	assert.Equal(t, map[status.Code]int{status.CodeActive: 2}, report.Counts())
	s, ok := pub.stream("10.0.0.2", "rtsp://10.0.0.2/1")
	require.True(t, ok)
	assert.Equal(t, status.Active(), s)
}

func TestRunRoundRespectsDeviceLimit(t *testing.T) {
	pub := newRecordingPublisher(&journal{})
	devices := &fakeDevices{delay: 10 * time.Millisecond}
	o := NewOrchestrator(newUnits(devices, &fakeStreams{}, pub, "10.0.0.1", "10.0.0.2", "10.0.0.3", "10.0.0.4"),
		WithMaxConcurrentDevices(2))

	o.RunRound(t.Context())

	assert.LessOrEqual(t, devices.peak.Load(), int32(2))
	assert.Equal(t, status.Active(), pub.device("10.0.0.4"))
}

func TestRunLoopsUntilCancelled(t *testing.T) {
	pub := newRecordingPublisher(&journal{})
	devices := &fakeDevices{}
	o := NewOrchestrator(newUnits(devices, &fakeStreams{}, pub, "10.0.0.1"), WithInterval(10*time.Millisecond))

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- o.Run(ctx) }()

	require.Eventually(t, func() bool { return devices.rounds() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestRunWaitsIntervalBetweenRounds(t *testing.T) {
	devices := &fakeDevices{}
	o := NewOrchestrator(newUnits(devices, &fakeStreams{}, newRecordingPublisher(&journal{}), "10.0.0.1"),
		WithInterval(time.Hour))
	assert.Equal(t, time.Hour, o.Interval())

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- o.Run(ctx) }()

	require.Eventually(t, func() bool { return devices.rounds() == 1 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, devices.rounds())

	cancel()
	require.NoError(t, <-done)
}

func TestDefaultInterval(t *testing.T) {
	o := NewOrchestrator(nil, WithInterval(0), WithMaxConcurrentDevices(-1))
	assert.Equal(t, DefaultInterval, o.Interval())
	assert.Zero(t, o.maxConcurrent)
}

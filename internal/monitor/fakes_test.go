// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package monitor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ManuGH/camprobe/internal/camera"
	xglog "github.com/ManuGH/camprobe/internal/log"
	"github.com/ManuGH/camprobe/internal/probe"
	"github.com/ManuGH/camprobe/internal/status"
)

// journal is a shared, ordered log of everything the fakes observed.
type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(format string, args ...any) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, fmt.Sprintf(format, args...))
}

func (j *journal) list() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

func (j *journal) index(entry string) int {
	for i, e := range j.list() {
		if e == entry {
			return i
		}
	}
	return -1
}

type recordingPublisher struct {
	j       *journal
	mu      sync.Mutex
	devices map[string]status.Status
	streams map[string]status.Status // "ip endpoint" -> status
}

func newRecordingPublisher(j *journal) *recordingPublisher {
	return &recordingPublisher{
		j:       j,
		devices: make(map[string]status.Status),
		streams: make(map[string]status.Status),
	}
}

func (p *recordingPublisher) PublishDevice(ip, username string, s status.Status) {
	p.mu.Lock()
	p.devices[ip] = s
	p.mu.Unlock()
	p.j.add("device %s %s", ip, s.Code)
}

func (p *recordingPublisher) PublishStream(ip, endpoint string, s status.Status) {
	p.mu.Lock()
	p.streams[ip+" "+endpoint] = s
	p.mu.Unlock()
	p.j.add("stream %s %s", endpoint, s.Code)
}

func (p *recordingPublisher) ResetStreams(ip string) int {
	p.mu.Lock()
	n := 0
	for k := range p.streams {
		if len(k) > len(ip) && k[:len(ip)+1] == ip+" " {
			delete(p.streams, k)
			n++
		}
	}
	p.mu.Unlock()
	p.j.add("reset %s", ip)
	return n
}

func (p *recordingPublisher) device(ip string) status.Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.devices[ip]
}

func (p *recordingPublisher) stream(ip, endpoint string) (status.Status, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.streams[ip+" "+endpoint]
	return s, ok
}

func (p *recordingPublisher) streamCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.streams)
}

// fakeDevices returns a fixed Discovery per ip.
type fakeDevices struct {
	j       *journal
	results map[string]probe.Discovery
	panics  map[string]bool
	delay   time.Duration

	inFlight atomic.Int32
	peak     atomic.Int32
	roundIDs sync.Map // round id -> struct{}
}

func (f *fakeDevices) Discover(ctx context.Context, dev camera.Device) probe.Discovery {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if id := xglog.RoundIDFromContext(ctx); id != "" {
		f.roundIDs.Store(id, struct{}{})
	}
	if f.j != nil {
		f.j.add("discover %s", dev.IP)
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
		}
	}
	if f.panics[dev.IP] {
		panic("discovery exploded")
	}
	if d, ok := f.results[dev.IP]; ok {
		return d
	}
	return probe.Discovery{Status: status.Active(), Endpoints: dev.Seeds, Reachable: true}
}

func (f *fakeDevices) rounds() int {
	n := 0
	f.roundIDs.Range(func(any, any) bool { n++; return true })
	return n
}

// fakeStreams returns a fixed Outcome per endpoint. When barrier is set every
// probe waits until barrier probes are running at once.
type fakeStreams struct {
	j        *journal
	outcomes map[string]probe.Outcome
	panics   map[string]bool

	barrier int
	mu      sync.Mutex
	waiting int
	release chan struct{}

	calls atomic.Int32
}

func (f *fakeStreams) Probe(ctx context.Context, endpoint string) probe.Outcome {
	f.calls.Add(1)
	if f.j != nil {
		f.j.add("probe %s", endpoint)
	}
	if f.barrier > 0 {
		f.mu.Lock()
		if f.release == nil {
			f.release = make(chan struct{})
		}
		release := f.release
		f.waiting++
		if f.waiting == f.barrier {
			close(release)
		}
		f.mu.Unlock()

		select {
		case <-release:
		case <-time.After(2 * time.Second):
			return probe.Failure("barrier not reached: probes are not concurrent")
		case <-ctx.Done():
			return probe.Timeout()
		}
	}
	if f.panics[endpoint] {
		panic("probe exploded")
	}
	if o, ok := f.outcomes[endpoint]; ok {
		return o
	}
	return probe.Success()
}

type countingObserver struct {
	mu     sync.Mutex
	probes map[string]int
	rounds int
}

func (o *countingObserver) ObserveProbe(kind string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.probes == nil {
		o.probes = make(map[string]int)
	}
	o.probes[kind]++
}

func (o *countingObserver) ObserveRound(time.Duration, time.Time) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.rounds++
}

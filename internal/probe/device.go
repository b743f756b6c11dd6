// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package probe

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/camprobe/internal/camera"
	xglog "github.com/ManuGH/camprobe/internal/log"
	"github.com/ManuGH/camprobe/internal/onvif"
	"github.com/ManuGH/camprobe/internal/status"
)

const DefaultDeviceTimeout = 10 * time.Second

// DeviceProber checks a device over ONVIF and enumerates its stream URIs.
type DeviceProber struct {
	profile    onvif.Profile
	timeout    time.Duration
	httpClient *http.Client
	logger     zerolog.Logger
}

// DeviceOption customises a DeviceProber.
type DeviceOption func(*DeviceProber)

// WithDeviceHTTPClient overrides the HTTP client used for every device.
func WithDeviceHTTPClient(hc *http.Client) DeviceOption {
	return func(p *DeviceProber) { p.httpClient = hc }
}

// NewDeviceProber creates a prober using the given protocol profile.
func NewDeviceProber(profile onvif.Profile, timeout time.Duration, opts ...DeviceOption) *DeviceProber {
	if timeout <= 0 {
		timeout = DefaultDeviceTimeout
	}
	p := &DeviceProber{
		profile: profile,
		timeout: timeout,
		logger:  xglog.WithComponent("device_probe"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Discover runs handshake, capability query, device information and one
// GetStreamUri per media profile.
//
// Unreachable devices yield Unknown and no endpoints. Any other failure
// yields Error together with the configured seed endpoints. On success the
// discovered URIs are merged into the seeds.
func (p *DeviceProber) Discover(ctx context.Context, dev camera.Device) Discovery {
	opts := []onvif.Option{onvif.WithProfile(p.profile), onvif.WithTimeout(p.timeout)}
	if p.httpClient != nil {
		opts = append(opts, onvif.WithHTTPClient(p.httpClient))
	}
	client := onvif.New(dev.ManagementAddr(), dev.Username, dev.Password, opts...)

	found, info, err := p.enumerate(ctx, client)
	if err != nil {
		if onvif.IsUnreachable(err) {
			return Discovery{Status: status.Unknown(err.Error())}
		}
		return Discovery{Status: status.Failed(err.Error()), Endpoints: dev.Seeds, Reachable: true}
	}

	p.logger.Debug().
		Str(xglog.FieldEvent, "device_probe.discovered").
		Str(xglog.FieldDeviceIP, dev.IP).
		Str("model", info.Model).
		Int("discovered", found.Len()).
		Msg("onvif discovery complete")

	return Discovery{
		Status:    status.Active(),
		Endpoints: dev.Seeds.Merge(found),
		Reachable: true,
		Info:      info,
	}
}

func (p *DeviceProber) enumerate(ctx context.Context, c *onvif.Client) (camera.EndpointSet, onvif.DeviceInfo, error) {
	if err := c.Handshake(ctx); err != nil {
		return camera.EndpointSet{}, onvif.DeviceInfo{}, err
	}
	caps, err := c.Capabilities(ctx)
	if err != nil {
		return camera.EndpointSet{}, onvif.DeviceInfo{}, err
	}
	info, err := c.DeviceInformation(ctx)
	if err != nil {
		return camera.EndpointSet{}, info, err
	}
	profiles, err := c.Profiles(ctx, caps.MediaXAddr)
	if err != nil {
		return camera.EndpointSet{}, info, err
	}

	uris := make([]string, 0, len(profiles))
	for _, prof := range profiles {
		uri, err := c.StreamURI(ctx, caps.MediaXAddr, prof.Token)
		if err != nil {
			return camera.EndpointSet{}, info, err
		}
		uris = append(uris, uri)
	}
	return camera.NewEndpointSet(uris...), info, nil
}

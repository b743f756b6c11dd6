// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package onvif is a minimal ONVIF (SOAP 1.2) client covering the calls
// needed to check a camera and enumerate its stream URIs.
package onvif

import (
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"net/http"
	"net/http/httptrace"
	"strings"
	"sync/atomic"
	"time"
)

const maxResponseBytes = 1 << 20

// Client talks to a single device. It is cheap to create and not meant to
// be shared between goroutines.
type Client struct {
	base     string // scheme://host:port
	username string
	password string
	profile  Profile
	http     *http.Client

	now         func() time.Time
	clockOffset time.Duration

	// answered is set once any HTTP response has been received.
	answered atomic.Bool
}

// Option customises a Client.
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http = &http.Client{Timeout: d}
		}
	}
}

func WithProfile(p Profile) Option {
	return func(c *Client) { c.profile = p }
}

// New creates a client for the device reachable at addr (host:port or a full URL).
func New(addr, username, password string, opts ...Option) *Client {
	base := strings.TrimRight(addr, "/")
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	c := &Client{
		base:     base,
		username: username,
		password: password,
		profile:  DefaultProfile(),
		http:     &http.Client{Timeout: 10 * time.Second},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DeviceServiceURL is the address of the device management service.
func (c *Client) DeviceServiceURL() string {
	return c.base + c.profile.DeviceServicePath
}

// Handshake queries the device clock without credentials. It proves the
// device answers SOAP at all and, when SyncClock is set, aligns WS-Security
// timestamps with the device clock.
func (c *Client) Handshake(ctx context.Context) error {
	var resp getSystemDateAndTimeResponse
	err := c.call(ctx, c.DeviceServiceURL(), "GetSystemDateAndTime",
		`<tds:GetSystemDateAndTime/>`, false, &resp)
	if err != nil {
		return err
	}
	if c.profile.SyncClock {
		if deviceNow, ok := resp.utc(); ok {
			c.clockOffset = deviceNow.Sub(c.now().UTC())
		}
	}
	return nil
}

// Capabilities returns the advertised service addresses.
func (c *Client) Capabilities(ctx context.Context) (Capabilities, error) {
	var resp getCapabilitiesResponse
	err := c.call(ctx, c.DeviceServiceURL(), "GetCapabilities",
		`<tds:GetCapabilities><tds:Category>All</tds:Category></tds:GetCapabilities>`, true, &resp)
	if err != nil {
		return Capabilities{}, err
	}
	caps := Capabilities{
		DeviceXAddr: strings.TrimSpace(resp.Capabilities.Device.XAddr),
		MediaXAddr:  strings.TrimSpace(resp.Capabilities.Media.XAddr),
	}
	if caps.MediaXAddr == "" {
		return caps, badResponse("GetCapabilities", errNoMediaService)
	}
	return caps, nil
}

// DeviceInformation returns manufacturer, model and firmware details.
func (c *Client) DeviceInformation(ctx context.Context) (DeviceInfo, error) {
	var resp getDeviceInformationResponse
	err := c.call(ctx, c.DeviceServiceURL(), "GetDeviceInformation",
		`<tds:GetDeviceInformation/>`, true, &resp)
	return resp.DeviceInfo, err
}

// Profiles lists the media profiles served by the media service at mediaXAddr.
func (c *Client) Profiles(ctx context.Context, mediaXAddr string) ([]MediaProfile, error) {
	var resp getProfilesResponse
	if err := c.call(ctx, mediaXAddr, "GetProfiles", `<trt:GetProfiles/>`, true, &resp); err != nil {
		return nil, err
	}
	out := make([]MediaProfile, 0, len(resp.Profiles))
	for _, p := range resp.Profiles {
		if p.Token == "" {
			continue
		}
		out = append(out, MediaProfile{Token: p.Token, Name: p.Name})
	}
	return out, nil
}

// StreamURI returns the stream URI for one media profile.
func (c *Client) StreamURI(ctx context.Context, mediaXAddr, profileToken string) (string, error) {
	body := `<trt:GetStreamUri><trt:StreamSetup>` +
		`<tt:Stream>` + escape(c.profile.Stream) + `</tt:Stream>` +
		`<tt:Transport><tt:Protocol>` + escape(c.profile.Transport) + `</tt:Protocol></tt:Transport>` +
		`</trt:StreamSetup><trt:ProfileToken>` + escape(profileToken) + `</trt:ProfileToken></trt:GetStreamUri>`

	var resp getStreamURIResponse
	if err := c.call(ctx, mediaXAddr, "GetStreamUri", body, true, &resp); err != nil {
		return "", err
	}
	uri := strings.TrimSpace(resp.MediaURI.URI)
	if uri == "" {
		return "", badResponse("GetStreamUri", errEmptyURI)
	}
	return uri, nil
}

func (c *Client) call(ctx context.Context, endpoint, op, body string, auth bool, out any) error {
	var token *usernameToken
	if auth && c.profile.Auth == "digest" && c.username != "" {
		t, err := newUsernameToken(c.username, c.password, c.now().Add(c.clockOffset))
		if err != nil {
			return &Error{Sentinel: ErrBadResponse, Operation: op, Err: err}
		}
		token = &t
	}

	var connected atomic.Bool
	trace := &httptrace.ClientTrace{
		GotConn: func(httptrace.GotConnInfo) { connected.Store(true) },
	}
	req, err := http.NewRequestWithContext(httptrace.WithClientTrace(ctx, trace), http.MethodPost, endpoint,
		bytes.NewReader(buildEnvelope(body, token)))
	if err != nil {
		return &Error{Sentinel: ErrBadResponse, Operation: op, Err: err}
	}
	req.Header.Set("Content-Type", contentType)

	res, err := c.http.Do(req)
	if err != nil {
		if !c.answered.Load() && !connected.Load() {
			return unreachable(op, err)
		}
		return wrapError(op, err, 0, nil, nil)
	}
	c.answered.Store(true)
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return wrapError(op, err, res.StatusCode, nil, nil)
	}

	var env responseEnvelope
	envErr := xml.Unmarshal(raw, &env)
	if envErr == nil && env.Body.Fault != nil {
		return wrapError(op, nil, res.StatusCode, env.Body.Fault, raw)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return wrapError(op, nil, res.StatusCode, nil, raw)
	}
	if envErr != nil {
		return badResponse(op, envErr)
	}
	if err := xml.Unmarshal(env.Body.Inner, out); err != nil {
		return badResponse(op, err)
	}
	return nil
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package onvif

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(m *MockServer, user, pass string) *Client {
	return New(m.URL, user, pass, WithTimeout(2*time.Second))
}

func TestClientDiscoveryFlow(t *testing.T) {
	m := NewMockServer()
	defer m.Close()
	m.RequireAuth("admin", "secret")
	m.AddProfile("main", "rtsp://10.0.0.5/main")
	m.AddProfile("sub", "rtsp://10.0.0.5/sub")

	c := newTestClient(m, "admin", "secret")
	ctx := context.Background()

	require.NoError(t, c.Handshake(ctx))

	caps, err := c.Capabilities(ctx)
	require.NoError(t, err)
	assert.Equal(t, m.MediaXAddr(), caps.MediaXAddr)

	info, err := c.DeviceInformation(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Mock", info.Manufacturer)
	assert.Equal(t, "CAM-1", info.Model)

	profiles, err := c.Profiles(ctx, caps.MediaXAddr)
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, "main", profiles[0].Token)

	uri, err := c.StreamURI(ctx, caps.MediaXAddr, "sub")
	require.NoError(t, err)
	assert.Equal(t, "rtsp://10.0.0.5/sub", uri)
}

func TestClientWrongPasswordIsUnauthorized(t *testing.T) {
	m := NewMockServer()
	defer m.Close()
	m.RequireAuth("admin", "secret")

	c := newTestClient(m, "admin", "wrong")
	_, err := c.Capabilities(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.False(t, IsUnreachable(err))
	assert.Contains(t, err.Error(), "NotAuthorized")
}

func TestClientHTTP401IsUnauthorized(t *testing.T) {
	m := NewMockServer()
	defer m.Close()
	m.FailWithStatus("GetCapabilities", http.StatusUnauthorized)

	_, err := newTestClient(m, "u", "p").Capabilities(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)

	var oe *Error
	require.True(t, errors.As(err, &oe))
	assert.Equal(t, http.StatusUnauthorized, oe.Status)
	assert.Equal(t, "GetCapabilities", oe.Operation)
}

func TestClientFaultIsProtocolError(t *testing.T) {
	m := NewMockServer()
	defer m.Close()
	m.FailWithFault("GetProfiles", http.StatusInternalServerError, "ter:Action", "media service busy")

	_, err := newTestClient(m, "", "").Profiles(context.Background(), m.MediaXAddr())
	assert.ErrorIs(t, err, ErrFault)
	assert.Contains(t, err.Error(), "media service busy")
}

func TestClientMalformedResponse(t *testing.T) {
	m := NewMockServer()
	defer m.Close()
	m.RespondRaw("GetDeviceInformation", "<not-xml")

	_, err := newTestClient(m, "", "").DeviceInformation(context.Background())
	assert.ErrorIs(t, err, ErrBadResponse)
}

func TestClientMissingMediaService(t *testing.T) {
	m := NewMockServer()
	defer m.Close()
	m.RespondRaw("GetCapabilities", `<?xml version="1.0"?><s:Envelope xmlns:s="`+nsSOAP+`"><s:Body>`+
		`<GetCapabilitiesResponse><Capabilities><Device><XAddr>x</XAddr></Device></Capabilities></GetCapabilitiesResponse>`+
		`</s:Body></s:Envelope>`)

	_, err := newTestClient(m, "", "").Capabilities(context.Background())
	assert.ErrorIs(t, err, ErrBadResponse)
}

func TestClientUnexpectedStatus(t *testing.T) {
	m := NewMockServer()
	defer m.Close()
	m.FailWithStatus("GetSystemDateAndTime", http.StatusBadGateway)

	err := newTestClient(m, "", "").Handshake(context.Background())
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
}

func TestClientConnectionRefusedIsUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	err = New(addr, "", "", WithTimeout(time.Second)).Handshake(context.Background())
	require.Error(t, err)
	assert.True(t, IsUnreachable(err))
	assert.Contains(t, strings.ToLower(err.Error()), "refused")
}

// truncatingServer answers every request with a status line and headers
// promising a body it never finishes sending.
func truncatingServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hj, ok := w.(http.Hijacker)
		if !ok {
			t.Error("response writer cannot hijack")
			return
		}
		conn, buf, err := hj.Hijack()
		if err != nil {
			t.Error(err)
			return
		}
		defer conn.Close()
		_, _ = buf.WriteString("HTTP/1.1 200 OK\r\nContent-Type: " + contentType + "\r\nContent-Length: 1000\r\n\r\n<s:Env")
		_ = buf.Flush()
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientTruncatedResponseIsTransportFailure(t *testing.T) {
	srv := truncatingServer(t)

	err := New(srv.URL, "", "", WithTimeout(2*time.Second)).Handshake(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.False(t, IsUnreachable(err))

	var oe *Error
	require.True(t, errors.As(err, &oe))
	assert.Equal(t, http.StatusOK, oe.Status)
}

func TestClientConnectFailureAfterAnswerIsNotUnreachable(t *testing.T) {
	m := NewMockServer()
	c := newTestClient(m, "", "")
	require.NoError(t, c.Handshake(context.Background()))
	m.Close()

	_, err := c.Capabilities(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.False(t, IsUnreachable(err))
}

func TestHandshakeSyncsClock(t *testing.T) {
	m := NewMockServer()
	defer m.Close()
	deviceNow := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	m.SetClock(deviceNow)

	c := newTestClient(m, "", "")
	c.now = func() time.Time { return deviceNow.Add(-time.Hour) }
	require.NoError(t, c.Handshake(context.Background()))
	assert.Equal(t, time.Hour, c.clockOffset)
}

func TestClockSkewStillAuthenticates(t *testing.T) {
	m := NewMockServer()
	defer m.Close()
	m.RequireAuth("admin", "secret")
	m.SetClock(time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC))

	c := newTestClient(m, "admin", "secret")
	require.NoError(t, c.Handshake(context.Background()))
	_, err := c.DeviceInformation(context.Background())
	assert.NoError(t, err)
}

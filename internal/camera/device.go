// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package camera holds the device identity and stream endpoint types.
package camera

import (
	"net"
	"strconv"
)

// Device is one camera as configured at startup. It is never mutated after construction.
type Device struct {
	Name     string
	IP       string
	Port     int // ONVIF (device management) port
	Username string
	Password string
	Seeds    EndpointSet // configured stream endpoints
}

// ManagementAddr returns host:port of the device management service.
func (d Device) ManagementAddr() string {
	return net.JoinHostPort(d.IP, strconv.Itoa(d.Port))
}

package config

import "github.com/ManuGH/camprobe/internal/camera"

// Devices builds the immutable device list the monitor runs over.
func (c Config) Devices() []camera.Device {
	out := make([]camera.Device, 0, len(c.Hosts))
	for _, h := range c.Hosts {
		out = append(out, camera.Device{
			Name:     h.Name,
			IP:       h.IP,
			Port:     h.ONVIFPort,
			Username: h.ONVIFUsername,
			Password: h.ONVIFPassword,
			Seeds:    camera.NewEndpointSet(h.RTSPURLs...),
		})
	}
	return out
}

package onvif

import (
	"encoding/xml"
	"time"
)

// DeviceInfo is the GetDeviceInformation payload.
type DeviceInfo struct {
	Manufacturer    string `xml:"Manufacturer"`
	Model           string `xml:"Model"`
	FirmwareVersion string `xml:"FirmwareVersion"`
	SerialNumber    string `xml:"SerialNumber"`
	HardwareID      string `xml:"HardwareId"`
}

// Capabilities lists the service addresses a device advertises.
type Capabilities struct {
	DeviceXAddr string
	MediaXAddr  string
}

// MediaProfile is one entry of GetProfiles.
type MediaProfile struct {
	Token string
	Name  string
}

type getSystemDateAndTimeResponse struct {
	XMLName           xml.Name `xml:"GetSystemDateAndTimeResponse"`
	SystemDateAndTime struct {
		UTCDateTime struct {
			Time struct {
				Hour   int `xml:"Hour"`
				Minute int `xml:"Minute"`
				Second int `xml:"Second"`
			} `xml:"Time"`
			Date struct {
				Year  int `xml:"Year"`
				Month int `xml:"Month"`
				Day   int `xml:"Day"`
			} `xml:"Date"`
		} `xml:"UTCDateTime"`
	} `xml:"SystemDateAndTime"`
}

func (r getSystemDateAndTimeResponse) utc() (time.Time, bool) {
	u := r.SystemDateAndTime.UTCDateTime
	if u.Date.Year == 0 {
		return time.Time{}, false
	}
	return time.Date(u.Date.Year, time.Month(u.Date.Month), u.Date.Day,
		u.Time.Hour, u.Time.Minute, u.Time.Second, 0, time.UTC), true
}

type getCapabilitiesResponse struct {
	XMLName      xml.Name `xml:"GetCapabilitiesResponse"`
	Capabilities struct {
		Device struct {
			XAddr string `xml:"XAddr"`
		} `xml:"Device"`
		Media struct {
			XAddr string `xml:"XAddr"`
		} `xml:"Media"`
	} `xml:"Capabilities"`
}

type getDeviceInformationResponse struct {
	XMLName xml.Name `xml:"GetDeviceInformationResponse"`
	DeviceInfo
}

type getProfilesResponse struct {
	XMLName  xml.Name `xml:"GetProfilesResponse"`
	Profiles []struct {
		Token string `xml:"token,attr"`
		Name  string `xml:"Name"`
	} `xml:"Profiles"`
}

type getStreamURIResponse struct {
	XMLName  xml.Name `xml:"GetStreamUriResponse"`
	MediaURI struct {
		URI string `xml:"Uri"`
	} `xml:"MediaUri"`
}

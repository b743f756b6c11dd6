// SPDX-License-Identifier: MIT
package onvif

import (
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"time"
)

// MockServer is a configurable ONVIF device for tests. It serves the device
// service at DefaultProfile().DeviceServicePath and the media service at
// /onvif/media_service.
type MockServer struct {
	*httptest.Server

	mu       sync.RWMutex
	username string
	password string
	info     DeviceInfo
	profiles map[string]string // token -> stream uri
	faults   map[string]mockFault
	statuses map[string]int
	raw      map[string]string
	calls    map[string]int
	clock    time.Time
}

type mockFault struct {
	status  int
	subcode string
	reason  string
}

// NewMockServer starts a device without credentials and no media profiles.
func NewMockServer() *MockServer {
	m := &MockServer{
		info: DeviceInfo{
			Manufacturer:    "Mock",
			Model:           "CAM-1",
			FirmwareVersion: "1.0.0",
			SerialNumber:    "0001",
		},
		profiles: make(map[string]string),
		faults:   make(map[string]mockFault),
		statuses: make(map[string]int),
		raw:      make(map[string]string),
		calls:    make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(DefaultProfile().DeviceServicePath, m.handle)
	mux.HandleFunc("/onvif/media_service", m.handle)
	m.Server = httptest.NewServer(mux)
	return m
}

// RequireAuth enables WS-Security digest verification for authenticated operations.
func (m *MockServer) RequireAuth(username, password string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.username, m.password = username, password
}

// AddProfile registers a media profile and the URI GetStreamUri returns for it.
func (m *MockServer) AddProfile(token, uri string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[token] = uri
}

// FailWithFault makes op answer with a SOAP fault.
func (m *MockServer) FailWithFault(op string, status int, subcode, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faults[op] = mockFault{status: status, subcode: subcode, reason: reason}
}

// FailWithStatus makes op answer with a bare HTTP status and no SOAP body.
func (m *MockServer) FailWithStatus(op string, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[op] = status
}

// RespondRaw makes op answer 200 with the given body verbatim.
func (m *MockServer) RespondRaw(op, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.raw[op] = body
}

// SetClock fixes the device clock reported by GetSystemDateAndTime.
func (m *MockServer) SetClock(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clock = t
}

// Calls returns how many times op was invoked.
func (m *MockServer) Calls(op string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls[op]
}

// MediaXAddr is the media service address advertised by GetCapabilities.
func (m *MockServer) MediaXAddr() string {
	return m.URL + "/onvif/media_service"
}

var mockOperations = []string{
	"GetSystemDateAndTime",
	"GetCapabilities",
	"GetDeviceInformation",
	"GetProfiles",
	"GetStreamUri",
}

func (m *MockServer) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	op := ""
	for _, candidate := range mockOperations {
		if strings.Contains(string(body), ":"+candidate) || strings.Contains(string(body), "<"+candidate) {
			op = candidate
			break
		}
	}

	m.mu.Lock()
	m.calls[op]++
	m.mu.Unlock()

	m.mu.RLock()
	defer m.mu.RUnlock()

	if status, ok := m.statuses[op]; ok {
		w.WriteHeader(status)
		return
	}
	if f, ok := m.faults[op]; ok {
		writeSOAP(w, f.status, fmt.Sprintf(
			`<s:Fault><s:Code><s:Value>s:Sender</s:Value><s:Subcode><s:Value>%s</s:Value></s:Subcode></s:Code>`+
				`<s:Reason><s:Text xml:lang="en">%s</s:Text></s:Reason></s:Fault>`, f.subcode, f.reason))
		return
	}
	if op != "GetSystemDateAndTime" && m.username != "" && !m.authorized(body) {
		writeSOAP(w, http.StatusBadRequest,
			`<s:Fault><s:Code><s:Value>s:Sender</s:Value><s:Subcode><s:Value>ter:NotAuthorized</s:Value></s:Subcode></s:Code>`+
				`<s:Reason><s:Text xml:lang="en">Sender not Authorized</s:Text></s:Reason></s:Fault>`)
		return
	}
	if raw, ok := m.raw[op]; ok {
		w.Header().Set("Content-Type", contentType)
		_, _ = io.WriteString(w, raw)
		return
	}

	switch op {
	case "GetSystemDateAndTime":
		now := m.clock
		if now.IsZero() {
			now = time.Now().UTC()
		}
		writeSOAP(w, http.StatusOK, fmt.Sprintf(
			`<tds:GetSystemDateAndTimeResponse><tds:SystemDateAndTime><tt:UTCDateTime>`+
				`<tt:Time><tt:Hour>%d</tt:Hour><tt:Minute>%d</tt:Minute><tt:Second>%d</tt:Second></tt:Time>`+
				`<tt:Date><tt:Year>%d</tt:Year><tt:Month>%d</tt:Month><tt:Day>%d</tt:Day></tt:Date>`+
				`</tt:UTCDateTime></tds:SystemDateAndTime></tds:GetSystemDateAndTimeResponse>`,
			now.Hour(), now.Minute(), now.Second(), now.Year(), int(now.Month()), now.Day()))
	case "GetCapabilities":
		writeSOAP(w, http.StatusOK, fmt.Sprintf(
			`<tds:GetCapabilitiesResponse><tds:Capabilities>`+
				`<tt:Device><tt:XAddr>%s</tt:XAddr></tt:Device>`+
				`<tt:Media><tt:XAddr>%s</tt:XAddr></tt:Media>`+
				`</tds:Capabilities></tds:GetCapabilitiesResponse>`,
			m.URL+DefaultProfile().DeviceServicePath, m.MediaXAddr()))
	case "GetDeviceInformation":
		writeSOAP(w, http.StatusOK, fmt.Sprintf(
			`<tds:GetDeviceInformationResponse><tds:Manufacturer>%s</tds:Manufacturer><tds:Model>%s</tds:Model>`+
				`<tds:FirmwareVersion>%s</tds:FirmwareVersion><tds:SerialNumber>%s</tds:SerialNumber>`+
				`<tds:HardwareId>%s</tds:HardwareId></tds:GetDeviceInformationResponse>`,
			m.info.Manufacturer, m.info.Model, m.info.FirmwareVersion, m.info.SerialNumber, m.info.HardwareID))
	case "GetProfiles":
		tokens := make([]string, 0, len(m.profiles))
		for tok := range m.profiles {
			tokens = append(tokens, tok)
		}
		sort.Strings(tokens)
		var b strings.Builder
		b.WriteString(`<trt:GetProfilesResponse>`)
		for _, tok := range tokens {
			fmt.Fprintf(&b, `<trt:Profiles token="%s" fixed="true"><tt:Name>%s</tt:Name></trt:Profiles>`, tok, tok)
		}
		b.WriteString(`</trt:GetProfilesResponse>`)
		writeSOAP(w, http.StatusOK, b.String())
	case "GetStreamUri":
		var req struct {
			Body struct {
				GetStreamURI struct {
					ProfileToken string `xml:"ProfileToken"`
				} `xml:"GetStreamUri"`
			} `xml:"Body"`
		}
		_ = xml.Unmarshal(body, &req)
		uri, ok := m.profiles[req.Body.GetStreamURI.ProfileToken]
		if !ok {
			writeSOAP(w, http.StatusBadRequest,
				`<s:Fault><s:Code><s:Value>s:Sender</s:Value><s:Subcode><s:Value>ter:NoProfile</s:Value></s:Subcode></s:Code>`+
					`<s:Reason><s:Text>no such profile</s:Text></s:Reason></s:Fault>`)
			return
		}
		writeSOAP(w, http.StatusOK, fmt.Sprintf(
			`<trt:GetStreamUriResponse><trt:MediaUri><tt:Uri>%s</tt:Uri><tt:Timeout>PT0S</tt:Timeout></trt:MediaUri></trt:GetStreamUriResponse>`,
			escape(uri)))
	default:
		writeSOAP(w, http.StatusBadRequest,
			`<s:Fault><s:Code><s:Value>s:Sender</s:Value><s:Subcode><s:Value>ter:ActionNotSupported</s:Value></s:Subcode></s:Code>`+
				`<s:Reason><s:Text>unsupported</s:Text></s:Reason></s:Fault>`)
	}
}

func (m *MockServer) authorized(body []byte) bool {
	var req struct {
		Header struct {
			Security struct {
				UsernameToken struct {
					Username string `xml:"Username"`
					Password string `xml:"Password"`
					Nonce    string `xml:"Nonce"`
					Created  string `xml:"Created"`
				} `xml:"UsernameToken"`
			} `xml:"Security"`
		} `xml:"Header"`
	}
	if err := xml.Unmarshal(body, &req); err != nil {
		return false
	}
	tok := req.Header.Security.UsernameToken
	if tok.Username != m.username {
		return false
	}
	nonce, err := base64.StdEncoding.DecodeString(tok.Nonce)
	if err != nil {
		return false
	}
	return passwordDigest(nonce, tok.Created, m.password) == tok.Password
}

func writeSOAP(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?>`+
		`<s:Envelope xmlns:s="`+nsSOAP+`" xmlns:tds="`+nsDevice+`" xmlns:trt="`+nsMedia+`" xmlns:tt="`+nsSchema+`">`+
		`<s:Body>`+body+`</s:Body></s:Envelope>`)
}

package onvif

import (
	"crypto/rand"
	"crypto/sha1" // #nosec G505 -- WS-Security UsernameToken digest is defined over SHA-1
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"strings"
	"time"
)

const (
	nsSOAP   = "http://www.w3.org/2003/05/soap-envelope"
	nsDevice = "http://www.onvif.org/ver10/device/wsdl"
	nsMedia  = "http://www.onvif.org/ver10/media/wsdl"
	nsSchema = "http://www.onvif.org/ver10/schema"
	nsWSSE   = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-secext-1.0.xsd"
	nsWSU    = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-utility-1.0.xsd"

	passwordDigestType = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-username-token-profile-1.0#PasswordDigest"
	base64EncodingType = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-soap-message-security-1.0#Base64Binary"

	contentType = `application/soap+xml; charset=utf-8`
)

// usernameToken is the WS-Security credential attached to authenticated calls.
type usernameToken struct {
	Username string
	Digest   string
	Nonce    string
	Created  string
}

// newUsernameToken builds a PasswordDigest token:
// Base64(SHA1(nonce + created + password)).
func newUsernameToken(username, password string, created time.Time) (usernameToken, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return usernameToken{}, fmt.Errorf("generate nonce: %w", err)
	}
	ts := created.UTC().Format("2006-01-02T15:04:05.000Z")
	return usernameToken{
		Username: username,
		Digest:   passwordDigest(nonce, ts, password),
		Nonce:    base64.StdEncoding.EncodeToString(nonce),
		Created:  ts,
	}, nil
}

func passwordDigest(nonce []byte, created, password string) string {
	h := sha1.New() // #nosec G401
	h.Write(nonce)
	h.Write([]byte(created))
	h.Write([]byte(password))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

func buildEnvelope(body string, token *usernameToken) []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	b.WriteString(`<s:Envelope xmlns:s="` + nsSOAP + `" xmlns:tds="` + nsDevice +
		`" xmlns:trt="` + nsMedia + `" xmlns:tt="` + nsSchema + `">`)
	if token != nil {
		b.WriteString(`<s:Header><wsse:Security s:mustUnderstand="1" xmlns:wsse="` + nsWSSE + `" xmlns:wsu="` + nsWSU + `">`)
		b.WriteString(`<wsse:UsernameToken>`)
		b.WriteString(`<wsse:Username>` + escape(token.Username) + `</wsse:Username>`)
		b.WriteString(`<wsse:Password Type="` + passwordDigestType + `">` + token.Digest + `</wsse:Password>`)
		b.WriteString(`<wsse:Nonce EncodingType="` + base64EncodingType + `">` + token.Nonce + `</wsse:Nonce>`)
		b.WriteString(`<wsu:Created>` + token.Created + `</wsu:Created>`)
		b.WriteString(`</wsse:UsernameToken></wsse:Security></s:Header>`)
	}
	b.WriteString(`<s:Body>` + body + `</s:Body></s:Envelope>`)
	return []byte(b.String())
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

// responseEnvelope matches SOAP 1.1 and 1.2 envelopes by local name.
type responseEnvelope struct {
	Body struct {
		Fault *fault `xml:"Fault"`
		Inner []byte `xml:",innerxml"`
	} `xml:"Body"`
}

// fault covers both the SOAP 1.2 (Code/Reason) and 1.1 (faultcode/faultstring) shapes.
type fault struct {
	Code struct {
		Value   string `xml:"Value"`
		Subcode struct {
			Value string `xml:"Value"`
		} `xml:"Subcode"`
	} `xml:"Code"`
	Reason struct {
		Text string `xml:"Text"`
	} `xml:"Reason"`
	FaultCode   string `xml:"faultcode"`
	FaultString string `xml:"faultstring"`
}

func (f *fault) notAuthorized() bool {
	for _, v := range []string{f.Code.Subcode.Value, f.Code.Value, f.FaultCode} {
		if strings.Contains(strings.ToLower(v), "notauthorized") {
			return true
		}
	}
	return false
}

func (f *fault) String() string {
	code := firstNonEmpty(f.Code.Subcode.Value, f.Code.Value, f.FaultCode)
	reason := strings.TrimSpace(firstNonEmpty(f.Reason.Text, f.FaultString))
	switch {
	case code != "" && reason != "":
		return code + ": " + reason
	case reason != "":
		return reason
	default:
		return code
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// Package auth provides http.RoundTrippers for the CouchDB authentication
// schemes.
package auth

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"net/http"
	"strings"
)

// BasicAuthTransport sets HTTP basic credentials on outgoing requests.
type BasicAuthTransport struct {
	Username string
	Password string
	Base     http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t *BasicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	if t.Username != "" {
		clone.SetBasicAuth(t.Username, t.Password)
	}
	return base(t.Base).RoundTrip(clone)
}

// BearerTokenTransport injects a bearer token, as used by CouchDB's JWT
// authentication handler.
type BearerTokenTransport struct {
	Token string
	Base  http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t *BearerTokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	if t.Token != "" {
		clone.Header.Set("Authorization", "Bearer "+t.Token)
	}
	return base(t.Base).RoundTrip(clone)
}

// ProxyAuthTransport authenticates through CouchDB proxy authentication. When
// Secret is set, the X-Auth-CouchDB-Token header carries the HMAC-SHA1 of
// Username keyed with Secret.
type ProxyAuthTransport struct {
	Username string
	Roles    []string
	Secret   string
	Base     http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t *ProxyAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	if t.Username != "" {
		clone.Header.Set("X-Auth-CouchDB-UserName", t.Username)
		if len(t.Roles) > 0 {
			clone.Header.Set("X-Auth-CouchDB-Roles", strings.Join(t.Roles, ","))
		}
		if t.Secret != "" {
			clone.Header.Set("X-Auth-CouchDB-Token", ProxyToken(t.Username, t.Secret))
		}
	}
	return base(t.Base).RoundTrip(clone)
}

// ProxyToken computes the proxy authentication token for username.
func ProxyToken(username, secret string) string {
	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write([]byte(username))
	return hex.EncodeToString(mac.Sum(nil))
}

func base(rt http.RoundTripper) http.RoundTripper {
	if rt == nil {
		return http.DefaultTransport
	}
	return rt
}

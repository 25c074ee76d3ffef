package main

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/robert-malhotra/go-couch-client/auth"
)

type authMode string

const (
	authModeNone   authMode = "none"
	authModeBasic  authMode = "basic"
	authModeBearer authMode = "bearer"
	authModeProxy  authMode = "proxy"
)

var authModes = []authMode{authModeNone, authModeBasic, authModeBearer, authModeProxy}

type authConfig struct {
	mode     authMode
	username string
	// secret is the password, the bearer token or the proxy secret,
	// depending on mode.
	secret string
	roles  []string
}

func (cfg authConfig) validate() error {
	switch cfg.mode {
	case authModeNone:
		return nil
	case authModeBasic:
		if strings.TrimSpace(cfg.username) == "" {
			return fmt.Errorf("Username is required for basic authentication")
		}
	case authModeBearer:
		if strings.TrimSpace(cfg.secret) == "" {
			return fmt.Errorf("Bearer token is required")
		}
	case authModeProxy:
		if strings.TrimSpace(cfg.username) == "" {
			return fmt.Errorf("Username is required for proxy authentication")
		}
	default:
		return fmt.Errorf("Unsupported authentication mode: %s", cfg.mode)
	}
	return nil
}

// transport wraps base with the round tripper for cfg's mode.
func (cfg authConfig) transport(base http.RoundTripper) (http.RoundTripper, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	switch cfg.mode {
	case authModeBasic:
		return &auth.BasicAuthTransport{Username: strings.TrimSpace(cfg.username), Password: cfg.secret, Base: base}, nil
	case authModeBearer:
		return &auth.BearerTokenTransport{Token: strings.TrimSpace(cfg.secret), Base: base}, nil
	case authModeProxy:
		return &auth.ProxyAuthTransport{
			Username: strings.TrimSpace(cfg.username),
			Roles:    cfg.roles,
			Secret:   cfg.secret,
			Base:     base,
		}, nil
	default:
		return base, nil
	}
}

func parseRoles(raw string) []string {
	var roles []string
	for _, r := range strings.Split(raw, ",") {
		if r = strings.TrimSpace(r); r != "" {
			roles = append(roles, r)
		}
	}
	return roles
}

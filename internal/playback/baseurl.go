// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package playback

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

// ErrInvalidBaseURL reports a base URL the simulated runtime cannot resolve against.
var ErrInvalidBaseURL = errors.New("invalid base URL")

// NormalizeBaseURL validates an absolute http(s) base URL and returns it with
// an ASCII (punycode) lower-case host, no query or fragment, and no trailing
// slash. Runtimes report resolved sources in this form.
func NormalizeBaseURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: scheme must be http or https: %q", ErrInvalidBaseURL, raw)
	}
	if u.User != nil {
		return "", fmt.Errorf("%w: userinfo not allowed: %q", ErrInvalidBaseURL, raw)
	}
	host := strings.TrimSuffix(u.Hostname(), ".")
	if host == "" {
		return "", fmt.Errorf("%w: missing host: %q", ErrInvalidBaseURL, raw)
	}

	if ip := net.ParseIP(host); ip != nil {
		host = ip.String()
	} else {
		ascii, err := idna.Lookup.ToASCII(host)
		if err != nil {
			return "", fmt.Errorf("%w: host %q: %v", ErrInvalidBaseURL, host, err)
		}
		host = strings.ToLower(ascii)
	}
	if port := u.Port(); port != "" {
		u.Host = net.JoinHostPort(host, port)
	} else if strings.Contains(host, ":") {
		u.Host = "[" + host + "]"
	} else {
		u.Host = host
	}

	u.RawQuery, u.Fragment = "", ""
	return strings.TrimSuffix(u.String(), "/"), nil
}

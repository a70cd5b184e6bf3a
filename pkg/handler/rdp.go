package handler

import (
	"context"
	"errors"
	"strings"
)

func init() {
	Register("rdp", newRDPHandler)
}

// DefaultRDPDomain is used when a record carries no domain.
const DefaultRDPDomain = "WORKGROUP"

// rdpHandler launches xfreerdp against a Windows host.
type rdpHandler struct {
	host       string
	username   string
	password   string
	domain     string
	resolution string
}

func newRDPHandler(p Params) (Handler, error) {
	if p.HostOrIP == "" {
		return nil, errors.New("handler: rdp requires a host or IP")
	}
	return &rdpHandler{
		host:       bracketIPv6(p.HostOrIP),
		username:   p.Username,
		password:   p.Password,
		domain:     p.Domain,
		resolution: p.Resolution,
	}, nil
}

// bracketIPv6 wraps a bare IPv6 literal in brackets; already-bracketed
// hosts and hostnames pass through unchanged.
func bracketIPv6(host string) string {
	if strings.Contains(host, ":") && !strings.HasPrefix(host, "[") && !strings.HasSuffix(host, "]") {
		return "[" + host + "]"
	}
	return host
}

func (h *rdpHandler) args() (argv, display []string) {
	argv = append(argv, "xfreerdp", "/v:"+h.host)
	display = append(display, "xfreerdp", "/v:"+h.host)

	if h.username != "" {
		argv = append(argv, "/u:"+h.username)
		display = append(display, "/u:"+h.username)
	}
	if h.password != "" {
		argv = append(argv, "/p:"+h.password)
		display = append(display, "/p:****")
	}
	domain := h.domain
	if domain == "" {
		domain = DefaultRDPDomain
	}
	argv = append(argv, "/d:"+domain)
	display = append(display, "/d:"+domain)

	if h.resolution != "" {
		argv = append(argv, "/size:"+h.resolution)
		display = append(display, "/size:"+h.resolution)
	}

	// Personal registry targets rarely carry trusted certificates.
	argv = append(argv, "/cert:ignore")
	display = append(display, "/cert:ignore")
	return argv, display
}

func (h *rdpHandler) Connect(ctx context.Context) (*LaunchResult, error) {
	argv, display := h.args()
	return runForeground(ctx, "rdp", argv, display)
}

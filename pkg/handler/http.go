package handler

import (
	"context"
	"errors"
	"strings"
)

func init() {
	Register("http", newHTTPHandler)
}

// httpHandler opens a stored web target in the default browser.
type httpHandler struct {
	url string
}

func newHTTPHandler(p Params) (Handler, error) {
	if p.HostOrIP == "" {
		return nil, errors.New("handler: http requires a host or URL")
	}
	return &httpHandler{url: normalizeURL(p.HostOrIP)}, nil
}

// normalizeURL prefixes a bare host with http:// when no scheme is present.
func normalizeURL(host string) string {
	if strings.Contains(host, "://") {
		return host
	}
	return "http://" + host
}

func (h *httpHandler) args() []string {
	return []string{openerCommand(), h.url}
}

func (h *httpHandler) Connect(ctx context.Context) (*LaunchResult, error) {
	argv := h.args()
	return runForeground(ctx, "http", argv, argv)
}

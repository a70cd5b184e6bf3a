package handler

import (
	"context"
	"errors"
)

func init() {
	Register("vnc", newVNCHandler)
}

// DefaultVNCPort is used when a record carries no port (display :1).
const DefaultVNCPort = "5901"

// vncHandler launches a VNC viewer session.
type vncHandler struct {
	host string
	port string
}

func newVNCHandler(p Params) (Handler, error) {
	if p.HostOrIP == "" {
		return nil, errors.New("handler: vnc requires a host or IP")
	}
	port := p.Port
	if port == "" {
		port = DefaultVNCPort
	}
	return &vncHandler{host: p.HostOrIP, port: port}, nil
}

// args builds the viewer argv. The host::port form addresses a raw TCP
// port rather than an X display number.
func (h *vncHandler) args() []string {
	return []string{"vncviewer", h.host + "::" + h.port}
}

func (h *vncHandler) Connect(ctx context.Context) (*LaunchResult, error) {
	argv := h.args()
	return runForeground(ctx, "vnc", argv, argv)
}

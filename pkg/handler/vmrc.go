package handler

import (
	"context"
	"errors"

	"al.essio.dev/pkg/shellescape"
)

func init() {
	Register("vmrc", newVMRCHandler)
}

// vmrcHandler hands a hypervisor console URI (vmrc://...) to the desktop
// opener. For vmrc records host_or_ip holds the full connection URI.
type vmrcHandler struct {
	uri string
}

func newVMRCHandler(p Params) (Handler, error) {
	if p.HostOrIP == "" {
		return nil, errors.New("handler: vmrc requires a connection URI")
	}
	return &vmrcHandler{uri: p.HostOrIP}, nil
}

// args builds the shell invocation. This is the one deliberate shell
// interpretation point: the desktop opener needs the URI handed through the
// user's shell environment, so the command string is a fixed template with
// the URI shell-quoted as its only variable part.
func (h *vmrcHandler) args() []string {
	return []string{"sh", "-c", openerCommand() + " " + shellescape.Quote(h.uri)}
}

func (h *vmrcHandler) Connect(ctx context.Context) (*LaunchResult, error) {
	argv := h.args()
	return runForeground(ctx, "vmrc", argv, argv)
}

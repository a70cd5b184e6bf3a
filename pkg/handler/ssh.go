package handler

import (
	"context"
	"errors"
	"os/exec"
)

func init() {
	Register("ssh", newSSHHandler)
}

// sshHandler launches an OpenSSH client session, fronted by sshpass when
// the helper is installed and a password is stored.
type sshHandler struct {
	host     string
	port     string
	username string
	password string
	keyPath  string
}

func newSSHHandler(p Params) (Handler, error) {
	if p.HostOrIP == "" {
		return nil, errors.New("handler: ssh requires a host or IP")
	}
	return &sshHandler{
		host:     p.HostOrIP,
		port:     p.Port,
		username: p.Username,
		password: p.Password,
		keyPath:  p.SSHKeyPath,
	}, nil
}

// args builds the argv. usePassHelper is true when sshpass was found on
// PATH and a password is available; every user-influenced value is a
// discrete token, never part of a shell string.
func (h *sshHandler) args(usePassHelper bool) (argv, display []string) {
	if usePassHelper && h.password != "" {
		argv = append(argv, "sshpass", "-p", h.password)
		display = append(display, "sshpass", "-p", "****")
	}
	argv = append(argv, "ssh", "-o", "StrictHostKeyChecking=no")
	display = append(display, "ssh", "-o", "StrictHostKeyChecking=no")

	if h.keyPath != "" {
		argv = append(argv, "-i", h.keyPath)
		display = append(display, "-i", h.keyPath)
	}
	if h.port != "" {
		argv = append(argv, "-p", h.port)
		display = append(display, "-p", h.port)
	}

	dest := h.host
	if h.username != "" {
		dest = h.username + "@" + h.host
	}
	argv = append(argv, dest)
	display = append(display, dest)
	return argv, display
}

func (h *sshHandler) Connect(ctx context.Context) (*LaunchResult, error) {
	// Prefer the credential helper when it is installed; fall back to a
	// plain ssh invocation otherwise.
	_, lookErr := exec.LookPath("sshpass")
	argv, display := h.args(lookErr == nil)
	return runForeground(ctx, "ssh", argv, display)
}

// Package handler turns connection records into external client launches.
//
// A Registry maps protocol names to handler constructors; new protocols are
// added by registering a constructor, never by editing dispatch code. Each
// handler builds its argument list from an explicit config struct populated
// field-by-field from the record and validated at construction time.
//
// The package never implements a wire protocol itself — it only locates an
// installed client binary, runs it as a blocking foreground process, and
// surfaces its exit status.
package handler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"sort"
	"strings"
	"sync"
)

// ErrUnsupportedProtocol indicates no constructor is registered for the
// requested protocol name.
var ErrUnsupportedProtocol = errors.New("handler: unsupported protocol")

// Params is the field bag a constructor draws from. Password is plaintext:
// the service decrypts it immediately before launch and it must not be
// cached beyond the launch attempt.
type Params struct {
	HostOrIP   string
	Port       string
	Username   string
	Password   string
	SSHKeyPath string
	Domain     string
	Resolution string
	Extras     map[string]string
}

// LaunchResult describes a completed launch attempt. Command is the argv
// that was run with secret material redacted, suitable for logging.
type LaunchResult struct {
	Protocol string
	Command  []string
	ExitCode int
}

// Handler launches one external client session for one protocol.
type Handler interface {
	Connect(ctx context.Context) (*LaunchResult, error)
}

// Constructor builds a Handler from record fields, validating the fields
// the protocol requires.
type Constructor func(p Params) (Handler, error)

// LaunchError is returned when the external client fails to spawn or exits
// non-zero. It is recoverable: callers report it and continue.
type LaunchError struct {
	Protocol string
	Err      error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("handler: %s session failed: %v", e.Protocol, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// Registry maps protocol names (case-insensitive) to constructors.
type Registry struct {
	mu    sync.RWMutex
	ctors map[string]Constructor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{ctors: make(map[string]Constructor)}
}

// Register associates a protocol name with a constructor. Registering the
// same name again replaces the earlier constructor.
func (r *Registry) Register(name string, ctor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctors[strings.ToLower(name)] = ctor
}

// Resolve returns the constructor for a protocol name, or
// ErrUnsupportedProtocol.
func (r *Registry) Resolve(name string) (Constructor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ctor, ok := r.ctors[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProtocol, name)
	}
	return ctor, nil
}

// Supports reports whether a constructor is registered for name.
func (r *Registry) Supports(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.ctors[strings.ToLower(name)]
	return ok
}

// Protocols returns the registered protocol names, sorted.
func (r *Registry) Protocols() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.ctors))
	for name := range r.ctors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry holds the built-in protocol handlers, populated by the
// per-handler init functions in this package.
var DefaultRegistry = NewRegistry()

// Register adds a constructor to the default registry.
func Register(name string, ctor Constructor) {
	DefaultRegistry.Register(name, ctor)
}

// Resolve looks up a constructor in the default registry.
func Resolve(name string) (Constructor, error) {
	return DefaultRegistry.Resolve(name)
}

// runForeground runs argv as a blocking foreground process wired to the
// current terminal. display is the redacted argv recorded in the result.
func runForeground(ctx context.Context, protocol string, argv, display []string) (*LaunchResult, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	res := &LaunchResult{Protocol: protocol, Command: display}
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		}
		return res, &LaunchError{Protocol: protocol, Err: err}
	}
	return res, nil
}

// openerCommand returns the platform command that hands a URI to the
// desktop environment.
func openerCommand() string {
	if runtime.GOOS == "darwin" {
		return "open"
	}
	return "xdg-open"
}

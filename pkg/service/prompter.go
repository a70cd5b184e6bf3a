package service

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"connman/pkg/store"
)

// DefaultSSHKeyPath is offered when key authentication is chosen without
// an explicit path.
const DefaultSSHKeyPath = "~/.ssh/id_rsa"

// Details is the field set collected for an add or edit. Password is
// plaintext here; PasswordSet distinguishes a newly entered password from
// "keep whatever is stored".
type Details struct {
	Alias       string
	Protocol    string
	HostOrIP    string
	Port        string
	Username    string
	Password    string
	PasswordSet bool
	SSHKeyPath  string
	Domain      string
	Resolution  string
	Tag         string
	Extras      map[string]string
}

// Prompter collects connection fields and confirmations from the user.
// The service and the browser both depend only on this interface; the
// line-mode implementation below serves the CLI and the suspended TUI.
type Prompter interface {
	// CollectFields prompts for every field. When existing is non-nil its
	// values are offered as defaults and an empty password answer keeps
	// the stored one.
	CollectFields(existing *store.ConnectionRecord) (*Details, error)

	// Confirm asks a yes/no question and reports the answer.
	Confirm(prompt string) (bool, error)
}

// LinePrompter is the line-mode Prompter over a terminal.
type LinePrompter struct {
	in  *bufio.Reader
	out io.Writer

	// AliasExists probes the store during alias validation for new records.
	AliasExists func(alias string) (bool, error)

	// Protocols is the registered protocol name list used for validation.
	Protocols []string

	// readPassword reads without echo; swapped out in tests.
	readPassword func() (string, error)
}

// NewLinePrompter builds a prompter over stdin/stdout.
func NewLinePrompter(aliasExists func(string) (bool, error), protocols []string) *LinePrompter {
	return &LinePrompter{
		in:          bufio.NewReader(os.Stdin),
		out:         os.Stdout,
		AliasExists: aliasExists,
		Protocols:   protocols,
		readPassword: func() (string, error) {
			b, err := term.ReadPassword(int(syscall.Stdin))
			return string(b), err
		},
	}
}

func (p *LinePrompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// ask prompts with an optional default shown in brackets; an empty answer
// returns the default.
func (p *LinePrompter) ask(label, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(p.out, "%s: ", label)
	}
	line, err := p.readLine()
	if err != nil {
		return "", err
	}
	if line == "" {
		return def, nil
	}
	return line, nil
}

// Confirm asks a yes/no question; only "y"/"yes" counts as yes.
func (p *LinePrompter) Confirm(prompt string) (bool, error) {
	fmt.Fprintf(p.out, "%s (y/n): ", prompt)
	line, err := p.readLine()
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// passwordComparison prompts for a password twice until both entries match.
func (p *LinePrompter) passwordComparison() (string, error) {
	for {
		fmt.Fprint(p.out, "Enter the password: ")
		first, err := p.readPassword()
		fmt.Fprintln(p.out)
		if err != nil {
			return "", err
		}
		fmt.Fprint(p.out, "Re-enter the password: ")
		second, err := p.readPassword()
		fmt.Fprintln(p.out)
		if err != nil {
			return "", err
		}
		if first == second {
			return first, nil
		}
		fmt.Fprintln(p.out, "Passwords do not match. Please try again.")
	}
}

func (p *LinePrompter) supportedProtocol(name string) bool {
	for _, proto := range p.Protocols {
		if strings.EqualFold(proto, name) {
			return true
		}
	}
	return false
}

// CollectFields walks the full prompt flow. Validation loops mirror the
// add/edit rules: unique non-numeric alias, registered protocol, required
// host (URI for vmrc), tag must not shadow a protocol name.
func (p *LinePrompter) CollectFields(existing *store.ConnectionRecord) (*Details, error) {
	d := &Details{Extras: map[string]string{}}
	if existing != nil {
		d.Extras = cloneExtras(existing.Extras)
		fmt.Fprintln(p.out, "Editing connection. Press Enter to keep the current value.")
	}

	def := func(get func(*store.ConnectionRecord) string) string {
		if existing == nil {
			return ""
		}
		return get(existing)
	}

	// Alias
	for {
		alias, err := p.ask("Enter a unique alias for the connection", def(func(r *store.ConnectionRecord) string { return r.Alias }))
		if err != nil {
			return nil, err
		}
		if err := store.ValidateAlias(alias); err != nil {
			fmt.Fprintln(p.out, "Invalid alias. It must be non-empty and not only digits. Please try again.")
			continue
		}
		if existing == nil && p.AliasExists != nil {
			exists, err := p.AliasExists(alias)
			if err != nil {
				return nil, err
			}
			if exists {
				fmt.Fprintln(p.out, "This alias already exists. Please choose a different one.")
				continue
			}
		}
		d.Alias = alias
		break
	}

	// Protocol
	for {
		proto, err := p.ask(
			fmt.Sprintf("Enter the protocol (e.g. %s)", strings.Join(p.Protocols, ", ")),
			def(func(r *store.ConnectionRecord) string { return r.Protocol }),
		)
		if err != nil {
			return nil, err
		}
		if !p.supportedProtocol(proto) {
			fmt.Fprintf(p.out, "Invalid protocol. Please enter one of: %s.\n", strings.Join(p.Protocols, ", "))
			continue
		}
		d.Protocol = strings.ToLower(proto)
		break
	}

	// Host (or full URI for vmrc)
	if d.Protocol == "vmrc" {
		uri, err := p.ask("Enter vmrc URL (e.g. vmrc://<esxi-host>/?moid=<vmid>)", def(func(r *store.ConnectionRecord) string { return r.HostOrIP }))
		if err != nil {
			return nil, err
		}
		d.HostOrIP = uri
	} else {
		for {
			host, err := p.ask("Enter the hostname or IP address", def(func(r *store.ConnectionRecord) string { return r.HostOrIP }))
			if err != nil {
				return nil, err
			}
			if host == "" {
				fmt.Fprintln(p.out, "Invalid hostname or IP address. Please try again.")
				continue
			}
			d.HostOrIP = host
			break
		}

		port, err := p.ask("Enter the port (press Enter for default)", def(func(r *store.ConnectionRecord) string { return r.Port }))
		if err != nil {
			return nil, err
		}
		d.Port = port

		username, err := p.ask("Enter the username (press Enter if not applicable)", def(func(r *store.ConnectionRecord) string { return r.Username }))
		if err != nil {
			return nil, err
		}
		d.Username = username
	}

	// Protocol-specific fields
	switch d.Protocol {
	case "ssh":
		if err := p.collectSSHAuth(d, existing); err != nil {
			return nil, err
		}
	case "rdp":
		if err := p.collectPassword(d, existing); err != nil {
			return nil, err
		}
		domain, err := p.ask("Enter the domain (press Enter if not applicable)", def(func(r *store.ConnectionRecord) string { return r.Domain }))
		if err != nil {
			return nil, err
		}
		d.Domain = domain
		resolution, err := p.ask("Enter the resolution (e.g., 1920x1080)", def(func(r *store.ConnectionRecord) string { return r.Resolution }))
		if err != nil {
			return nil, err
		}
		d.Resolution = resolution
	case "vnc":
		if err := p.collectPassword(d, existing); err != nil {
			return nil, err
		}
	}

	// Tag: protocol names are reserved so list filtering stays unambiguous.
	for {
		tag, err := p.ask("Enter an optional tag (i.e lab, tools, personal)", def(func(r *store.ConnectionRecord) string { return r.Tag }))
		if err != nil {
			return nil, err
		}
		if tag != "" && p.supportedProtocol(tag) {
			fmt.Fprintln(p.out, "Invalid tag. Unable to use a protocol name as a tag.")
			continue
		}
		d.Tag = tag
		break
	}

	// Extras
	fmt.Fprintln(p.out, "Enter extra options (key=value). Type 'done' when finished:")
	for {
		line, err := p.readLine()
		if err != nil {
			return nil, err
		}
		line = strings.TrimSpace(line)
		if strings.EqualFold(line, "done") {
			break
		}
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			fmt.Fprintln(p.out, "Invalid format for extra options. Please use 'key=value' format.")
			continue
		}
		d.Extras[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	return d, nil
}

// collectSSHAuth asks for the authentication method and either a key path
// or a password.
func (p *LinePrompter) collectSSHAuth(d *Details, existing *store.ConnectionRecord) error {
	defMethod := "password"
	if existing != nil && existing.SSHKeyPath != "" {
		defMethod = "key"
	}
	method, err := p.ask("Choose authentication method, password or key", defMethod)
	if err != nil {
		return err
	}
	if strings.EqualFold(strings.TrimSpace(method), "key") {
		defPath := DefaultSSHKeyPath
		if existing != nil && existing.SSHKeyPath != "" {
			defPath = existing.SSHKeyPath
		}
		path, err := p.ask("Enter path to SSH private key", defPath)
		if err != nil {
			return err
		}
		d.SSHKeyPath = path
		return nil
	}
	return p.collectPassword(d, existing)
}

// collectPassword prompts double-entry for new records; during edit an
// empty answer keeps the stored ciphertext.
func (p *LinePrompter) collectPassword(d *Details, existing *store.ConnectionRecord) error {
	if existing == nil {
		pw, err := p.passwordComparison()
		if err != nil {
			return err
		}
		if pw != "" {
			d.Password = pw
			d.PasswordSet = true
		}
		return nil
	}

	fmt.Fprint(p.out, "Enter the password (press Enter to keep current): ")
	pw, err := p.readPassword()
	fmt.Fprintln(p.out)
	if err != nil {
		return err
	}
	if pw != "" {
		d.Password = pw
		d.PasswordSet = true
	}
	return nil
}

func cloneExtras(extras map[string]string) map[string]string {
	out := make(map[string]string, len(extras))
	for k, v := range extras {
		out[k] = v
	}
	return out
}

package importer

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"connman/pkg/store"
)

// SSHConfigParser converts literal Host blocks of an OpenSSH client config
// into ssh connection records. Wildcard patterns and Match blocks carry no
// concrete target, so they are skipped.
type SSHConfigParser struct{}

// Format returns the format this parser handles.
func (p *SSHConfigParser) Format() Format {
	return FormatSSHConfig
}

// hostBlock accumulates the settings of one Host block while scanning.
// Last-wins semantics per OpenSSH, except IdentityFile which keeps the
// first occurrence (the key actually offered first).
type hostBlock struct {
	patterns []string
	hostName string
	user     string
	port     string
	identity string
}

// Parse scans the config line by line. Include directives are not followed:
// the caller imports each file explicitly.
func (p *SSHConfigParser) Parse(data []byte) (*Result, error) {
	result := &Result{}

	var current *hostBlock
	flush := func() {
		if current == nil {
			return
		}
		p.emit(current, result)
		current = nil
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := splitDirective(line)
		if !ok {
			result.Warnings = append(result.Warnings, fmt.Sprintf("line %d: unparsable directive %q", lineNum, line))
			continue
		}

		switch key {
		case "host":
			flush()
			current = &hostBlock{patterns: strings.Fields(value)}
		case "match":
			// Match blocks have no literal target; skip until the next Host.
			flush()
		case "hostname":
			if current != nil {
				current.hostName = value
			}
		case "user":
			if current != nil {
				current.user = value
			}
		case "port":
			if current != nil {
				current.port = value
			}
		case "identityfile":
			if current != nil && current.identity == "" {
				current.identity = value
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("importer: failed to scan ssh config: %w", err)
	}
	flush()

	DeduplicateAliases(result.Records)
	return result, nil
}

// emit produces one record per literal pattern of a finished Host block.
func (p *SSHConfigParser) emit(b *hostBlock, result *Result) {
	for _, pattern := range b.patterns {
		if strings.ContainsAny(pattern, "*?!") {
			result.Skipped = append(result.Skipped, SkippedItem{Name: pattern, Reason: "wildcard host pattern"})
			continue
		}
		alias := SanitizeAlias(pattern)
		if alias == "" {
			result.Skipped = append(result.Skipped, SkippedItem{Name: pattern, Reason: "name does not yield a valid alias"})
			continue
		}

		host := b.hostName
		if host == "" {
			// No HostName directive: the alias itself is the target.
			host = pattern
		}
		result.Records = append(result.Records, store.ConnectionRecord{
			Alias:      alias,
			Protocol:   "ssh",
			HostOrIP:   host,
			Port:       b.port,
			Username:   b.user,
			SSHKeyPath: b.identity,
		})
	}
}

// splitDirective splits "Key Value" or "Key=Value" and lowercases the key.
func splitDirective(line string) (key, value string, ok bool) {
	if i := strings.IndexAny(line, " \t="); i > 0 {
		key = strings.ToLower(line[:i])
		value = strings.Trim(strings.TrimSpace(line[i+1:]), `"`)
		return key, value, value != ""
	}
	return "", "", false
}

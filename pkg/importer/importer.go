// Package importer provides parsers for importing connections from foreign
// inventories. Supports OpenSSH client configs and a flat CSV format; the
// native JSON interchange form is handled by the service directly.
package importer

import (
	"fmt"
	"regexp"
	"strings"

	"connman/pkg/store"
)

// Format names a supported foreign inventory format.
type Format string

const (
	FormatSSHConfig Format = "ssh-config"
	FormatCSV       Format = "csv"
)

// Result contains the outcome of parsing one inventory file.
type Result struct {
	// Records are the successfully parsed connections, in file order.
	Records []store.ConnectionRecord

	// Warnings are non-fatal issues encountered during parsing.
	Warnings []string

	// Skipped are entries that could not be converted, with reasons.
	Skipped []SkippedItem
}

// SkippedItem is one entry that was dropped during parsing.
type SkippedItem struct {
	Name   string
	Reason string
}

// Parser is the interface implemented by each foreign-format parser.
type Parser interface {
	// Parse converts the raw file contents into connection records.
	Parse(data []byte) (*Result, error)

	// Format returns the format this parser handles.
	Format() Format
}

// Get returns the parser for a format name.
func Get(format Format) (Parser, error) {
	switch format {
	case FormatSSHConfig:
		return &SSHConfigParser{}, nil
	case FormatCSV:
		return &CSVParser{}, nil
	default:
		return nil, fmt.Errorf("importer: unsupported format %q (available: %s)", format, strings.Join(Formats(), ", "))
	}
}

// Formats returns the supported format names.
func Formats() []string {
	return []string{string(FormatSSHConfig), string(FormatCSV)}
}

// aliasCleanRegex matches characters stripped from imported alias names.
var aliasCleanRegex = regexp.MustCompile(`[^a-zA-Z0-9_.-]`)

// SanitizeAlias converts a foreign entry name into a usable alias: spaces
// become hyphens, invalid characters are stripped, and the result is
// lowercased. Returns "" when nothing survives.
func SanitizeAlias(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, " ", "-")
	name = aliasCleanRegex.ReplaceAllString(name, "")
	name = strings.ToLower(name)
	if store.ValidateAlias(name) != nil {
		return ""
	}
	return name
}

// DeduplicateAliases makes aliases unique within one parse result by
// appending numeric suffixes in file order.
func DeduplicateAliases(records []store.ConnectionRecord) {
	seen := make(map[string]int)
	for i := range records {
		base := strings.ToLower(records[i].Alias)
		count := seen[base]
		if count > 0 {
			records[i].Alias = fmt.Sprintf("%s-%d", records[i].Alias, count)
		}
		seen[base] = count + 1
	}
}

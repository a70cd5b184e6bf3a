package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"connman/pkg/store"
)

// CSVParser parses a flat spreadsheet export. Parsing is header-based:
// column order is free, unknown columns are ignored.
type CSVParser struct{}

// Recognized CSV column names.
const (
	csvColAlias      = "alias"
	csvColProtocol   = "protocol"
	csvColHost       = "host"
	csvColPort       = "port"
	csvColUsername   = "username"
	csvColPassword   = "password"
	csvColSSHKeyPath = "ssh_key_path"
	csvColDomain     = "domain"
	csvColResolution = "resolution"
	csvColTag        = "tag"
)

// Format returns the format this parser handles.
func (p *CSVParser) Format() Format {
	return FormatCSV
}

// Parse parses CSV data into connection records.
func (p *CSVParser) Parse(data []byte) (*Result, error) {
	result := &Result{}

	// Strip UTF-8 BOM if present
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	reader := csv.NewReader(bytes.NewReader(data))
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("importer: failed to read CSV header: %w", err)
	}
	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[strings.ToLower(strings.TrimSpace(col))] = i
	}
	for _, required := range []string{csvColAlias, csvColProtocol, csvColHost} {
		if _, ok := colIndex[required]; !ok {
			return nil, fmt.Errorf("importer: missing required CSV column %q", required)
		}
	}

	field := func(row []string, col string) string {
		i, ok := colIndex[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	rowNum := 1
	for {
		rowNum++
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("row %d: failed to parse: %v", rowNum, err))
			continue
		}

		alias := SanitizeAlias(field(row, csvColAlias))
		if alias == "" {
			result.Skipped = append(result.Skipped, SkippedItem{
				Name:   field(row, csvColAlias),
				Reason: "name does not yield a valid alias",
			})
			continue
		}
		host := field(row, csvColHost)
		if host == "" {
			result.Skipped = append(result.Skipped, SkippedItem{Name: alias, Reason: "empty host"})
			continue
		}

		result.Records = append(result.Records, store.ConnectionRecord{
			Alias:      alias,
			Protocol:   strings.ToLower(field(row, csvColProtocol)),
			HostOrIP:   host,
			Port:       field(row, csvColPort),
			Username:   field(row, csvColUsername),
			Password:   field(row, csvColPassword),
			SSHKeyPath: field(row, csvColSSHKeyPath),
			Domain:     field(row, csvColDomain),
			Resolution: field(row, csvColResolution),
			Tag:        field(row, csvColTag),
		})
	}

	DeduplicateAliases(result.Records)
	return result, nil
}

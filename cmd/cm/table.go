package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"connman/pkg/store"
)

var (
	tableHeaderStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	tableCellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// renderSummaries prints the summary projection as a bordered table, or a
// short notice when nothing matched.
func renderSummaries(sums []store.Summary) {
	if len(sums) == 0 {
		fmt.Println("No connections found.")
		return
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "ALIAS", "PROTOCOL", "HOST", "TAG").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return tableCellStyle
		})
	for _, s := range sums {
		t.Row(strconv.FormatInt(s.ID, 10), s.Alias, s.Protocol, s.HostOrIP, s.Tag)
	}
	fmt.Println(t)
}

package main

import (
	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/railbook/railbook/internal/tui/theme"
)

// renderTable lays out rows under a bold header with the theme's colors.
func renderTable(headers []string, rows [][]string) string {
	s := theme.Current().S()
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(s.Dim).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.Label.Bold(true).Padding(0, 1)
			}
			return s.Text.Padding(0, 1)
		})
	return t.String()
}

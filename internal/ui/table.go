package ui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// TableColumn defines a table column with name and width.
type TableColumn struct {
	Title string
	Width int
}

// NewTable creates a non-focused Bubbles table with the CLI styling.
func NewTable(columns []TableColumn, rows []table.Row) table.Model {
	cols := make([]table.Column, len(columns))
	for i, c := range columns {
		cols[i] = table.Column{
			Title: c.Title,
			Width: c.Width,
		}
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithFocused(false),
		table.WithHeight(len(rows)+1), // +1 for header
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorMuted).
		BorderBottom(true).
		Bold(true).
		Foreground(ColorPrimary)
	s.Cell = s.Cell.
		Foreground(ColorPrimary)
	// Nothing is selectable in printed output.
	s.Selected = s.Cell

	t.SetStyles(s)
	return t
}

// RenderTable renders a static table for command output. Column widths grow
// to fit the widest cell so nothing gets truncated with an ellipsis.
func RenderTable(columns []TableColumn, rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	fitted := make([]TableColumn, len(columns))
	copy(fitted, columns)
	tableRows := make([]table.Row, len(rows))
	for i, row := range rows {
		for j, cell := range row {
			if j < len(fitted) {
				if w := lipgloss.Width(cell); w > fitted[j].Width {
					fitted[j].Width = w
				}
			}
		}
		tableRows[i] = table.Row(row)
	}

	return NewTable(fitted, tableRows).View()
}

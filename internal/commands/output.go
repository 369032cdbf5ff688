package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/sqve/avalanche/internal/config"
)

var (
	mutedColor  = lipgloss.Color("#9CA3AF")
	headerColor = lipgloss.Color("#6B7280")
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(headerColor).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printTable renders rows as a bordered table, or as space separated lines
// in plain mode.
func printTable(out io.Writer, headers []string, rows [][]string) {
	if config.IsPlain() {
		for _, row := range rows {
			_, _ = fmt.Fprintln(out, strings.Join(row, "  "))
		}
		return
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(mutedColor)).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)

	_, _ = fmt.Fprintln(out, t)
}

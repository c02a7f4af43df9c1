package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/x/ansi"
	"github.com/charmbracelet/x/term"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	deniedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Padding(0, 1)
)

// minCellWidth keeps narrow terminals from truncating every cell to "...".
const minCellWidth = 12

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(f.Fd())
}

// terminalWidth returns the width of w in columns, or 0 if unknown.
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return 0
	}
	width, _, err := term.GetSize(f.Fd())
	if err != nil {
		return 0
	}
	return width
}

// truncateCell shortens s to maxWidth visual columns, adding "..." if
// truncated. Escape sequences and wide characters are measured correctly.
func truncateCell(s string, maxWidth int) string {
	if maxWidth <= 3 {
		return "..."
	}
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	return ansi.Truncate(s, maxWidth, "...")
}

// fitRows truncates every cell so a row of len(headers) cells fits in width.
// A width of 0 leaves rows untouched.
func fitRows(rows [][]string, columns, width int) [][]string {
	if width <= 0 || columns == 0 {
		return rows
	}
	// Each cell carries two padding columns and one border.
	maxCell := max(width/columns-3, minCellWidth)
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = make([]string, len(row))
		for j, cell := range row {
			out[i][j] = truncateCell(cell, maxCell)
		}
	}
	return out
}

// writeTable prints rows under headers. On a terminal it draws a bordered
// table and highlights rows for which highlight returns true; otherwise it
// writes tab-separated columns so the output stays easy to pipe.
func writeTable(w io.Writer, headers []string, rows [][]string, highlight func(row []string) bool) error {
	if !isTerminal(w) {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, strings.Join(headers, "\t"))
		for _, row := range rows {
			fmt.Fprintln(tw, strings.Join(row, "\t"))
		}
		return tw.Flush()
	}

	rows = fitRows(rows, len(headers), terminalWidth(w))
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case highlight != nil && row >= 0 && row < len(rows) && highlight(rows[row]):
				return deniedStyle
			default:
				return cellStyle
			}
		})
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

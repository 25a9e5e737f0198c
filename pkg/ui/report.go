// Package ui renders the output of the command line tool.
package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// Row is one line of a benchmark report.
type Row struct {
	Scenario  string
	Algorithm string
	Expected  string
	Rows      int
	Estimate  uint64
	Elapsed   time.Duration
	Memory    string
}

// Report is a titled table of benchmark rows with free-form summary lines.
type Report struct {
	Title   string
	Rows    []Row
	Summary []KeyValue
}

// KeyValue is one labelled summary line.
type KeyValue struct {
	Key   string
	Value string
}

var headers = []string{"Scenario", "Algorithm", "Rows", "Estimate", "Elapsed", "Memory"}

func (r Row) cells() []string {
	return []string{
		r.Scenario,
		r.Algorithm,
		humanize.Comma(int64(r.Rows)),
		humanize.Comma(int64(r.Estimate)),
		r.Elapsed.Round(time.Microsecond).String(),
		r.Memory,
	}
}

// Render draws the report. Algorithms that differ from the expected one are
// highlighted.
func (rep Report) Render() string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, r := range rep.Rows {
		for i, c := range r.cells() {
			widths[i] = max(widths[i], lipgloss.Width(c))
		}
	}

	lines := []string{renderLine(headers, widths, func(int) lipgloss.Style { return tableHeaderStyle })}
	for _, r := range rep.Rows {
		lines = append(lines, renderLine(r.cells(), widths, func(col int) lipgloss.Style {
			switch {
			case col != 1:
				return cellStyle
			case r.Expected != "" && r.Expected != r.Algorithm:
				return unexpectedStyle
			default:
				return algorithmStyle
			}
		}))
	}

	var b strings.Builder
	if rep.Title != "" {
		b.WriteString(titleStyle.Render(rep.Title))
		b.WriteString("\n")
	}
	b.WriteString(frameStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))
	if len(rep.Summary) > 0 {
		summary := make([]string, 0, len(rep.Summary))
		for _, kv := range rep.Summary {
			summary = append(summary, labelStyle.Render(kv.Key+":")+" "+kv.Value)
		}
		b.WriteString("\n")
		b.WriteString(footerStyle.Render(strings.Join(summary, "\n")))
	}
	b.WriteString("\n")
	return b.String()
}

func renderLine(cells []string, widths []int, style func(col int) lipgloss.Style) string {
	rendered := make([]string, len(cells))
	for i, c := range cells {
		s := style(i).Width(widths[i] + 2)
		if i >= 2 {
			s = s.Align(lipgloss.Right)
		}
		rendered[i] = s.Render(c)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

// RenderError draws a failure message.
func RenderError(err error) string {
	return errorStyle.Render("error") + " " + err.Error() + "\n"
}

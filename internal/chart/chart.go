// Package chart renders summaries to a terminal.
package chart

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// barWidth is the number of cells used by the longest bar.
const barWidth = 40

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	barStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	axisStyle  = lipgloss.NewStyle().Faint(true)
)

// Bar is one labelled value of a horizontal bar chart.
type Bar struct {
	Label string
	Value float64
}

// Bars draws a horizontal bar chart, one row per bar in the given order,
// scaled so the largest value spans the full width.
func Bars(w io.Writer, title, xLabel string, bars []Bar) error {
	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")

	labelWidth := 0
	peak := 0.0
	for _, bar := range bars {
		labelWidth = max(labelWidth, lipgloss.Width(bar.Label))
		peak = max(peak, bar.Value)
	}

	for _, bar := range bars {
		cells := 0
		if peak > 0 && bar.Value > 0 {
			cells = max(1, int(bar.Value/peak*barWidth+0.5))
		}
		pad := strings.Repeat(" ", labelWidth-lipgloss.Width(bar.Label))
		fmt.Fprintf(&b, "%s%s │%s %s\n",
			pad, bar.Label,
			barStyle.Render(strings.Repeat("█", cells)),
			humanize.CommafWithDigits(bar.Value, 1))
	}

	if xLabel != "" {
		fmt.Fprintf(&b, "%s  %s\n", strings.Repeat(" ", labelWidth), axisStyle.Render(xLabel))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Table writes tab-aligned rows under a header line.
func Table(w io.Writer, headers []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(headers, "\t"))

	rule := make([]string, len(headers))
	for i, h := range headers {
		rule[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(tw, strings.Join(rule, "\t"))

	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

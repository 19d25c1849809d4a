// Package components provides reusable UI components for the TUI.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/samber/lo"

	"github.com/j-veylop/sense-dashboard-tui/internal/ui/styles"
)

var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// RenderUsageChart creates an ASCII line chart of a usage series in watts.
// The y axis always starts at zero so the area under the line reads as load.
func RenderUsageChart(data []float64, width, height int, caption string) string {
	if len(data) == 0 {
		return styles.HelpStyle.Render("No data available")
	}

	// Ensure minimum dimensions
	width = max(width, 20)
	height = max(height, 3)

	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.LowerBound(0),
		asciigraph.Precision(0),
		asciigraph.SeriesColors(asciigraph.DarkCyan),
		asciigraph.Caption(caption),
	)
}

// RenderBarChart creates a simple horizontal bar chart.
func RenderBarChart(values []float64, labels []string, width int) string {
	if len(values) == 0 {
		return ""
	}

	maxVal := max(lo.Max(values), 0)
	if maxVal == 0 {
		maxVal = 1
	}

	maxLabelLen := 0
	for _, l := range labels {
		maxLabelLen = max(maxLabelLen, lipgloss.Width(l))
	}

	barWidth := max(width-maxLabelLen-10, 10) // Leave room for label and value

	var lines []string
	for i, v := range values {
		label := ""
		if i < len(labels) {
			label = labels[i]
		}

		paddedLabel := fmt.Sprintf("%*s", maxLabelLen, label)

		barLen := max(int((v/maxVal)*float64(barWidth)), 0)
		bar := lipgloss.NewStyle().Foreground(styles.Usage).Render(strings.Repeat("█", barLen))

		lines = append(lines, paddedLabel+" │"+bar+" "+styles.FormatWatts(v))
	}

	return strings.Join(lines, "\n")
}

// sparkIndex maps v onto sparkChars relative to maxVal.
func sparkIndex(v, maxVal float64) int {
	idx := int((v / maxVal) * float64(len(sparkChars)-1))
	return min(max(idx, 0), len(sparkChars)-1)
}

// sampleForWidth picks at most width values spread evenly over values.
func sampleForWidth(values []float64, width int) []float64 {
	if width <= 0 || len(values) == 0 {
		return nil
	}
	step := max(float64(len(values))/float64(width), 1)

	var out []float64
	for i := 0; i < width && int(float64(i)*step) < len(values); i++ {
		out = append(out, values[int(float64(i)*step)])
	}
	return out
}

// RenderSparkline creates a compact inline sparkline chart.
func RenderSparkline(values []float64, width int) string {
	if len(values) == 0 {
		return ""
	}

	maxVal := lo.Max(values)
	if maxVal <= 0 {
		maxVal = 1
	}

	var result strings.Builder
	for _, v := range sampleForWidth(values, width) {
		result.WriteRune(sparkChars[sparkIndex(v, maxVal)])
	}
	return result.String()
}

// RenderColoredSparkline creates a sparkline colored by load relative to the peak.
func RenderColoredSparkline(values []float64, width int) string {
	if len(values) == 0 {
		return ""
	}

	maxVal := lo.Max(values)
	if maxVal <= 0 {
		maxVal = 1
	}

	var result strings.Builder
	for _, v := range sampleForWidth(values, width) {
		style := styles.GetLoadStyle(v / maxVal)
		result.WriteString(style.Render(string(sparkChars[sparkIndex(v, maxVal)])))
	}
	return result.String()
}

// RenderLegend creates a chart legend.
func RenderLegend(items []LegendItem) string {
	var parts []string
	for _, item := range items {
		colorBox := lipgloss.NewStyle().Foreground(item.Color).Render("■")
		parts = append(parts, fmt.Sprintf("%s %s", colorBox, item.Label))
	}
	return strings.Join(parts, "  ")
}

// LegendItem represents a single legend entry.
type LegendItem struct {
	Label string
	Color lipgloss.Color
}

package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/sense-dashboard-tui/internal/logger"
	"github.com/j-veylop/sense-dashboard-tui/internal/ui/styles"
)

const (
	gaugeLow  = "#51cf66"
	gaugeHigh = "#ff6b6b"

	refreshFrom = "#6c5ce7"
	refreshTo   = "#ffd93d"
)

// LoadGauge renders a reading as a fraction of a scale, green to red.
type LoadGauge struct {
	progress progress.Model
}

// NewLoadGauge creates a gauge with the load gradient.
func NewLoadGauge() LoadGauge {
	p := progress.New(
		progress.WithScaledGradient(gaugeLow, gaugeHigh),
		progress.WithWidth(30),
		progress.WithoutPercentage(),
	)
	return LoadGauge{progress: p}
}

// View renders label, bar and the reading. A non-positive scale renders an
// empty bar.
func (g LoadGauge) View(value, scale float64, label string, width int) string {
	g.progress.Width = max(width-30, 10) // Reserve space for label and value

	fraction := 0.0
	if scale > 0 {
		fraction = min(max(value/scale, 0), 1)
	}
	bar := g.progress.ViewAs(fraction)

	valueStr := styles.GetLoadStyle(fraction).
		Width(8).
		Align(lipgloss.Right).
		Render(styles.FormatWatts(value))

	labelStr := styles.ProgressLabelStyle.Width(15).Render(label)

	return lipgloss.JoinHorizontal(lipgloss.Center, labelStr, bar, " ", valueStr)
}

// RenderGradientBar renders a bar filled to percent with gradient colors.
func RenderGradientBar(percent float64, width int, fromHex, toHex string) string {
	if width < 1 {
		return ""
	}

	filled := min(max(int(float64(width)*percent/100), 0), width)

	var barChars []string
	for i := range width {
		if i < filled {
			t := float64(i) / float64(max(1, width-1))
			color := interpolateColor(fromHex, toHex, t)
			style := lipgloss.NewStyle().Foreground(lipgloss.Color(color))
			barChars = append(barChars, style.Render("█"))
		} else {
			style := lipgloss.NewStyle().Foreground(styles.Subtle)
			barChars = append(barChars, style.Render("░"))
		}
	}

	return strings.Join(barChars, "")
}

// RenderRefreshBar shows how far the poll loop is towards its next fetch.
func RenderRefreshBar(elapsed, interval time.Duration, label string, width int) string {
	percent := 100.0
	if interval > 0 {
		percent = min(max(float64(elapsed)/float64(interval)*100, 0), 100)
	}

	remaining := max(interval-elapsed, 0).Round(time.Second)

	labelStr := lipgloss.NewStyle().Foreground(styles.TextSecondary).Render(label)
	barWidth := max(width-lipgloss.Width(label)-14, 5)
	bar := RenderGradientBar(percent, barWidth, refreshFrom, refreshTo)

	timeStr := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Width(8).
		Align(lipgloss.Right).
		Render(remaining.String())

	return fmt.Sprintf("%s [%s] %s", labelStr, bar, timeStr)
}

func interpolateColor(fromHex, toHex string, t float64) string {
	from := hexToRGB(fromHex)
	to := hexToRGB(toHex)

	r := int(float64(from[0]) + t*(float64(to[0])-float64(from[0])))
	g := int(float64(from[1]) + t*(float64(to[1])-float64(from[1])))
	b := int(float64(from[2]) + t*(float64(to[2])-float64(from[2])))

	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

func hexToRGB(hex string) [3]int {
	hex = strings.TrimPrefix(hex, "#")
	var r, g, b int
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
		logger.Error("failed to parse hex color", "hex", hex, "error", err)
		return [3]int{0, 0, 0}
	}
	return [3]int{r, g, b}
}
